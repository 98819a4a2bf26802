package entities

import "hbnb/src/domain"

type Review struct {
	BaseModel
	PlaceID string
	UserID  string
	Text    string
}

func NewReview(store domain.Storage) *Review {
	r := &Review{}
	initFresh(store, r)
	return r
}

func (*Review) ClassName() string { return "Review" }

func (r *Review) fields() []field {
	return []field{
		{name: "place_id", ptr: &r.PlaceID, size: 60},
		{name: "user_id", ptr: &r.UserID, size: 60},
		{name: "text", ptr: &r.Text, size: 1024},
	}
}
