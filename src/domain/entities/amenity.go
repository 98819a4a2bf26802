package entities

import "hbnb/src/domain"

type Amenity struct {
	BaseModel
	Name string
}

func NewAmenity(store domain.Storage) *Amenity {
	a := &Amenity{}
	initFresh(store, a)
	return a
}

func (*Amenity) ClassName() string { return "Amenity" }

func (a *Amenity) fields() []field {
	return []field{
		{name: "name", ptr: &a.Name, size: 128},
	}
}
