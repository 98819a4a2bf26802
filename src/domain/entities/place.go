package entities

import (
	"context"
	"slices"

	"hbnb/src/domain"
)

type Place struct {
	BaseModel
	CityID          string
	UserID          string
	Name            string
	Description     string
	NumberRooms     int
	NumberBathrooms int
	MaxGuest        int
	PriceByNight    int
	Latitude        float64
	Longitude       float64

	// AmenityIDs é o lado persistido do muitos-para-muitos com Amenity.
	// No motor relacional ele espelha as linhas de place_amenity.
	AmenityIDs []string
}

func newBlankPlace() *Place {
	return &Place{AmenityIDs: []string{}}
}

func NewPlace(store domain.Storage) *Place {
	p := newBlankPlace()
	initFresh(store, p)
	return p
}

func (*Place) ClassName() string { return "Place" }

func (p *Place) fields() []field {
	return []field{
		{name: "city_id", ptr: &p.CityID, size: 60},
		{name: "user_id", ptr: &p.UserID, size: 60},
		{name: "name", ptr: &p.Name, size: 128},
		{name: "description", ptr: &p.Description, size: 1024, nullable: true},
		{name: "number_rooms", ptr: &p.NumberRooms},
		{name: "number_bathrooms", ptr: &p.NumberBathrooms},
		{name: "max_guest", ptr: &p.MaxGuest},
		{name: "price_by_night", ptr: &p.PriceByNight},
		{name: "latitude", ptr: &p.Latitude, nullable: true},
		{name: "longitude", ptr: &p.Longitude, nullable: true},
		{name: "amenity_ids", ptr: &p.AmenityIDs},
	}
}

func (p *Place) Reviews(ctx context.Context) ([]*Review, error) {
	return related[*Review](ctx, &p.BaseModel, PlaceReviews)
}

// Amenities resolve os ids de AmenityIDs; ids que não existem mais no storage são ignorados.
func (p *Place) Amenities(ctx context.Context) ([]*Amenity, error) {
	return related[*Amenity](ctx, &p.BaseModel, PlaceAmenities)
}

// AddAmenity acrescenta o id apenas se ainda não estiver presente.
// A alteração fica visível ao storage no próximo Save.
func (p *Place) AddAmenity(amenity *Amenity) {
	if amenity == nil || slices.Contains(p.AmenityIDs, amenity.ID) {
		return
	}
	p.AmenityIDs = append(p.AmenityIDs, amenity.ID)
}

// RemoveAmenity retira o id, se presente.
func (p *Place) RemoveAmenity(amenity *Amenity) {
	if amenity == nil {
		return
	}
	p.AmenityIDs = slices.DeleteFunc(p.AmenityIDs, func(id string) bool { return id == amenity.ID })
}
