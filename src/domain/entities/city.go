package entities

import (
	"context"

	"hbnb/src/domain"
)

type City struct {
	BaseModel
	StateID string
	Name    string
}

func NewCity(store domain.Storage) *City {
	c := &City{}
	initFresh(store, c)
	return c
}

func (*City) ClassName() string { return "City" }

func (c *City) fields() []field {
	return []field{
		{name: "state_id", ptr: &c.StateID, size: 60},
		{name: "name", ptr: &c.Name, size: 128},
	}
}

func (c *City) Places(ctx context.Context) ([]*Place, error) {
	return related[*Place](ctx, &c.BaseModel, CityPlaces)
}
