package entities

import (
	"context"

	"hbnb/src/domain"
)

type State struct {
	BaseModel
	Name string
}

func NewState(store domain.Storage) *State {
	s := &State{}
	initFresh(store, s)
	return s
}

func (*State) ClassName() string { return "State" }

func (s *State) fields() []field {
	return []field{
		{name: "name", ptr: &s.Name, size: 128},
	}
}

// Cities lista as cidades cujo state_id aponta para este estado.
func (s *State) Cities(ctx context.Context) ([]*City, error) {
	return related[*City](ctx, &s.BaseModel, StateCities)
}
