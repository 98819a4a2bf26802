package entities

import (
	"context"

	"hbnb/src/domain"
)

type User struct {
	BaseModel
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NewUser(store domain.Storage) *User {
	u := &User{}
	initFresh(store, u)
	return u
}

func (*User) ClassName() string { return "User" }

func (u *User) fields() []field {
	return []field{
		{name: "email", ptr: &u.Email, size: 128},
		{name: "password", ptr: &u.Password, size: 128},
		{name: "first_name", ptr: &u.FirstName, size: 128, nullable: true},
		{name: "last_name", ptr: &u.LastName, size: 128, nullable: true},
	}
}

func (u *User) Places(ctx context.Context) ([]*Place, error) {
	return related[*Place](ctx, &u.BaseModel, UserPlaces)
}

func (u *User) Reviews(ctx context.Context) ([]*Review, error) {
	return related[*Review](ctx, &u.BaseModel, UserReviews)
}
