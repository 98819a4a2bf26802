package stubs

import (
	"hbnb/src/domain"
	"hbnb/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

// Os stubs criam o modelo ligado ao store informado (que pode ser nil) e já
// preenchido com dados falsos. Nada é gravado até alguém chamar Save.

type StateStub struct {
	state *entities.State
}

func NewStateStub(store domain.Storage) StateStub {
	s := entities.NewState(store)
	s.Name = gofakeit.State()
	return StateStub{state: s}
}

func (ss StateStub) WithName(name string) StateStub {
	ss.state.Name = name
	return ss
}

func (ss StateStub) Get() *entities.State {
	return ss.state
}

type CityStub struct {
	city *entities.City
}

func NewCityStub(store domain.Storage, state *entities.State) CityStub {
	c := entities.NewCity(store)
	c.StateID = state.ID
	c.Name = gofakeit.City()
	return CityStub{city: c}
}

func (cs CityStub) WithName(name string) CityStub {
	cs.city.Name = name
	return cs
}

func (cs CityStub) Get() *entities.City {
	return cs.city
}

type UserStub struct {
	user *entities.User
}

func NewUserStub(store domain.Storage) UserStub {
	u := entities.NewUser(store)
	u.Email = gofakeit.Email()
	u.Password = gofakeit.Password(true, true, true, false, false, 12)
	u.FirstName = gofakeit.FirstName()
	u.LastName = gofakeit.LastName()
	return UserStub{user: u}
}

func (us UserStub) WithEmail(email string) UserStub {
	us.user.Email = email
	return us
}

func (us UserStub) Get() *entities.User {
	return us.user
}

type AmenityStub struct {
	amenity *entities.Amenity
}

func NewAmenityStub(store domain.Storage) AmenityStub {
	a := entities.NewAmenity(store)
	a.Name = gofakeit.Word()
	return AmenityStub{amenity: a}
}

func (as AmenityStub) Get() *entities.Amenity {
	return as.amenity
}

type PlaceStub struct {
	place *entities.Place
}

func NewPlaceStub(store domain.Storage, city *entities.City, owner *entities.User) PlaceStub {
	p := entities.NewPlace(store)
	p.CityID = city.ID
	p.UserID = owner.ID
	p.Name = gofakeit.Street()
	p.Description = gofakeit.Sentence(8)
	p.NumberRooms = gofakeit.Number(1, 6)
	p.NumberBathrooms = gofakeit.Number(1, 3)
	p.MaxGuest = gofakeit.Number(1, 10)
	p.PriceByNight = gofakeit.Number(30, 400)
	p.Latitude = gofakeit.Latitude()
	p.Longitude = gofakeit.Longitude()
	return PlaceStub{place: p}
}

func (ps PlaceStub) WithAmenities(amenities ...*entities.Amenity) PlaceStub {
	for _, a := range amenities {
		ps.place.AddAmenity(a)
	}
	return ps
}

func (ps PlaceStub) Get() *entities.Place {
	return ps.place
}

type ReviewStub struct {
	review *entities.Review
}

func NewReviewStub(store domain.Storage, place *entities.Place, author *entities.User) ReviewStub {
	r := entities.NewReview(store)
	r.PlaceID = place.ID
	r.UserID = author.ID
	r.Text = gofakeit.Sentence(12)
	return ReviewStub{review: r}
}

func (rs ReviewStub) Get() *entities.Review {
	return rs.review
}
