package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"

	"github.com/go-faker/faker/v4"
)

const descriptionSize = 1024

type Options struct {
	States          int
	CitiesPerState  int
	Users           int
	Amenities       int
	PlacesPerCity   int
	ReviewsPerPlace int
	// AmenitiesPerPlace é o máximo; cada place recebe de 0 até esse valor.
	AmenitiesPerPlace int
}

func DefaultOptions() Options {
	return Options{
		States:            3,
		CitiesPerState:    2,
		Users:             5,
		Amenities:         6,
		PlacesPerCity:     2,
		ReviewsPerPlace:   2,
		AmenitiesPerPlace: 3,
	}
}

// normalized troca valores negativos por zero.
func (o Options) normalized() Options {
	for _, n := range []*int{
		&o.States, &o.CitiesPerState, &o.Users, &o.Amenities,
		&o.PlacesPerCity, &o.ReviewsPerPlace, &o.AmenitiesPerPlace,
	} {
		*n = max(*n, 0)
	}
	return o
}

type Seeder struct {
	logger *slog.Logger
	store  domain.Storage
}

func NewSeeder(logger *slog.Logger, store domain.Storage) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{logger: logger, store: store}
}

// Run gera o grafo completo em memória e grava tudo com um único Save.
// Devolve quantas instâncias de cada classe foram criadas.
func (s *Seeder) Run(ctx context.Context, opts Options) (map[string]int, error) {
	opts = opts.normalized()
	counts := make(map[string]int)

	users := make([]*entities.User, 0, opts.Users)
	for range opts.Users {
		users = append(users, s.newUser())
	}
	counts["User"] = len(users)

	amenities := make([]*entities.Amenity, 0, opts.Amenities)
	for range opts.Amenities {
		a := entities.NewAmenity(s.store)
		a.Name = faker.Word()
		amenities = append(amenities, a)
	}
	counts["Amenity"] = len(amenities)

	for range opts.States {
		address := faker.GetRealAddress()

		state := entities.NewState(s.store)
		state.Name = address.State
		counts["State"]++

		for range opts.CitiesPerState {
			city := entities.NewCity(s.store)
			city.StateID = state.ID
			city.Name = faker.GetRealAddress().City
			counts["City"]++

			if len(users) == 0 {
				continue
			}

			for range opts.PlacesPerCity {
				place := s.newPlace(city, users[rand.Intn(len(users))])
				counts["Place"]++

				for _, a := range pick(amenities, rand.Intn(opts.AmenitiesPerPlace+1)) {
					place.AddAmenity(a)
				}

				for range opts.ReviewsPerPlace {
					review := entities.NewReview(s.store)
					review.PlaceID = place.ID
					review.UserID = users[rand.Intn(len(users))].ID
					review.Text = faker.Sentence()
					counts["Review"]++
				}
			}
		}
	}

	if err := s.store.Save(ctx); err != nil {
		return nil, fmt.Errorf("Seeder.Run - %w", err)
	}

	s.logger.Info("Seed completed", "counts", counts)
	return counts, nil
}

func (s *Seeder) newUser() *entities.User {
	u := entities.NewUser(s.store)
	u.Email = faker.Email()
	u.Password = faker.Password()
	u.FirstName = faker.FirstName()
	u.LastName = faker.LastName()
	return u
}

func (s *Seeder) newPlace(city *entities.City, owner *entities.User) *entities.Place {
	address := faker.GetRealAddress()

	p := entities.NewPlace(s.store)
	p.CityID = city.ID
	p.UserID = owner.ID
	p.Name = address.Address
	p.Description = truncate(faker.Paragraph(), descriptionSize)
	p.NumberRooms = 1 + rand.Intn(5)
	p.NumberBathrooms = 1 + rand.Intn(3)
	p.MaxGuest = 1 + rand.Intn(8)
	p.PriceByNight = 30 + rand.Intn(300)
	p.Latitude = address.Coordinates.Latitude
	p.Longitude = address.Coordinates.Longitude
	return p
}

// truncate respeita o tamanho da coluna no motor relacional.
func truncate(text string, size int) string {
	runes := []rune(text)
	if len(runes) <= size {
		return text
	}
	return string(runes[:size])
}

func pick[T any](items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for _, i := range rand.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
