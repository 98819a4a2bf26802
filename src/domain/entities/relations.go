package entities

import "hbnb/src/domain"

var (
	StateCities = domain.Relation{
		Name: "cities", Owner: "State", Target: "City", Kind: domain.OneToMany,
		ForeignKey: "state_id", Cascade: true,
	}

	CityPlaces = domain.Relation{
		Name: "places", Owner: "City", Target: "Place", Kind: domain.OneToMany,
		ForeignKey: "city_id", Cascade: true,
	}

	UserPlaces = domain.Relation{
		Name: "places", Owner: "User", Target: "Place", Kind: domain.OneToMany,
		ForeignKey: "user_id", Cascade: true,
	}

	UserReviews = domain.Relation{
		Name: "reviews", Owner: "User", Target: "Review", Kind: domain.OneToMany,
		ForeignKey: "user_id", Cascade: true,
	}

	PlaceReviews = domain.Relation{
		Name: "reviews", Owner: "Place", Target: "Review", Kind: domain.OneToMany,
		ForeignKey: "place_id", Cascade: true,
	}

	PlaceAmenities = domain.Relation{
		Name: "amenities", Owner: "Place", Target: "Amenity", Kind: domain.ManyToMany,
		JoinTable: "place_amenity", OwnerColumn: "place_id", TargetColumn: "amenity_id",
		ListAttribute: "amenity_ids",
	}
)

func Relations() []domain.Relation {
	return []domain.Relation{StateCities, CityPlaces, UserPlaces, UserReviews, PlaceReviews, PlaceAmenities}
}

// ForeignKeyOf devolve a relação um-para-muitos que declara a coluna como chave estrangeira.
func ForeignKeyOf(class string, column string) (domain.Relation, bool) {
	for _, r := range Relations() {
		if r.Kind == domain.OneToMany && r.Target == class && r.ForeignKey == column {
			return r, true
		}
	}
	return domain.Relation{}, false
}

// ListRelationOf devolve a relação muitos-para-muitos guardada no atributo lista da classe.
func ListRelationOf(class string, column string) (domain.Relation, bool) {
	for _, r := range Relations() {
		if r.Kind == domain.ManyToMany && r.Owner == class && r.ListAttribute == column {
			return r, true
		}
	}
	return domain.Relation{}, false
}

// CascadesFrom lista as relações cujos dependentes somem junto com o dono da classe.
func CascadesFrom(class string) []domain.Relation {
	var out []domain.Relation
	for _, r := range Relations() {
		if r.Owner == class && r.Cascade {
			out = append(out, r)
		}
	}
	return out
}

// ManyToManyTargeting lista as relações muitos-para-muitos cujo alvo é a classe.
func ManyToManyTargeting(class string) []domain.Relation {
	var out []domain.Relation
	for _, r := range Relations() {
		if r.Kind == domain.ManyToMany && r.Target == class {
			out = append(out, r)
		}
	}
	return out
}

// RelationNamed procura a relação pelo nome do lado do dono, como "cities" em State.
func RelationNamed(owner string, name string) (domain.Relation, bool) {
	for _, r := range Relations() {
		if r.Owner == owner && r.Name == name {
			return r, true
		}
	}
	return domain.Relation{}, false
}
