package entities_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/storage"
	"hbnb/src/test_artefacts/stubs"
)

var _ = Describe("Schema", func() {
	It("should list the classes parents first", func() {
		Expect(entities.ClassNames()).To(Equal([]string{"State", "User", "City", "Amenity", "Place", "Review"}))
	})

	It("should not know BaseModel as a stored class", func() {
		_, ok := entities.Lookup("BaseModel")
		Expect(ok).To(BeFalse())

		_, err := entities.New(nil, "BaseModel")
		Expect(err).To(MatchError(domain.ErrUnknownClass))
	})

	It("should describe the declared columns with kinds and defaults", func() {
		column, ok := entities.PlaceSchema.Column("price_by_night")
		Expect(ok).To(BeTrue())
		Expect(column.Kind).To(Equal(entities.KindInt))
		Expect(column.Default).To(Equal(0))

		column, ok = entities.PlaceSchema.Column("latitude")
		Expect(ok).To(BeTrue())
		Expect(column.Kind).To(Equal(entities.KindFloat))
		Expect(column.Nullable).To(BeTrue())

		column, ok = entities.ReviewSchema.Column("text")
		Expect(ok).To(BeTrue())
		Expect(column.Size).To(Equal(1024))

		Expect(entities.UserSchema.HasAttribute("email")).To(BeTrue())
		Expect(entities.UserSchema.HasAttribute("id")).To(BeFalse())
	})

	DescribeTable("ParseValue",
		func(schema *entities.Schema, name string, text string, expected any) {
			value, err := schema.ParseValue(name, text)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(expected))
		},
		Entry("int attribute", entities.PlaceSchema, "number_rooms", "4", 4),
		Entry("float attribute", entities.PlaceSchema, "latitude", "37.77", 37.77),
		Entry("string attribute", entities.StateSchema, "name", "San Francisco", "San Francisco"),
		Entry("list attribute", entities.PlaceSchema, "amenity_ids", "a,b", []string{"a", "b"}),
	)

	It("should refuse text that does not fit the declared kind", func() {
		_, err := entities.PlaceSchema.ParseValue("max_guest", "many")
		Expect(err).To(MatchError(domain.ErrInvalidType))

		_, err = entities.PlaceSchema.ParseValue("unknown", "1")
		Expect(err).To(MatchError(domain.ErrInvalidType))
	})

	DescribeTable("CoerceValue",
		func(name string, value any, expected any) {
			coerced, err := entities.PlaceSchema.CoerceValue(name, value)
			Expect(err).NotTo(HaveOccurred())
			Expect(coerced).To(Equal(expected))
		},
		Entry("whole float into int", "number_rooms", float64(3), 3),
		Entry("int into float", "latitude", 12, 12.0),
		Entry("decoded list", "amenity_ids", []any{"a", "b"}, []string{"a", "b"}),
	)

	It("should refuse decoded values of the wrong kind", func() {
		_, err := entities.PlaceSchema.CoerceValue("number_rooms", true)
		Expect(err).To(MatchError(domain.ErrInvalidType))

		_, err = entities.PlaceSchema.CoerceValue("name", 4.5)
		Expect(err).To(MatchError(domain.ErrInvalidType))

		_, err = entities.PlaceSchema.CoerceValue("unknown", "x")
		Expect(err).To(MatchError(domain.ErrInvalidType))
	})

	It("should create registered instances by class name", func() {
		store := storage.NewFileStorage(nil, filepath.Join(GinkgoT().TempDir(), "file.json"), nil)

		m, err := entities.New(store, "Review")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(BeAssignableToTypeOf(&entities.Review{}))
		Expect(store.Count(context.Background(), "Review")).To(Equal(1))
	})
})

var _ = Describe("Relations", func() {
	var (
		ctx   context.Context
		store *storage.FileStorage
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewFileStorage(nil, filepath.Join(GinkgoT().TempDir(), "file.json"), nil)
		Expect(store.Reload(ctx)).To(Succeed())
	})

	It("should declare the foreign keys of every one-to-many relation", func() {
		relation, ok := entities.ForeignKeyOf("City", "state_id")
		Expect(ok).To(BeTrue())
		Expect(relation).To(Equal(entities.StateCities))

		_, ok = entities.ForeignKeyOf("City", "name")
		Expect(ok).To(BeFalse())

		Expect(entities.CascadesFrom("User")).To(ConsistOf(entities.UserPlaces, entities.UserReviews))
		Expect(entities.ManyToManyTargeting("Amenity")).To(ConsistOf(entities.PlaceAmenities))
	})

	It("should resolve the cities of a state in creation order", func() {
		state := stubs.NewStateStub(store).Get()
		other := stubs.NewStateStub(store).Get()
		first := stubs.NewCityStub(store, state).Get()
		second := stubs.NewCityStub(store, state).Get()
		stubs.NewCityStub(store, other).Get()

		cities, err := state.Cities(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(cities).To(HaveLen(2))
		Expect([]string{cities[0].ID, cities[1].ID}).To(ConsistOf(first.ID, second.ID))
		Expect(cities[0].CreatedAt).To(BeTemporally("<=", cities[1].CreatedAt))
	})

	It("should resolve places and reviews from users and places", func() {
		user := stubs.NewUserStub(store).Get()
		city := stubs.NewCityStub(store, stubs.NewStateStub(store).Get()).Get()
		place := stubs.NewPlaceStub(store, city, user).Get()
		review := stubs.NewReviewStub(store, place, user).Get()

		places, err := user.Places(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(places).To(ConsistOf(place))

		reviews, err := place.Reviews(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(reviews).To(ConsistOf(review))

		reviews, err = user.Reviews(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(reviews).To(ConsistOf(review))

		places, err = city.Places(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(places).To(ConsistOf(place))
	})

	Context("place amenities", func() {
		var (
			place *entities.Place
			wifi  *entities.Amenity
			pool  *entities.Amenity
		)

		BeforeEach(func() {
			user := stubs.NewUserStub(store).Get()
			city := stubs.NewCityStub(store, stubs.NewStateStub(store).Get()).Get()
			place = stubs.NewPlaceStub(store, city, user).Get()
			wifi = stubs.NewAmenityStub(store).Get()
			pool = stubs.NewAmenityStub(store).Get()
		})

		It("should add the same amenity only once", func() {
			place.AddAmenity(wifi)
			place.AddAmenity(wifi)
			place.AddAmenity(pool)

			Expect(place.AmenityIDs).To(Equal([]string{wifi.ID, pool.ID}))

			amenities, err := place.Amenities(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(amenities).To(ConsistOf(wifi, pool))
		})

		It("should ignore nil and remove linked amenities", func() {
			place.AddAmenity(nil)
			place.AddAmenity(wifi)
			place.RemoveAmenity(wifi)
			place.RemoveAmenity(pool)

			Expect(place.AmenityIDs).To(BeEmpty())
		})

		It("should skip ids that no longer exist", func() {
			place.AmenityIDs = []string{wifi.ID, "missing"}

			amenities, err := place.Amenities(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(amenities).To(ConsistOf(wifi))
		})
	})

	It("should fail to resolve relations of a detached model", func() {
		_, err := entities.NewState(nil).Cities(ctx)
		Expect(err).To(MatchError(entities.ErrDetached))
	})
})
