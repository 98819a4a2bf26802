package entities_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/storage"
	"hbnb/src/test_artefacts/comparer"
	"hbnb/src/test_artefacts/stubs"
)

var _ = Describe("BaseModel", func() {
	var (
		ctx   context.Context
		store *storage.FileStorage
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewFileStorage(nil, filepath.Join(GinkgoT().TempDir(), "file.json"), nil)
		Expect(store.Reload(ctx)).To(Succeed())
	})

	Context("when a model is created fresh", func() {
		It("should get a uuid, equal timestamps and be registered in the storage", func() {
			user := entities.NewUser(store)

			_, err := uuid.Parse(user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.CreatedAt).To(Equal(user.UpdatedAt))
			Expect(user.Key()).To(Equal("User." + user.ID))

			found, err := store.Get(ctx, "User", user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeIdenticalTo(user))
		})

		It("should give each instance a distinct id", func() {
			Expect(entities.NewState(store).ID).NotTo(Equal(entities.NewState(store).ID))
		})

		It("should start with the declared defaults", func() {
			place := entities.NewPlace(store)

			Expect(place.NumberRooms).To(Equal(0))
			Expect(place.Latitude).To(Equal(0.0))
			Expect(place.AmenityIDs).To(BeEmpty())
			Expect(place.Name).To(Equal(""))
		})
	})

	Context("when serializing", func() {
		It("should produce the flat map with class and text timestamps", func() {
			state := stubs.NewStateStub(store).WithName("California").Get()

			attrs := state.ToMap()

			Expect(attrs).To(HaveKeyWithValue("__class__", "State"))
			Expect(attrs).To(HaveKeyWithValue("id", state.ID))
			Expect(attrs).To(HaveKeyWithValue("name", "California"))
			Expect(attrs).To(HaveKeyWithValue("created_at", domain.FormatTime(state.CreatedAt)))
			Expect(attrs["updated_at"]).To(MatchRegexp(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}$`))
		})

		It("should render the string form without the class marker", func() {
			state := stubs.NewStateStub(store).WithName("Nevada").Get()

			rendered := state.String()

			prefix := "[State] (" + state.ID + ") "
			Expect(rendered).To(HavePrefix(prefix))
			Expect(rendered).NotTo(ContainSubstring("__class__"))

			var attrs map[string]any
			Expect(json.Unmarshal([]byte(strings.TrimPrefix(rendered, prefix)), &attrs)).To(Succeed())
			Expect(attrs).To(HaveKeyWithValue("name", "Nevada"))
		})

		It("should not expose the internal list through ToMap", func() {
			place := entities.NewPlace(store)
			place.AmenityIDs = []string{"a"}

			attrs := place.ToMap()
			attrs["amenity_ids"].([]string)[0] = "changed"

			Expect(place.AmenityIDs).To(Equal([]string{"a"}))
		})
	})

	Context("when reconstructing from a map", func() {
		It("should round-trip every class to an equal model", func() {
			state := stubs.NewStateStub(store).Get()
			city := stubs.NewCityStub(store, state).Get()
			user := stubs.NewUserStub(store).Get()
			amenity := stubs.NewAmenityStub(store).Get()
			place := stubs.NewPlaceStub(store, city, user).WithAmenities(amenity).Get()
			review := stubs.NewReviewStub(store, place, user).Get()

			for _, original := range []domain.Model{state, city, user, amenity, place, review} {
				rebuilt, err := entities.FromMap(store, original.ToMap())
				Expect(err).NotTo(HaveOccurred())

				diff := cmp.Diff(original, rebuilt, comparer.Models())
				Expect(diff).To(BeEmpty(), "differences in %s", original.Key())
			}
		})

		It("should survive the JSON form with numbers decoded as float64", func() {
			user := stubs.NewUserStub(store).Get()
			city := stubs.NewCityStub(store, stubs.NewStateStub(store).Get()).Get()
			place := stubs.NewPlaceStub(store, city, user).Get()

			data, err := json.Marshal(place.ToMap())
			Expect(err).NotTo(HaveOccurred())

			var attrs map[string]any
			Expect(json.Unmarshal(data, &attrs)).To(Succeed())

			rebuilt, err := entities.FromMap(store, attrs)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(place, rebuilt, comparer.Models())).To(BeEmpty())
		})

		It("should not register the rebuilt model", func() {
			attrs := entities.NewAmenity(nil).ToMap()

			_, err := entities.FromMap(store, attrs)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Count(ctx, "Amenity")).To(Equal(0))
		})

		It("should ignore attributes the class does not declare", func() {
			attrs := entities.NewAmenity(nil).ToMap()
			attrs["color"] = "blue"

			rebuilt, err := entities.FromMap(store, attrs)
			Expect(err).NotTo(HaveOccurred())

			_, ok := rebuilt.Attribute("color")
			Expect(ok).To(BeFalse())
		})

		DescribeTable("should reject invalid input",
			func(mutate func(map[string]any), expected error) {
				attrs := entities.NewCity(nil).ToMap()
				mutate(attrs)

				_, err := entities.FromMap(store, attrs)
				Expect(err).To(MatchError(expected))
			},
			Entry("missing created_at", func(a map[string]any) { delete(a, "created_at") }, domain.ErrMissingRequiredField),
			Entry("missing updated_at", func(a map[string]any) { delete(a, "updated_at") }, domain.ErrMissingRequiredField),
			Entry("missing id", func(a map[string]any) { delete(a, "id") }, domain.ErrMissingRequiredField),
			Entry("numeric id", func(a map[string]any) { a["id"] = 42 }, domain.ErrInvalidType),
			Entry("timestamp in another layout", func(a map[string]any) { a["created_at"] = "2017-09-28 21:05:54" }, domain.ErrInvalidType),
			Entry("timestamp that is not text", func(a map[string]any) { a["updated_at"] = 1506632754 }, domain.ErrInvalidType),
			Entry("attribute with the wrong type", func(a map[string]any) { a["name"] = 3 }, domain.ErrInvalidType),
			Entry("unknown class", func(a map[string]any) { a["__class__"] = "BaseModel" }, domain.ErrUnknownClass),
			Entry("no class at all", func(a map[string]any) { delete(a, "__class__") }, domain.ErrUnknownClass),
		)
	})

	Context("when saving", func() {
		It("should refresh updated_at and persist through the bound storage", func() {
			user := stubs.NewUserStub(store).WithEmail("owner@hbnb.io").Get()
			before := *user

			Expect(user.Save(ctx)).To(Succeed())

			Expect(cmp.Diff(&before, user, comparer.Models(), comparer.IgnoreFieldsFor[entities.BaseModel]("UpdatedAt"))).To(BeEmpty())
			Expect(user.UpdatedAt).To(BeTemporally(">=", before.CreatedAt))
			Expect(cmp.Diff(domain.Now(), user.UpdatedAt, comparer.CloseTo(time.Second))).To(BeEmpty())
			Expect(user.Email).To(Equal("owner@hbnb.io"))
			Expect(store.State()).To(Equal(storage.FilePersisted))
		})

		It("should fail when the model is not bound to any storage", func() {
			amenity := entities.NewAmenity(nil)

			Expect(amenity.Save(ctx)).To(MatchError(entities.ErrDetached))
		})
	})

	Context("when setting attributes", func() {
		It("should coerce json numbers and reject wrong types", func() {
			place := entities.NewPlace(store)

			Expect(entities.SetAttribute(place, "max_guest", json.Number("4"))).To(Succeed())
			Expect(place.MaxGuest).To(Equal(4))

			Expect(entities.SetAttribute(place, "max_guest", "four")).To(MatchError(domain.ErrInvalidType))
			Expect(entities.SetAttribute(place, "max_guest", 2.5)).To(MatchError(domain.ErrInvalidType))
			Expect(entities.SetAttribute(place, "owner", "x")).To(MatchError(domain.ErrInvalidType))
		})
	})
})
