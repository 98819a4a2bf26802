package storage_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/infra/postgres"
	"hbnb/src/repositories"
	"hbnb/src/storage"
	"hbnb/src/test_artefacts/stubs"
)

// fakeBackend guarda linhas na forma serializada, como o ModelQueryRepository devolve.
type fakeBackend struct {
	mu sync.Mutex

	rows     map[string]map[string]map[string]any
	applied  []repositories.UnitOfWork
	failNext error

	ensured int
	dropped int
	closed  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rows: make(map[string]map[string]map[string]any)}
}

func (f *fakeBackend) connector() storage.Connector {
	return func(ctx context.Context) (*storage.Backend, error) {
		return &storage.Backend{
			Reader: f,
			Writer: f,
			Schema: f,
			Close:  func() { f.closed = true },
		}, nil
	}
}

func (f *fakeBackend) SelectByClass(_ context.Context, schema *entities.Schema) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []map[string]any
	for _, row := range f.rows[schema.Class] {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeBackend) SelectByID(_ context.Context, schema *entities.Schema, id string) (map[string]any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[schema.Class][id]
	return row, ok, nil
}

func (f *fakeBackend) SelectRelated(_ context.Context, relation domain.Relation, ownerID string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []map[string]any
	switch relation.Kind {
	case domain.OneToMany:
		for _, row := range f.rows[relation.Target] {
			if row[relation.ForeignKey] == ownerID {
				out = append(out, row)
			}
		}
	case domain.ManyToMany:
		owner := f.rows[relation.Owner][ownerID]
		ids, _ := owner[relation.ListAttribute].([]string)
		for _, id := range ids {
			if row, ok := f.rows[relation.Target][id]; ok {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeBackend) Apply(_ context.Context, work repositories.UnitOfWork) ([]domain.ModelChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}

	f.applied = append(f.applied, work)

	var changes []domain.ModelChange
	for _, m := range work.Deletes {
		delete(f.rows[m.ClassName()], m.GetID())
		changes = append(changes, domain.ModelChange{Type: domain.ChangeDeleted, Key: m.Key(), Class: m.ClassName(), ID: m.GetID()})
	}
	for _, m := range work.Upserts {
		if f.rows[m.ClassName()] == nil {
			f.rows[m.ClassName()] = make(map[string]map[string]any)
		}
		f.rows[m.ClassName()][m.GetID()] = m.ToMap()
		changes = append(changes, domain.ModelChange{Type: domain.ChangeCreated, Key: m.Key(), Class: m.ClassName(), ID: m.GetID()})
	}
	return changes, nil
}

func (f *fakeBackend) EnsureSchema(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeBackend) DropSchema(context.Context) error {
	f.dropped++
	return nil
}

func classesOf(models []domain.Model) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.ClassName())
	}
	return out
}

var _ = Describe("DBStorage", func() {
	var (
		ctx      context.Context
		backend  *fakeBackend
		notifier *recordingNotifier
		store    *storage.DBStorage
		config   storage.DBConfig
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = newFakeBackend()
		notifier = &recordingNotifier{}
		config = storage.DBConfig{Params: postgres.Params{
			User: "hbnb_dev", Password: "hbnb_dev_pwd", Host: "localhost", Name: "hbnb_dev_db",
		}}
	})

	JustBeforeEach(func() {
		store = storage.NewDBStorage(nil, config, backend.connector(), notifier)
		Expect(store.Reload(ctx)).To(Succeed())
	})

	Context("when a connection parameter is missing", func() {
		BeforeEach(func() {
			config.Password = ""
		})

		It("should behave as a store that never persists", func() {
			Expect(store.Configured()).To(BeFalse())
			Expect(backend.ensured).To(Equal(0))

			user := entities.NewUser(store)
			Expect(user.Save(ctx)).To(Succeed())

			all, err := store.All(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())

			_, err = store.Get(ctx, "User", user.ID)
			Expect(err).To(MatchError(domain.ErrNotFound))
			Expect(backend.applied).To(BeEmpty())
		})
	})

	It("should ensure the schema on every reload and drop it only once in test mode", func() {
		config.DropOnInit = true
		testStore := storage.NewDBStorage(nil, config, backend.connector(), nil)

		Expect(testStore.Reload(ctx)).To(Succeed())
		Expect(testStore.Reload(ctx)).To(Succeed())

		Expect(backend.dropped).To(Equal(1))
		Expect(backend.ensured).To(Equal(3))
	})

	It("should fail the reload when the connection cannot be opened", func() {
		failing := storage.NewDBStorage(nil, config, func(context.Context) (*storage.Backend, error) {
			return nil, errors.New("connection refused")
		}, nil)

		Expect(failing.Reload(ctx)).To(MatchError(domain.ErrPersistenceFailure))
	})

	It("should show staged models before they are committed", func() {
		amenity := entities.NewAmenity(store)

		Expect(store.Pending()).To(Equal(1))
		found, err := store.Get(ctx, "Amenity", amenity.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeIdenticalTo(amenity))
		Expect(store.Count(ctx, "Amenity")).To(Equal(1))
		Expect(backend.rows).To(BeEmpty())
	})

	It("should commit parents before children and remove children before parents", func() {
		state := stubs.NewStateStub(store).Get()
		user := stubs.NewUserStub(store).Get()
		city := stubs.NewCityStub(store, state).Get()
		place := stubs.NewPlaceStub(store, city, user).Get()
		stubs.NewReviewStub(store, place, user)
		Expect(store.Save(ctx)).To(Succeed())

		Expect(backend.applied).To(HaveLen(1))
		Expect(classesOf(backend.applied[0].Upserts)).To(Equal([]string{"State", "User", "City", "Place", "Review"}))
		Expect(store.Pending()).To(Equal(0))

		store.Delete(state)
		store.Delete(place)
		Expect(store.Save(ctx)).To(Succeed())

		Expect(classesOf(backend.applied[1].Deletes)).To(Equal([]string{"Place", "State"}))
	})

	It("should keep the session and wrap the error when the commit fails", func() {
		user := stubs.NewUserStub(store).Get()
		backend.failNext = errors.New("deadlock detected")

		err := store.Save(ctx)
		Expect(err).To(MatchError(domain.ErrPersistenceFailure))
		Expect(err.Error()).To(ContainSubstring("deadlock detected"))
		Expect(store.Pending()).To(Equal(1))

		Expect(store.Save(ctx)).To(Succeed())
		Expect(backend.rows["User"]).To(HaveKey(user.ID))
	})

	It("should rebuild committed rows bound to the storage", func() {
		state := stubs.NewStateStub(store).WithName("Arizona").Get()
		Expect(store.Save(ctx)).To(Succeed())

		found, err := store.Get(ctx, "State", state.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).NotTo(BeIdenticalTo(state))
		Expect(found.(*entities.State).Name).To(Equal("Arizona"))
		Expect(found.(*entities.State).Storage()).To(BeIdenticalTo(store))
	})

	It("should hide staged deletes from reads", func() {
		state := stubs.NewStateStub(store).Get()
		Expect(store.Save(ctx)).To(Succeed())

		store.Delete(state)

		_, err := store.Get(ctx, "State", state.ID)
		Expect(err).To(MatchError(domain.ErrNotFound))
		Expect(store.Count(ctx, "State")).To(Equal(0))
	})

	It("should resolve one-to-many relations over committed and staged rows", func() {
		state := stubs.NewStateStub(store).Get()
		committed := stubs.NewCityStub(store, state).Get()
		Expect(store.Save(ctx)).To(Succeed())

		staged := stubs.NewCityStub(store, state).Get()

		cities, err := state.Cities(ctx)
		Expect(err).NotTo(HaveOccurred())

		ids := make([]string, 0, len(cities))
		for _, c := range cities {
			ids = append(ids, c.ID)
		}
		Expect(ids).To(ConsistOf(committed.ID, staged.ID))
	})

	It("should resolve the amenities of a place that is not committed yet", func() {
		wifi := stubs.NewAmenityStub(store).Get()
		Expect(store.Save(ctx)).To(Succeed())

		user := stubs.NewUserStub(store).Get()
		city := stubs.NewCityStub(store, stubs.NewStateStub(store).Get()).Get()
		place := stubs.NewPlaceStub(store, city, user).WithAmenities(wifi).Get()

		amenities, err := place.Amenities(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(amenities).To(HaveLen(1))
		Expect(amenities[0].ID).To(Equal(wifi.ID))
	})

	It("should hand the committed changes to the notifier", func() {
		amenity := stubs.NewAmenityStub(store).Get()
		Expect(store.Save(ctx)).To(Succeed())

		Expect(notifier.byKey()).To(HaveKeyWithValue(amenity.Key(), domain.ChangeCreated))
	})

	It("should drop the session and the connection on close", func() {
		entities.NewAmenity(store)

		store.Close()

		Expect(backend.closed).To(BeTrue())
		Expect(store.Pending()).To(Equal(0))
	})
})
