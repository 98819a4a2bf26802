package console_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hbnb/src/adapters/console"
	"hbnb/src/domain/entities"
	"hbnb/src/storage"
	"hbnb/src/test_artefacts/stubs"
)

var _ = Describe("Console", func() {
	var (
		ctx   context.Context
		path  string
		store *storage.FileStorage
		out   *bytes.Buffer
		cmd   *console.Console
	)

	run := func(line string) string {
		out.Reset()
		cmd.Execute(ctx, line)
		return strings.TrimRight(out.String(), "\n")
	}

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "file.json")
		store = storage.NewFileStorage(nil, path, nil)
		Expect(store.Reload(ctx)).To(Succeed())

		out = &bytes.Buffer{}
		cmd = console.NewConsole(nil, store, out)
	})

	Context("create", func() {
		It("should print the new id and persist the instance", func() {
			id := run("create State")

			Expect(id).NotTo(BeEmpty())

			reloaded := storage.NewFileStorage(nil, path, nil)
			Expect(reloaded.Reload(ctx)).To(Succeed())
			_, err := reloaded.Get(ctx, "State", id)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should apply typed key=value parameters and skip the invalid ones", func() {
			id := run(`create Place name="My_little_house" number_rooms=4 latitude=37.77 max_guest=lots color="red" id="fixed"`)

			found, err := store.Get(ctx, "Place", id)
			Expect(err).NotTo(HaveOccurred())

			place := found.(*entities.Place)
			Expect(place.Name).To(Equal("My little house"))
			Expect(place.NumberRooms).To(Equal(4))
			Expect(place.Latitude).To(Equal(37.77))
			Expect(place.MaxGuest).To(Equal(0))
			Expect(place.ID).To(Equal(id))
		})

		DescribeTable("should report bad class names",
			func(line string, message string) {
				Expect(run(line)).To(Equal(message))
			},
			Entry("missing", "create", "** class name missing **"),
			Entry("unknown", "create MyModel", "** class doesn't exist **"),
			Entry("abstract base", "create BaseModel", "** class doesn't exist **"),
		)
	})

	Context("show and destroy", func() {
		It("should show the string form of an instance", func() {
			state := stubs.NewStateStub(store).WithName("Utah").Get()

			Expect(run("show State " + state.ID)).To(Equal(state.String()))
			Expect(run(`State.show("` + state.ID + `")`)).To(Equal(state.String()))
		})

		It("should destroy an instance and persist the removal", func() {
			state := stubs.NewStateStub(store).Get()
			Expect(store.Save(ctx)).To(Succeed())

			Expect(run("destroy State " + state.ID)).To(BeEmpty())
			Expect(run("show State " + state.ID)).To(Equal("** no instance found **"))

			reloaded := storage.NewFileStorage(nil, path, nil)
			Expect(reloaded.Reload(ctx)).To(Succeed())
			Expect(reloaded.Count(ctx, "State")).To(Equal(0))
		})

		DescribeTable("should validate the arguments in order",
			func(line string, message string) {
				Expect(run(line)).To(Equal(message))
			},
			Entry("no class", "show", "** class name missing **"),
			Entry("unknown class", "show Nope 1", "** class doesn't exist **"),
			Entry("no id", "show User", "** instance id missing **"),
			Entry("unknown id", "show User 1234", "** no instance found **"),
			Entry("destroy without id", "destroy User", "** instance id missing **"),
			Entry("destroy unknown id", "destroy User 1234", "** no instance found **"),
		)
	})

	Context("all and count", func() {
		It("should list every instance or the instances of one class", func() {
			state := stubs.NewStateStub(store).Get()
			amenity := stubs.NewAmenityStub(store).Get()

			Expect(run("all State")).To(Equal("['" + state.String() + "']"))
			Expect(run("State.all()")).To(Equal("['" + state.String() + "']"))

			all := run("all")
			Expect(all).To(ContainSubstring(state.String()))
			Expect(all).To(ContainSubstring(amenity.String()))

			Expect(run("all Review")).To(Equal("[]"))
			Expect(run("all Nope")).To(Equal("** class doesn't exist **"))
		})

		It("should count the instances of a class", func() {
			stubs.NewUserStub(store)
			stubs.NewUserStub(store)

			Expect(run("count User")).To(Equal("2"))
			Expect(run("User.count()")).To(Equal("2"))
			Expect(run("count City")).To(Equal("0"))
			Expect(run("count")).To(Equal("** class name missing **"))
		})
	})

	Context("update", func() {
		var place *entities.Place

		BeforeEach(func() {
			user := stubs.NewUserStub(store).Get()
			city := stubs.NewCityStub(store, stubs.NewStateStub(store).Get()).Get()
			place = stubs.NewPlaceStub(store, city, user).Get()
		})

		It("should set a single attribute with its declared type", func() {
			Expect(run("update Place " + place.ID + ` name "Beach house"`)).To(BeEmpty())
			Expect(run("update Place " + place.ID + " max_guest 6")).To(BeEmpty())

			Expect(place.Name).To(Equal("Beach house"))
			Expect(place.MaxGuest).To(Equal(6))
			Expect(store.State()).To(Equal(storage.FilePersisted))
		})

		It("should accept the dot form with a dictionary", func() {
			line := `Place.update("` + place.ID + `", {'name': "Loft", 'number_rooms': 3, "longitude": -122.4})`

			Expect(run(line)).To(BeEmpty())
			Expect(place.Name).To(Equal("Loft"))
			Expect(place.NumberRooms).To(Equal(3))
			Expect(place.Longitude).To(Equal(-122.4))
		})

		It("should leave the identity attributes untouched", func() {
			id := place.ID
			createdAt := place.CreatedAt

			Expect(run("update Place " + id + " id other")).To(BeEmpty())
			Expect(run("update Place " + id + " created_at 2017-01-01T00:00:00.000000")).To(BeEmpty())

			Expect(place.ID).To(Equal(id))
			Expect(place.CreatedAt).To(Equal(createdAt))
		})

		It("should not apply any pair of a dictionary when one of them is invalid", func() {
			name := place.Name

			Expect(run("update Place " + place.ID + ` {"name": "Loft", "max_guest": "many"}`)).To(Equal("** invalid value **"))
			Expect(place.Name).To(Equal(name))
		})

		It("should not apply any pair when a decoded value has the wrong kind", func() {
			place.Name = "orig"
			Expect(entities.Save(ctx, place)).To(Succeed())
			rooms := place.NumberRooms

			Expect(run("update Place " + place.ID + ` {"name": "changed", "number_rooms": true}`)).To(Equal("** invalid value **"))

			found, err := store.Get(ctx, "Place", place.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.(*entities.Place).Name).To(Equal("orig"))
			Expect(found.(*entities.Place).NumberRooms).To(Equal(rooms))

			reloaded := storage.NewFileStorage(nil, path, nil)
			Expect(reloaded.Reload(ctx)).To(Succeed())
			persisted, err := reloaded.Get(ctx, "Place", place.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(persisted.(*entities.Place).Name).To(Equal("orig"))
		})

		It("should keep the commas inside a quoted value of the positional dot form", func() {
			line := `Place.update("` + place.ID + `", "description", "cozy, quiet, close to the beach")`

			Expect(run(line)).To(BeEmpty())
			Expect(place.Description).To(Equal("cozy, quiet, close to the beach"))
		})

		DescribeTable("should report what is missing or wrong",
			func(suffix string, message string) {
				Expect(run("update Place " + place.ID + suffix)).To(Equal(message))
			},
			Entry("no attribute", "", "** attribute name missing **"),
			Entry("no value", " name", "** value missing **"),
			Entry("undeclared attribute", " color red", "** attribute doesn't exist **"),
			Entry("value of the wrong type", " number_rooms many", "** invalid value **"),
			Entry("broken dictionary", " {name: Loft}", "** invalid value **"),
		)
	})

	It("should answer unknown commands and dot calls with the syntax error", func() {
		Expect(run("fly User")).To(Equal("*** Unknown syntax: fly User"))
		Expect(run("User.fly()")).To(Equal("*** Unknown syntax: User.fly()"))
		Expect(run("")).To(BeEmpty())
	})

	It("should print help for a known topic", func() {
		Expect(run("help quit")).To(Equal("Exits the program"))
		Expect(run("help fly")).To(Equal("*** No help on fly"))
		Expect(run("help")).To(ContainSubstring("create"))
	})

	Context("Run", func() {
		It("should execute lines until quit", func() {
			input := strings.NewReader("create Amenity\ncount Amenity\nquit\ncreate Amenity\n")

			Expect(cmd.Run(ctx, input)).To(Succeed())

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[1]).To(Equal("1"))
			Expect(store.Count(ctx, "Amenity")).To(Equal(1))
		})

		It("should stop at the end of the input and print the prompt when interactive", func() {
			cmd.Interactive = true

			Expect(cmd.Run(ctx, strings.NewReader("count State\n"))).To(Succeed())

			Expect(out.String()).To(Equal(console.Prompt + "0\n" + console.Prompt + "\n"))
		})
	})
})
