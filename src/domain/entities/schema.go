package entities

import (
	"context"
	"fmt"

	"hbnb/src/domain"
)

// Column descreve um atributo declarado de uma classe.
type Column struct {
	Name     string
	Kind     Kind
	Default  any
	Size     int
	Nullable bool
}

// Schema é a introspecção de uma classe: nome, tabela e atributos com tipos e defaults.
type Schema struct {
	Class   string
	Table   string
	Columns []Column

	blank func() model
}

// HasAttribute responde se a classe declara o atributo.
func (s *Schema) HasAttribute(name string) bool {
	_, ok := s.Column(name)
	return ok
}

func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ParseValue converte texto para o tipo declarado do atributo.
func (s *Schema) ParseValue(name string, text string) (any, error) {
	c, ok := s.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no attribute %s", domain.ErrInvalidType, s.Class, name)
	}
	return parseText(c.Kind, text)
}

// CoerceValue converte um valor já decodificado (JSON, banco) para o tipo declarado
// do atributo, sem tocar em nenhuma instância.
func (s *Schema) CoerceValue(name string, value any) (any, error) {
	for _, f := range s.blank().fields() {
		if f.name != name {
			continue
		}
		if err := f.set(value); err != nil {
			return nil, err
		}
		return f.value(), nil
	}
	return nil, fmt.Errorf("%w: %s has no attribute %s", domain.ErrInvalidType, s.Class, name)
}

func newSchema(class string, table string, blank func() model) *Schema {
	s := &Schema{Class: class, Table: table, blank: blank}

	for _, f := range blank().fields() {
		s.Columns = append(s.Columns, Column{
			Name:     f.name,
			Kind:     f.kind(),
			Default:  f.value(),
			Size:     f.size,
			Nullable: f.nullable,
		})
	}

	return s
}

var (
	StateSchema   = newSchema("State", "states", func() model { return &State{} })
	UserSchema    = newSchema("User", "users", func() model { return &User{} })
	CitySchema    = newSchema("City", "cities", func() model { return &City{} })
	AmenitySchema = newSchema("Amenity", "amenities", func() model { return &Amenity{} })
	PlaceSchema   = newSchema("Place", "places", func() model { return newBlankPlace() })
	ReviewSchema  = newSchema("Review", "reviews", func() model { return &Review{} })
)

// Schemas está em ordem de dependência: toda classe vem depois das classes que ela referencia.
func Schemas() []*Schema {
	return []*Schema{StateSchema, UserSchema, CitySchema, AmenitySchema, PlaceSchema, ReviewSchema}
}

func Lookup(class string) (*Schema, bool) {
	for _, s := range Schemas() {
		if s.Class == class {
			return s, true
		}
	}
	return nil, false
}

func ClassNames() []string {
	names := make([]string, 0, len(Schemas()))
	for _, s := range Schemas() {
		names = append(names, s.Class)
	}
	return names
}

// New cria uma instância nova da classe e a registra no storage.
func New(store domain.Storage, class string) (domain.Model, error) {
	s, ok := Lookup(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownClass, class)
	}

	m := s.blank()
	initFresh(store, m)
	return m, nil
}

// FromMap reconstrói um modelo a partir da forma serializada, despachando pelo __class__.
func FromMap(store domain.Storage, attrs map[string]any) (domain.Model, error) {
	class, ok := attrs[domain.ClassKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrUnknownClass, domain.ClassKey)
	}
	return Reconstruct(store, class, attrs)
}

// Reconstruct reconstrói um modelo da classe informada. O modelo não é registrado no storage.
func Reconstruct(store domain.Storage, class string, attrs map[string]any) (domain.Model, error) {
	s, ok := Lookup(class)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownClass, class)
	}

	m := s.blank()
	if err := initFromMap(store, m, attrs); err != nil {
		return nil, fmt.Errorf("%s: %w", class, err)
	}
	return m, nil
}

// SetAttribute atribui um atributo declarado em qualquer modelo deste pacote.
func SetAttribute(m domain.Model, name string, value any) error {
	typed, ok := m.(model)
	if !ok {
		return fmt.Errorf("%w: %T", domain.ErrUnknownClass, m)
	}
	return typed.base().SetAttribute(name, value)
}

// Save grava o modelo pelo storage ao qual ele está ligado, atualizando updated_at.
func Save(ctx context.Context, m domain.Model) error {
	typed, ok := m.(model)
	if !ok {
		return fmt.Errorf("%w: %T", domain.ErrUnknownClass, m)
	}
	return typed.base().Save(ctx)
}
