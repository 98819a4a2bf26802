package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"hbnb/src/domain"

	"github.com/google/uuid"
)

var ErrDetached = errors.New("model is not bound to a storage")

// model é o que o pacote precisa de cada entidade concreta além do domain.Model.
type model interface {
	domain.Model
	base() *BaseModel
	fields() []field
}

// BaseModel carrega identidade e timestamps. As entidades concretas o embutem
// e são ligadas ao Storage injetado pelos construtores deste pacote.
type BaseModel struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	store domain.Storage
	self  model
}

func (b *BaseModel) base() *BaseModel { return b }

func (b *BaseModel) GetID() string { return b.ID }

func (b *BaseModel) GetCreatedAt() time.Time { return b.CreatedAt }

func (b *BaseModel) GetUpdatedAt() time.Time { return b.UpdatedAt }

func (b *BaseModel) Key() string {
	return domain.ModelKey(b.self.ClassName(), b.ID)
}

// Storage devolve o motor ao qual o modelo está ligado.
func (b *BaseModel) Storage() domain.Storage { return b.store }

// Save atualiza updated_at, registra de novo no storage e faz o commit.
func (b *BaseModel) Save(ctx context.Context) error {
	if b.store == nil {
		return ErrDetached
	}

	b.UpdatedAt = domain.Now()
	b.store.New(b.self)

	return b.store.Save(ctx)
}

// Delete remove o modelo do storage ligado. O efeito durável depende do próximo Save.
func (b *BaseModel) Delete() {
	if b.store == nil {
		return
	}
	b.store.Delete(b.self)
}

func (b *BaseModel) ToMap() map[string]any {
	fields := b.self.fields()
	attrs := make(map[string]any, len(fields)+4)

	for _, f := range fields {
		attrs[f.name] = f.value()
	}

	attrs["id"] = b.ID
	attrs["created_at"] = domain.FormatTime(b.CreatedAt)
	attrs["updated_at"] = domain.FormatTime(b.UpdatedAt)
	attrs[domain.ClassKey] = b.self.ClassName()

	return attrs
}

func (b *BaseModel) Attribute(name string) (any, bool) {
	switch name {
	case "id":
		return b.ID, true
	case "created_at":
		return b.CreatedAt, true
	case "updated_at":
		return b.UpdatedAt, true
	}

	for _, f := range b.self.fields() {
		if f.name == name {
			return f.value(), true
		}
	}
	return nil, false
}

// SetAttribute atribui um atributo declarado. id e timestamps não podem ser alterados por aqui.
func (b *BaseModel) SetAttribute(name string, value any) error {
	for _, f := range b.self.fields() {
		if f.name == name {
			return f.set(value)
		}
	}
	return fmt.Errorf("%w: %s has no attribute %s", domain.ErrInvalidType, b.self.ClassName(), name)
}

// String renderiza "[<Classe>] (<id>) <atributos>".
func (b *BaseModel) String() string {
	attrs := b.ToMap()
	delete(attrs, domain.ClassKey)

	rendered, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Sprintf("[%s] (%s) %v", b.self.ClassName(), b.ID, attrs)
	}

	return fmt.Sprintf("[%s] (%s) %s", b.self.ClassName(), b.ID, rendered)
}

// initFresh gera id/timestamps e registra o modelo como novo.
func initFresh(store domain.Storage, m model) {
	b := m.base()
	now := domain.Now()

	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.store = store
	b.self = m

	if store != nil {
		store.New(m)
	}
}

// initFromMap é o caminho de reconstrução: exige created_at e updated_at em texto,
// id textual, e atribui todo o resto que a classe declara.
func initFromMap(store domain.Storage, m model, attrs map[string]any) error {
	b := m.base()
	b.store = store
	b.self = m

	createdRaw, hasCreated := attrs["created_at"]
	updatedRaw, hasUpdated := attrs["updated_at"]
	if !hasCreated || !hasUpdated {
		return fmt.Errorf("%w: 'created_at' and 'updated_at' are required", domain.ErrMissingRequiredField)
	}

	idRaw, hasID := attrs["id"]
	if !hasID {
		return fmt.Errorf("%w: 'id' is required", domain.ErrMissingRequiredField)
	}
	id, ok := idRaw.(string)
	if !ok {
		return fmt.Errorf("%w: id must be a string, got %T", domain.ErrInvalidType, idRaw)
	}
	b.ID = id

	var err error
	if b.CreatedAt, err = parseTimestamp("created_at", createdRaw); err != nil {
		return err
	}
	if b.UpdatedAt, err = parseTimestamp("updated_at", updatedRaw); err != nil {
		return err
	}

	declared := make(map[string]bool, len(m.fields()))
	for _, f := range m.fields() {
		declared[f.name] = true
		value, ok := attrs[f.name]
		if !ok {
			continue
		}
		if err := f.set(value); err != nil {
			return err
		}
	}

	if ignored := undeclaredKeys(attrs, declared); len(ignored) > 0 {
		slog.Debug("entities - ignoring undeclared attributes", "class", m.ClassName(), "id", b.ID, "attributes", ignored)
	}

	return nil
}

// undeclaredKeys lista, ordenadas, as chaves que a classe não declara.
func undeclaredKeys(attrs map[string]any, declared map[string]bool) []string {
	var out []string
	for key := range attrs {
		switch key {
		case domain.ClassKey, "id", "created_at", "updated_at":
			continue
		}
		if !declared[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func parseTimestamp(name string, raw any) (time.Time, error) {
	text, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s must be a string, got %T", domain.ErrInvalidType, name, raw)
	}
	return domain.ParseTime(text)
}

// related resolve uma relação pelo storage ligado e converte para o tipo concreto.
// A ordem é estável: created_at e depois id.
func related[T domain.Model](ctx context.Context, b *BaseModel, relation domain.Relation) ([]T, error) {
	if b.store == nil {
		return nil, ErrDetached
	}

	models, err := b.store.Related(ctx, b.self, relation)
	if err != nil {
		return nil, err
	}

	SortModels(models)

	out := make([]T, 0, len(models))
	for _, m := range models {
		if typed, ok := m.(T); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}

// SortModels ordena por created_at e id.
func SortModels(models []domain.Model) {
	sort.SliceStable(models, func(i, j int) bool {
		ci, cj := models[i].GetCreatedAt(), models[j].GetCreatedAt()
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return models[i].GetID() < models[j].GetID()
	})
}
