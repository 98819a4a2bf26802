package storage

import (
	"sort"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
	"hbnb/src/repositories"
)

// session é a unidade de trabalho do motor relacional: o que foi registrado
// com New ou Delete e ainda não passou por um Save.
type session struct {
	upserts map[string]domain.Model
	deletes map[string]domain.Model
}

func newSession() *session {
	return &session{
		upserts: make(map[string]domain.Model),
		deletes: make(map[string]domain.Model),
	}
}

func (s *session) stage(m domain.Model) {
	key := m.Key()
	delete(s.deletes, key)
	s.upserts[key] = m
}

func (s *session) remove(m domain.Model) {
	key := m.Key()
	delete(s.upserts, key)
	s.deletes[key] = m
}

func (s *session) pending() int {
	return len(s.upserts) + len(s.deletes)
}

func (s *session) isDeleted(key string) bool {
	_, ok := s.deletes[key]
	return ok
}

// overlay aplica o que está pendente sobre o que veio do banco.
func (s *session) overlay(committed map[string]domain.Model, class string) {
	for key, m := range s.upserts {
		if class == "" || m.ClassName() == class {
			committed[key] = m
		}
	}
	for key := range s.deletes {
		delete(committed, key)
	}
}

// unitOfWork ordena os upserts dos pais para os filhos e as remoções ao contrário,
// para que as chaves estrangeiras sejam satisfeitas dentro da transação.
func (s *session) unitOfWork() repositories.UnitOfWork {
	return repositories.UnitOfWork{
		Upserts: orderByDependency(s.upserts, false),
		Deletes: orderByDependency(s.deletes, true),
	}
}

func orderByDependency(models map[string]domain.Model, reverse bool) []domain.Model {
	rank := make(map[string]int, len(entities.Schemas()))
	for i, schema := range entities.Schemas() {
		rank[schema.Class] = i
	}

	out := make([]domain.Model, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].ClassName()], rank[out[j].ClassName()]
		if ri != rj {
			if reverse {
				return ri > rj
			}
			return ri < rj
		}
		return out[i].Key() < out[j].Key()
	})

	return out
}
