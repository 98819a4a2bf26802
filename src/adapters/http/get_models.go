package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"hbnb/src/domain"
	"hbnb/src/domain/entities"
)

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]int, len(entities.ClassNames()))
	for _, class := range entities.ClassNames() {
		n, err := s.store.Count(r.Context(), class)
		if err != nil {
			s.writeStorageError(w, "GetStats", err)
			return
		}
		stats[class] = n
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	class := r.PathValue("class")
	if _, ok := entities.Lookup(class); !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorDTO{Error: domain.ErrUnknownClass.Error()})
		return
	}

	all, err := s.store.All(r.Context(), class)
	if err != nil {
		s.writeStorageError(w, "ListModels", err)
		return
	}

	models := make([]domain.Model, 0, len(all))
	for _, m := range all {
		models = append(models, m)
	}

	s.writeJSON(w, http.StatusOK, MapModelsToResponse(class, models))
}

func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, http.StatusOK, MapModelToResponse(m))
}

func (s *Server) GetRelated(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.lookup(w, r)
	if !ok {
		return
	}

	relation, found := entities.RelationNamed(owner.ClassName(), r.PathValue("relation"))
	if !found {
		s.writeJSON(w, http.StatusNotFound, ErrorDTO{Error: "relation doesn't exist"})
		return
	}

	models, err := s.store.Related(r.Context(), owner, relation)
	if err != nil {
		s.writeStorageError(w, "GetRelated", err)
		return
	}

	s.writeJSON(w, http.StatusOK, MapModelsToResponse(relation.Target, models))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Model, bool) {
	class := r.PathValue("class")
	if _, ok := entities.Lookup(class); !ok {
		s.writeJSON(w, http.StatusNotFound, ErrorDTO{Error: domain.ErrUnknownClass.Error()})
		return nil, false
	}

	m, err := s.store.Get(r.Context(), class, r.PathValue("id"))
	if errors.Is(err, domain.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, ErrorDTO{Error: domain.ErrNotFound.Error()})
		return nil, false
	}
	if err != nil {
		s.writeStorageError(w, "GetModel", err)
		return nil, false
	}

	return m, true
}

func (s *Server) writeStorageError(w http.ResponseWriter, handler string, err error) {
	s.logger.Error("Server - storage error", "handler", handler, "error", err)
	s.writeJSON(w, http.StatusServiceUnavailable, ErrorDTO{Error: domain.ErrPersistenceFailure.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}
