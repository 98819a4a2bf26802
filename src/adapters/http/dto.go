package http

import (
	"hbnb/src/domain"
	"hbnb/src/domain/entities"
)

// ModelDTO é a forma serializada do modelo, a mesma gravada pelo motor de arquivo.
type ModelDTO map[string]any

type ListDTO struct {
	Class string     `json:"class,omitempty"`
	Count int        `json:"count"`
	Items []ModelDTO `json:"items"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}

func MapModelToResponse(m domain.Model) ModelDTO {
	return ModelDTO(m.ToMap())
}

// MapModelsToResponse mantém a ordem de criação, a mesma das relações.
func MapModelsToResponse(class string, models []domain.Model) ListDTO {
	entities.SortModels(models)

	items := make([]ModelDTO, 0, len(models))
	for _, m := range models {
		items = append(items, MapModelToResponse(m))
	}

	return ListDTO{
		Class: class,
		Count: len(items),
		Items: items,
	}
}
