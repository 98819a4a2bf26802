package comparer

import (
	"hbnb/src/domain/entities"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func IgnoreFieldsFor[T any](fields ...string) cmp.Option {
	var t T
	return cmpopts.IgnoreFields(t, fields...)
}

// Models compara entidades pelo estado público: o storage ligado e o ponteiro
// interno do BaseModel ficam de fora, e lista nil equivale a lista vazia.
func Models() cmp.Option {
	return cmp.Options{
		cmpopts.IgnoreUnexported(entities.BaseModel{}),
		cmpopts.EquateEmpty(),
	}
}
