package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingRequiredField é retornado quando uma reconstrução não traz created_at/updated_at.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidType cobre id não textual, timestamp fora do formato ou valor de tipo errado.
	ErrInvalidType = errors.New("invalid type")

	// ErrPersistenceFailure envolve qualquer erro de commit/query do banco relacional.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrMalformedStore é registrado em log quando o arquivo não pode ser lido; nunca sobe para o chamador.
	ErrMalformedStore = errors.New("malformed store")

	ErrNotFound = errors.New("no instance found")

	ErrUnknownClass = errors.New("class doesn't exist")
)

// TimeFormat é o layout fixo usado para serializar created_at/updated_at.
const TimeFormat = "2006-01-02T15:04:05.000000"

// ClassKey é o nome do campo que carrega o tipo na forma serializada.
const ClassKey = "__class__"

// Now retorna o instante atual em UTC com precisão de microssegundos,
// que é tudo que o formato texto e a coluna TIMESTAMP conseguem guardar.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime interpreta um timestamp no layout fixo.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not in %s format", ErrInvalidType, value, TimeFormat)
	}
	return t.UTC(), nil
}

// ModelKey monta a chave composta "<Classe>.<id>".
func ModelKey(class string, id string) string {
	return class + "." + id
}

// SplitKey separa a chave composta em classe e id.
func SplitKey(key string) (string, string, bool) {
	return strings.Cut(key, ".")
}

// ############################################################
// ################# EVENTOS DE ALTERAÇÃO #####################
// ############################################################

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ModelChange descreve uma alteração que se tornou durável em um save.
type ModelChange struct {
	Type       ChangeType     `json:"type"`
	Key        string         `json:"key"`
	Class      string         `json:"class"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
