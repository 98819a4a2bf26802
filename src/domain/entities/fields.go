package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"hbnb/src/domain"
)

// Kind é o tipo declarado de um atributo, usado para coerção de texto e para o DDL.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStringList:
		return "[]string"
	}
	return "unknown"
}

// field liga o nome serializado de um atributo ao campo Go que o guarda.
type field struct {
	name     string
	ptr      any
	size     int
	nullable bool
}

func (f field) kind() Kind {
	switch f.ptr.(type) {
	case *int:
		return KindInt
	case *float64:
		return KindFloat
	case *[]string:
		return KindStringList
	}
	return KindString
}

func (f field) value() any {
	switch v := f.ptr.(type) {
	case *string:
		return *v
	case *int:
		return *v
	case *float64:
		return *v
	case *[]string:
		out := make([]string, len(*v))
		copy(out, *v)
		return out
	}
	return nil
}

// set atribui value ao campo, aceitando as formas que chegam do JSON
// (float64, json.Number), do banco (int32/int64) ou já tipadas.
func (f field) set(value any) error {
	switch v := f.ptr.(type) {
	case *string:
		s, ok := value.(string)
		if !ok {
			return f.typeError(value)
		}
		*v = s
	case *int:
		i, ok := toInt(value)
		if !ok {
			return f.typeError(value)
		}
		*v = i
	case *float64:
		fl, ok := toFloat(value)
		if !ok {
			return f.typeError(value)
		}
		*v = fl
	case *[]string:
		list, ok := toStringList(value)
		if !ok {
			return f.typeError(value)
		}
		*v = list
	}
	return nil
}

func (f field) typeError(value any) error {
	return fmt.Errorf("%w: attribute %s expects %s, got %T", domain.ErrInvalidType, f.name, f.kind(), value)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toStringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return []string{}, true
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// parseText converte a forma textual digitada no console para o tipo declarado.
func parseText(kind Kind, text string) (any, error) {
	switch kind {
	case KindInt:
		i, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", domain.ErrInvalidType, text)
		}
		return i, nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", domain.ErrInvalidType, text)
		}
		return f, nil
	case KindStringList:
		if text == "" {
			return []string{}, nil
		}
		return strings.Split(text, ","), nil
	}
	return text, nil
}
