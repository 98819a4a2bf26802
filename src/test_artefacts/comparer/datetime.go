package comparer

import (
	"time"

	"hbnb/src/domain"

	"github.com/google/go-cmp/cmp"
)

// Timestamps compara instantes pela forma texto persistida: UTC com microssegundos.
func Timestamps() cmp.Option {
	return cmp.Comparer(func(x, y time.Time) bool {
		return domain.FormatTime(x) == domain.FormatTime(y)
	})
}

// CloseTo aceita instantes a até tolerance de distância, em qualquer direção.
func CloseTo(tolerance time.Duration) cmp.Option {
	return cmp.Comparer(func(x, y time.Time) bool {
		diff := x.Sub(y)
		if diff < 0 {
			diff = -diff
		}
		return diff <= tolerance
	})
}
