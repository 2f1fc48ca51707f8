package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ErrNoEncontrado is returned when a lookup by sku, id or date yields nothing.
var ErrNoEncontrado = errors.New("no encontrado")

// ValidationError reports missing or malformed input. The operation aborts
// before touching the store.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validacion: " + strings.Join(parts, ", ")
}

func nuevaValidacion(campo, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{campo: msg}}
}

// noEncontrado maps gorm's not-found to ErrNoEncontrado and wraps anything
// else as a storage failure.
func noEncontrado(err error, que string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", que, ErrNoEncontrado)
	}
	return fmt.Errorf("%s: %w", que, err)
}
