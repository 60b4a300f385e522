package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound means the requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation rejected")
	// ErrStoreUnavailable means the store failed; the operation had no effect on the cache.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotPersisted is returned when a create could not be written.
	ErrNotPersisted = fmt.Errorf("product not persisted: %w", ErrStoreUnavailable)
)

// ValidationError lists the rejected attributes by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation rejected: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
