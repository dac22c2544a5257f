// Package lazy provides deferred object construction and a two-tier cache
// that keeps recently used values alive and remembers any value still
// referenced elsewhere.
package lazy

import (
	"errors"
	"sync"
)

// ErrNilValue is returned when a constructor yields no value
var ErrNilValue = errors.New("lazy: constructor returned nil value")

// Object defers construction of a *T until first access. A successful
// construction runs exactly once; the result is kept for all later calls.
// A failed construction is not remembered and will be attempted again.
type Object[T any] struct {
	mu    sync.Mutex
	build func() (*T, error)
	value *T
}

// New wraps build without calling it
func New[T any](build func() (*T, error)) *Object[T] {
	return &Object[T]{build: build}
}

// Resolved wraps an already constructed value
func Resolved[T any](value *T) *Object[T] {
	return &Object[T]{value: value}
}

// Get returns the value, constructing it on first use
func (o *Object[T]) Get() (*T, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.value != nil {
		return o.value, nil
	}
	if o.build == nil {
		return nil, ErrNilValue
	}

	value, err := o.build()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNilValue
	}
	o.value = value
	o.build = nil
	return value, nil
}

// IsResolved reports whether the constructor has already produced the value
func (o *Object[T]) IsResolved() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value != nil
}
