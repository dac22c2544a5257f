package lazy

import (
	"weak"
)

// MultiCache stores values in two tiers: a bounded strong tier that keeps
// values alive, and an unbounded weak tier that resolves a key for as long as
// anyone still holds its value. Eviction only ever touches the strong tier.
//
// MultiCache is not safe for concurrent use.
type MultiCache[K comparable, V any] struct {
	maxsize   int
	strong    map[K]*V
	weak      map[K]weak.Pointer[V]
	clock     map[K]uint64
	tick      uint64
	droppable func(*V) bool
}

// NewMultiCache creates a cache keeping at most maxsize values alive
func NewMultiCache[K comparable, V any](maxsize int) *MultiCache[K, V] {
	if maxsize < 1 {
		maxsize = 1
	}
	return &MultiCache[K, V]{
		maxsize: maxsize,
		strong:  make(map[K]*V),
		weak:    make(map[K]weak.Pointer[V]),
		clock:   make(map[K]uint64),
	}
}

// NewLazyAwareCache creates a cache of lazy objects that evicts objects that
// were never resolved before any resolved ones
func NewLazyAwareCache[K comparable, T any](maxsize int) *MultiCache[K, Object[T]] {
	cache := NewMultiCache[K, Object[T]](maxsize)
	cache.droppable = func(o *Object[T]) bool {
		return !o.IsResolved()
	}
	return cache
}

// Set stores value under key in both tiers and trims the strong tier.
// value must not be nil.
func (c *MultiCache[K, V]) Set(key K, value *V) {
	if value == nil {
		panic("lazy: nil value stored in cache")
	}
	c.strong[key] = value
	c.weak[key] = weak.Make(value)
	c.touch(key)
	c.evict()
}

// Get resolves key through the weak tier. A hit on a key still held by the
// strong tier marks it as recently used.
func (c *MultiCache[K, V]) Get(key K) (*V, bool) {
	ptr, ok := c.weak[key]
	if !ok {
		return nil, false
	}
	value := ptr.Value()
	if value == nil {
		delete(c.weak, key)
		return nil, false
	}
	if _, held := c.strong[key]; held {
		c.touch(key)
	}
	return value, true
}

// Contains reports whether key still resolves to a live value
func (c *MultiCache[K, V]) Contains(key K) bool {
	ptr, ok := c.weak[key]
	if !ok {
		return false
	}
	if ptr.Value() == nil {
		delete(c.weak, key)
		return false
	}
	return true
}

// Len is the number of values held by the strong tier
func (c *MultiCache[K, V]) Len() int {
	return len(c.strong)
}

// Held reports whether key is in the strong tier
func (c *MultiCache[K, V]) Held(key K) bool {
	_, ok := c.strong[key]
	return ok
}

func (c *MultiCache[K, V]) touch(key K) {
	c.tick++
	c.clock[key] = c.tick
}

func (c *MultiCache[K, V]) evict() {
	for len(c.strong) > c.maxsize {
		victim, ok := c.oldest(true)
		if !ok {
			victim, _ = c.oldest(false)
		}
		delete(c.strong, victim)
		delete(c.clock, victim)
	}
}

// oldest picks the least recently touched key of the strong tier. With
// onlyDroppable set, keys rejected by the droppable hook are skipped.
func (c *MultiCache[K, V]) oldest(onlyDroppable bool) (K, bool) {
	var (
		victim K
		best   uint64
		found  bool
	)
	for key, value := range c.strong {
		if onlyDroppable && (c.droppable == nil || !c.droppable(value)) {
			continue
		}
		if t := c.clock[key]; !found || t < best {
			victim, best, found = key, t, true
		}
	}
	return victim, found
}
