package lazy

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	name string
}

func TestObjectBuildsOnce(t *testing.T) {
	calls := 0
	obj := New(func() (*sample, error) {
		calls++
		return &sample{name: "built"}, nil
	})

	assert.False(t, obj.IsResolved())
	assert.Equal(t, 0, calls)

	for i := 0; i < 5; i++ {
		v, err := obj.Get()
		require.NoError(t, err)
		assert.Equal(t, "built", v.name)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, obj.IsResolved())
}

func TestObjectRejectsNil(t *testing.T) {
	obj := New(func() (*sample, error) {
		return nil, nil
	})

	v, err := obj.Get()
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrNilValue)
	assert.False(t, obj.IsResolved())
}

func TestObjectRetriesAfterError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	obj := New(func() (*sample, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &sample{name: "second"}, nil
	})

	_, err := obj.Get()
	assert.ErrorIs(t, err, boom)

	v, err := obj.Get()
	require.NoError(t, err)
	assert.Equal(t, "second", v.name)
	assert.Equal(t, 2, calls)
}

func TestObjectConcurrentGet(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	obj := New(func() (*sample, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &sample{name: "shared"}, nil
	})

	var wg sync.WaitGroup
	results := make([]*sample, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := obj.Get()
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestResolved(t *testing.T) {
	value := &sample{name: "ready"}
	obj := Resolved(value)

	assert.True(t, obj.IsResolved())
	v, err := obj.Get()
	require.NoError(t, err)
	assert.Same(t, value, v)

	_, err = Resolved[sample](nil).Get()
	assert.ErrorIs(t, err, ErrNilValue)
}
