package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y, Z float32
}

type velocity struct {
	X, Y, Z float32
}

type tag struct{}

func TestCreateDestroy(t *testing.T) {
	r := NewRegistry()

	a := r.Create()
	b := r.Create()
	require.True(t, r.Valid(a))
	require.True(t, r.Valid(b))
	assert.NotEqual(t, a, b)

	r.Destroy(a)
	assert.False(t, r.Valid(a))
	assert.True(t, r.Valid(b))

	// a destroyed slot may be reused, but under a new version so the
	// stale handle stays dead
	c := r.Create()
	assert.True(t, r.Valid(c))
	assert.False(t, r.Valid(a))
}

func TestNullIsNeverValid(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Valid(Null))
	assert.True(t, Null.IsNull())
	r.Create()
	assert.False(t, r.Valid(Null))
}

func TestAttachGetRemove(t *testing.T) {
	r := NewRegistry()
	e := r.Create()

	p := Attach(r, e, position{1, 2, 3})
	require.NotNil(t, p)
	assert.Equal(t, float32(2), p.Y)

	// Get returns the same storage the Attach pointer refers to
	p.Y = 7
	assert.Equal(t, float32(7), Get[position](r, e).Y)

	assert.True(t, Has[position](r, e))
	assert.False(t, Has[velocity](r, e))
	assert.Nil(t, TryGet[velocity](r, e))

	Remove[position](r, e)
	assert.False(t, Has[position](r, e))
	assert.Nil(t, TryGet[position](r, e))
}

func TestGetMissingPanics(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	assert.Panics(t, func() {
		Get[position](r, e)
	})
}

func TestDestroyDetachesAllComponents(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Attach(r, e, position{})
	Attach(r, e, velocity{})

	r.Destroy(e)
	assert.Equal(t, 0, Len[position](r))
	assert.Equal(t, 0, Len[velocity](r))
}

func TestViewMatchesSignature(t *testing.T) {
	r := NewRegistry()

	both := r.Create()
	Attach(r, both, position{})
	Attach(r, both, velocity{})

	posOnly := r.Create()
	Attach(r, posOnly, position{})

	seen := make(map[Entity]bool)
	v := View2[position, velocity](r)
	for v.Next() {
		seen[v.Entity()] = true
	}
	assert.True(t, seen[both])
	assert.False(t, seen[posOnly])
	assert.Len(t, seen, 1)
}

func TestViewIsRestartable(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 4; i++ {
		Attach(r, r.Create(), position{})
	}

	v := ViewOf[position](r)
	first := 0
	for v.Next() {
		first++
	}
	v.Reset()
	second := 0
	for v.Next() {
		second++
	}
	assert.Equal(t, 4, first)
	assert.Equal(t, 4, second)
}

func TestViewRegistryOrder(t *testing.T) {
	r := NewRegistry()
	var created []Entity
	for i := 0; i < 8; i++ {
		e := r.Create()
		Attach(r, e, position{X: float32(i)})
		created = append(created, e)
	}

	var got []Entity
	v := ViewOf[position](r)
	for v.Next() {
		got = append(got, v.Entity())
	}
	assert.Equal(t, created, got)
}

func TestView3(t *testing.T) {
	r := NewRegistry()
	e := r.Create()
	Attach(r, e, position{})
	Attach(r, e, velocity{})
	Attach(r, e, tag{})

	other := r.Create()
	Attach(r, other, position{})
	Attach(r, other, velocity{})

	count := 0
	v := View3[position, velocity, tag](r)
	for v.Next() {
		count++
		assert.Equal(t, e, v.Entity())
	}
	assert.Equal(t, 1, count)
}

func TestDeferredMutation(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		Attach(r, r.Create(), position{})
	}

	// destroying mid-iteration must go through the deferred queue
	v := ViewOf[position](r)
	for v.Next() {
		e := v.Entity()
		r.Defer(func(r *Registry) { r.Destroy(e) })
	}
	assert.Equal(t, 3, Len[position](r))

	r.Flush()
	assert.Equal(t, 0, Len[position](r))
}
