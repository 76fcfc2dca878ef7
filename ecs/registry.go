package ecs

import (
	"log"
	"reflect"
)

// Entity is an opaque handle into a Registry. It carries no data of its
// own; all data lives in attached components. The zero value is Null.
type Entity struct {
	id      uint32
	version uint32
}

// Null is the sentinel returned by lookups that miss. Callers must check
// against it before using an entity.
var Null = Entity{}

// IsNull reports whether e is the null sentinel.
func (e Entity) IsNull() bool {
	return e == Null
}

func (e Entity) ID() uint32 {
	return e.id
}

// Registry owns entities and their component storage. Create, attach, get
// and remove are all O(1) amortized. A Registry is not safe for concurrent
// use; the engine mutates it on the update thread only and render systems
// only read it.
type Registry struct {
	versions []uint32
	free     []uint32
	stores   map[reflect.Type]anyStore
	deferred []func(*Registry)
}

func NewRegistry() *Registry {
	return &Registry{
		// id 0 is reserved so that the zero Entity is never alive
		versions: []uint32{0},
		stores:   make(map[reflect.Type]anyStore),
	}
}

// Create returns a fresh entity handle.
func (r *Registry) Create() Entity {
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		return Entity{id: id, version: r.versions[id]}
	}
	id := uint32(len(r.versions))
	r.versions = append(r.versions, 1)
	return Entity{id: id, version: 1}
}

// Destroy removes the entity and every component attached to it. The
// handle becomes invalid; a later Create may reuse the slot under a new
// version.
func (r *Registry) Destroy(e Entity) {
	if !r.Valid(e) {
		return
	}
	for _, s := range r.stores {
		s.remove(e.id)
	}
	r.versions[e.id]++
	r.free = append(r.free, e.id)
}

// Valid reports whether e refers to a live entity of this registry.
func (r *Registry) Valid(e Entity) bool {
	return e.id != 0 && int(e.id) < len(r.versions) && r.versions[e.id] == e.version
}

// Defer queues a structural mutation to run at the next Flush. Views are
// not stable across structural mutation, so code that needs to attach or
// destroy while iterating queues the change here instead.
func (r *Registry) Defer(f func(*Registry)) {
	r.deferred = append(r.deferred, f)
}

// Flush applies all deferred mutations in the order they were queued.
func (r *Registry) Flush() {
	pending := r.deferred
	r.deferred = nil
	for _, f := range pending {
		f(r)
	}
}

// anyStore is the type-erased view of a component store, enough for
// Destroy and view filtering.
type anyStore interface {
	remove(id uint32)
	has(id uint32) bool
	entities() []Entity
}

// store holds one component type densely, with a sparse index by entity
// id. Removal swap-deletes, so registry order is creation order until a
// structural mutation.
type store[T any] struct {
	index map[uint32]int
	dense []Entity
	data  []T
}

func (s *store[T]) has(id uint32) bool {
	_, ok := s.index[id]
	return ok
}

func (s *store[T]) entities() []Entity {
	return s.dense
}

func (s *store[T]) remove(id uint32) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.data[i] = s.data[last]
		s.index[s.dense[i].id] = i
	}
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	delete(s.index, id)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func storeOf[T any](r *Registry) *store[T] {
	t := typeOf[T]()
	if s, ok := r.stores[t]; ok {
		return s.(*store[T])
	}
	s := &store[T]{index: make(map[uint32]int)}
	r.stores[t] = s
	return s
}

// Attach adds a component of type T to e and returns a pointer to it. If
// e already has a T the existing component is replaced.
func Attach[T any](r *Registry, e Entity, c T) *T {
	if !r.Valid(e) {
		log.Panicf("ecs: attach %v to dead entity %d", typeOf[T](), e.id)
	}
	s := storeOf[T](r)
	if i, ok := s.index[e.id]; ok {
		s.data[i] = c
		return &s.data[i]
	}
	s.index[e.id] = len(s.dense)
	s.dense = append(s.dense, e)
	s.data = append(s.data, c)
	return &s.data[len(s.data)-1]
}

// Get returns the T attached to e. Looking up a component that is not
// attached is a programming error and panics; use TryGet to probe.
func Get[T any](r *Registry, e Entity) *T {
	s := storeOf[T](r)
	i, ok := s.index[e.id]
	if !ok {
		log.Panicf("ecs: entity %d has no %v", e.id, typeOf[T]())
	}
	return &s.data[i]
}

// TryGet returns the T attached to e, or nil if none is.
func TryGet[T any](r *Registry, e Entity) *T {
	s := storeOf[T](r)
	if i, ok := s.index[e.id]; ok {
		return &s.data[i]
	}
	return nil
}

// Has reports whether e has a T attached.
func Has[T any](r *Registry, e Entity) bool {
	return storeOf[T](r).has(e.id)
}

// Remove detaches the T from e. Removing a component that was never
// attached is a no-op.
func Remove[T any](r *Registry, e Entity) {
	storeOf[T](r).remove(e.id)
}

// Len returns the number of entities currently holding a T.
func Len[T any](r *Registry) int {
	return len(storeOf[T](r).dense)
}
