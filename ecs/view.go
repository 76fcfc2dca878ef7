package ecs

// View iterates the entities holding a given component combination, in
// registry order of the first component type. The sequence is lazy and
// restartable via Reset. Structurally mutating any of the viewed
// component sets while iterating is undefined behavior; use
// Registry.Defer for that.
type View struct {
	base   []Entity
	filter []anyStore
	i      int
	cur    Entity
}

// Next advances to the next matching entity. It returns false once the
// sequence is exhausted.
func (v *View) Next() bool {
outer:
	for v.i < len(v.base) {
		e := v.base[v.i]
		v.i++
		for _, s := range v.filter {
			if !s.has(e.id) {
				continue outer
			}
		}
		v.cur = e
		return true
	}
	v.cur = Null
	return false
}

// Entity returns the entity at the current position.
func (v *View) Entity() Entity {
	return v.cur
}

// Reset restarts the sequence from the beginning.
func (v *View) Reset() {
	v.i = 0
	v.cur = Null
}

// EachEntity collects the remaining entities of the view. Mostly useful
// in tests and diagnostics; hot paths should drive Next directly.
func (v *View) EachEntity(f func(Entity)) {
	for v.Next() {
		f(v.cur)
	}
}

// ViewOf iterates all entities holding an A.
func ViewOf[A any](r *Registry) *View {
	return &View{base: storeOf[A](r).dense}
}

// View2 iterates all entities holding both an A and a B.
func View2[A, B any](r *Registry) *View {
	return &View{
		base:   storeOf[A](r).dense,
		filter: []anyStore{storeOf[B](r)},
	}
}

// View3 iterates all entities holding an A, a B and a C.
func View3[A, B, C any](r *Registry) *View {
	return &View{
		base:   storeOf[A](r).dense,
		filter: []anyStore{storeOf[B](r), storeOf[C](r)},
	}
}
