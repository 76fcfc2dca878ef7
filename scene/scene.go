package scene

import (
	"log"

	"github.com/GDBobby/vulkan/ecs"
)

// Scene owns a registry, the hierarchy root, the name dictionary and the
// active camera. Loaders (external collaborators) populate all four; the
// engine drives OnUpdate once per frame on the update thread.
type Scene struct {
	Registry   *ecs.Registry
	Dictionary *Dictionary
	Camera     *Camera

	root TreeNode

	// entities already warned about for having a script component
	// without a loaded script, so each is logged at most once
	scriptWarned map[uint32]struct{}
}

func NewScene(name string) *Scene {
	s := &Scene{
		Registry:     ecs.NewRegistry(),
		Dictionary:   NewDictionary(),
		Camera:       NewCamera(),
		scriptWarned: make(map[uint32]struct{}),
	}
	root := s.Registry.Create()
	s.root = NewTreeNode(root, name, name)
	s.Dictionary.Insert(name, root)
	return s
}

// Root returns the hierarchy root node.
func (s *Scene) Root() *TreeNode {
	return &s.root
}

// CreateEntity creates an entity and hangs it off the root node.
func (s *Scene) CreateEntity(name string) ecs.Entity {
	return s.CreateEntityAt(&s.root, name)
}

// CreateEntityAt creates an entity and inserts it under parent,
// registering its long name in the dictionary.
func (s *Scene) CreateEntityAt(parent *TreeNode, name string) ecs.Entity {
	e := s.Registry.Create()
	parent.AddChild(NewTreeNode(e, name, ""), s.Dictionary)
	return e
}

// OnUpdate runs every loaded script once. Entities whose script
// component has no script object are valid; each is noted once and then
// skipped silently. Scripts must route structural registry mutation
// through Registry.Defer; the queue is flushed after the pass.
func (s *Scene) OnUpdate(dt float32) {
	v := ecs.ViewOf[ScriptComponent](s.Registry)
	for v.Next() {
		e := v.Entity()
		sc := ecs.Get[ScriptComponent](s.Registry, e)
		if sc.Script == nil {
			if _, seen := s.scriptWarned[e.ID()]; !seen {
				s.scriptWarned[e.ID()] = struct{}{}
				log.Printf("scene: entity %d has no script (%s)", e.ID(), sc.Filepath)
			}
			continue
		}
		sc.Script.OnUpdate(dt)
	}
	s.Registry.Flush()
}
