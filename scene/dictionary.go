package scene

import (
	"log"

	"github.com/GDBobby/vulkan/ecs"
)

// Dictionary resolves hierarchical path strings ("root::lantern::flame")
// to entities. It is rebuilt on every scene load.
type Dictionary struct {
	entries map[string]ecs.Entity
}

func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[string]ecs.Entity)}
}

// Insert registers entity under longName. Registering the same long name
// twice is a scene authoring error; the first registration wins and the
// collision is logged.
func (d *Dictionary) Insert(longName string, entity ecs.Entity) {
	if _, ok := d.entries[longName]; ok {
		log.Printf("dictionary: duplicate long name %q ignored", longName)
		return
	}
	d.entries[longName] = entity
}

// GetEntity returns the entity registered under longName, or ecs.Null if
// the path is absent. Callers must check for the sentinel before use.
func (d *Dictionary) GetEntity(longName string) ecs.Entity {
	if e, ok := d.entries[longName]; ok {
		return e
	}
	return ecs.Null
}

// Len returns the number of registered names.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// List logs all registered long names, for startup diagnostics.
func (d *Dictionary) List() {
	for name := range d.entries {
		log.Printf("dictionary entry: %s", name)
	}
}
