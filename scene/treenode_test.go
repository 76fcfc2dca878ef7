package scene

import (
	"bytes"
	"log"
	"testing"

	"github.com/GDBobby/vulkan/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene("root")

	beach := s.Root().AddChild(NewTreeNode(s.Registry.Create(), "beach", ""), s.Dictionary)
	s.CreateEntityAt(beach, "duck")
	s.CreateEntityAt(beach, "lantern")

	volcano := s.Root().AddChild(NewTreeNode(s.Registry.Create(), "volcano", ""), s.Dictionary)
	s.CreateEntityAt(volcano, "lantern")
	return s
}

func TestLongNamesAreHierarchical(t *testing.T) {
	s := buildTestScene(t)

	duck := s.Dictionary.GetEntity("root::beach::duck")
	require.False(t, duck.IsNull())

	// same leaf name under different parents resolves to different
	// entities
	a := s.Dictionary.GetEntity("root::beach::lantern")
	b := s.Dictionary.GetEntity("root::volcano::lantern")
	require.False(t, a.IsNull())
	require.False(t, b.IsNull())
	assert.NotEqual(t, a, b)
}

func TestEveryNodeRegisteredExactlyOnce(t *testing.T) {
	s := buildTestScene(t)

	seen := make(map[string]ecs.Entity)
	nodes := 0
	s.Root().Walk(func(n *TreeNode, depth int) {
		nodes++
		_, dup := seen[n.LongName()]
		assert.False(t, dup, "long name %q not unique", n.LongName())
		seen[n.LongName()] = n.Entity()
	})
	assert.Equal(t, 6, nodes)
	assert.Equal(t, nodes, s.Dictionary.Len())

	// each registered long name resolves back to the node's entity
	for longName, entity := range seen {
		assert.Equal(t, entity, s.Dictionary.GetEntity(longName))
	}
}

func TestTraversalIsPreOrder(t *testing.T) {
	s := NewScene("root")
	a := s.Root().AddChild(NewTreeNode(s.Registry.Create(), "a", ""), s.Dictionary)
	s.CreateEntityAt(a, "a1")
	s.CreateEntityAt(a, "a2")
	s.Root().AddChild(NewTreeNode(s.Registry.Create(), "b", ""), s.Dictionary)

	var order []string
	s.Root().Walk(func(n *TreeNode, depth int) {
		order = append(order, n.Name())
	})
	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, order)
}

func TestDictionaryMissReturnsNull(t *testing.T) {
	s := buildTestScene(t)
	e := s.Dictionary.GetEntity("root::no::such::path")
	assert.True(t, e.IsNull())
	assert.False(t, s.Registry.Valid(e))
}

func TestDuplicateInsertKeepsFirst(t *testing.T) {
	d := NewDictionary()
	r := ecs.NewRegistry()
	first := r.Create()
	second := r.Create()

	d.Insert("root::duck", first)
	d.Insert("root::duck", second)
	assert.Equal(t, first, d.GetEntity("root::duck"))
	assert.Equal(t, 1, d.Len())
}

type countingScript struct {
	calls int
}

func (c *countingScript) OnUpdate(dt float32) {
	c.calls++
}

func TestSceneRunsScripts(t *testing.T) {
	s := NewScene("root")
	e := s.CreateEntity("duck")
	script := &countingScript{}
	ecs.Attach(s.Registry, e, ScriptComponent{Filepath: "scripts/duck.lua", Script: script})

	s.OnUpdate(0.016)
	s.OnUpdate(0.016)
	assert.Equal(t, 2, script.calls)
}

func TestScriptlessEntityWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	s := NewScene("root")
	e := s.CreateEntity("statue")
	ecs.Attach(s.Registry, e, ScriptComponent{Filepath: "scripts/statue.lua"})

	s.OnUpdate(0.016)
	first := buf.Len()
	assert.Greater(t, first, 0)

	s.OnUpdate(0.016)
	s.OnUpdate(0.016)
	assert.Equal(t, first, buf.Len(), "warning must be logged once per entity")
}
