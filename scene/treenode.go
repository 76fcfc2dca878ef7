package scene

import (
	"log"
	"strings"

	"github.com/GDBobby/vulkan/ecs"
)

// TreeNode is a node of the scene hierarchy. Nodes reference ECS
// entities but do not own them; the hierarchy itself is a strict tree
// owned by the scene and rebuilt on every load.
type TreeNode struct {
	name     string
	longName string
	entity   ecs.Entity
	children []TreeNode
}

func NewTreeNode(entity ecs.Entity, name, longName string) TreeNode {
	return TreeNode{name: name, longName: longName, entity: entity}
}

func (n *TreeNode) Entity() ecs.Entity        { return n.entity }
func (n *TreeNode) Name() string              { return n.name }
func (n *TreeNode) LongName() string          { return n.longName }
func (n *TreeNode) Children() int             { return len(n.children) }
func (n *TreeNode) Child(i int) *TreeNode     { return &n.children[i] }
func (n *TreeNode) SetEntity(e ecs.Entity)    { n.entity = e }

// AddChild appends node to n's children, derives the child's long name
// from n's ("parent::child") and registers the child's entity in the
// dictionary under it. It returns the inserted child.
func (n *TreeNode) AddChild(node TreeNode, dictionary *Dictionary) *TreeNode {
	node.longName = n.longName + "::" + node.name
	n.children = append(n.children, node)
	child := &n.children[len(n.children)-1]
	dictionary.Insert(child.longName, child.entity)
	return child
}

// Walk visits the subtree rooted at n depth-first, pre-order. Every node
// is visited exactly once; depth is 0 for n itself.
func (n *TreeNode) Walk(f func(node *TreeNode, depth int)) {
	n.walk(f, 0)
}

func (n *TreeNode) walk(f func(node *TreeNode, depth int), depth int) {
	f(n, depth)
	for i := range n.children {
		n.children[i].walk(f, depth+1)
	}
}

// Traverse logs the subtree for startup diagnostics. Not a per-frame
// path.
func Traverse(node *TreeNode) {
	node.Walk(func(n *TreeNode, depth int) {
		log.Printf("%s%s", strings.Repeat(" ", depth*2), n.name)
	})
}
