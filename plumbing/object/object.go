// Package object contains implementations of the objects that make up a
// revision tree: nodes, buckets and the trees holding them. Trees are
// content addressed and, once a level grows past a size threshold, sharded
// into hash buckets.
package object

import (
	"errors"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/bounds"
)

var (
	// ErrEmptyName is returned when a node without name is added to a tree.
	ErrEmptyName = errors.New("node name cannot be empty")
	// ErrMalformedTree is returned when a stored tree mixes buckets and
	// direct children.
	ErrMalformedTree = errors.New("malformed tree")
)

// Bounded is an entity with a spatial extent that a diff filter can be
// evaluated against. It is implemented by *NodeRef and *Bucket only.
type Bounded interface {
	// ObjectID returns the hash of the object the value points to.
	ObjectID() plumbing.Hash
	// Bounds returns the spatial extent of the value.
	Bounds() bounds.Envelope
	// Intersects reports whether the value's extent intersects env.
	Intersects(env bounds.Envelope) bool

	bounded()
}

// NodeType tells apart nodes pointing to subtrees from nodes pointing to
// features.
type NodeType int8

const (
	// TreeNode points to a RevTree.
	TreeNode NodeType = iota + 1
	// FeatureNode points to a feature object, it has no children.
	FeatureNode
)

func (t NodeType) String() string {
	switch t {
	case TreeNode:
		return "tree"
	case FeatureNode:
		return "feature"
	default:
		return "unknown"
	}
}

// ObjectType returns the type of the object the node points to.
func (t NodeType) ObjectType() plumbing.ObjectType {
	switch t {
	case TreeNode:
		return plumbing.TreeObject
	case FeatureNode:
		return plumbing.FeatureObject
	default:
		return plumbing.InvalidObject
	}
}

// Node is a named entry of a tree.
type Node struct {
	Name     string
	Hash     plumbing.Hash
	Type     NodeType
	Envelope bounds.Envelope
}

// NewFeatureNode returns a node pointing to the feature object h.
func NewFeatureNode(name string, h plumbing.Hash, env bounds.Envelope) Node {
	return Node{Name: name, Hash: h, Type: FeatureNode, Envelope: env}
}

// NewTreeNode returns a node pointing to t, its envelope is the one of the
// tree contents.
func NewTreeNode(name string, t *RevTree) Node {
	return Node{Name: name, Hash: t.Hash, Type: TreeNode, Envelope: t.Bounds()}
}

// IsTree reports whether the node points to a subtree.
func (n Node) IsTree() bool {
	return n.Type == TreeNode
}

// NodeRef is a node qualified by the path of the tree holding it.
type NodeRef struct {
	ParentPath string
	Node       Node
}

// NewNodeRef returns a reference to n as a child of parentPath.
func NewNodeRef(parentPath string, n Node) *NodeRef {
	return &NodeRef{ParentPath: parentPath, Node: n}
}

// RootRef returns the reference used for the root of a tree: it has no name
// and an empty path.
func RootRef(t *RevTree) *NodeRef {
	return NewNodeRef("", NewTreeNode("", t))
}

// Name returns the name of the referenced node.
func (r *NodeRef) Name() string {
	return r.Node.Name
}

// Path returns the full path of the referenced node.
func (r *NodeRef) Path() string {
	return JoinPath(r.ParentPath, r.Node.Name)
}

// Type returns the type of the referenced node.
func (r *NodeRef) Type() NodeType {
	return r.Node.Type
}

// ObjectID returns the hash of the referenced object.
func (r *NodeRef) ObjectID() plumbing.Hash {
	return r.Node.Hash
}

// Bounds returns the envelope of the referenced node.
func (r *NodeRef) Bounds() bounds.Envelope {
	return r.Node.Envelope
}

// Intersects reports whether the node envelope intersects env.
func (r *NodeRef) Intersects(env bounds.Envelope) bool {
	return r.Node.Envelope.Intersects(env)
}

func (r *NodeRef) String() string {
	return r.Node.Type.String() + " " + r.Path() + " " + r.Node.Hash.String()
}

func (*NodeRef) bounded() {}

// Bucket is a shard of the children of a tree. The bucket hash points to a
// RevTree one level deeper holding those children, directly or through
// further buckets.
type Bucket struct {
	Hash     plumbing.Hash
	Envelope bounds.Envelope
}

// ObjectID returns the hash of the tree holding the bucket contents.
func (b *Bucket) ObjectID() plumbing.Hash {
	return b.Hash
}

// Bounds returns the envelope of the bucket contents.
func (b *Bucket) Bounds() bounds.Envelope {
	return b.Envelope
}

// Intersects reports whether the bucket envelope intersects env.
func (b *Bucket) Intersects(env bounds.Envelope) bool {
	return b.Envelope.Intersects(env)
}

func (b *Bucket) String() string {
	return "bucket " + b.Hash.String()
}

func (*Bucket) bounded() {}

// JoinPath appends name to the parent path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}

	return parent + "/" + name
}
