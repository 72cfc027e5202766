package object

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/go-git/go-revtree/plumbing/storer"
)

// TreeBuilderOption configures a TreeBuilder.
type TreeBuilderOption func(*treeBuilderOptions)

type treeBuilderOptions struct {
	maxLeafSize int
}

// WithMaxLeafSize sets the number of children a tree level may hold before
// it is split into buckets. Values lower than one are ignored.
func WithMaxLeafSize(n int) TreeBuilderOption {
	return func(o *treeBuilderOptions) {
		if n > 0 {
			o.maxLeafSize = n
		}
	}
}

// TreeBuilder accumulates the children of a tree and writes it, and all its
// buckets, into an object storer. Subtrees must be written before the node
// pointing to them is put into the builder.
type TreeBuilder struct {
	s        storer.EncodedObjectStorer
	opts     treeBuilderOptions
	depth    int
	children *treemap.Map
}

// NewTreeBuilder returns an empty builder writing into s.
func NewTreeBuilder(s storer.EncodedObjectStorer, opts ...TreeBuilderOption) *TreeBuilder {
	o := treeBuilderOptions{maxLeafSize: DefaultMaxLeafSize}
	for _, opt := range opts {
		opt(&o)
	}

	return newTreeBuilder(s, o, 0)
}

// NewTreeBuilderFrom returns a builder preloaded with every child of t,
// wherever in the bucket hierarchy it is stored.
func NewTreeBuilderFrom(s storer.EncodedObjectStorer, t *RevTree, opts ...TreeBuilderOption) (*TreeBuilder, error) {
	b := NewTreeBuilder(s, opts...)
	if err := b.load(t); err != nil {
		return nil, err
	}

	return b, nil
}

func newTreeBuilder(s storer.EncodedObjectStorer, o treeBuilderOptions, depth int) *TreeBuilder {
	return &TreeBuilder{
		s:        s,
		opts:     o,
		depth:    depth,
		children: treemap.NewWithStringComparator(),
	}
}

func (b *TreeBuilder) load(t *RevTree) error {
	for _, n := range t.Children() {
		b.children.Put(n.Name, n)
	}

	for _, i := range t.BucketIndexes() {
		bt, err := GetTree(b.s, t.Buckets[i].Hash)
		if err != nil {
			return err
		}

		if err := b.load(bt); err != nil {
			return err
		}
	}

	return nil
}

// Put adds n to the tree, replacing any child with the same name.
func (b *TreeBuilder) Put(n Node) error {
	if n.Name == "" {
		return ErrEmptyName
	}

	if n.Type != TreeNode && n.Type != FeatureNode {
		return fmt.Errorf("node %q: unknown node type %d", n.Name, n.Type)
	}

	b.children.Put(n.Name, n)
	return nil
}

// Remove deletes the child called name, it returns false if there was none.
func (b *TreeBuilder) Remove(name string) bool {
	if _, found := b.children.Get(name); !found {
		return false
	}

	b.children.Remove(name)
	return true
}

// Get returns the child called name.
func (b *TreeBuilder) Get(name string) (Node, bool) {
	v, found := b.children.Get(name)
	if !found {
		return Node{}, false
	}

	return v.(Node), true
}

// Len returns the number of children added so far.
func (b *TreeBuilder) Len() int {
	return b.children.Size()
}

// Build writes the tree and returns it. Levels holding more children than
// the configured leaf size are split into buckets, recursively.
func (b *TreeBuilder) Build() (*RevTree, error) {
	if b.children.Empty() {
		return EmptyTree, nil
	}

	var (
		t   *RevTree
		err error
	)

	if b.children.Size() <= b.opts.maxLeafSize || b.depth >= MaxDepth {
		t, err = b.buildLeaf()
	} else {
		t, err = b.buildBuckets()
	}

	if err != nil {
		return nil, err
	}

	if err := WriteTree(b.s, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (b *TreeBuilder) buildLeaf() (*RevTree, error) {
	t := &RevTree{}

	it := b.children.Iterator()
	for it.Next() {
		n := it.Value().(Node)
		if n.Type == FeatureNode {
			t.Features = append(t.Features, n)
			t.Size++
			continue
		}

		sub, err := GetTree(b.s, n.Hash)
		if err != nil {
			return nil, fmt.Errorf("subtree %q: %w", n.Name, err)
		}

		t.Trees = append(t.Trees, n)
		t.Size += sub.Size
		t.NumTrees += sub.NumTrees + 1
	}

	return t, nil
}

func (b *TreeBuilder) buildBuckets() (*RevTree, error) {
	builders := make(map[int]*TreeBuilder)

	it := b.children.Iterator()
	for it.Next() {
		n := it.Value().(Node)
		i := BucketIndex(n.Name, b.depth)

		sub, ok := builders[i]
		if !ok {
			sub = newTreeBuilder(b.s, b.opts, b.depth+1)
			builders[i] = sub
		}

		sub.children.Put(n.Name, n)
	}

	t := &RevTree{Buckets: make(map[int]Bucket, len(builders))}
	for i, sub := range builders {
		bt, err := sub.Build()
		if err != nil {
			return nil, err
		}

		t.Buckets[i] = Bucket{Hash: bt.Hash, Envelope: bt.Bounds()}
		t.Size += bt.Size
		t.NumTrees += bt.NumTrees
	}

	return t, nil
}
