package difftree

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/go-git/go-revtree/plumbing/object"
	"github.com/go-git/go-revtree/plumbing/storer"
	"github.com/go-git/go-revtree/utils/trace"
)

// PreOrderWalk reports the differences between two trees parents first. Nodes
// and buckets with the same hash on both sides are skipped without being
// read.
type PreOrderWalk struct {
	left, right             *object.RevTree
	leftSource, rightSource storer.EncodedObjectStorer
	opts                    walkOptions
}

// NewPreOrderWalk returns a walk from left to right. Each tree is resolved
// against its own storer, a nil tree is taken as the empty tree.
func NewPreOrderWalk(left, right *object.RevTree, leftSource, rightSource storer.EncodedObjectStorer, opts ...WalkOption) *PreOrderWalk {
	if left == nil {
		left = object.EmptyTree
	}

	if right == nil {
		right = object.EmptyTree
	}

	return &PreOrderWalk{
		left:        left,
		right:       right,
		leftSource:  leftSource,
		rightSource: rightSource,
		opts:        newWalkOptions(opts),
	}
}

// Walk reports the differences to c. It stops at the first error returned by
// c, by the storers or by ctx.
func (w *PreOrderWalk) Walk(ctx context.Context, c PreOrderConsumer) error {
	if w.left.Hash == w.right.Hash {
		return nil
	}

	wk := &walker{
		ctx:         ctx,
		c:           c,
		leftSource:  w.leftSource,
		rightSource: w.rightSource,
		parallelism: w.opts.parallelism,
	}

	left, right := object.RootRef(w.left), object.RootRef(w.right)
	trace.Walk.Printf("difftree: walk %s..%s", w.left.Hash, w.right.Hash)

	descend, err := c.Tree(left, right)
	if err != nil {
		return err
	}

	if descend {
		if err := wk.compareTrees(left, right, w.left, w.right, 0); err != nil {
			return err
		}
	}

	return c.EndTree(left, right)
}

type walker struct {
	ctx                     context.Context
	c                       PreOrderConsumer
	leftSource, rightSource storer.EncodedObjectStorer
	parallelism             int
}

func (w *walker) withContext(ctx context.Context) *walker {
	cp := *w
	cp.ctx = ctx
	return &cp
}

// compareTrees compares the contents of two trees at a given bucket depth.
// leftParent and rightParent are the nodes owning the trees, they stay the
// same while descending through buckets.
func (w *walker) compareTrees(leftParent, rightParent *object.NodeRef, left, right *object.RevTree, depth int) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	switch {
	case !left.IsBucketTree() && !right.IsBucketTree():
		return w.leafLeaf(leftParent, rightParent, left.Children(), right.Children())
	case left.IsBucketTree() && right.IsBucketTree():
		return w.bucketBucket(leftParent, rightParent, left, right, depth)
	case !left.IsBucketTree():
		return w.leafBucket(leftParent, rightParent, left.Children(), right, depth, true)
	default:
		return w.leafBucket(leftParent, rightParent, right.Children(), left, depth, false)
	}
}

// leafLeaf merges two name ordered lists of children.
func (w *walker) leafLeaf(leftParent, rightParent *object.NodeRef, left, right []object.Node) error {
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		var l, r *object.Node
		switch {
		case j >= len(right) || (i < len(left) && left[i].Name < right[j].Name):
			l = &left[i]
			i++
		case i >= len(left) || right[j].Name < left[i].Name:
			r = &right[j]
			j++
		default:
			l, r = &left[i], &right[j]
			i++
			j++
		}

		if err := w.node(leftParent, rightParent, l, r); err != nil {
			return err
		}
	}

	return nil
}

// node reports a pair of children with the same name. A node that only moved
// keeps its hash but not its envelope, so the whole node is compared.
func (w *walker) node(leftParent, rightParent *object.NodeRef, l, r *object.Node) error {
	if l != nil && r != nil {
		if *l == *r {
			return nil
		}

		if l.Type != r.Type {
			if err := w.node(leftParent, rightParent, l, nil); err != nil {
				return err
			}

			return w.node(leftParent, rightParent, nil, r)
		}
	}

	parent := refPath(leftParent, rightParent)

	var left, right *object.NodeRef
	typ := object.FeatureNode
	if l != nil {
		left = object.NewNodeRef(parent, *l)
		typ = l.Type
	}

	if r != nil {
		right = object.NewNodeRef(parent, *r)
		typ = r.Type
	}

	if typ == object.FeatureNode {
		return w.c.Feature(left, right)
	}

	return w.tree(left, right)
}

func (w *walker) tree(left, right *object.NodeRef) error {
	trace.Walk.Printf("difftree: tree %s", refPath(left, right))

	descend, err := w.c.Tree(left, right)
	if err != nil {
		return err
	}

	if descend {
		lt, err := w.resolveTree(w.leftSource, left)
		if err != nil {
			return err
		}

		rt, err := w.resolveTree(w.rightSource, right)
		if err != nil {
			return err
		}

		if err := w.compareTrees(left, right, lt, rt, 0); err != nil {
			return err
		}
	}

	return w.c.EndTree(left, right)
}

// bucketBucket compares the differing buckets of two bucket trees, each in its
// own goroutine.
func (w *walker) bucketBucket(leftParent, rightParent *object.NodeRef, left, right *object.RevTree, depth int) error {
	g, ctx := errgroup.WithContext(w.ctx)
	g.SetLimit(w.parallelism)
	sub := w.withContext(ctx)

	for _, index := range unionIndexes(left, right) {
		lb, lok := left.Buckets[index]
		rb, rok := right.Buckets[index]
		if lok && rok && lb.Hash == rb.Hash {
			continue
		}

		var lbucket, rbucket *object.Bucket
		if lok {
			lbucket = &lb
		}

		if rok {
			rbucket = &rb
		}

		index := index
		g.Go(func() error {
			return sub.bucket(leftParent, rightParent, index, depth, lbucket, rbucket,
				func() (*object.RevTree, *object.RevTree, error) {
					lt, err := sub.resolveBucket(sub.leftSource, lbucket)
					if err != nil {
						return nil, nil, err
					}

					rt, err := sub.resolveBucket(sub.rightSource, rbucket)
					return lt, rt, err
				})
		})
	}

	return g.Wait()
}

// leafBucket compares the children of a leaf tree against a bucket tree. The
// leaf children are split the way the bucket tree is, each bucket is then
// compared against its share of them. Children falling into a bucket the
// bucket tree does not have are reported on their own.
func (w *walker) leafBucket(leftParent, rightParent *object.NodeRef, leaf []object.Node, bucketed *object.RevTree, depth int, leafIsLeft bool) error {
	source := w.rightSource
	if !leafIsLeft {
		source = w.leftSource
	}

	groups := make(map[int][]object.Node)
	for _, n := range leaf {
		i := object.BucketIndex(n.Name, depth)
		groups[i] = append(groups[i], n)
	}

	g, ctx := errgroup.WithContext(w.ctx)
	g.SetLimit(w.parallelism)
	sub := w.withContext(ctx)

	for _, index := range bucketed.BucketIndexes() {
		b := bucketed.Buckets[index]
		share := leafTree(groups[index])
		delete(groups, index)

		index := index
		g.Go(func() error {
			if leafIsLeft {
				return sub.bucket(leftParent, rightParent, index, depth, nil, &b,
					func() (*object.RevTree, *object.RevTree, error) {
						bt, err := sub.resolveBucket(source, &b)
						return share, bt, err
					})
			}

			return sub.bucket(leftParent, rightParent, index, depth, &b, nil,
				func() (*object.RevTree, *object.RevTree, error) {
					bt, err := sub.resolveBucket(source, &b)
					return bt, share, err
				})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var rest []object.Node
	for _, nodes := range groups {
		rest = append(rest, nodes...)
	}

	sort.Slice(rest, func(i, j int) bool {
		return rest[i].Name < rest[j].Name
	})

	for i := range rest {
		var err error
		if leafIsLeft {
			err = w.node(leftParent, rightParent, &rest[i], nil)
		} else {
			err = w.node(leftParent, rightParent, nil, &rest[i])
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// bucket reports one bucket pair, contents is only called when the consumer
// asks to descend into it.
func (w *walker) bucket(leftParent, rightParent *object.NodeRef, index, depth int, lb, rb *object.Bucket,
	contents func() (*object.RevTree, *object.RevTree, error)) error {
	trace.Walk.Printf("difftree: bucket %s/%d/%d", refPath(leftParent, rightParent), depth, index)

	descend, err := w.c.Bucket(leftParent, rightParent, index, depth, lb, rb)
	if err != nil {
		return err
	}

	if descend {
		lt, rt, err := contents()
		if err != nil {
			return err
		}

		if err := w.compareTrees(leftParent, rightParent, lt, rt, depth+1); err != nil {
			return err
		}
	}

	return w.c.EndBucket(leftParent, rightParent, index, depth, lb, rb)
}

func (w *walker) resolveTree(s storer.EncodedObjectStorer, ref *object.NodeRef) (*object.RevTree, error) {
	if ref == nil {
		return object.EmptyTree, nil
	}

	t, err := object.GetTree(s, ref.ObjectID())
	if err != nil {
		return nil, fmt.Errorf("resolving tree %q: %w", ref.Path(), err)
	}

	return t, nil
}

func (w *walker) resolveBucket(s storer.EncodedObjectStorer, b *object.Bucket) (*object.RevTree, error) {
	if b == nil {
		return object.EmptyTree, nil
	}

	t, err := object.GetTree(s, b.Hash)
	if err != nil {
		return nil, fmt.Errorf("resolving bucket: %w", err)
	}

	return t, nil
}

func unionIndexes(left, right *object.RevTree) []int {
	seen := make(map[int]struct{}, len(left.Buckets)+len(right.Buckets))
	for i := range left.Buckets {
		seen[i] = struct{}{}
	}

	for i := range right.Buckets {
		seen[i] = struct{}{}
	}

	idx := make([]int, 0, len(seen))
	for i := range seen {
		idx = append(idx, i)
	}

	sort.Ints(idx)
	return idx
}

// leafTree returns an unsaved leaf tree holding nodes.
func leafTree(nodes []object.Node) *object.RevTree {
	t := &object.RevTree{}
	for _, n := range nodes {
		if n.IsTree() {
			t.Trees = append(t.Trees, n)
		} else {
			t.Features = append(t.Features, n)
		}
	}

	return t
}
