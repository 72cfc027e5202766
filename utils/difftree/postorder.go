package difftree

import (
	"context"

	"github.com/go-git/go-revtree/plumbing/object"
	"github.com/go-git/go-revtree/plumbing/storer"
)

// PostOrderWalk reports the differences between two trees children first:
// the Tree or Bucket call for a node comes after the calls for everything
// below it.
//
// Subtrees and buckets can be skipped as a whole with a Filter, it is
// evaluated for each pair of tree nodes or buckets before descending into
// them.
type PostOrderWalk struct {
	preOrder *PreOrderWalk
}

// NewPostOrderWalk returns a walk from left to right, resolving each tree
// against its own storer.
func NewPostOrderWalk(left, right *object.RevTree, leftSource, rightSource storer.EncodedObjectStorer, opts ...WalkOption) *PostOrderWalk {
	return &PostOrderWalk{
		preOrder: NewPreOrderWalk(left, right, leftSource, rightSource, opts...),
	}
}

// Walk reports every difference to c.
func (w *PostOrderWalk) Walk(ctx context.Context, c Consumer) error {
	return w.WalkFilter(ctx, AcceptAll, c)
}

// WalkFilter reports to c the differences accepted by filter on either side.
// A tree or bucket rejected on both sides is neither reported nor descended
// into. A nil filter accepts everything.
//
// A *ProtocolError is returned if the underlying walk breaks the enter/exit
// pairing of trees or buckets.
func (w *PostOrderWalk) WalkFilter(ctx context.Context, filter Filter, c Consumer) error {
	dfc := newDepthFirstConsumer(filter, c)
	if err := w.preOrder.Walk(ctx, dfc); err != nil {
		return err
	}

	return dfc.checkClosed()
}
