package difftree

import (
	"github.com/go-git/go-revtree/plumbing/bounds"
	"github.com/go-git/go-revtree/plumbing/object"
)

// Filter decides whether a node or bucket is of interest. A pair is kept
// when the filter accepts either of its sides; absent sides are not passed
// to the filter. Filters are called concurrently and must not keep state.
type Filter func(object.Bounded) bool

// AcceptAll is the Filter accepting everything.
func AcceptAll(object.Bounded) bool {
	return true
}

// IntersectsFilter returns a Filter accepting the values whose envelope
// intersects env.
func IntersectsFilter(env bounds.Envelope) Filter {
	return func(b object.Bounded) bool {
		return b.Intersects(env)
	}
}

func (f Filter) acceptsNodes(left, right *object.NodeRef) bool {
	return (left != nil && f(left)) || (right != nil && f(right))
}

func (f Filter) acceptsBuckets(left, right *object.Bucket) bool {
	return (left != nil && f(left)) || (right != nil && f(right))
}
