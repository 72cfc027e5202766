package difftree

import (
	"github.com/go-git/go-revtree/plumbing/object"
)

// Consumer receives the differences found by a PostOrderWalk. In every call
// at most one of left and right is nil: a nil left side is an addition, a
// nil right side a removal.
//
// The Tree and Bucket calls for a node are made after the calls for all of
// its children.
type Consumer interface {
	// Feature is called for every changed feature.
	Feature(left, right *object.NodeRef)
	// Tree is called for every changed subtree, including the root.
	Tree(left, right *object.NodeRef)
	// Bucket is called for every changed bucket, leftParent and
	// rightParent are the trees holding it. When only one of the trees
	// is split into buckets, each of its buckets is reported with the
	// other side nil, even if the children it holds are unchanged.
	Bucket(leftParent, rightParent *object.NodeRef, bucketIndex, bucketDepth int, left, right *object.Bucket)
}

// ConsumerFuncs is a Consumer made of optional functions, calls for nil
// functions are dropped.
type ConsumerFuncs struct {
	FeatureFunc func(left, right *object.NodeRef)
	TreeFunc    func(left, right *object.NodeRef)
	BucketFunc  func(leftParent, rightParent *object.NodeRef, bucketIndex, bucketDepth int, left, right *object.Bucket)
}

// Feature implements Consumer.
func (f ConsumerFuncs) Feature(left, right *object.NodeRef) {
	if f.FeatureFunc != nil {
		f.FeatureFunc(left, right)
	}
}

// Tree implements Consumer.
func (f ConsumerFuncs) Tree(left, right *object.NodeRef) {
	if f.TreeFunc != nil {
		f.TreeFunc(left, right)
	}
}

// Bucket implements Consumer.
func (f ConsumerFuncs) Bucket(leftParent, rightParent *object.NodeRef, bucketIndex, bucketDepth int, left, right *object.Bucket) {
	if f.BucketFunc != nil {
		f.BucketFunc(leftParent, rightParent, bucketIndex, bucketDepth, left, right)
	}
}

// PreOrderConsumer receives the events of a PreOrderWalk. Returning an error
// from any method aborts the walk, and the error is returned by Walk.
type PreOrderConsumer interface {
	// Feature is called for every changed feature.
	Feature(left, right *object.NodeRef) error
	// Tree is called when entering a changed subtree. Returning false
	// skips its children, EndTree is called anyway.
	Tree(left, right *object.NodeRef) (bool, error)
	// EndTree is called when leaving a subtree entered with Tree.
	EndTree(left, right *object.NodeRef) error
	// Bucket is called when entering a changed bucket of the trees
	// leftParent and rightParent. Returning false skips its contents,
	// EndBucket is called anyway.
	Bucket(leftParent, rightParent *object.NodeRef, bucketIndex, bucketDepth int, left, right *object.Bucket) (bool, error)
	// EndBucket is called when leaving a bucket entered with Bucket.
	EndBucket(leftParent, rightParent *object.NodeRef, bucketIndex, bucketDepth int, left, right *object.Bucket) error
}
