package difftree

import (
	"strconv"
	"sync"

	"github.com/petermattis/goid"

	"github.com/go-git/go-revtree/plumbing/object"
)

// pendingKey identifies an open tree or bucket. PreOrderWalk makes the enter
// and exit calls of a node from one goroutine, nested like a stack, so
// qualifying the path with the goroutine keeps subtrees compared at the
// same time from clashing.
type pendingKey struct {
	goroutine int64
	path      string
	bucket    bool
	depth     int
	index     int
}

func treeKey(left, right *object.NodeRef) pendingKey {
	return pendingKey{
		goroutine: goid.Get(),
		path:      refPath(left, right),
	}
}

func bucketKey(leftParent, rightParent *object.NodeRef, index, depth int) pendingKey {
	return pendingKey{
		goroutine: goid.Get(),
		path:      refPath(leftParent, rightParent),
		bucket:    true,
		depth:     depth,
		index:     index,
	}
}

func (k pendingKey) kind() string {
	if k.bucket {
		return "bucket"
	}

	return "tree"
}

func (k pendingKey) String() string {
	if !k.bucket {
		return k.path
	}

	return k.path + "/" + strconv.Itoa(k.depth) + "/" + strconv.Itoa(k.index)
}

func refPath(left, right *object.NodeRef) string {
	if left != nil {
		return left.Path()
	}

	return right.Path()
}

// pendingEntry is an entered tree or bucket waiting for its exit.
type pendingEntry interface {
	apply(c Consumer)
}

type treeEntry struct {
	left, right *object.NodeRef
	accepted    bool
}

func (e *treeEntry) apply(c Consumer) {
	if e.accepted {
		c.Tree(e.left, e.right)
	}
}

type bucketEntry struct {
	leftParent, rightParent *object.NodeRef
	index, depth            int
	left, right             *object.Bucket
	accepted                bool
}

func (e *bucketEntry) apply(c Consumer) {
	if e.accepted {
		c.Bucket(e.leftParent, e.rightParent, e.index, e.depth, e.left, e.right)
	}
}

// depthFirstConsumer turns pre-order events into post-order ones: features
// go straight to the Consumer, trees and buckets are held from their enter
// until their exit, when every child has already been reported.
type depthFirstConsumer struct {
	filter   Filter
	consumer Consumer

	// pending maps a pendingKey to its pendingEntry.
	pending sync.Map
}

func newDepthFirstConsumer(filter Filter, consumer Consumer) *depthFirstConsumer {
	if filter == nil {
		filter = AcceptAll
	}

	return &depthFirstConsumer{
		filter:   filter,
		consumer: consumer,
	}
}

// Feature forwards accepted features right away, it never stops the walk.
func (c *depthFirstConsumer) Feature(left, right *object.NodeRef) error {
	if left == nil && right == nil {
		return &ProtocolError{Op: "enter", Kind: "feature", Err: ErrAbsentPair}
	}

	if c.filter.acceptsNodes(left, right) {
		c.consumer.Feature(left, right)
	}

	return nil
}

// Tree opens the subtree and tells the walk whether to descend into it.
func (c *depthFirstConsumer) Tree(left, right *object.NodeRef) (bool, error) {
	if left == nil && right == nil {
		return false, &ProtocolError{Op: "enter", Kind: "tree", Err: ErrAbsentPair}
	}

	accept := c.filter.acceptsNodes(left, right)
	entry := &treeEntry{left: left, right: right, accepted: accept}
	if err := c.open(treeKey(left, right), entry); err != nil {
		return false, err
	}

	return accept, nil
}

// EndTree closes the subtree and reports it if it was accepted.
func (c *depthFirstConsumer) EndTree(left, right *object.NodeRef) error {
	if left == nil && right == nil {
		return &ProtocolError{Op: "exit", Kind: "tree", Err: ErrAbsentPair}
	}

	return c.close(treeKey(left, right))
}

// Bucket opens the bucket and tells the walk whether to descend into it.
func (c *depthFirstConsumer) Bucket(leftParent, rightParent *object.NodeRef, index, depth int, left, right *object.Bucket) (bool, error) {
	if (left == nil && right == nil) || (leftParent == nil && rightParent == nil) {
		return false, &ProtocolError{Op: "enter", Kind: "bucket", Err: ErrAbsentPair}
	}

	accept := c.filter.acceptsBuckets(left, right)
	entry := &bucketEntry{
		leftParent:  leftParent,
		rightParent: rightParent,
		index:       index,
		depth:       depth,
		left:        left,
		right:       right,
		accepted:    accept,
	}

	if err := c.open(bucketKey(leftParent, rightParent, index, depth), entry); err != nil {
		return false, err
	}

	return accept, nil
}

// EndBucket closes the bucket and reports it if it was accepted.
func (c *depthFirstConsumer) EndBucket(leftParent, rightParent *object.NodeRef, index, depth int, left, right *object.Bucket) error {
	if leftParent == nil && rightParent == nil {
		return &ProtocolError{Op: "exit", Kind: "bucket", Err: ErrAbsentPair}
	}

	return c.close(bucketKey(leftParent, rightParent, index, depth))
}

func (c *depthFirstConsumer) open(k pendingKey, e pendingEntry) error {
	if _, loaded := c.pending.LoadOrStore(k, e); loaded {
		return &ProtocolError{Op: "enter", Kind: k.kind(), Path: k.String(), Err: ErrEntryAlreadyPresent}
	}

	return nil
}

func (c *depthFirstConsumer) close(k pendingKey) error {
	v, ok := c.pending.LoadAndDelete(k)
	if !ok {
		return &ProtocolError{Op: "exit", Kind: k.kind(), Path: k.String(), Err: ErrNoPendingEntry}
	}

	v.(pendingEntry).apply(c.consumer)
	return nil
}

// checkClosed returns an error if any tree or bucket is still open.
func (c *depthFirstConsumer) checkClosed() error {
	var err error
	c.pending.Range(func(k, _ interface{}) bool {
		key := k.(pendingKey)
		err = &ProtocolError{Op: "walk", Kind: key.kind(), Path: key.String(), Err: ErrUnclosedEntry}
		return false
	})

	return err
}
