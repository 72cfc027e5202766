package difftree

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-git/go-revtree/plumbing/bounds"
	"github.com/go-git/go-revtree/plumbing/object"
	"github.com/go-git/go-revtree/storage/memory"
)

// fixture builds trees into a memory storage.
type fixture struct {
	t    testing.TB
	s    *memory.Storage
	opts []object.TreeBuilderOption
}

func newFixture(t testing.TB, opts ...object.TreeBuilderOption) *fixture {
	return &fixture{t: t, s: memory.NewStorage(), opts: opts}
}

// feature stores content and returns a node for it located at (x, y).
func (f *fixture) feature(name, content string, x, y float64) object.Node {
	h, err := object.WriteFeature(f.s, []byte(content))
	require.NoError(f.t, err)

	return object.NewFeatureNode(name, h, bounds.Point(x, y))
}

// tree builds a tree holding children and returns a node for it.
func (f *fixture) tree(name string, children ...object.Node) object.Node {
	return object.NewTreeNode(name, f.build(children...))
}

func (f *fixture) build(children ...object.Node) *object.RevTree {
	b := object.NewTreeBuilder(f.s, f.opts...)
	for _, c := range children {
		require.NoError(f.t, b.Put(c))
	}

	t, err := b.Build()
	require.NoError(f.t, err)

	return t
}

// features returns n features called prefix0..prefixN, laid on a diagonal.
func (f *fixture) features(prefix string, n int, version string) []object.Node {
	nodes := make([]object.Node, n)
	for i := 0; i < n; i++ {
		nodes[i] = f.feature(fmt.Sprintf("%s%d", prefix, i), version+fmt.Sprint(i), float64(i), float64(i))
	}

	return nodes
}

// recorder is a Consumer writing down every call it gets.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Feature(left, right *object.NodeRef) {
	r.add(fmt.Sprintf("feature %s %s", side(left), side(right)))
}

func (r *recorder) Tree(left, right *object.NodeRef) {
	r.add(fmt.Sprintf("tree %s %s", side(left), side(right)))
}

func (r *recorder) Bucket(leftParent, rightParent *object.NodeRef, index, depth int, left, right *object.Bucket) {
	r.add(fmt.Sprintf("bucket %s %s %d/%d %s %s",
		side(leftParent), side(rightParent), depth, index, bucketSide(left), bucketSide(right)))
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

// Features returns the feature events, sorted.
func (r *recorder) Features() []string {
	var out []string
	for _, e := range r.Events() {
		if len(e) > 8 && e[:8] == "feature " {
			out = append(out, e)
		}
	}

	sort.Strings(out)
	return out
}

// Count returns the number of events starting with prefix.
func (r *recorder) Count(prefix string) int {
	n := 0
	for _, e := range r.Events() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}

	return n
}

func side(r *object.NodeRef) string {
	if r == nil {
		return "nil"
	}

	if r.Path() == "" {
		return "<root>"
	}

	return r.Path()
}

func bucketSide(b *object.Bucket) string {
	if b == nil {
		return "nil"
	}

	return "bucket"
}

// preOrderRecorder is a PreOrderConsumer writing down every call, optionally
// forwarding them to next.
type preOrderRecorder struct {
	recorder
	next PreOrderConsumer
}

func (r *preOrderRecorder) Feature(left, right *object.NodeRef) error {
	r.add(fmt.Sprintf("feature %s %s", side(left), side(right)))
	if r.next != nil {
		return r.next.Feature(left, right)
	}

	return nil
}

func (r *preOrderRecorder) Tree(left, right *object.NodeRef) (bool, error) {
	r.add(fmt.Sprintf("tree %s %s", side(left), side(right)))
	if r.next != nil {
		return r.next.Tree(left, right)
	}

	return true, nil
}

func (r *preOrderRecorder) EndTree(left, right *object.NodeRef) error {
	r.add(fmt.Sprintf("endtree %s %s", side(left), side(right)))
	if r.next != nil {
		return r.next.EndTree(left, right)
	}

	return nil
}

func (r *preOrderRecorder) Bucket(leftParent, rightParent *object.NodeRef, index, depth int, left, right *object.Bucket) (bool, error) {
	r.add(fmt.Sprintf("bucket %s %s %d/%d %s %s",
		side(leftParent), side(rightParent), depth, index, bucketSide(left), bucketSide(right)))
	if r.next != nil {
		return r.next.Bucket(leftParent, rightParent, index, depth, left, right)
	}

	return true, nil
}

func (r *preOrderRecorder) EndBucket(leftParent, rightParent *object.NodeRef, index, depth int, left, right *object.Bucket) error {
	r.add(fmt.Sprintf("endbucket %s %s %d/%d %s %s",
		side(leftParent), side(rightParent), depth, index, bucketSide(left), bucketSide(right)))
	if r.next != nil {
		return r.next.EndBucket(leftParent, rightParent, index, depth, left, right)
	}

	return nil
}
