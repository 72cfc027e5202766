package difftree

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/object"
	"github.com/go-git/go-revtree/storage/memory"
)

type PreOrderSuite struct {
	suite.Suite
	f *fixture
}

func TestPreOrderSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(PreOrderSuite))
}

func (s *PreOrderSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *PreOrderSuite) walk(left, right *object.RevTree, opts ...WalkOption) *preOrderRecorder {
	r := &preOrderRecorder{}
	w := NewPreOrderWalk(left, right, s.f.s, s.f.s, opts...)
	s.NoError(w.Walk(context.Background(), r))

	return r
}

func (s *PreOrderSuite) TestEqualTrees() {
	t := s.f.build(s.f.feature("a", "a", 0, 0))
	s.Empty(s.walk(t, t).Events())
	s.Empty(s.walk(nil, nil).Events())
}

func (s *PreOrderSuite) TestEventOrder() {
	x := s.f.feature("x", "x", 0, 0)
	left := s.f.build(s.f.tree("B", x, s.f.feature("y", "y", 1, 1)))
	right := s.f.build(s.f.tree("B", x, s.f.feature("z", "z", 2, 2)))

	s.Equal([]string{
		"tree <root> <root>",
		"tree B B",
		"feature B/y nil",
		"feature nil B/z",
		"endtree B B",
		"endtree <root> <root>",
	}, s.walk(left, right, WithParallelism(1)).Events())
}

func (s *PreOrderSuite) TestAddedAndRemovedSubtrees() {
	left := s.f.build(s.f.tree("old", s.f.feature("a", "a", 0, 0)))
	right := s.f.build(s.f.tree("new", s.f.feature("b", "b", 0, 0)))

	s.Equal([]string{
		"tree <root> <root>",
		"tree nil new",
		"feature nil new/b",
		"endtree nil new",
		"tree old nil",
		"feature old/a nil",
		"endtree old nil",
		"endtree <root> <root>",
	}, s.walk(left, right, WithParallelism(1)).Events())
}

func (s *PreOrderSuite) TestNilTreeIsEmpty() {
	right := s.f.build(s.f.feature("a", "a", 0, 0))

	s.Equal([]string{
		"tree <root> <root>",
		"feature nil a",
		"endtree <root> <root>",
	}, s.walk(nil, right).Events())
}

func (s *PreOrderSuite) TestMovedFeature() {
	left := s.f.build(s.f.feature("moved", "m", 1, 1))
	right := s.f.build(s.f.feature("moved", "m", 50, 50))

	s.NotEqual(left.Hash, right.Hash)
	s.Equal(left.Features[0].Hash, right.Features[0].Hash)

	s.Equal([]string{
		"tree <root> <root>",
		"feature moved moved",
		"endtree <root> <root>",
	}, s.walk(left, right).Events())
}

func (s *PreOrderSuite) TestMovedFeatureInBuckets() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(4))

	nodes := s.f.features("f", 20, "v")
	left := s.f.build(nodes...)

	moved := nodes[7]
	moved.Envelope = moved.Envelope.Expand(3)
	right := s.f.build(append(s.f.features("f", 20, "v"), moved)...)

	s.Equal([]string{"feature f7 f7"}, s.walk(left, right).Features())
}

func (s *PreOrderSuite) TestTypeChange() {
	left := s.f.build(s.f.feature("a", "a", 0, 0))
	right := s.f.build(s.f.tree("a", s.f.feature("f", "f", 0, 0)))

	s.Equal([]string{
		"tree <root> <root>",
		"feature a nil",
		"tree nil a",
		"feature nil a/f",
		"endtree nil a",
		"endtree <root> <root>",
	}, s.walk(left, right, WithParallelism(1)).Events())
}

func (s *PreOrderSuite) TestSkipDescent() {
	left := s.f.build(s.f.tree("B", s.f.feature("y", "y", 1, 1)))
	right := s.f.build(s.f.tree("B", s.f.feature("z", "z", 2, 2)))

	r := &preOrderRecorder{next: &pruner{path: "B"}}
	w := NewPreOrderWalk(left, right, s.f.s, s.f.s)
	s.NoError(w.Walk(context.Background(), r))

	s.Equal([]string{
		"tree <root> <root>",
		"tree B B",
		"endtree B B",
		"endtree <root> <root>",
	}, r.Events())
}

func (s *PreOrderSuite) TestBucketTrees() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(4))

	left := s.f.build(s.f.features("f", 20, "v")...)
	changed := append(s.f.features("f", 20, "v"), s.f.feature("f3", "changed", 3, 3), s.f.feature("g", "g", 0, 0))
	right := s.f.build(changed...)

	s.True(left.IsBucketTree())
	s.True(right.IsBucketTree())

	r := s.walk(left, right)
	s.Equal([]string{
		"feature f3 f3",
		"feature nil g",
	}, r.Features())

	s.Positive(r.Count("bucket <root> <root> 0/"))
	s.Equal(r.Count("bucket "), r.Count("endbucket "))
	s.assertNested(r.Events())
}

func (s *PreOrderSuite) TestLeafAgainstBucketTree() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(4))

	nodes := s.f.features("f", 10, "v")
	left := s.f.build(nodes[:3]...)
	right := s.f.build(nodes...)

	s.False(left.IsBucketTree())
	s.True(right.IsBucketTree())

	r := s.walk(left, right)
	s.Equal([]string{
		"feature nil f3",
		"feature nil f4",
		"feature nil f5",
		"feature nil f6",
		"feature nil f7",
		"feature nil f8",
		"feature nil f9",
	}, r.Features())

	for _, e := range r.Events() {
		if strings.HasPrefix(e, "bucket ") {
			s.True(strings.HasSuffix(e, " nil bucket"), e)
		}
	}

	s.assertNested(r.Events())
}

func (s *PreOrderSuite) TestBucketTreeAgainstLeaf() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(4))

	nodes := s.f.features("f", 10, "v")
	left := s.f.build(nodes...)
	right := s.f.build(append(nodes[:2:2], s.f.feature("h", "h", 0, 0))...)

	r := s.walk(left, right)
	s.Equal([]string{
		"feature f2 nil",
		"feature f3 nil",
		"feature f4 nil",
		"feature f5 nil",
		"feature f6 nil",
		"feature f7 nil",
		"feature f8 nil",
		"feature f9 nil",
		"feature nil h",
	}, r.Features())

	for _, e := range r.Events() {
		if strings.HasPrefix(e, "bucket ") {
			s.True(strings.HasSuffix(e, " bucket nil"), e)
		}
	}
}

func (s *PreOrderSuite) TestNestedBucketsInSubtree() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(2))

	left := s.f.build(s.f.tree("t", s.f.features("f", 40, "v")...))
	right := s.f.build(s.f.tree("t", s.f.features("f", 40, "w")...))

	r := s.walk(left, right)
	s.Len(r.Features(), 40)
	s.Positive(r.Count("bucket t t 1/"))
	s.assertNested(r.Events())
}

func (s *PreOrderSuite) TestSeparateSources() {
	ls, rs := memory.NewStorage(), memory.NewStorage()

	lf := &fixture{t: s.T(), s: ls}
	rf := &fixture{t: s.T(), s: rs}

	left := lf.build(lf.tree("B", lf.feature("x", "x", 0, 0)))
	right := rf.build(rf.tree("B", rf.feature("x", "y", 0, 0)))

	r := &preOrderRecorder{}
	s.NoError(NewPreOrderWalk(left, right, ls, rs).Walk(context.Background(), r))
	s.Equal([]string{"feature B/x B/x"}, r.Features())

	err := NewPreOrderWalk(left, right, rs, ls).Walk(context.Background(), &preOrderRecorder{})
	s.ErrorIs(err, plumbing.ErrObjectNotFound)
}

func (s *PreOrderSuite) TestMissingObject() {
	left := s.f.build(s.f.tree("B", s.f.feature("x", "x", 0, 0)))

	empty := memory.NewStorage()
	err := NewPreOrderWalk(left, nil, empty, empty).Walk(context.Background(), &preOrderRecorder{})
	s.ErrorIs(err, plumbing.ErrObjectNotFound)
	s.Contains(err.Error(), `resolving tree "B"`)
}

func (s *PreOrderSuite) TestConsumerError() {
	left := s.f.build(s.f.feature("a", "a", 0, 0), s.f.feature("b", "b", 0, 0))

	stop := errors.New("stop")
	r := &preOrderRecorder{next: &failer{err: stop}}
	err := NewPreOrderWalk(left, nil, s.f.s, s.f.s).Walk(context.Background(), r)
	s.ErrorIs(err, stop)
	s.Equal([]string{"tree <root> <root>", "feature a nil"}, r.Events())
}

func (s *PreOrderSuite) TestConsumerErrorInBucket() {
	s.f = newFixture(s.T(), object.WithMaxLeafSize(2))
	left := s.f.build(s.f.features("f", 30, "v")...)

	stop := errors.New("stop")
	err := NewPreOrderWalk(left, nil, s.f.s, s.f.s).Walk(context.Background(), &failer{err: stop})
	s.ErrorIs(err, stop)
}

func (s *PreOrderSuite) TestCanceledContext() {
	left := s.f.build(s.f.feature("a", "a", 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &preOrderRecorder{}
	err := NewPreOrderWalk(left, nil, s.f.s, s.f.s).Walk(ctx, r)
	s.ErrorIs(err, context.Canceled)
	s.Equal([]string{"tree <root> <root>"}, r.Events())
}

// assertNested checks that every enter is matched by one exit coming after
// it. Events of parallel buckets interleave, so nesting is not checked.
func (s *PreOrderSuite) assertNested(events []string) {
	open := make(map[string]int)
	for _, e := range events {
		switch {
		case strings.HasPrefix(e, "tree "), strings.HasPrefix(e, "bucket "):
			open[e]++
		case strings.HasPrefix(e, "endtree "), strings.HasPrefix(e, "endbucket "):
			k := strings.TrimPrefix(e, "end")
			s.Positive(open[k], "exit without enter: %s", e)
			open[k]--
		}
	}

	for k, n := range open {
		s.Zero(n, "never exited: %s", k)
	}
}

// pruner skips the descent into the tree at path.
type pruner struct {
	path string
}

func (p *pruner) Feature(_, _ *object.NodeRef) error { return nil }

func (p *pruner) Tree(left, right *object.NodeRef) (bool, error) {
	return refPath(left, right) != p.path, nil
}

func (p *pruner) EndTree(_, _ *object.NodeRef) error { return nil }

func (p *pruner) Bucket(_, _ *object.NodeRef, _, _ int, _, _ *object.Bucket) (bool, error) {
	return true, nil
}

func (p *pruner) EndBucket(_, _ *object.NodeRef, _, _ int, _, _ *object.Bucket) error {
	return nil
}

// failer fails on the first feature.
type failer struct {
	err error
}

func (f *failer) Feature(_, _ *object.NodeRef) error { return f.err }

func (f *failer) Tree(_, _ *object.NodeRef) (bool, error) { return true, nil }

func (f *failer) EndTree(_, _ *object.NodeRef) error { return nil }

func (f *failer) Bucket(_, _ *object.NodeRef, _, _ int, _, _ *object.Bucket) (bool, error) {
	return true, nil
}

func (f *failer) EndBucket(_, _ *object.NodeRef, _, _ int, _, _ *object.Bucket) error {
	return nil
}
