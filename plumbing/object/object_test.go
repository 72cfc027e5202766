package object

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/bounds"
)

type NodeSuite struct {
	suite.Suite
}

func TestNodeSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(NodeSuite))
}

func (s *NodeSuite) TestNodeRefPath() {
	n := NewFeatureNode("c", plumbing.ZeroHash, bounds.Point(1, 2))

	s.Equal("c", NewNodeRef("", n).Path())
	s.Equal("a/b/c", NewNodeRef("a/b", n).Path())
	s.Equal("c", NewNodeRef("a/b", n).Name())
	s.Equal(FeatureNode, NewNodeRef("a/b", n).Type())
}

func (s *NodeSuite) TestRootRef() {
	r := RootRef(EmptyTree)

	s.Equal("", r.Path())
	s.Equal(TreeNode, r.Type())
	s.Equal(EmptyTree.Hash, r.ObjectID())
	s.True(r.Bounds().IsEmpty())
}

func (s *NodeSuite) TestJoinPath() {
	s.Equal("", JoinPath("", ""))
	s.Equal("a", JoinPath("", "a"))
	s.Equal("a", JoinPath("a", ""))
	s.Equal("a/b", JoinPath("a", "b"))
}

func (s *NodeSuite) TestBounded() {
	env := bounds.New(0, 0, 10, 10)
	h := plumbing.ComputeHash(plumbing.FeatureObject, []byte("f"))

	var b Bounded = NewNodeRef("", NewFeatureNode("f", h, bounds.Point(5, 5)))
	s.Equal(h, b.ObjectID())
	s.True(b.Intersects(env))
	s.False(b.Intersects(bounds.New(6, 6, 7, 7)))

	b = &Bucket{Hash: h, Envelope: bounds.New(20, 20, 30, 30)}
	s.Equal(h, b.ObjectID())
	s.False(b.Intersects(env))
	s.Equal(bounds.New(20, 20, 30, 30), b.Bounds())
}

func (s *NodeSuite) TestNodeType() {
	s.Equal("tree", TreeNode.String())
	s.Equal("feature", FeatureNode.String())
	s.Equal("unknown", NodeType(0).String())

	s.Equal(plumbing.TreeObject, TreeNode.ObjectType())
	s.Equal(plumbing.FeatureObject, FeatureNode.ObjectType())
	s.Equal(plumbing.InvalidObject, NodeType(9).ObjectType())
}

func (s *NodeSuite) TestString() {
	h := plumbing.ComputeHash(plumbing.FeatureObject, []byte("f"))
	r := NewNodeRef("a", NewFeatureNode("f", h, bounds.Empty()))

	s.Equal("feature a/f "+h.String(), r.String())
	s.Equal("bucket "+h.String(), (&Bucket{Hash: h}).String())
}
