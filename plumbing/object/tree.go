package object

import (
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/bounds"
	"github.com/go-git/go-revtree/plumbing/storer"
	"github.com/go-git/go-revtree/utils/sync"
)

// EmptyTree is the tree with no children. GetTree resolves its hash without
// touching the storage. It must not be modified.
var EmptyTree = newEmptyTree()

// RevTree is an immutable revision tree. A tree is either a leaf tree,
// holding its children in Trees and Features, or a bucket tree, holding
// them in Buckets keyed by bucket index.
type RevTree struct {
	Hash plumbing.Hash
	// Size is the number of features reachable from the tree.
	Size uint64
	// NumTrees is the number of subtrees reachable from the tree.
	NumTrees int
	Trees    []Node
	Features []Node
	Buckets  map[int]Bucket
}

// GetTree gets a tree from an object storer and decodes it.
func GetTree(s storer.EncodedObjectStorer, h plumbing.Hash) (*RevTree, error) {
	if h == EmptyTree.Hash {
		return EmptyTree, nil
	}

	o, err := s.EncodedObject(plumbing.TreeObject, h)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", h, err)
	}

	return DecodeTree(o)
}

// DecodeTree decodes an encoded object into a *RevTree.
func DecodeTree(o plumbing.EncodedObject) (*RevTree, error) {
	t := &RevTree{}
	if err := t.Decode(o); err != nil {
		return nil, err
	}

	return t, nil
}

// WriteTree encodes t into s, setting t.Hash to the resulting object id.
func WriteTree(s storer.EncodedObjectStorer, t *RevTree) error {
	o := s.NewEncodedObject()
	if err := t.Encode(o); err != nil {
		return err
	}

	h, err := s.SetEncodedObject(o)
	if err != nil {
		return fmt.Errorf("writing tree: %w", err)
	}

	t.Hash = h
	return nil
}

// WriteFeature stores content as a feature object and returns its hash.
func WriteFeature(s storer.EncodedObjectStorer, content []byte) (plumbing.Hash, error) {
	o := s.NewEncodedObject()
	o.SetType(plumbing.FeatureObject)

	w, err := o.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}

	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	return s.SetEncodedObject(o)
}

// IsBucketTree reports whether the children of t are sharded into buckets.
func (t *RevTree) IsBucketTree() bool {
	return len(t.Buckets) > 0
}

// IsEmpty reports whether t has no children at all.
func (t *RevTree) IsEmpty() bool {
	return len(t.Trees) == 0 && len(t.Features) == 0 && len(t.Buckets) == 0
}

// Children returns the direct children of a leaf tree sorted by name.
func (t *RevTree) Children() []Node {
	nodes := make([]Node, 0, len(t.Trees)+len(t.Features))
	nodes = append(nodes, t.Trees...)
	nodes = append(nodes, t.Features...)
	sortNodes(nodes)

	return nodes
}

// BucketIndexes returns the indexes of the buckets of t in increasing order.
func (t *RevTree) BucketIndexes() []int {
	idx := make([]int, 0, len(t.Buckets))
	for i := range t.Buckets {
		idx = append(idx, i)
	}

	sort.Ints(idx)
	return idx
}

// Bounds returns the union of the envelopes of the children of t.
func (t *RevTree) Bounds() bounds.Envelope {
	env := bounds.Empty()
	for _, n := range t.Trees {
		env = env.ExpandToInclude(n.Envelope)
	}

	for _, n := range t.Features {
		env = env.ExpandToInclude(n.Envelope)
	}

	for _, b := range t.Buckets {
		env = env.ExpandToInclude(b.Envelope)
	}

	return env
}

func (t *RevTree) String() string {
	if t.IsBucketTree() {
		return fmt.Sprintf("tree %s [size: %d, trees: %d, buckets: %d]",
			t.Hash, t.Size, t.NumTrees, len(t.Buckets))
	}

	return fmt.Sprintf("tree %s [size: %d, trees: %d, children: %d]",
		t.Hash, t.Size, t.NumTrees, len(t.Trees)+len(t.Features))
}

type encodedNode struct {
	Name     string    `msgpack:"n"`
	Hash     []byte    `msgpack:"h"`
	Type     int8      `msgpack:"t"`
	Envelope []float64 `msgpack:"e"`
}

type encodedBucket struct {
	Index    int       `msgpack:"i"`
	Hash     []byte    `msgpack:"h"`
	Envelope []float64 `msgpack:"e"`
}

type encodedTree struct {
	Size     uint64          `msgpack:"s"`
	NumTrees int             `msgpack:"c"`
	Trees    []encodedNode   `msgpack:"t"`
	Features []encodedNode   `msgpack:"f"`
	Buckets  []encodedBucket `msgpack:"b"`
}

// Decode transforms a plumbing.EncodedObject into a RevTree struct.
func (t *RevTree) Decode(o plumbing.EncodedObject) (err error) {
	if o.Type() != plumbing.TreeObject {
		return plumbing.ErrInvalidType
	}

	r, err := o.Reader()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var et encodedTree
	if err := msgpack.Unmarshal(data, &et); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTree, o.Hash(), err)
	}

	if len(et.Buckets) > 0 && (len(et.Trees) > 0 || len(et.Features) > 0) {
		return fmt.Errorf("%w: %s has both buckets and children", ErrMalformedTree, o.Hash())
	}

	t.Hash = o.Hash()
	t.Size = et.Size
	t.NumTrees = et.NumTrees
	t.Trees = decodeNodes(et.Trees)
	t.Features = decodeNodes(et.Features)
	t.Buckets = nil

	if len(et.Buckets) > 0 {
		t.Buckets = make(map[int]Bucket, len(et.Buckets))
		for _, b := range et.Buckets {
			if b.Index < 0 || b.Index >= MaxBuckets {
				return fmt.Errorf("%w: %s has bucket index %d", ErrMalformedTree, o.Hash(), b.Index)
			}

			t.Buckets[b.Index] = Bucket{
				Hash:     hashFromBytes(b.Hash),
				Envelope: decodeEnvelope(b.Envelope),
			}
		}
	}

	return nil
}

// Encode transforms a RevTree into a plumbing.EncodedObject.
func (t *RevTree) Encode(o plumbing.EncodedObject) (err error) {
	et := encodedTree{
		Size:     t.Size,
		NumTrees: t.NumTrees,
		Trees:    encodeNodes(t.Trees),
		Features: encodeNodes(t.Features),
	}

	for _, i := range t.BucketIndexes() {
		b := t.Buckets[i]
		et.Buckets = append(et.Buckets, encodedBucket{
			Index:    i,
			Hash:     b.Hash[:],
			Envelope: encodeEnvelope(b.Envelope),
		})
	}

	buf := sync.GetBytesBuffer()
	defer sync.PutBytesBuffer(buf)

	if err := msgpack.NewEncoder(buf).Encode(&et); err != nil {
		return err
	}

	o.SetType(plumbing.TreeObject)
	o.SetSize(int64(buf.Len()))
	w, err := o.Writer()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = w.Write(buf.Bytes())
	return err
}

func encodeNodes(nodes []Node) []encodedNode {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]encodedNode, len(nodes))
	for i, n := range nodes {
		h := n.Hash
		out[i] = encodedNode{
			Name:     n.Name,
			Hash:     h[:],
			Type:     int8(n.Type),
			Envelope: encodeEnvelope(n.Envelope),
		}
	}

	return out
}

func decodeNodes(nodes []encodedNode) []Node {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{
			Name:     n.Name,
			Hash:     hashFromBytes(n.Hash),
			Type:     NodeType(n.Type),
			Envelope: decodeEnvelope(n.Envelope),
		}
	}

	return out
}

func encodeEnvelope(e bounds.Envelope) []float64 {
	return []float64{e.MinX, e.MinY, e.MaxX, e.MaxY}
}

func decodeEnvelope(v []float64) bounds.Envelope {
	if len(v) != 4 {
		return bounds.Empty()
	}

	return bounds.Envelope{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
}

func hashFromBytes(b []byte) plumbing.Hash {
	var h plumbing.Hash
	copy(h[:], b)
	return h
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
}

func newEmptyTree() *RevTree {
	t := &RevTree{}
	o := &plumbing.MemoryObject{}
	if err := t.Encode(o); err != nil {
		panic(err)
	}

	t.Hash = o.Hash()
	return t
}
