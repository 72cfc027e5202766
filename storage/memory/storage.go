// Package memory is a storage backend base on memory
package memory

import (
	"fmt"
	"sync"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/storer"
)

// ErrUnsupportedObjectType is returned when an object of an unknown type is
// stored.
var ErrUnsupportedObjectType = fmt.Errorf("unsupported object type")

// Storage is an implementation of storer.Storer that stores data on memory,
// being ephemeral. The use of this storage should be done in controlled
// environments, since the representation in memory of some repository can
// fill the machine memory. In the other hand this storage has the best
// performance. It is safe for concurrent use.
type Storage struct {
	ObjectStorage
}

// NewStorage returns a new in memory Storage base.
func NewStorage() *Storage {
	return &Storage{
		ObjectStorage: ObjectStorage{
			Objects:  make(map[plumbing.Hash]plumbing.EncodedObject),
			Trees:    make(map[plumbing.Hash]plumbing.EncodedObject),
			Features: make(map[plumbing.Hash]plumbing.EncodedObject),
		},
	}
}

var _ storer.Storer = (*Storage)(nil)

// ObjectStorage keeps every object in maps indexed by hash, plus one map per
// object type.
type ObjectStorage struct {
	mu       sync.RWMutex
	Objects  map[plumbing.Hash]plumbing.EncodedObject
	Trees    map[plumbing.Hash]plumbing.EncodedObject
	Features map[plumbing.Hash]plumbing.EncodedObject
}

// NewEncodedObject returns a new plumbing.MemoryObject.
func (o *ObjectStorage) NewEncodedObject() plumbing.EncodedObject {
	return &plumbing.MemoryObject{}
}

// SetEncodedObject stores obj, indexed by its hash.
func (o *ObjectStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	h := obj.Hash()

	o.mu.Lock()
	defer o.mu.Unlock()

	switch obj.Type() {
	case plumbing.TreeObject:
		o.Trees[h] = obj
	case plumbing.FeatureObject:
		o.Features[h] = obj
	default:
		return h, ErrUnsupportedObjectType
	}

	o.Objects[h] = obj
	return h, nil
}

// HasEncodedObject returns nil if h is stored.
func (o *ObjectStorage) HasEncodedObject(h plumbing.Hash) (err error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.Objects[h]; !ok {
		return plumbing.ErrObjectNotFound
	}
	return nil
}

// EncodedObjectSize returns the size of the object stored under h.
func (o *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (
	size int64, err error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	obj, ok := o.Objects[h]
	if !ok {
		return 0, plumbing.ErrObjectNotFound
	}

	return obj.Size(), nil
}

// EncodedObject returns the object stored under h if it is of type t.
func (o *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	obj, ok := o.Objects[h]
	if !ok || (plumbing.AnyObject != t && obj.Type() != t) {
		return nil, plumbing.ErrObjectNotFound
	}

	return obj, nil
}

// ForEachObjectHash calls fun with the hash of every stored object.
func (o *ObjectStorage) ForEachObjectHash(fun func(plumbing.Hash) error) error {
	o.mu.RLock()
	hashes := make([]plumbing.Hash, 0, len(o.Objects))
	for h := range o.Objects {
		hashes = append(hashes, h)
	}
	o.mu.RUnlock()

	plumbing.HashesSort(hashes)
	for _, h := range hashes {
		err := fun(h)
		if err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}

	return nil
}
