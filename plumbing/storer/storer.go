package storer

import (
	"errors"

	"github.com/go-git/go-revtree/plumbing"
)

// ErrStop is used to stop a ForEach function in an Iter.
var ErrStop = errors.New("stop iter")

// EncodedObjectStorer generic storage of objects
type EncodedObjectStorer interface {
	// NewEncodedObject returns a new plumbing.EncodedObject, the real type
	// of the object can be a custom implementation or the default one,
	// plumbing.MemoryObject.
	NewEncodedObject() plumbing.EncodedObject
	// SetEncodedObject saves an object into the storage, the object should
	// be create with the NewEncodedObject method.
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	// EncodedObject gets an object by hash with the given
	// plumbing.ObjectType. Implementors should return
	// (nil, plumbing.ErrObjectNotFound) if an object doesn't exist with
	// both the given hash and object type.
	//
	// If plumbing.AnyObject is given, the object must be looked up
	// regardless of its type.
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	// HasEncodedObject returns ErrObjectNotFound if the object doesn't
	// exist. If the object does exist, it returns nil.
	HasEncodedObject(plumbing.Hash) error
	// EncodedObjectSize returns the plaintext size of the encoded object.
	EncodedObjectSize(plumbing.Hash) (int64, error)
	// ForEachObjectHash calls fun for every stored object hash, stopping
	// without error when fun returns ErrStop.
	ForEachObjectHash(fun func(plumbing.Hash) error) error
}

// Storer is a basic storer for encoded objects, all of the storages in this
// module implement it.
type Storer interface {
	EncodedObjectStorer
}
