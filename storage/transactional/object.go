package transactional

import (
	"errors"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/storer"
)

// ObjectStorage implements the storer.EncodedObjectStorer for the
// transactional package.
type ObjectStorage struct {
	storer.EncodedObjectStorer
	temporal storer.EncodedObjectStorer
}

// NewObjectStorage returns a new EncodedObjectStorer based on a base storer
// and a temporal storer.
func NewObjectStorage(base, temporal storer.EncodedObjectStorer) *ObjectStorage {
	return &ObjectStorage{EncodedObjectStorer: base, temporal: temporal}
}

// SetEncodedObject honors the storer.EncodedObjectStorer interface.
func (o *ObjectStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	return o.temporal.SetEncodedObject(obj)
}

// HasEncodedObject honors the storer.EncodedObjectStorer interface.
func (o *ObjectStorage) HasEncodedObject(h plumbing.Hash) error {
	err := o.EncodedObjectStorer.HasEncodedObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return o.temporal.HasEncodedObject(h)
	}

	return err
}

// EncodedObjectSize honors the storer.EncodedObjectStorer interface.
func (o *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	sz, err := o.EncodedObjectStorer.EncodedObjectSize(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return o.temporal.EncodedObjectSize(h)
	}

	return sz, err
}

// EncodedObject honors the storer.EncodedObjectStorer interface.
func (o *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, err := o.EncodedObjectStorer.EncodedObject(t, h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return o.temporal.EncodedObject(t, h)
	}

	return obj, err
}

// ForEachObjectHash honors the storer.EncodedObjectStorer interface, objects
// present in both storers are visited twice.
func (o *ObjectStorage) ForEachObjectHash(fun func(plumbing.Hash) error) error {
	stopped := false
	wrap := func(h plumbing.Hash) error {
		err := fun(h)
		if err == storer.ErrStop {
			stopped = true
		}

		return err
	}

	if err := o.EncodedObjectStorer.ForEachObjectHash(wrap); err != nil || stopped {
		return err
	}

	return o.temporal.ForEachObjectHash(fun)
}

// Commit copies the objects of the temporal storer into the base storer.
func (o *ObjectStorage) Commit() error {
	return o.temporal.ForEachObjectHash(func(h plumbing.Hash) error {
		obj, err := o.temporal.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return err
		}

		_, err = o.EncodedObjectStorer.SetEncodedObject(obj)
		return err
	})
}
