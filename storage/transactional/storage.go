// Package transactional stacks a temporal object storer on top of a base one.
// Reads look into both, writes go to the temporal storer until Commit copies
// them into the base.
//
// Trees built in a transaction can be diffed against the ones already in the
// base without writing anything to it.
package transactional

import (
	"github.com/go-git/go-revtree/plumbing/storer"
)

// Storage is a transactional implementation of storer.Storer, it demux the
// write and read operation of two separate storers, allowing to merge content
// calling Storage.Commit.
type Storage struct {
	*ObjectStorage
}

var _ storer.Storer = (*Storage)(nil)

// NewStorage returns a new Storage based on two storers, base is the base
// storer where the read operations are read and temporal is were all the
// write operations are stored.
func NewStorage(base, temporal storer.Storer) *Storage {
	return &Storage{
		ObjectStorage: NewObjectStorage(base, temporal),
	}
}

// Commit it copies the content of the temporal storage into the base storage.
func (s *Storage) Commit() error {
	return s.ObjectStorage.Commit()
}
