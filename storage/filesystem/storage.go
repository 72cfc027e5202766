// Package filesystem is a storage backend base on filesystems
package filesystem

import (
	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-revtree/plumbing/cache"
	"github.com/go-git/go-revtree/plumbing/storer"
)

// DefaultObjectsDir is the directory, relative to the filesystem root, where
// loose objects are written.
const DefaultObjectsDir = "objects"

// Storage is an implementation of storer.Storer that stores data on disk,
// one zlib compressed file per object.
type Storage struct {
	fs billy.Filesystem

	ObjectStorage
}

// Options holds configuration for the storage.
type Options struct {
	// ObjectsDir is the directory holding the objects, DefaultObjectsDir
	// if empty.
	ObjectsDir string
	// ExclusiveAccess means that the filesystem is not modified externally
	// while the storage is in use, so objects already seen are not
	// written again.
	ExclusiveAccess bool
}

// NewStorage returns a new Storage backed by a given `fs.Filesystem` and cache.
func NewStorage(fs billy.Filesystem, cache cache.Object) *Storage {
	return NewStorageWithOptions(fs, cache, Options{})
}

// NewStorageWithOptions returns a new Storage with extra options,
// backed by a given `fs.Filesystem` and cache.
func NewStorageWithOptions(fs billy.Filesystem, cache cache.Object, ops Options) *Storage {
	if ops.ObjectsDir == "" {
		ops.ObjectsDir = DefaultObjectsDir
	}

	return &Storage{
		fs:            fs,
		ObjectStorage: *NewObjectStorageWithOptions(fs, cache, ops),
	}
}

// Filesystem returns the underlying filesystem
func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}

var _ storer.Storer = (*Storage)(nil)
