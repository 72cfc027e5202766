package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-git/go-billy/v5"

	"github.com/go-git/go-revtree/plumbing"
	"github.com/go-git/go-revtree/plumbing/cache"
	"github.com/go-git/go-revtree/plumbing/storer"
	"github.com/go-git/go-revtree/utils/sync"
	"github.com/go-git/go-revtree/utils/trace"
)

// ErrMalformedObject is returned when a stored object header cannot be
// parsed.
var ErrMalformedObject = errors.New("malformed object file")

// ObjectStorage reads and writes loose objects. Decoded objects are kept in
// an object cache, so repeated reads of hot trees do not hit the filesystem.
type ObjectStorage struct {
	options Options

	fs          billy.Filesystem
	objectCache cache.Object
}

// NewObjectStorage creates a new ObjectStorage with the given filesystem and
// cache.
func NewObjectStorage(fs billy.Filesystem, objectCache cache.Object) *ObjectStorage {
	return NewObjectStorageWithOptions(fs, objectCache, Options{ObjectsDir: DefaultObjectsDir})
}

// NewObjectStorageWithOptions creates a new ObjectStorage with the given
// filesystem, cache and options.
func NewObjectStorageWithOptions(fs billy.Filesystem, objectCache cache.Object, ops Options) *ObjectStorage {
	if objectCache == nil {
		objectCache = cache.NewObjectLRUDefault()
	}

	return &ObjectStorage{
		options:     ops,
		fs:          fs,
		objectCache: objectCache,
	}
}

// NewEncodedObject returns a new plumbing.MemoryObject.
func (s *ObjectStorage) NewEncodedObject() plumbing.EncodedObject {
	return &plumbing.MemoryObject{}
}

// SetEncodedObject writes o as a loose object, if not already present.
func (s *ObjectStorage) SetEncodedObject(o plumbing.EncodedObject) (h plumbing.Hash, err error) {
	if !o.Type().Valid() {
		return plumbing.ZeroHash, plumbing.ErrInvalidType
	}

	h = o.Hash()
	if s.options.ExclusiveAccess {
		if _, ok := s.objectCache.Get(h); ok {
			return h, nil
		}
	}

	if _, err := s.fs.Stat(s.objectPath(h)); err == nil {
		return h, nil
	}

	r, err := o.Reader()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()

	content, err := io.ReadAll(r)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := s.writeLoose(h, o.Type(), content); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("writing object %s: %w", h, err)
	}

	s.objectCache.Put(plumbing.NewMemoryObject(o.Type(), content))
	trace.General.Printf("filesystem: wrote %s %s", o.Type(), h)
	return h, nil
}

func (s *ObjectStorage) writeLoose(h plumbing.Hash, t plumbing.ObjectType, content []byte) (err error) {
	hex := h.String()
	dir := s.fs.Join(s.options.ObjectsDir, hex[0:2])
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := s.fs.TempFile(dir, "tmp_obj_")
	if err != nil {
		return err
	}

	closed := false
	defer func() {
		if err == nil {
			return
		}

		if !closed {
			_ = f.Close()
		}
		_ = s.fs.Remove(f.Name())
	}()

	zw := sync.GetZlibWriter(f)
	defer sync.PutZlibWriter(zw)

	if err := writeHeader(zw, t, int64(len(content))); err != nil {
		return err
	}

	if _, err := zw.Write(content); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}

	closed = true
	if err := f.Close(); err != nil {
		return err
	}

	return s.fs.Rename(f.Name(), s.fs.Join(dir, hex[2:]))
}

// HasEncodedObject returns nil if the object exists, without actually
// reading the object data from storage.
func (s *ObjectStorage) HasEncodedObject(h plumbing.Hash) (err error) {
	if _, ok := s.objectCache.Get(h); ok {
		return nil
	}

	if _, err := s.fs.Stat(s.objectPath(h)); err != nil {
		if os.IsNotExist(err) {
			return plumbing.ErrObjectNotFound
		}
		return err
	}

	return nil
}

// EncodedObjectSize returns the plaintext size of the given object,
// without actually reading the full object data from storage.
func (s *ObjectStorage) EncodedObjectSize(h plumbing.Hash) (size int64, err error) {
	if o, ok := s.objectCache.Get(h); ok {
		return o.Size(), nil
	}

	f, err := s.open(h)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zr, err := sync.GetZlibReader(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedObject, h, err)
	}
	defer sync.PutZlibReader(zr)

	_, size, err = readHeader(zr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedObject, h, err)
	}

	return size, nil
}

// EncodedObject returns the object with the given hash, by searching for it
// in the object cache and then in the objects directory.
func (s *ObjectStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	obj, ok := s.objectCache.Get(h)
	if !ok {
		var err error
		obj, err = s.readLoose(h)
		if err != nil {
			return nil, err
		}

		s.objectCache.Put(obj)
	}

	if plumbing.AnyObject != t && obj.Type() != t {
		return nil, plumbing.ErrObjectNotFound
	}

	return obj, nil
}

func (s *ObjectStorage) readLoose(h plumbing.Hash) (obj plumbing.EncodedObject, err error) {
	f, err := s.open(h)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zr, err := sync.GetZlibReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedObject, h, err)
	}
	defer sync.PutZlibReader(zr)

	t, size, err := readHeader(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedObject, h, err)
	}

	// The header size is not trusted for allocation.
	content, err := io.ReadAll(io.LimitReader(zr, size+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedObject, h, err)
	}

	if int64(len(content)) != size {
		return nil, fmt.Errorf("%w: %s: size %d, header says %d", ErrMalformedObject, h, len(content), size)
	}

	o := plumbing.NewMemoryObject(t, content)
	if o.Hash() != h {
		return nil, fmt.Errorf("%w: %s: hash mismatch, got %s", ErrMalformedObject, h, o.Hash())
	}

	return o, nil
}

func (s *ObjectStorage) open(h plumbing.Hash) (billy.File, error) {
	f, err := s.fs.Open(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, err
	}

	return f, nil
}

// ForEachObjectHash iterates over the hashes of the objects found under the
// objects directory.
func (s *ObjectStorage) ForEachObjectHash(fun func(plumbing.Hash) error) error {
	dirs, err := s.fs.ReadDir(s.options.ObjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, d := range dirs {
		if !d.IsDir() || len(d.Name()) != 2 {
			continue
		}

		files, err := s.fs.ReadDir(s.fs.Join(s.options.ObjectsDir, d.Name()))
		if err != nil {
			return err
		}

		for _, f := range files {
			name := d.Name() + f.Name()
			if !plumbing.IsHash(name) {
				continue
			}

			if err := fun(plumbing.NewHash(name)); err != nil {
				if err == storer.ErrStop {
					return nil
				}
				return err
			}
		}
	}

	return nil
}

func (s *ObjectStorage) objectPath(h plumbing.Hash) string {
	hex := h.String()
	return s.fs.Join(s.options.ObjectsDir, hex[0:2], hex[2:])
}

func writeHeader(w io.Writer, t plumbing.ObjectType, size int64) error {
	var buf bytes.Buffer
	buf.Write(t.Bytes())
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatInt(size, 10))
	buf.WriteByte(0)

	_, err := w.Write(buf.Bytes())
	return err
}

func readHeader(r io.Reader) (plumbing.ObjectType, int64, error) {
	var header []byte
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return plumbing.InvalidObject, 0, err
		}

		if b[0] == 0 {
			break
		}

		header = append(header, b[0])
		if len(header) > 32 {
			return plumbing.InvalidObject, 0, errors.New("header too long")
		}
	}

	sep := bytes.IndexByte(header, ' ')
	if sep < 0 {
		return plumbing.InvalidObject, 0, errors.New("missing header separator")
	}

	t, err := plumbing.ParseObjectType(string(header[:sep]))
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}

	size, err := strconv.ParseInt(string(header[sep+1:]), 10, 64)
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}

	if size < 0 || size == math.MaxInt64 {
		return plumbing.InvalidObject, 0, fmt.Errorf("invalid size %d", size)
	}

	return t, size, nil
}
