package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/go-git/go-revtree/plumbing"
)

// ObjectLRU implements an object cache with an LRU eviction policy and a
// maximum size (measured in object size). It is safe for concurrent use.
type ObjectLRU struct {
	MaxSize FileSize

	actualSize FileSize
	lru        *lru.Cache
	mut        sync.Mutex
}

// NewObjectLRU creates a new ObjectLRU with the given maximum size. The maximum
// size will never be exceeded.
func NewObjectLRU(maxSize FileSize) *ObjectLRU {
	return &ObjectLRU{MaxSize: maxSize}
}

// NewObjectLRUDefault creates a new ObjectLRU with the default cache size.
func NewObjectLRUDefault() *ObjectLRU {
	return &ObjectLRU{MaxSize: DefaultMaxSize}
}

// Put puts an object into the cache. If the object is already in the cache, it
// will be marked as used. Otherwise, it will be inserted. Least recently used
// objects are evicted until the new one fits.
func (c *ObjectLRU) Put(obj plumbing.EncodedObject) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.lru == nil {
		c.lru = lru.New(0)
		c.lru.OnEvicted = c.evicted
	}

	key := obj.Hash()
	if _, ok := c.lru.Get(key); ok {
		return
	}

	objSize := FileSize(obj.Size())
	if objSize > c.MaxSize {
		return
	}

	c.lru.Add(key, obj)
	c.actualSize += objSize
	for c.actualSize > c.MaxSize && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
}

// Get returns an object by its hash. It marks the object as used. If the object
// is not in the cache, (nil, false) will be returned.
func (c *ObjectLRU) Get(k plumbing.Hash) (plumbing.EncodedObject, bool) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.lru == nil {
		return nil, false
	}

	v, ok := c.lru.Get(k)
	if !ok {
		return nil, false
	}

	return v.(plumbing.EncodedObject), true
}

// Clear the content of this object cache.
func (c *ObjectLRU) Clear() {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.lru != nil {
		c.lru.Clear()
	}

	c.actualSize = 0
}

// evicted runs with mut held, from inside the lru calls above.
func (c *ObjectLRU) evicted(_ lru.Key, value interface{}) {
	c.actualSize -= FileSize(value.(plumbing.EncodedObject).Size())
}
