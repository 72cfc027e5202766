package object

import (
	"github.com/zeebo/xxh3"
)

const (
	// MaxBuckets is the number of buckets a tree level is split into.
	MaxBuckets = 32
	// MaxDepth is the deepest bucket level, past it children are kept in
	// a single leaf tree regardless of its size.
	MaxDepth = 12
	// DefaultMaxLeafSize is the number of direct children a tree may hold
	// before being split into buckets.
	DefaultMaxLeafSize = 512

	bucketBits = 5
	bucketMask = MaxBuckets - 1
)

// BucketIndex returns the bucket a child named name falls into at the given
// depth. Each depth consumes a different slice of the name hash, so the
// children of a bucket spread over the buckets of the next level.
func BucketIndex(name string, depth int) int {
	h := xxh3.HashString(name)
	return int((h >> (uint(depth) * bucketBits)) & bucketMask)
}
