/*
Package difftree walks the differences between two revision trees.

Revision trees are content addressed: equal subtrees and buckets share the
same hash, so a walk only descends where the two sides differ. Large tree
levels are sharded into buckets, see object.BucketIndex.

Two walks are provided:

  - PreOrderWalk reports a parent before its children. Every Tree and
    Bucket call is paired with an EndTree or EndBucket call once the
    children have been reported. Differing buckets are compared
    concurrently, but the enter and exit calls of a node are always made
    from the same goroutine.

  - PostOrderWalk reports a parent after all its children. It runs a
    PreOrderWalk underneath, holding every tree and bucket event until
    its exit arrives, and prunes the subtrees a Filter rejects on both
    sides.

A Consumer given to PostOrderWalk may be called from several goroutines at
once, one per bucket being compared; it must do its own synchronization.
*/
package difftree
