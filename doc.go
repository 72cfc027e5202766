// Package revtree compares content addressed revision trees whose large
// levels are sharded into hash buckets.
//
// The packages under plumbing define the objects (trees, nodes, buckets and
// their spatial envelopes) and the storer interface they are read from.
// The implementations of that interface live under storage. The diff walks,
// reporting differences parents first or children first, are in
// utils/difftree.
package revtree
