// Package engine implements the order and merge integrity operations of the
// notes database.
//
// Two families of operations exist. Order repair recomputes the cached
// prev/next pointer pairs of a note's ordered children (page images and
// transcribed pages) from the authoritative page_order column. Block merge
// consolidates two duplicate note blocks into one, unioning satellite
// relations, reconciling scalar fields under a fixed policy, and repointing
// the block link graph.
//
// Every operation runs to completion inside one store transaction: a failure
// at any point rolls back all writes performed so far. Precondition
// violations (self-merge, missing block, cross-note merge, null order key)
// are reported as *PreconditionError and never mutate the store.
package engine
