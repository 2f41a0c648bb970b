// Package prolly implements the probabilistically-balanced, content-
// addressed search tree described in spec.md 4.2: a generic rank-
// partitioned B-tree mapping byte keys to a tombstone-wrapped payload,
// built on the cas package for block storage.
//
// Node boundary placement follows the round-based join algorithm of the
// reference implementation (dialog-db/x-prolly-tree's Node::join_with_rank)
// rather than spec.md 4.2.2's prose, which is internally inconsistent about
// the exact rank threshold (3.7 says rank==h is a boundary at height h;
// 4.2.2 says leaves split at rank==1 and branches at level h terminate when
// rank>h+1). Round m (m=1 for the raw entries, m=2,3,... for each
// successive level) closes the node currently being accumulated whenever an
// item's rank is greater than m; this keeps the partition a pure function
// of the key set, which is what spec.md's history-independence property
// actually requires, and it is reproduced exactly in insert.go.
package prolly

import (
	"bytes"

	"github.com/dialog-db/dialog/cas"
)

// State wraps an entry's payload with the live/tombstone discriminator
// (spec.md 3.5). A Removed entry still occupies its key slot so that
// diffs see the retraction as a first-class event.
type State struct {
	Removed bool
	Payload []byte // empty/nil when Removed
}

// Added returns a live state wrapping payload.
func Added(payload []byte) State { return State{Payload: payload} }

// Tombstone returns a retracted state.
func Tombstone() State { return State{Removed: true} }

// Entry is one (key, state) pair stored in a Segment, in strictly
// ascending key order.
type Entry struct {
	Key   []byte
	State State
}

// Link is one (upper_bound, child_hash) pair stored in a Branch, in
// strictly ascending upper-bound order (spec.md 3.6).
type Link struct {
	Bound []byte
	Child cas.Hash
}

// Segment is a leaf node: a non-empty, strictly-ascending-by-key sequence
// of entries.
type Segment struct {
	Entries []Entry
}

// UpperBound returns the segment's rightmost (and therefore largest) key.
func (s *Segment) UpperBound() []byte {
	return s.Entries[len(s.Entries)-1].Key
}

// find locates key by binary search, returning its index and whether it
// was found; if not found, index is the insertion point.
func (s *Segment) find(key []byte) (int, bool) {
	lo, hi := 0, len(s.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch bytes.Compare(s.Entries[mid].Key, key) {
		case -1:
			lo = mid + 1
		case 0:
			return mid, true
		default:
			hi = mid
		}
	}
	return lo, false
}

// Branch is an interior node: a non-empty, strictly-ascending-by-upper-
// bound sequence of child links.
type Branch struct {
	Links []Link
}

// UpperBound returns the branch's own upper bound: its rightmost child's.
func (b *Branch) UpperBound() []byte {
	return b.Links[len(b.Links)-1].Bound
}

// locate returns the index of the smallest link whose bound is >= key,
// i.e. the child that must contain key if it is present. If key exceeds
// every bound, it returns the last index (spec.md 4.2.1's get: "descends
// ... following the smallest link whose upper_bound >= key"; a key larger
// than every bound still logically belongs under the rightmost child,
// since that child's bound is only a cap on what it currently holds, not
// a hard partition boundary chosen in advance).
func (b *Branch) locate(key []byte) int {
	for i, l := range b.Links {
		if bytes.Compare(key, l.Bound) <= 0 {
			return i
		}
	}
	return len(b.Links) - 1
}
