package prolly

import (
	"bytes"

	"github.com/dialog-db/dialog/cas"
)

// ChangeKind distinguishes the three events Diff emits (spec.md 4.2.5).
type ChangeKind int

const (
	// ChangeAdded: the key is live only on the "other" (new) side.
	ChangeAdded ChangeKind = iota
	// ChangeRemoved: the key is live only on this (old) side, or carries
	// a tombstone on the new side where it was live on the old side.
	ChangeRemoved
	// ChangeUpdated: the key is live on both sides with different payloads.
	ChangeUpdated
)

// Change is one emitted diff event.
type Change struct {
	Key  []byte
	Kind ChangeKind
	Old  State // zero value when Kind == ChangeAdded
	New  State // zero value when Kind == ChangeRemoved
}

// Diff streams the symmetric difference between two trees sharing the
// same backing store, in ascending key order (spec.md 4.2.5 / P8).
// Tombstones participate as live entries for comparison purposes: a
// tombstone on one side against an Added on the other yields Removed or
// Added accordingly; tombstone against tombstone at equal keys is a
// no-op and is not emitted.
func Diff(store *cas.Store, cfg Config, from, to cas.Hash) ([]Change, error) {
	var changes []Change
	fromTree := Open(store, from, cfg)
	toTree := Open(store, to, cfg)
	err := diffNode(fromTree, from, toTree, to, func(c Change) { changes = append(changes, c) })
	return changes, err
}

// diffNode recurses over a pair of subtrees (either may be the zero
// hash, denoting "absent"), skipping identical hashes outright —
// structural sharing means identical subtrees never need to be read.
func diffNode(fromTree *Tree, from cas.Hash, toTree *Tree, to cas.Hash, emit func(Change)) error {
	if from == to {
		return nil
	}

	var fromBr, toBr *Branch
	var err error
	if !from.IsZero() {
		_, fromBr, err = fromTree.load(from)
		if err != nil {
			return err
		}
	}
	if !to.IsZero() {
		_, toBr, err = toTree.load(to)
		if err != nil {
			return err
		}
	}

	// If either side is a leaf (or absent), fall back to entry-level
	// comparison: collect both sides' entries and merge by key.
	if (fromBr == nil) || (toBr == nil) {
		fromEntries := collectEntries(fromTree, from)
		toEntries := collectEntries(toTree, to)
		mergeEntries(fromEntries, toEntries, emit)
		return nil
	}

	// Both sides are branches: merge their link sequences by upper
	// bound, recursing into ranges that differ and skipping ranges
	// whose child hash matches on both sides.
	return diffBranches(fromTree, fromBr, toTree, toBr, emit)
}

// collectEntries reads every raw entry (including tombstones) reachable
// from h, in ascending key order. h may be the zero hash, yielding nil.
func collectEntries(tree *Tree, h cas.Hash) []Entry {
	if h.IsZero() {
		return nil
	}
	c := &Cursor{tree: tree, opt: RangeOptions{IncludeTombstones: true}}
	if err := c.descend(h, true); err != nil {
		return nil
	}
	var out []Entry
	for c.Next() {
		out = append(out, c.Entry())
	}
	return out
}

// mergeEntries merges two ascending-by-key entry lists and emits the
// pairwise changes between them.
func mergeEntries(from, to []Entry, emit func(Change)) {
	i, j := 0, 0
	for i < len(from) || j < len(to) {
		switch {
		case j >= len(to) || (i < len(from) && bytes.Compare(from[i].Key, to[j].Key) < 0):
			emitRemoval(from[i].Key, from[i].State, emit)
			i++
		case i >= len(from) || bytes.Compare(to[j].Key, from[i].Key) < 0:
			emitAddition(to[j].Key, to[j].State, emit)
			j++
		default:
			emitTransition(from[i].Key, from[i].State, to[j].State, emit)
			i++
			j++
		}
	}
}

func emitAddition(key []byte, s State, emit func(Change)) {
	if s.Removed {
		return
	}
	emit(Change{Key: key, Kind: ChangeAdded, New: s})
}

func emitRemoval(key []byte, s State, emit func(Change)) {
	if s.Removed {
		return
	}
	emit(Change{Key: key, Kind: ChangeRemoved, Old: s})
}

func emitTransition(key []byte, oldState, newState State, emit func(Change)) {
	switch {
	case oldState.Removed && newState.Removed:
		return
	case oldState.Removed && !newState.Removed:
		emit(Change{Key: key, Kind: ChangeAdded, New: newState})
	case !oldState.Removed && newState.Removed:
		emit(Change{Key: key, Kind: ChangeRemoved, Old: oldState})
	case bytes.Equal(oldState.Payload, newState.Payload):
		return
	default:
		emit(Change{Key: key, Kind: ChangeUpdated, Old: oldState, New: newState})
	}
}

// diffBranches merges two branches' link sequences by upper bound.
// Links whose bound appears on only one side are expanded entirely
// (their whole subtree diffed against "absent"); links present on both
// sides with equal bounds are skipped if their child hash also matches,
// otherwise recursed into.
func diffBranches(fromTree *Tree, fromBr *Branch, toTree *Tree, toBr *Branch, emit func(Change)) error {
	i, j := 0, 0
	for i < len(fromBr.Links) || j < len(toBr.Links) {
		switch {
		case j >= len(toBr.Links) || (i < len(fromBr.Links) && bytes.Compare(fromBr.Links[i].Bound, toBr.Links[j].Bound) < 0):
			if err := diffNode(fromTree, fromBr.Links[i].Child, toTree, cas.Hash{}, emit); err != nil {
				return err
			}
			i++
		case i >= len(fromBr.Links) || bytes.Compare(toBr.Links[j].Bound, fromBr.Links[i].Bound) < 0:
			if err := diffNode(fromTree, cas.Hash{}, toTree, toBr.Links[j].Child, emit); err != nil {
				return err
			}
			j++
		default:
			if err := diffNode(fromTree, fromBr.Links[i].Child, toTree, toBr.Links[j].Child, emit); err != nil {
				return err
			}
			i++
			j++
		}
	}
	return nil
}
