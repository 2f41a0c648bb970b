package prolly

import (
	"fmt"

	"github.com/dialog-db/dialog/cas"
)

// DefaultBranchFactor is B from spec.md 4.2.6: expected segment size and
// branch fan-out both approximate this value.
const DefaultBranchFactor = 4

// Config tunes a Tree.
type Config struct {
	// BranchFactor is the rank base B (spec.md 4.2.6). Must be a power of
	// two. Zero selects DefaultBranchFactor.
	BranchFactor int
}

func (c Config) branchFactor() int {
	if c.BranchFactor <= 0 {
		return DefaultBranchFactor
	}
	return c.BranchFactor
}

// Tree is a handle onto one prolly tree rooted at a given hash, backed by
// a shared content-addressed block store. Tree values are immutable;
// Set/Delete return the hash of a new root sharing unmodified structure
// with the old one (spec.md 4.2's structural-sharing design).
type Tree struct {
	store *cas.Store
	cfg   Config
	root  cas.Hash
}

// Open returns a handle onto the tree rooted at root (cas.Hash{} for an
// empty tree) backed by store.
func Open(store *cas.Store, root cas.Hash, cfg Config) *Tree {
	return &Tree{store: store, cfg: cfg, root: root}
}

// Root returns the tree's current root hash. The zero Hash denotes an
// empty tree (spec.md 3.8).
func (t *Tree) Root() cas.Hash { return t.root }

// IsEmpty reports whether the tree holds no entries.
func (t *Tree) IsEmpty() bool { return t.root.IsZero() }

// Get returns the state stored at key, or ok=false if key is absent
// (spec.md 4.2.1: get(key) -> Option<State<Value>>).
func (t *Tree) Get(key []byte) (State, bool, error) {
	if t.IsEmpty() {
		return State{}, false, nil
	}
	h := t.root
	for {
		seg, br, err := t.load(h)
		if err != nil {
			return State{}, false, err
		}
		if seg != nil {
			idx, found := seg.find(key)
			if !found {
				return State{}, false, nil
			}
			return seg.Entries[idx].State, true, nil
		}
		h = br.Links[br.locate(key)].Child
	}
}

func (t *Tree) load(h cas.Hash) (*Segment, *Branch, error) {
	block, err := t.store.Read(h)
	if err != nil {
		return nil, nil, err
	}
	return decodeNode(block)
}

// writeSegment encodes and persists a segment, returning its hash.
func (t *Tree) writeSegment(s *Segment) (cas.Hash, error) {
	return t.store.Write(encodeSegment(s))
}

// writeBranch encodes and persists a branch, returning its hash.
func (t *Tree) writeBranch(b *Branch) (cas.Hash, error) {
	return t.store.Write(encodeBranch(b))
}

// Set writes state at key, returning the new tree root. It is used both
// to assert a live value and to write a tombstone (spec.md 4.2.3: "set(key,
// Removed) writes a tombstone using the same path").
func (t *Tree) Set(key []byte, state State) (cas.Hash, error) {
	next, err := t.insert(key, state)
	if err != nil {
		return cas.Hash{}, fmt.Errorf("prolly: set %x: %w", key, err)
	}
	t.root = next
	return next, nil
}
