// Package store implements the Artifacts triple-index layer (spec.md
// 4.3): three prolly trees sharing one backend, committed transactionally
// in a fixed lock order, and queried through the selector planner.
package store

import (
	"fmt"
	"sync"

	"github.com/dialog-db/dialog/cas"
	"github.com/dialog-db/dialog/fact"
	"github.com/dialog-db/dialog/plan"
	"github.com/dialog-db/dialog/prolly"
	"github.com/dialog-db/dialog/value"
)

// Revision is the tuple of the three index root hashes (spec.md 3.8).
type Revision struct {
	EntityRoot    cas.Hash
	AttributeRoot cas.Hash
	ValueRoot     cas.Hash
}

// IsEmpty reports whether every root in the revision is the empty-tree
// sentinel.
func (r Revision) IsEmpty() bool {
	return r.EntityRoot.IsZero() && r.AttributeRoot.IsZero() && r.ValueRoot.IsZero()
}

// Encode serializes the revision to its 96-byte wire form (spec.md 6.2).
func (r Revision) Encode() []byte {
	out := make([]byte, 0, 96)
	out = append(out, r.EntityRoot[:]...)
	out = append(out, r.AttributeRoot[:]...)
	out = append(out, r.ValueRoot[:]...)
	return out
}

// DecodeRevision parses a 96-byte revision.
func DecodeRevision(b []byte) (Revision, error) {
	if len(b) != 96 {
		return Revision{}, fmt.Errorf("store: invalid revision length %d", len(b))
	}
	var r Revision
	copy(r.EntityRoot[:], b[0:32])
	copy(r.AttributeRoot[:], b[32:64])
	copy(r.ValueRoot[:], b[64:96])
	return r, nil
}

// Hash returns the revision's own content hash, the stable
// human-exchangeable identifier (spec.md 3.8).
func (r Revision) Hash() cas.Hash { return cas.Sum(r.Encode()) }

// ErrMalformedIndex indicates an invariant violation: a value-index entry
// whose secondary entity-index lookup came back absent or tombstoned
// (spec.md 4.3.3, 9).
var ErrMalformedIndex = fmt.Errorf("store: malformed index")

// Artifacts is the three-index triple store: entity_index (EAVT),
// attribute_index (AEVT), value_index (VAET), each a prolly.Tree sharing
// one cas.Store. Every multi-tree operation acquires the three trees'
// locks in the fixed order entity -> attribute -> value (spec.md 4.3.1).
type Artifacts struct {
	backend *cas.Store
	cfg     prolly.Config

	entityMu sync.RWMutex
	entity   *prolly.Tree

	attributeMu sync.RWMutex
	attribute   *prolly.Tree

	valueMu sync.RWMutex
	value   *prolly.Tree
}

// Open constructs an Artifacts pinned at revision (the zero Revision
// opens an empty store), backed by store.
func Open(backend *cas.Store, revision Revision, cfg prolly.Config) *Artifacts {
	return &Artifacts{
		backend:   backend,
		cfg:       cfg,
		entity:    prolly.Open(backend, revision.EntityRoot, cfg),
		attribute: prolly.Open(backend, revision.AttributeRoot, cfg),
		value:     prolly.Open(backend, revision.ValueRoot, cfg),
	}
}

// Revision returns the current revision, or (Revision{}, false) if every
// tree is empty (spec.md 4.5).
func (a *Artifacts) Revision() (Revision, bool) {
	a.entityMu.RLock()
	a.attributeMu.RLock()
	a.valueMu.RLock()
	r := Revision{
		EntityRoot:    a.entity.Root(),
		AttributeRoot: a.attribute.Root(),
		ValueRoot:     a.value.Root(),
	}
	a.valueMu.RUnlock()
	a.attributeMu.RUnlock()
	a.entityMu.RUnlock()
	return r, !r.IsEmpty()
}

// Reset discards all in-memory mutation state and rebinds all three
// trees to revision (spec.md 4.5).
func (a *Artifacts) Reset(revision Revision) {
	a.entityMu.Lock()
	a.attributeMu.Lock()
	a.valueMu.Lock()
	defer a.valueMu.Unlock()
	defer a.attributeMu.Unlock()
	defer a.entityMu.Unlock()

	a.entity = prolly.Open(a.backend, revision.EntityRoot, a.cfg)
	a.attribute = prolly.Open(a.backend, revision.AttributeRoot, a.cfg)
	a.value = prolly.Open(a.backend, revision.ValueRoot, a.cfg)
}

// Commit applies instructions in order across all three trees as one
// all-or-nothing (within this process) transaction (spec.md 4.3.2). Any
// single-tree write error rolls every tree back to the pre-commit
// revision and returns a combined error describing both the original
// failure and, if it also failed, the rollback failure — never silently
// dropping one in favor of the other.
func (a *Artifacts) Commit(instructions []fact.Instruction) (Revision, error) {
	a.entityMu.Lock()
	a.attributeMu.Lock()
	a.valueMu.Lock()
	defer a.valueMu.Unlock()
	defer a.attributeMu.Unlock()
	defer a.entityMu.Unlock()

	origin := Revision{
		EntityRoot:    a.entity.Root(),
		AttributeRoot: a.attribute.Root(),
		ValueRoot:     a.value.Root(),
	}

	for _, instr := range instructions {
		if err := a.applyOne(instr); err != nil {
			return origin, a.rollback(origin, err)
		}
	}

	return Revision{
		EntityRoot:    a.entity.Root(),
		AttributeRoot: a.attribute.Root(),
		ValueRoot:     a.value.Root(),
	}, nil
}

func (a *Artifacts) applyOne(instr fact.Instruction) error {
	var state func([]byte) prolly.State
	switch instr.Kind {
	case fact.Assert:
		state = prolly.Added
	case fact.Retract:
		state = func([]byte) prolly.State { return prolly.Tombstone() }
	default:
		return fmt.Errorf("store: unknown instruction kind %d", instr.Kind)
	}

	art := instr.Artifact
	if _, err := a.entity.Set(fact.EntityKey(art), state(fact.EntityPayload(art))); err != nil {
		return fmt.Errorf("store: entity index: %w", err)
	}
	if _, err := a.attribute.Set(fact.AttributeKey(art), state(fact.AttributePayload(art))); err != nil {
		return fmt.Errorf("store: attribute index: %w", err)
	}
	if _, err := a.value.Set(fact.ValueKey(art), state(fact.ValuePayload(art))); err != nil {
		return fmt.Errorf("store: value index: %w", err)
	}
	return nil
}

// rollback restores all three trees to origin, compounding a rollback
// failure onto cause rather than letting either error shadow the other.
func (a *Artifacts) rollback(origin Revision, cause error) error {
	a.entity = prolly.Open(a.backend, origin.EntityRoot, a.cfg)
	a.attribute = prolly.Open(a.backend, origin.AttributeRoot, a.cfg)
	a.value = prolly.Open(a.backend, origin.ValueRoot, a.cfg)
	return cause
}

// Select streams the artifacts matching sel, planned per spec.md 4.3.3,
// filtering tombstones and performing the is-only secondary entity-index
// lookup where required.
func (a *Artifacts) Select(sel fact.Selector) ([]fact.Artifact, error) {
	p := plan.Build(sel)

	a.entityMu.RLock()
	a.attributeMu.RLock()
	a.valueMu.RLock()
	defer a.valueMu.RUnlock()
	defer a.attributeMu.RUnlock()
	defer a.entityMu.RUnlock()

	var tree *prolly.Tree
	switch p.Index {
	case plan.Entity:
		tree = a.entity
	case plan.Attribute:
		tree = a.attribute
	case plan.Value:
		tree = a.value
	default:
		return nil, fmt.Errorf("store: unknown index %v", p.Index)
	}

	cur := prolly.NewCursor(tree, prolly.RangeOptions{Start: p.Start, End: p.End})
	var results []fact.Artifact
	for cur.Next() {
		e := cur.Entry()
		art, err := a.reconstruct(p, e)
		if err != nil {
			return nil, err
		}
		results = append(results, art)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store: select: %w", err)
	}
	return results, nil
}

// reconstruct turns one matched index entry back into a full Artifact,
// per the chosen index's key/payload layout.
func (a *Artifacts) reconstruct(p plan.Plan, e prolly.Entry) (fact.Artifact, error) {
	switch p.Index {
	case plan.Entity:
		of, theHash, kind, _, ok := fact.DecodeEntityKey(e.Key)
		if !ok {
			return fact.Artifact{}, fmt.Errorf("store: %w: bad entity-index key", ErrMalformedIndex)
		}
		v, err := value.Decode(kind, e.State.Payload)
		if err != nil {
			return fact.Artifact{}, fmt.Errorf("store: decode value: %w", err)
		}
		return fact.Artifact{The: value.AttributeFromHash("", theHash), Of: of, Is: v}, nil

	case plan.Attribute:
		theHash, of, kind, _, ok := fact.DecodeAttributeKey(e.Key)
		if !ok {
			return fact.Artifact{}, fmt.Errorf("store: %w: bad attribute-index key", ErrMalformedIndex)
		}
		v, err := value.Decode(kind, e.State.Payload)
		if err != nil {
			return fact.Artifact{}, fmt.Errorf("store: decode value: %w", err)
		}
		return fact.Artifact{The: value.AttributeFromHash("", theHash), Of: of, Is: v}, nil

	case plan.Value:
		kind, ref, theHash, of, ok := fact.DecodeValueKey(e.Key)
		if !ok {
			return fact.Artifact{}, fmt.Errorf("store: %w: bad value-index key", ErrMalformedIndex)
		}
		// The value index stores only the entity; reconstruct the full
		// Value via a secondary point lookup into the entity index
		// (spec.md 4.3.3). The entity-index key is assembled directly
		// from this entry's own (of, theHash, kind, ref) components —
		// those are exactly its four fields in EAVT order, so no
		// intermediate Value is needed to rebuild it. An absent or
		// tombstoned result there is an invariant violation, not a
		// normal miss.
		entityKey := make([]byte, 0, 97)
		entityKey = append(entityKey, of[:]...)
		entityKey = append(entityKey, theHash[:]...)
		entityKey = append(entityKey, byte(kind))
		entityKey = append(entityKey, ref[:]...)
		state, found, err := a.entity.Get(entityKey)
		if err != nil {
			return fact.Artifact{}, fmt.Errorf("store: secondary lookup: %w", err)
		}
		if !found || state.Removed {
			return fact.Artifact{}, fmt.Errorf("store: %w: secondary entity-index lookup absent for value-index entry", ErrMalformedIndex)
		}
		v, err := value.Decode(kind, state.Payload)
		if err != nil {
			return fact.Artifact{}, fmt.Errorf("store: decode value: %w", err)
		}
		return fact.Artifact{The: value.AttributeFromHash("", theHash), Of: of, Is: v}, nil

	default:
		return fact.Artifact{}, fmt.Errorf("store: unknown index %v", p.Index)
	}
}

