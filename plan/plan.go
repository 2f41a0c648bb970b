// Package plan implements the pure selector planner (spec.md 4.4): a
// function from a fact.Selector to an index choice, a key range, and
// whether the is-only secondary entity-index lookup is required.
package plan

import (
	"github.com/dialog-db/dialog/fact"
)

// Index names which of the three prolly trees a Plan reads from.
type Index int

const (
	Entity Index = iota
	Attribute
	Value
)

func (i Index) String() string {
	switch i {
	case Entity:
		return "entity"
	case Attribute:
		return "attribute"
	case Value:
		return "value"
	default:
		return "unknown"
	}
}

// Plan is the selector planner's output: which index to stream from, the
// [Start, End) key range (End nil means unbounded upward), and whether
// every match needs the is-only secondary lookup (spec.md 4.3.3).
type Plan struct {
	Index           Index
	Start           []byte
	End             []byte
	SecondaryLookup bool
}

// Build plans sel against the fixed decision table in spec.md 4.3.3. Ties
// (both Of and The set) favor the more selective specialized range, which
// here means the Entity index narrowed by both fields at once.
func Build(sel fact.Selector) Plan {
	switch {
	case sel.Of != nil:
		prefix := append([]byte(nil), sel.Of[:]...)
		if sel.The != nil {
			h := sel.The.Hash()
			prefix = append(prefix, h[:]...)
		}
		return rangePlan(Entity, prefix, false)

	case sel.The != nil:
		h := sel.The.Hash()
		prefix := append([]byte(nil), h[:]...)
		return rangePlan(Attribute, prefix, false)

	case sel.Is != nil:
		ref := sel.Is.Reference()
		prefix := append([]byte{byte(sel.Is.Kind())}, ref[:]...)
		return rangePlan(Value, prefix, true)

	default:
		return rangePlan(Entity, nil, false)
	}
}

func rangePlan(idx Index, prefix []byte, secondary bool) Plan {
	var start []byte
	if len(prefix) > 0 {
		start = prefix
	}
	return Plan{Index: idx, Start: start, End: prefixEnd(prefix), SecondaryLookup: secondary}
}

// prefixEnd returns the smallest key that is strictly greater than every
// key beginning with prefix, i.e. the exclusive upper bound of the range
// "all keys with this prefix". It returns nil (meaning unbounded) both for
// an empty prefix and for a prefix that is entirely 0xFF bytes, since no
// finite successor exists.
func prefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
