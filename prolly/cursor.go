package prolly

import (
	"bytes"

	"github.com/dialog-db/dialog/cas"
)

// RangeOptions bounds a Cursor's traversal (spec.md 4.2.4): a half-open
// [Start, End) key range, either bound nil meaning unbounded on that side.
// IncludeTombstones requests raw entries (Added and Removed alike) for
// diffing callers; by default a Cursor yields only Added entries.
type RangeOptions struct {
	Start             []byte
	End               []byte
	IncludeTombstones bool
}

// frame is one branch level on the descent stack: the node's links and
// the index of the link most recently descended into.
type frame struct {
	links []Link
	idx   int
}

// Cursor is an in-order iterator over a Tree's entries within a range
// (spec.md 4.2.4's stream_range). It suspends at every node load, so a
// caller driving it one Next() at a time never holds more than the
// current root-to-leaf path in memory. It is single-pass and not
// restartable; call NewCursor again to restart (spec.md 9: "Streams are
// lazy sequences... not restartable").
type Cursor struct {
	tree *Tree
	opt  RangeOptions

	stack   []frame
	leaf    *Segment
	leafIdx int

	cur  Entry
	err  error
	done bool
}

// NewCursor returns a Cursor over tree's entries in opt's range, in
// ascending key order.
func NewCursor(tree *Tree, opt RangeOptions) *Cursor {
	c := &Cursor{tree: tree, opt: opt}
	if tree.IsEmpty() {
		c.done = true
		return c
	}
	if err := c.descend(tree.root, true); err != nil {
		c.err = err
		c.done = true
	}
	return c
}

// descend walks from h to its leftmost leaf. When useStart is true and
// opt.Start is set, it instead follows the path toward the first key
// that could be >= opt.Start.
func (c *Cursor) descend(h cas.Hash, useStart bool) error {
	for {
		seg, br, err := c.tree.load(h)
		if err != nil {
			return err
		}
		if seg != nil {
			idx := 0
			if useStart && c.opt.Start != nil {
				for idx < len(seg.Entries) && bytes.Compare(seg.Entries[idx].Key, c.opt.Start) < 0 {
					idx++
				}
			}
			c.leaf = seg
			c.leafIdx = idx
			return nil
		}
		idx := 0
		if useStart && c.opt.Start != nil {
			idx = br.locate(c.opt.Start)
		}
		c.stack = append(c.stack, frame{links: br.Links, idx: idx})
		h = br.Links[idx].Child
	}
}

// advance pops up the descent stack to the next unvisited sibling and
// descends leftmost from there, returning false once the tree is
// exhausted.
func (c *Cursor) advance() bool {
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		top.idx++
		if top.idx < len(top.links) {
			if err := c.descend(top.links[top.idx].Child, false); err != nil {
				c.err = err
				return false
			}
			return true
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	return false
}

// Next advances the cursor to the next in-range entry, returning false
// once the range is exhausted or an error occurred (distinguishable via
// Err).
func (c *Cursor) Next() bool {
	for {
		if c.done {
			return false
		}
		if c.leaf == nil {
			if !c.advance() {
				c.done = true
				return false
			}
		}
		for c.leafIdx < len(c.leaf.Entries) {
			e := c.leaf.Entries[c.leafIdx]
			c.leafIdx++
			if c.opt.End != nil && bytes.Compare(e.Key, c.opt.End) >= 0 {
				c.done = true
				return false
			}
			if !c.opt.IncludeTombstones && e.State.Removed {
				continue
			}
			c.cur = e
			return true
		}
		c.leaf = nil
	}
}

// Entry returns the entry the most recent successful Next() produced.
func (c *Cursor) Entry() Entry { return c.cur }

// Err returns the first error encountered, if any.
func (c *Cursor) Err() error { return c.err }
