package prolly

import (
	"bytes"

	"github.com/dialog-db/dialog/cas"
)

// pathFrame records, for one branch level visited while descending to the
// target leaf, the sibling links to either side of the child actually
// descended into. Those siblings are structurally unchanged and are
// re-mixed with the newly built nodes on the way back up (spec.md 4.2.2
// step 4: "current-level nodes are mixed with their left- and right-
// siblings from the search path").
type pathFrame struct {
	left  []Link
	right []Link
}

// rankedLink pairs a Link with the rank that justified closing the node
// it points to (or, for a leftover fragment, the round's minimum rank as
// a fallback tag) — the value round m+1 tests against its own threshold.
type rankedLink struct {
	link Link
	rank int
}

// insert computes the new root produced by writing state at key,
// reproducing the reference join_with_rank algorithm: descend to the
// target leaf recording unchanged siblings, rebuild the leaf's entries
// into one or more segments, then repeatedly rejoin the resulting links
// with the next level's unchanged siblings until a single node remains
// and no path frames are left (spec.md 4.2.2, resolved against
// dialog-db/x-prolly-tree's Node::join_with_rank — see this package's
// doc comment).
func (t *Tree) insert(key []byte, state State) (cas.Hash, error) {
	branchFactor := t.cfg.branchFactor()

	if t.IsEmpty() {
		seg := &Segment{Entries: []Entry{{Key: append([]byte(nil), key...), State: state}}}
		h, err := t.writeSegment(seg)
		return h, err
	}

	var stack []pathFrame
	h := t.root
	for {
		seg, br, err := t.load(h)
		if err != nil {
			return cas.Hash{}, err
		}
		if seg != nil {
			entries := spliceEntry(seg.Entries, key, state)
			return t.rejoin(entries, stack, branchFactor)
		}

		idx := br.locate(key)
		frame := pathFrame{
			left:  append([]Link(nil), br.Links[:idx]...),
			right: append([]Link(nil), br.Links[idx+1:]...),
		}
		stack = append(stack, frame)
		h = br.Links[idx].Child
	}
}

// spliceEntry returns a copy of entries with (key, state) inserted or
// replacing the existing entry at key, preserving strict ascending order.
func spliceEntry(entries []Entry, key []byte, state State) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	inserted := false
	for _, e := range entries {
		cmp := bytes.Compare(key, e.Key)
		if cmp == 0 {
			out = append(out, Entry{Key: append([]byte(nil), key...), State: state})
			inserted = true
			continue
		}
		if cmp < 0 && !inserted {
			out = append(out, Entry{Key: append([]byte(nil), key...), State: state})
			inserted = true
		}
		out = append(out, e)
	}
	if !inserted {
		out = append(out, Entry{Key: append([]byte(nil), key...), State: state})
	}
	return out
}

// rejoin rebuilds a leaf's entries into one or more segments (round 1),
// then repeatedly mixes the resulting links with unchanged siblings
// popped from stack and repartitions at each successive round, until
// stack is exhausted and exactly one node remains.
func (t *Tree) rejoin(entries []Entry, stack []pathFrame, branchFactor int) (cas.Hash, error) {
	nodes, err := joinEntries(entries, 1, branchFactor, t.writeSegment)
	if err != nil {
		return cas.Hash{}, err
	}

	minRank := 2
	for {
		// A single node with no remaining path frames needs no branch
		// wrapper: it becomes the new root directly (spec.md 4.2.2's
		// "root shrinks" edge case).
		if len(stack) == 0 && len(nodes) == 1 {
			return nodes[0].link.Child, nil
		}

		var frame pathFrame
		if len(stack) > 0 {
			frame = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}

		combined := make([]rankedLink, 0, len(frame.left)+len(nodes)+len(frame.right))
		for _, l := range frame.left {
			combined = append(combined, rankedLink{l, Rank(l.Bound, branchFactor)})
		}
		combined = append(combined, nodes...)
		for _, l := range frame.right {
			combined = append(combined, rankedLink{l, Rank(l.Bound, branchFactor)})
		}

		nodes, err = joinLinks(combined, minRank, branchFactor, t.writeBranch)
		if err != nil {
			return cas.Hash{}, err
		}
		minRank++
	}
}

// joinEntries partitions entries into one or more segments: each entry
// whose rank is greater than minimumRank closes the segment currently
// being accumulated (that entry becomes the new segment's last, and its
// rank tags the resulting link). Any trailing entries left over at the
// end are written as one final segment tagged with minimumRank itself —
// a fallback, since nothing terminated that run (spec.md 4.2.2's "repeat
// until... no further path entries exist" bottoms out here for the
// initial, entry-level round).
func joinEntries(entries []Entry, minimumRank, branchFactor int, write func(*Segment) (cas.Hash, error)) ([]rankedLink, error) {
	var out []rankedLink
	var pending []Entry
	for _, e := range entries {
		pending = append(pending, e)
		r := Rank(e.Key, branchFactor)
		if r > minimumRank {
			h, err := write(&Segment{Entries: pending})
			if err != nil {
				return nil, err
			}
			out = append(out, rankedLink{Link{Bound: pending[len(pending)-1].Key, Child: h}, r})
			pending = nil
		}
	}
	if len(pending) > 0 {
		h, err := write(&Segment{Entries: pending})
		if err != nil {
			return nil, err
		}
		out = append(out, rankedLink{Link{Bound: pending[len(pending)-1].Key, Child: h}, minimumRank})
	}
	return out, nil
}

// joinLinks is joinEntries' counterpart for branch levels: it partitions
// a sequence of already-ranked links (rank derived from their source
// level) the same way, producing the next level's links.
func joinLinks(items []rankedLink, minimumRank, branchFactor int, write func(*Branch) (cas.Hash, error)) ([]rankedLink, error) {
	var out []rankedLink
	var pending []Link
	for _, it := range items {
		pending = append(pending, it.link)
		if it.rank > minimumRank {
			h, err := write(&Branch{Links: pending})
			if err != nil {
				return nil, err
			}
			out = append(out, rankedLink{Link{Bound: pending[len(pending)-1].Bound, Child: h}, it.rank})
			pending = nil
		}
	}
	if len(pending) > 0 {
		h, err := write(&Branch{Links: pending})
		if err != nil {
			return nil, err
		}
		out = append(out, rankedLink{Link{Bound: pending[len(pending)-1].Bound, Child: h}, minimumRank})
	}
	return out, nil
}
