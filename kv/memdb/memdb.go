// Package memdb is an in-memory kv.Store backed by a google/btree ordered
// map, suitable for tests and for the ephemeral "volatile" backend shape
// described in original_source's dialog-storage/storage/provider/volatile.
package memdb

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/dialog-db/dialog/kv"
)

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("memdb: not found")

type item struct {
	key, val []byte
}

func (a item) Less(b btree.Item) bool {
	return bytes.Compare(a.key, b.(item).key) < 0
}

// Store is an in-memory, btree-ordered kv.Store.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New creates an empty in-memory store. Options is accepted for interface
// parity with the disk-backed constructors; memdb ignores it.
func New(_ kv.Options) *Store {
	return &Store{tree: btree.New(32)}
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it := s.tree.Get(item{key: key}); it != nil {
		v := it.(item).val
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}
	return nil, ErrNotFound
}

func (s *Store) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(item{key: key}) != nil, nil
}

func (s *Store) Put(key, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := append([]byte(nil), key...)
	v := append([]byte(nil), val...)
	s.tree.ReplaceOrInsert(item{key: k, val: v})
	return nil
}

func (s *Store) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Delete(item{key: key})
	return nil
}

func (s *Store) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func (s *Store) Close() error { return nil }

func (s *Store) DeleteRange(_ context.Context, r kv.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var toDelete []btree.Item
	s.tree.AscendRange(item{key: r.Start}, rangeLimit(r.Limit), func(it btree.Item) bool {
		toDelete = append(toDelete, it)
		return true
	})
	for _, it := range toDelete {
		s.tree.Delete(it)
	}
	return nil
}

// rangeLimit returns a sentinel item one past the largest key the range
// should include; a nil Limit means "to the end", which google/btree's
// AscendRange cannot express directly, so callers with a nil Limit should
// use Iterate instead of DeleteRange semantics depending on it.
func rangeLimit(limit []byte) btree.Item {
	if limit == nil {
		return item{key: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}}
	}
	return item{key: limit}
}

// Bulk batches writes; memdb applies them eagerly (there is no WAL to
// amortize), but still honors the Bulk contract for interface parity.
type bulk struct {
	s    *Store
	ops  []func()
}

func (b *bulk) Put(key, val []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), val...)
	b.ops = append(b.ops, func() { b.s.tree.ReplaceOrInsert(item{key: k, val: v}) })
	return nil
}

func (b *bulk) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	b.ops = append(b.ops, func() { b.s.tree.Delete(item{key: k}) })
	return nil
}

func (b *bulk) EnableAutoFlush() {}

func (b *bulk) Write() error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, op := range b.ops {
		op()
	}
	b.ops = nil
	return nil
}

func (s *Store) Bulk() kv.Bulk { return &bulk{s: s} }

type snapshot struct {
	items []item
}

func (ss *snapshot) Get(key []byte) ([]byte, error) {
	for _, it := range ss.items {
		if bytes.Equal(it.key, key) {
			return it.val, nil
		}
	}
	return nil, ErrNotFound
}

func (ss *snapshot) Has(key []byte) (bool, error) {
	_, err := ss.Get(key)
	return err == nil, nil
}

func (ss *snapshot) IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func (ss *snapshot) Release()                  {}

func (s *Store) Snapshot() kv.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]item, 0, s.tree.Len())
	s.tree.Ascend(func(it btree.Item) bool {
		items = append(items, it.(item))
		return true
	})
	return &snapshot{items: items}
}

type iterator struct {
	items []item
	pos   int
	done  bool
}

func (s *Store) Iterate(r kv.Range) kv.Iterator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []item
	pivot := item{key: r.Start}
	walk := func(it btree.Item) bool {
		i := it.(item)
		if r.Limit != nil && bytes.Compare(i.key, r.Limit) >= 0 {
			return false
		}
		items = append(items, i)
		return true
	}
	if r.Start == nil {
		s.tree.Ascend(walk)
	} else {
		s.tree.AscendGreaterOrEqual(pivot, walk)
	}
	return &iterator{items: items, pos: -1}
}

func (it *iterator) First() bool {
	if len(it.items) == 0 {
		return false
	}
	it.pos = 0
	return true
}

func (it *iterator) Last() bool {
	if len(it.items) == 0 {
		return false
	}
	it.pos = len(it.items) - 1
	return true
}

func (it *iterator) Next() bool {
	if it.pos+1 >= len(it.items) {
		it.pos = len(it.items)
		return false
	}
	it.pos++
	return true
}

func (it *iterator) Prev() bool {
	if it.pos <= 0 {
		return false
	}
	it.pos--
	return true
}

func (it *iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.items) {
		return nil
	}
	return it.items[it.pos].key
}

func (it *iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.items) {
		return nil
	}
	return it.items[it.pos].val
}

func (it *iterator) Release()     {}
func (it *iterator) Error() error { return nil }
