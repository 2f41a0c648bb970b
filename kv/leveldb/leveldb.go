// Package leveldb is a disk-backed kv.Store over github.com/syndtr/goleveldb,
// adapted from the teacher's lvldb package (New/NewMem/Options constructors,
// IsNotFound translation) and extended to the full kv.Store contract
// (range iteration, range deletion, snapshots, batched writes).
package leveldb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/dialog-db/dialog/kv"
)

// Options configures the underlying goleveldb instance. CacheSize and
// FileCache are in mebibytes/file-descriptor counts respectively, the same
// units the teacher's lvldb.Options used.
type Options struct {
	CacheSize int
	FileCache int
}

func (o Options) toOpt() *opt.Options {
	out := &opt.Options{}
	if o.CacheSize > 0 {
		out.BlockCacheCapacity = o.CacheSize * opt.MiB
	}
	if o.FileCache > 0 {
		out.OpenFilesCacheCapacity = o.FileCache
	}
	return out
}

// Store wraps a *leveldb.DB as a kv.Store.
type Store struct {
	db *leveldb.DB
}

// New opens (creating if absent) a LevelDB store at path.
func New(path string, opts Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, opts.toOpt())
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: open")
	}
	return &Store{db: db}, nil
}

// NewMem opens an in-memory LevelDB instance, useful for tests that want
// goleveldb's exact semantics without touching disk.
func NewMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: open in-memory")
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *Store) Put(key, val []byte) error {
	return s.db.Put(key, val, nil)
}

func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

func (s *Store) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DeleteRange(ctx context.Context, r kv.Range) error {
	it := s.db.NewIterator(&ldbutil.Range{Start: r.Start, Limit: r.Limit}, nil)
	defer it.Release()
	batch := new(leveldb.Batch)
	for it.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

type storeIterator struct {
	it iterator.Iterator
}

func (s *Store) Iterate(r kv.Range) kv.Iterator {
	return &storeIterator{it: s.db.NewIterator(&ldbutil.Range{Start: r.Start, Limit: r.Limit}, nil)}
}

func (si *storeIterator) First() bool   { return si.it.First() }
func (si *storeIterator) Last() bool    { return si.it.Last() }
func (si *storeIterator) Next() bool    { return si.it.Next() }
func (si *storeIterator) Prev() bool    { return si.it.Prev() }
func (si *storeIterator) Key() []byte   { return si.it.Key() }
func (si *storeIterator) Value() []byte { return si.it.Value() }
func (si *storeIterator) Release()      { si.it.Release() }
func (si *storeIterator) Error() error  { return si.it.Error() }

// Batch mirrors the teacher's lvldb.Batch entry point: an explicit,
// growable write batch with an optional auto-flush threshold.
type Batch struct {
	db       *leveldb.DB
	b        *leveldb.Batch
	autoSize int
}

// NewBatch creates a fresh write batch against the store.
func (s *Store) NewBatch() *Batch {
	return &Batch{db: s.db, b: new(leveldb.Batch)}
}

func (b *Batch) Put(key, val []byte) error {
	b.b.Put(key, val)
	return b.maybeFlush()
}

func (b *Batch) Delete(key []byte) error {
	b.b.Delete(key)
	return b.maybeFlush()
}

func (b *Batch) EnableAutoFlush() { b.autoSize = 4096 }

func (b *Batch) maybeFlush() error {
	if b.autoSize > 0 && b.b.Len() >= b.autoSize {
		if err := b.Write(); err != nil {
			return err
		}
		b.b = new(leveldb.Batch)
	}
	return nil
}

func (b *Batch) Len() int { return b.b.Len() }

func (b *Batch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *Batch) NewBatch() *Batch { return &Batch{db: b.db, b: new(leveldb.Batch)} }

func (s *Store) Bulk() kv.Bulk { return s.NewBatch() }

type snapshot struct {
	snap *leveldb.Snapshot
}

func (sn *snapshot) Get(key []byte) ([]byte, error) {
	return sn.snap.Get(key, nil)
}

func (sn *snapshot) Has(key []byte) (bool, error) {
	return sn.snap.Has(key, nil)
}

func (sn *snapshot) IsNotFound(err error) bool { return errors.Is(err, leveldb.ErrNotFound) }
func (sn *snapshot) Release()                  { sn.snap.Release() }

func (s *Store) Snapshot() kv.Snapshot {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return &snapshot{}
	}
	return &snapshot{snap: snap}
}
