// Package kv defines the pluggable key/value backend port the rest of the
// module is written against (spec.md 6.1): a byte-keyed map used both for
// content-addressed blocks (hash -> block bytes) and for the CAS revision
// cell (subject -> revision tuple). Concrete backends live in the memdb,
// leveldb and sqlitedb subpackages.
package kv

import "context"

// Range bounds a key range as [Start, Limit).  A nil Limit means
// "unbounded upward".
type Range struct {
	Start []byte
	Limit []byte
}

// Getter reads values by key.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// Putter writes and deletes values by key.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// GetPutter is a Getter and a Putter.
type GetPutter interface {
	Getter
	Putter
}

// IsNotFounder distinguishes a not-found error from any other failure, so
// callers can translate backend-specific errors into the portable
// "absent" result the rest of the module expects.
type IsNotFounder interface {
	IsNotFound(err error) bool
}

// Iterator walks a key range in a backend. Next/Prev advance the cursor;
// First/Last seek to the bounds. Release must be called on every code
// path, including early return, to free backend resources.
type Iterator interface {
	First() bool
	Last() bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Bulk batches a sequence of writes for a backend that benefits from
// amortizing fsync/compaction cost (spec.md 4.2.2's per-commit write
// pattern is the main caller). EnableAutoFlush lets long bulk loads (e.g.
// restoring a backend from a snapshot) flush incrementally instead of
// holding the whole batch in memory.
type Bulk interface {
	Putter
	EnableAutoFlush()
	Write() error
}

// Snapshot is a point-in-time, read-only view of a Store.
type Snapshot interface {
	Getter
	IsNotFounder
	Release()
}

// Store is the full backend contract: a GetPutter plus range deletion,
// range iteration, batched writes and point-in-time snapshots.
type Store interface {
	GetPutter
	IsNotFounder
	DeleteRange(ctx context.Context, r Range) error
	Iterate(r Range) Iterator
	Bulk() Bulk
	Snapshot() Snapshot
	Close() error
}

// Options configures a backend constructor (NewMem, NewLevelDB, NewSQLite).
// Fields not meaningful to a given backend are ignored by it.
type Options struct {
	// CacheCapacity is the number of decoded blocks a backend-local cache
	// (where the backend maintains one) may hold. Zero selects an
	// implementation-defined default.
	CacheCapacity int
	// FileCache is the number of open file descriptors a disk-backed
	// store may cache (meaningful to leveldb/sqlitedb only).
	FileCache int
	// ReadOnly opens an existing backend without permitting writes.
	ReadOnly bool
}
