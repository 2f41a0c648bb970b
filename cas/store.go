// Package cas implements the content-addressed block store (spec.md 4.1):
// a thin wrapper over a kv.Store backend that computes BLAKE3 on write,
// verifies on read, and caches decoded block bytes. It knows nothing about
// the structure of a block's payload (Segment vs Branch) — that decoding
// lives in the prolly package — only about the discriminator byte that
// begins every block (spec.md 6.2).
package cas

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/dialog-db/dialog/cache"
	"github.com/dialog-db/dialog/kv"
)

// Config tunes a Store (spec.md 9's tree-construction options that are
// cache/verification related; BranchFactor lives in the prolly package).
type Config struct {
	// CacheCapacity is the number of decoded blocks the in-process LRU
	// tier may hold. Zero selects an implementation-defined default.
	CacheCapacity int
	// StrictHashVerification re-hashes every block read from the backend
	// and compares it against the requested Hash. Defaults to true; only
	// disable it for a backend already known to enforce content-addressing
	// itself (e.g. a signed object store).
	StrictHashVerification bool
	// Compress snappy-compresses block bytes before handing them to the
	// backend. The hash is always computed over the canonical,
	// uncompressed bytes, so this is invisible outside the store.
	Compress bool
}

// DefaultConfig returns the Store defaults: a 4096-block LRU, strict
// verification on, compression off.
func DefaultConfig() Config {
	return Config{CacheCapacity: 4096, StrictHashVerification: true}
}

// Store is the content-addressed block store: write/read/has over a
// kv.Store backend, with BLAKE3 hashing, optional verification, and a
// two-tier cache (an in-process LRU of decoded bytes backed by an
// off-heap directcache tier for blocks evicted from the LRU but still
// hot, mirroring the teacher's muxdb node-cache split between
// hashicorp/golang-lru and qianbin/directcache).
type Store struct {
	backend  kv.GetPutter
	notFound kv.IsNotFounder
	cfg      Config
	hot      *cache.LRU
	warm     *directcache.Cache
}

// New wraps backend as a content-addressed Store.
func New(backend kv.GetPutter, notFound kv.IsNotFounder, cfg Config) *Store {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultConfig().CacheCapacity
	}
	return &Store{
		backend:  backend,
		notFound: notFound,
		cfg:      cfg,
		hot:      cache.NewLRU(cfg.CacheCapacity),
		warm:     directcache.New(cfg.CacheCapacity * 4096),
	}
}

// Write serializes block, computes its BLAKE3 hash, and persists it under
// that hash. Writing identical bytes twice is idempotent: the backend
// write is attempted every time (the backend itself must tolerate
// repeated identical writes — spec.md 4.1), but the hash returned is
// always the same.
func (s *Store) Write(block []byte) (Hash, error) {
	h := Sum(block)
	stored := block
	if s.cfg.Compress {
		stored = snappy.Encode(nil, block)
	}
	if err := s.backend.Put(h[:], stored); err != nil {
		return Hash{}, errors.Wrapf(err, "cas: write block %s", h)
	}
	s.hot.Add(h, block)
	s.warm.Set(h[:], block)
	return h, nil
}

// Read fetches the block stored at h, verifying its hash unless
// StrictHashVerification is disabled. A block present in the backend but
// failing to decompress, or failing verification, is ErrMalformedBlock /
// ErrHashMismatch — both fatal, unlike a simple absence.
func (s *Store) Read(h Hash) ([]byte, error) {
	if v, ok := s.hot.Get(h); ok {
		return v.([]byte), nil
	}
	if v, ok := s.warm.Get(h[:]); ok {
		cp := append([]byte(nil), v...)
		s.hot.Add(h, cp)
		return cp, nil
	}

	raw, err := s.backend.Get(h[:])
	if err != nil {
		if s.notFound != nil && s.notFound.IsNotFound(err) {
			return nil, errors.Wrapf(ErrMissingBlock, "%s", h)
		}
		return nil, errors.Wrapf(err, "cas: read block %s", h)
	}

	block := raw
	if s.cfg.Compress {
		block, err = snappy.Decode(nil, raw)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedBlock, "%s: snappy decode: %v", h, err)
		}
	}
	if s.cfg.StrictHashVerification {
		if got := Sum(block); got != h {
			return nil, errors.Wrapf(ErrHashMismatch, "%s: got %s", h, got)
		}
	}
	s.hot.Add(h, block)
	s.warm.Set(h[:], block)
	return block, nil
}

// Has reports whether h is present in the backend. It is permitted to be
// approximate upward only in the presence of concurrent backend deletion;
// kv.Store backends never produce false positives.
func (s *Store) Has(h Hash) (bool, error) {
	if _, ok := s.hot.Get(h); ok {
		return true, nil
	}
	ok, err := s.backend.Has(h[:])
	if err != nil {
		return false, errors.Wrapf(err, "cas: has block %s", h)
	}
	return ok, nil
}
