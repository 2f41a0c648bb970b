package kv

import "context"

// Bucket namespaces keys within a shared backend by prefixing them with
// a string, letting several logical K/V spaces (three index trees' block
// stores plus the revision cell) share one physical Store.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	if len(b) == 0 {
		return key
	}
	out := make([]byte, 0, len(b)+len(key))
	out = append(out, b...)
	out = append(out, key...)
	return out
}

func (b Bucket) trim(key []byte) []byte {
	if len(b) == 0 || len(key) < len(b) {
		return key
	}
	return key[len(b):]
}

type bucketGetter struct {
	bucket Bucket
	getter Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.getter.Get(g.bucket.key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.getter.Has(g.bucket.key(key)) }

// NewGetter returns a Getter whose keys are implicitly prefixed with b.
func (b Bucket) NewGetter(getter Getter) Getter {
	return &bucketGetter{b, getter}
}

type bucketPutter struct {
	bucket Bucket
	putter Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.putter.Put(p.bucket.key(key), val) }
func (p *bucketPutter) Delete(key []byte) error    { return p.putter.Delete(p.bucket.key(key)) }

// NewPutter returns a Putter whose keys are implicitly prefixed with b.
func (b Bucket) NewPutter(putter Putter) Putter {
	return &bucketPutter{b, putter}
}

type bucketIterator struct {
	bucket Bucket
	Iterator
}

func (it *bucketIterator) Key() []byte { return it.bucket.trim(it.Iterator.Key()) }

type bucketBulk struct {
	bucket Bucket
	Bulk
}

func (blk *bucketBulk) Put(key, val []byte) error { return blk.Bulk.Put(blk.bucket.key(key), val) }
func (blk *bucketBulk) Delete(key []byte) error    { return blk.Bulk.Delete(blk.bucket.key(key)) }

type bucketSnapshot struct {
	bucket Bucket
	Snapshot
}

func (s *bucketSnapshot) Get(key []byte) ([]byte, error) { return s.Snapshot.Get(s.bucket.key(key)) }
func (s *bucketSnapshot) Has(key []byte) (bool, error)   { return s.Snapshot.Has(s.bucket.key(key)) }

type bucketStore struct {
	bucket Bucket
	store  Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.store.Get(s.bucket.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.store.Has(s.bucket.key(key)) }
func (s *bucketStore) Put(key, val []byte) error      { return s.store.Put(s.bucket.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.store.Delete(s.bucket.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.store.IsNotFound(err) }
func (s *bucketStore) Close() error                   { return nil }

func (s *bucketStore) DeleteRange(ctx context.Context, r Range) error {
	return s.store.DeleteRange(ctx, Range{Start: s.bucket.key(r.Start), Limit: s.bucket.key(r.Limit)})
}

func (s *bucketStore) Iterate(r Range) Iterator {
	it := s.store.Iterate(Range{Start: s.bucket.key(r.Start), Limit: s.bucket.key(r.Limit)})
	return &bucketIterator{s.bucket, it}
}

func (s *bucketStore) Bulk() Bulk {
	return &bucketBulk{s.bucket, s.store.Bulk()}
}

func (s *bucketStore) Snapshot() Snapshot {
	return &bucketSnapshot{s.bucket, s.store.Snapshot()}
}

// NewStore returns a Store scoped to b, namespacing every key written
// through it and trimming the prefix back off on iteration.
func (b Bucket) NewStore(store Store) Store {
	return &bucketStore{b, store}
}
