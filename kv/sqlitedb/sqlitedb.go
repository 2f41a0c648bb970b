// Package sqlitedb is a kv.Store backed by github.com/mattn/go-sqlite3,
// adapted from the teacher's logdb/sqlitedb and logsdb/sqlite3 packages
// (single-table blob store, WAL journal mode). It is a backend choice, not
// a SQL query surface over triples: spec.md's "no SQL surface" non-goal
// binds the triple-store API, not the storage engine underneath it.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/dialog-db/dialog/kv"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
);`

// ErrNotFound is returned by Get for an absent key.
var ErrNotFound = errors.New("sqlitedb: not found")

// Store is a single-table blob store over an SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if absent) a SQLite-backed store at path. An empty
// path opens an ephemeral in-memory database, matching go-sqlite3's
// ":memory:" convention.
func New(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "sqlitedb: open")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlitedb: create schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *Store) Has(key []byte) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM kv WHERE key = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Put(key, val []byte) error {
	_, err := s.db.Exec(`INSERT INTO kv(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	return err
}

func (s *Store) Delete(key []byte) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *Store) IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DeleteRange(ctx context.Context, r kv.Range) error {
	if r.Limit == nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key >= ?`, r.Start)
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key >= ? AND key < ?`, r.Start, r.Limit)
	return err
}

func (s *Store) Iterate(r kv.Range) kv.Iterator {
	var rows *sql.Rows
	var err error
	switch {
	case r.Start == nil && r.Limit == nil:
		rows, err = s.db.Query(`SELECT key, value FROM kv ORDER BY key`)
	case r.Limit == nil:
		rows, err = s.db.Query(`SELECT key, value FROM kv WHERE key >= ? ORDER BY key`, r.Start)
	default:
		rows, err = s.db.Query(`SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key`, r.Start, r.Limit)
	}
	if err != nil {
		return &iterator{err: err}
	}
	var items []kvPair
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return &iterator{err: err}
		}
		items = append(items, kvPair{k, v})
	}
	rows.Close()
	return &iterator{items: items, pos: -1}
}

type kvPair struct{ key, val []byte }

type iterator struct {
	items []kvPair
	pos   int
	err   error
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
func (it *iterator) Error() error { return it.err }

type batch struct {
	s   *Store
	ops []func(tx *sql.Tx) error
}

func (s *Store) Bulk() kv.Bulk { return &batch{s: s} }

func (b *batch) Put(key, val []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), val...)
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
		return err
	})
	return nil
}

func (b *batch) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k)
		return err
	})
	return nil
}

func (b *batch) EnableAutoFlush() {}

func (b *batch) Write() error {
	tx, err := b.s.db.Begin()
	if err != nil {
		return err
	}
	for _, op := range b.ops {
		if err := op(tx); err != nil {
			tx.Rollback()
			return err
		}
	}
	b.ops = nil
	return tx.Commit()
}

// snapshot takes a consistent read-only view via SQLite's own MVCC
// (a single long-lived read transaction), matching the teacher's use of
// goleveldb snapshots for the same purpose.
type snapshot struct {
	tx *sql.Tx
}

func (s *Store) Snapshot() kv.Snapshot {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return &snapshot{}
	}
	return &snapshot{tx: tx}
}

func (ss *snapshot) Get(key []byte) ([]byte, error) {
	if ss.tx == nil {
		return nil, fmt.Errorf("sqlitedb: snapshot unavailable")
	}
	var v []byte
	err := ss.tx.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (ss *snapshot) Has(key []byte) (bool, error) {
	_, err := ss.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (ss *snapshot) IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func (ss *snapshot) Release() {
	if ss.tx != nil {
		ss.tx.Rollback()
	}
}
