// Package publish implements the optional external revision-publication
// collaborator (spec.md 4.6): a compare-and-swap cell, keyed by subject,
// holding the canonical revision for that subject. commit makes a
// revision locally durable; publish is the separate step that makes it
// canonical.
package publish

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dialog-db/dialog/store"
)

// Edition is the opaque CAS token cas_get/cas_set exchange (spec.md 6.1).
// Concrete backends are free to choose its representation; every
// backend in this module uses the revision's own hex-encoded wire form,
// so an Edition carries enough information to recover its Revision
// without a side-channel fetch (the REST profile's ETag, spec.md 6.3).
type Edition string

// Revision recovers the Revision an Edition encodes.
func (e Edition) Revision() (store.Revision, error) {
	raw, err := hex.DecodeString(string(e))
	if err != nil {
		return store.Revision{}, fmt.Errorf("publish: malformed edition: %w", err)
	}
	return store.DecodeRevision(raw)
}

// MismatchError reports a failed compare-and-swap: the caller's expected
// prior revision did not match the backend's actual current one
// (spec.md 4.6).
type MismatchError struct {
	Subject  string
	Expected Edition
	Actual   Edition
	Current  store.Revision
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("publish: revision mismatch for %q: expected %s, actual %s", e.Subject, e.Expected, e.Actual)
}

// NotFoundError indicates the subject has no revision cell (a HEAD/GET
// miss, spec.md 6.3's 404).
type NotFoundError struct{ Subject string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("publish: subject %q not found", e.Subject)
}

// Backend is the CAS revision cell port (spec.md 6.1's cas_get/cas_set).
type Backend interface {
	// Get returns the subject's current revision and Edition, or
	// (zero, "", false, nil) if the subject has never been published.
	Get(subject string) (store.Revision, Edition, bool, error)
	// Set publishes revision for subject, preconditioned on expected
	// matching the backend's current Edition. A zero-value expected
	// Edition ("") designates "create" (spec.md 4.6's reserved
	// all-zero expected-prior). On mismatch, returns *MismatchError.
	Set(subject string, expected Edition, revision store.Revision) (Edition, error)
}

// editionOf derives the Edition token from a revision: its hex wire form.
func editionOf(r store.Revision) Edition { return Edition(hex.EncodeToString(r.Encode())) }

type cell struct {
	revision store.Revision
	edition  Edition
}

// MemoryBackend is an in-process Backend, suitable for tests and for
// single-process deployments that publish to themselves.
type MemoryBackend struct {
	mu    sync.Mutex
	cells map[string]cell
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cells: make(map[string]cell)}
}

func (m *MemoryBackend) Get(subject string) (store.Revision, Edition, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[subject]
	if !ok {
		return store.Revision{}, "", false, nil
	}
	return c.revision, c.edition, true, nil
}

func (m *MemoryBackend) Set(subject string, expected Edition, revision store.Revision) (Edition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.cells[subject]
	if !ok {
		if expected != "" {
			return "", &MismatchError{Subject: subject, Expected: expected, Actual: ""}
		}
	} else if current.edition != expected {
		return "", &MismatchError{Subject: subject, Expected: expected, Actual: current.edition, Current: current.revision}
	}

	edition := editionOf(revision)
	m.cells[subject] = cell{revision: revision, edition: edition}
	return edition, nil
}
