// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package prolly_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-db/dialog/cas"
	"github.com/dialog-db/dialog/kv"
	"github.com/dialog-db/dialog/kv/memdb"
	"github.com/dialog-db/dialog/prolly"
)

func newStore(t *testing.T) *cas.Store {
	t.Helper()
	backend := memdb.New(kv.Options{})
	t.Cleanup(func() { backend.Close() })
	return cas.New(backend, backend, cas.DefaultConfig())
}

func TestTreeGetSetEmpty(t *testing.T) {
	store := newStore(t)
	tree := prolly.Open(store, cas.Hash{}, prolly.Config{})
	assert.True(t, tree.IsEmpty())

	_, ok, err := tree.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	root, err := tree.Set([]byte("a"), prolly.Added([]byte("1")))
	require.NoError(t, err)
	assert.False(t, root.IsZero())
	assert.False(t, tree.IsEmpty())

	state, ok, err := tree.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, state.Removed)
	assert.Equal(t, []byte("1"), state.Payload)
}

func TestTreeInsertManyAndGetAll(t *testing.T) {
	store := newStore(t)
	tree := prolly.Open(store, cas.Hash{}, prolly.Config{})

	const n = 500
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("key-%04d", i))
		_, err := tree.Set(keys[i], prolly.Added([]byte(fmt.Sprintf("val-%d", i))))
		require.NoError(t, err)
	}

	for i, k := range keys {
		state, ok, err := tree.Get(k)
		require.NoError(t, err)
		require.True(t, ok, "missing key %s", k)
		assert.Equal(t, []byte(fmt.Sprintf("val-%d", i)), state.Payload)
	}
}

func TestTreeUpdateReplacesPayload(t *testing.T) {
	store := newStore(t)
	tree := prolly.Open(store, cas.Hash{}, prolly.Config{})

	_, err := tree.Set([]byte("k"), prolly.Added([]byte("v1")))
	require.NoError(t, err)
	_, err = tree.Set([]byte("k"), prolly.Added([]byte("v2")))
	require.NoError(t, err)

	state, ok, err := tree.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), state.Payload)
}

func TestTreeTombstone(t *testing.T) {
	store := newStore(t)
	tree := prolly.Open(store, cas.Hash{}, prolly.Config{})

	_, err := tree.Set([]byte("k"), prolly.Added([]byte("v")))
	require.NoError(t, err)
	_, err = tree.Set([]byte("k"), prolly.Tombstone())
	require.NoError(t, err)

	state, ok, err := tree.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok, "tombstoned key is still present, just Removed")
	assert.True(t, state.Removed)
}

// TestTreeHistoryIndependence is the module's guarantee (spec.md P2): the
// same key set, built via any insertion order, produces the same root.
func TestTreeHistoryIndependence(t *testing.T) {
	const n = 300
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("entity-%05d", i))
	}

	build := func(order []int) cas.Hash {
		store := newStore(t)
		tree := prolly.Open(store, cas.Hash{}, prolly.Config{})
		var root cas.Hash
		var err error
		for _, i := range order {
			root, err = tree.Set(keys[i], prolly.Added([]byte(fmt.Sprintf("val-%d", i))))
			require.NoError(t, err)
		}
		return root
	}

	ascending := make([]int, n)
	for i := range ascending {
		ascending[i] = i
	}
	shuffled := append([]int(nil), ascending...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	rootA := build(ascending)
	rootB := build(shuffled)
	assert.Equal(t, rootA, rootB, "root hash must not depend on insertion order")
}

func TestTreeDeterministicAcrossRuns(t *testing.T) {
	keys := []string{"b", "a", "c", "e", "d"}
	build := func() cas.Hash {
		store := newStore(t)
		tree := prolly.Open(store, cas.Hash{}, prolly.Config{})
		var root cas.Hash
		for _, k := range keys {
			var err error
			root, err = tree.Set([]byte(k), prolly.Added([]byte(k)))
			require.NoError(t, err)
		}
		return root
	}
	assert.Equal(t, build(), build())
}
