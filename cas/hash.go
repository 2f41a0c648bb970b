package cas

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the width, in bytes, of a content-addressed Hash (spec.md 3.1:
// a 32-byte BLAKE3 digest).
const Size = 32

// Hash is a BLAKE3-256 digest. The all-zero value is reserved for "empty
// tree" (spec.md 3.8) and is never a real block's address, since BLAKE3
// of any input is non-zero with overwhelming probability and Write never
// hashes the empty root sentinel itself.
type Hash [Size]byte

// Zero is the reserved empty-tree sentinel.
var Zero Hash

// Sum computes the BLAKE3-256 digest of b.
func Sum(b []byte) Hash { return Hash(blake3.Sum256(b)) }

// IsZero reports whether h is the reserved empty-tree sentinel.
func (h Hash) IsZero() bool { return h == Zero }

// Bytes returns h's raw 32 bytes.
func (h Hash) Bytes() []byte { return h[:] }

// String returns h's canonical hex form.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Parse decodes a hex-encoded hash, as produced by String.
func Parse(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("cas: invalid hash %q: %w", s, err)
	}
	if len(b) != Size {
		return Hash{}, fmt.Errorf("cas: invalid hash %q: want %d bytes, got %d", s, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Less orders hashes lexicographically by byte value (spec.md 3.1: hashes
// are totally ordered by lexicographic byte comparison for boundary
// purposes).
func (h Hash) Less(o Hash) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}
