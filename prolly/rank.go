package prolly

import (
	"math/bits"

	"github.com/dialog-db/dialog/cas"
)

// Rank returns the number of leading base-branchFactor "zero digits" of
// BLAKE3(key) (spec.md 3.7), where branchFactor must be a power of two and
// a digit is log2(branchFactor) bits. This follows a geometric
// distribution with parameter 1/branchFactor (spec.md P7) and is the sole
// input to the partition invariant that makes tree shape history-
// independent: identical key sets always produce identical shapes,
// regardless of insertion order (spec.md P2).
func Rank(key []byte, branchFactor int) int {
	digitBits := digitWidth(branchFactor)
	h := cas.Sum(key)
	total := len(h) * 8
	rank := 0
	for pos := 0; pos+digitBits <= total; pos += digitBits {
		if extractBits(h[:], pos, digitBits) != 0 {
			return rank
		}
		rank++
	}
	return rank
}

func digitWidth(branchFactor int) int {
	// branchFactor is a power of two; bits.Len(n) - 1 == log2(n).
	return bits.Len(uint(branchFactor)) - 1
}

// extractBits reads the n-bit big-endian-ordered digit starting at
// absolute bit offset pos within b.
func extractBits(b []byte, pos, n int) int {
	v := 0
	for i := 0; i < n; i++ {
		bitIndex := pos + i
		byteIdx := bitIndex / 8
		bitInByte := 7 - (bitIndex % 8)
		bit := (b[byteIdx] >> uint(bitInByte)) & 1
		v = (v << 1) | int(bit)
	}
	return v
}
