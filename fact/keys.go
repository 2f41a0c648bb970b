package fact

import (
	"github.com/dialog-db/dialog/value"
)

// Field widths for the composite index keys (spec.md 3.4).
const (
	entitySize    = 32
	attributeSize = 32
	typeSize      = 1
	valueSize     = 32
	keySize       = entitySize + attributeSize + typeSize + valueSize // 97
)

// EntityKey builds the EAVT key: E ‖ A ‖ T ‖ V.
func EntityKey(a Artifact) []byte {
	key := make([]byte, 0, keySize)
	ref := a.Is.Reference()
	key = append(key, a.Of[:]...)
	key = append(key, a.The.Hash()[:]...)
	key = append(key, byte(a.Is.Kind()))
	key = append(key, ref[:]...)
	return key
}

// AttributeKey builds the AEVT key: A ‖ E ‖ T ‖ V.
func AttributeKey(a Artifact) []byte {
	key := make([]byte, 0, keySize)
	ref := a.Is.Reference()
	key = append(key, a.The.Hash()[:]...)
	key = append(key, a.Of[:]...)
	key = append(key, byte(a.Is.Kind()))
	key = append(key, ref[:]...)
	return key
}

// ValueKey builds the VAET key: T ‖ V ‖ A ‖ E.
func ValueKey(a Artifact) []byte {
	key := make([]byte, 0, keySize)
	ref := a.Is.Reference()
	key = append(key, byte(a.Is.Kind()))
	key = append(key, ref[:]...)
	key = append(key, a.The.Hash()[:]...)
	key = append(key, a.Of[:]...)
	return key
}

// EntityPayload and AttributePayload both store the value's canonical
// byte encoding, sufficient together with its Kind to reconstruct it.
func EntityPayload(a Artifact) []byte { return a.Is.Encode() }

// AttributePayload is identical in shape to EntityPayload (spec.md 3.4).
func AttributePayload(a Artifact) []byte { return a.Is.Encode() }

// ValuePayload stores just the entity (spec.md 3.4: "deliberately just the
// entity"); reconstructing the full value for a value-bound query requires
// a secondary lookup into the entity index.
func ValuePayload(a Artifact) []byte {
	cp := make([]byte, entitySize)
	copy(cp, a.Of[:])
	return cp
}

// DecodeEntityKey splits an EAVT key back into its entity, attribute hash,
// value kind, and value reference components.
func DecodeEntityKey(key []byte) (of value.Entity, theHash [32]byte, kind value.Kind, ref [32]byte, ok bool) {
	if len(key) != keySize {
		return
	}
	copy(of[:], key[0:32])
	copy(theHash[:], key[32:64])
	kind = value.Kind(key[64])
	copy(ref[:], key[65:97])
	ok = true
	return
}

// DecodeAttributeKey splits an AEVT key back into its components.
func DecodeAttributeKey(key []byte) (theHash [32]byte, of value.Entity, kind value.Kind, ref [32]byte, ok bool) {
	if len(key) != keySize {
		return
	}
	copy(theHash[:], key[0:32])
	copy(of[:], key[32:64])
	kind = value.Kind(key[64])
	copy(ref[:], key[65:97])
	ok = true
	return
}

// DecodeValueKey splits a VAET key back into its components.
func DecodeValueKey(key []byte) (kind value.Kind, ref [32]byte, theHash [32]byte, of value.Entity, ok bool) {
	if len(key) != keySize {
		return
	}
	kind = value.Kind(key[0])
	copy(ref[:], key[1:33])
	copy(theHash[:], key[33:65])
	copy(of[:], key[65:97])
	ok = true
	return
}
