package value

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"lukechampine.com/blake3"
)

// AttributeHashSize is the width, in bytes, of an interned attribute.
const AttributeHashSize = 32

var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Attribute is the triple's predicate: a namespace/name string interned
// into a 32-byte BLAKE3 digest for use as key material. Because the
// string->hash direction is one-way, Attribute retains the source string
// alongside its hash so the string form can travel with the triple
// wherever the attribute is the payload (spec.md 3.1).
type Attribute struct {
	name string
	hash [AttributeHashSize]byte
}

// NewAttribute validates and interns name, which must have the shape
// "namespace/name" with both sides matching [a-z0-9][a-z0-9._-]*.
func NewAttribute(name string) (Attribute, error) {
	ns, local, ok := strings.Cut(name, "/")
	if !ok || !segmentPattern.MatchString(ns) || !segmentPattern.MatchString(local) {
		return Attribute{}, fmt.Errorf("value: %w: %q", ErrInvalidAttribute, name)
	}
	return Attribute{name: name, hash: blake3.Sum256([]byte(name))}, nil
}

// AttributeFromHash reconstructs an Attribute from its interned hash and
// the string it was interned from. The caller is responsible for having
// obtained a string/hash pair that actually corresponds (e.g. from a
// stored artifact payload); this constructor does not re-verify it against
// BLAKE3, since doing so on every read would defeat the point of caching
// the string form.
func AttributeFromHash(name string, hash [AttributeHashSize]byte) Attribute {
	return Attribute{name: name, hash: hash}
}

// Name returns the attribute's canonical "namespace/name" string.
func (a Attribute) Name() string { return a.name }

// Hash returns the attribute's 32-byte interned form, used as key material.
func (a Attribute) Hash() [AttributeHashSize]byte { return a.hash }

// Bytes returns the interned hash as a slice.
func (a Attribute) Bytes() []byte { return a.hash[:] }

// String implements fmt.Stringer, returning the attribute's name.
func (a Attribute) String() string { return a.name }

// IsZero reports whether a is the zero Attribute (no name interned).
func (a Attribute) IsZero() bool { return a.name == "" }

// HashString returns the attribute's interned hash in hex, useful for
// logging and for building Symbol value references.
func (a Attribute) HashString() string { return hex.EncodeToString(a.hash[:]) }
