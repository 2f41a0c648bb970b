package value

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"lukechampine.com/blake3"
)

// Kind is the value-type tag (spec.md 3.1): a single byte discriminator
// stored alongside every composite index key.
type Kind uint8

const (
	KindNull Kind = iota
	KindBytes
	KindEntity
	KindBoolean
	KindString
	KindUnsignedInt
	KindSignedInt
	KindFloat
	KindRecord
	KindSymbol
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBytes:
		return "bytes"
	case KindEntity:
		return "entity"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindUnsignedInt:
		return "unsigned-int"
	case KindSignedInt:
		return "signed-int"
	case KindFloat:
		return "float"
	case KindRecord:
		return "record"
	case KindSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Variable reports whether values of this kind are variable-width, and
// therefore indexed by the BLAKE3 digest of their canonical encoding
// rather than by the encoding itself (spec.md 3.2).
func (k Kind) Variable() bool {
	switch k {
	case KindBytes, KindString, KindRecord:
		return true
	default:
		return false
	}
}

// Value is the triple's object: a tagged union over the nine variants
// spec.md 3.1 enumerates.
type Value struct {
	kind   Kind
	bytes  []byte // Bytes, Record payload; String's UTF-8 bytes
	entity Entity
	b      bool
	u      *uint256.Int
	signed *big.Int // magnitude-and-sign form, |signed| must fit in 128 bits
	f      float64
	symbol Attribute
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// NewBytes wraps a byte string as a Bytes value.
func NewBytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytes: cp}
}

// NewEntityValue wraps an Entity as a reference value.
func NewEntityValue(e Entity) Value { return Value{kind: KindEntity, entity: e} }

// NewBoolean wraps a bool.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NewString wraps a UTF-8 string.
func NewString(s string) Value { return Value{kind: KindString, bytes: []byte(s)} }

// NewUnsignedInt wraps a non-negative integer of up to 128 bits.
func NewUnsignedInt(u *uint256.Int) (Value, error) {
	if u == nil {
		return Value{}, fmt.Errorf("value: %w: nil unsigned int", ErrInvalidValue)
	}
	return Value{kind: KindUnsignedInt, u: u.Clone()}, nil
}

// NewUnsignedIntFromUint64 is a convenience constructor for the common case.
func NewUnsignedIntFromUint64(u uint64) Value {
	return Value{kind: KindUnsignedInt, u: uint256.NewInt(u)}
}

var (
	min128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	max128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// NewSignedInt wraps a signed integer that must fit in [-2^127, 2^127-1].
func NewSignedInt(i *big.Int) (Value, error) {
	if i == nil || i.Cmp(min128) < 0 || i.Cmp(max128) > 0 {
		return Value{}, fmt.Errorf("value: %w: signed int out of 128-bit range", ErrInvalidValue)
	}
	return Value{kind: KindSignedInt, signed: new(big.Int).Set(i)}, nil
}

// NewSignedIntFromInt64 is a convenience constructor for the common case.
func NewSignedIntFromInt64(i int64) Value {
	return Value{kind: KindSignedInt, signed: big.NewInt(i)}
}

// NewFloat wraps an IEEE-754 double.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewRecord wraps an application-defined opaque byte string.
func NewRecord(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindRecord, bytes: cp}
}

// NewSymbol wraps a reference to an interned attribute name.
func NewSymbol(a Attribute) Value { return Value{kind: KindSymbol, symbol: a} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// AsBytes returns the raw bytes for Bytes, String or Record values.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes && v.kind != KindString && v.kind != KindRecord {
		return nil, false
	}
	return v.bytes, true
}

// AsEntity returns the referenced entity for Entity values.
func (v Value) AsEntity() (Entity, bool) {
	if v.kind != KindEntity {
		return Entity{}, false
	}
	return v.entity, true
}

// AsBoolean returns the boolean for Boolean values.
func (v Value) AsBoolean() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

// AsString returns the string for String values.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return string(v.bytes), true
}

// AsUnsignedInt returns the magnitude for UnsignedInt values.
func (v Value) AsUnsignedInt() (*uint256.Int, bool) {
	if v.kind != KindUnsignedInt {
		return nil, false
	}
	return v.u.Clone(), true
}

// AsSignedInt returns the value for SignedInt values.
func (v Value) AsSignedInt() (*big.Int, bool) {
	if v.kind != KindSignedInt {
		return nil, false
	}
	return new(big.Int).Set(v.signed), true
}

// AsFloat returns the float for Float values.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsSymbol returns the interned attribute for Symbol values.
func (v Value) AsSymbol() (Attribute, bool) {
	if v.kind != KindSymbol {
		return Attribute{}, false
	}
	return v.symbol, true
}

// Equal reports whether v and o are the same value (same kind, same
// canonical encoding).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	return string(v.compactEncoding()) == string(o.compactEncoding())
}

// Reference computes the value's 32-byte value-reference (spec.md 3.2):
// the canonical little-endian/discriminator-dependent encoding for fixed-
// width scalars, left-padded with zeros; the BLAKE3 digest of the
// canonical byte encoding for variable-width values.
func (v Value) Reference() [32]byte {
	if v.kind.Variable() {
		return blake3.Sum256(v.compactEncoding())
	}
	var ref [32]byte
	switch v.kind {
	case KindNull:
		// all-zero
	case KindEntity:
		ref = v.entity
	case KindBoolean:
		if v.b {
			ref[31] = 1
		}
	case KindUnsignedInt:
		b := v.u.Bytes32() // big-endian, left-padded with zero bytes
		ref = b
	case KindSignedInt:
		encodeSigned128(&ref, v.signed)
	case KindFloat:
		bits := math.Float64bits(v.f)
		for i := 0; i < 8; i++ {
			ref[31-i] = byte(bits >> (8 * i))
		}
	case KindSymbol:
		ref = v.symbol.Hash()
	}
	return ref
}

// encodeSigned128 writes a sign byte followed by the 128-bit big-endian
// magnitude into the low-order bytes of ref (byte 0 is the sign, bytes
// 1..16 the magnitude, the remainder left as zero pad).
func encodeSigned128(ref *[32]byte, i *big.Int) {
	mag := new(big.Int).Abs(i)
	magBytes := mag.Bytes()
	if i.Sign() < 0 {
		ref[0] = 1
	}
	// right-align magBytes within ref[1:17]
	copy(ref[1+16-len(magBytes):17], magBytes)
}

func decodeSigned128(ref [32]byte) *big.Int {
	mag := new(big.Int).SetBytes(ref[1:17])
	if ref[0] == 1 {
		mag.Neg(mag)
	}
	return mag
}

// compactEncoding returns the payload bytes stored alongside a composite
// index key for this value: the value's full canonical byte encoding for
// variable-width values, or a compact (not zero-padded) encoding for
// scalars, sufficient together with the Kind tag to reconstruct the Value.
func (v Value) compactEncoding() []byte {
	switch v.kind {
	case KindNull:
		return nil
	case KindBytes, KindString, KindRecord:
		return v.bytes
	case KindEntity:
		return v.entity[:]
	case KindBoolean:
		if v.b {
			return []byte{1}
		}
		return []byte{0}
	case KindUnsignedInt:
		return v.u.Bytes()
	case KindSignedInt:
		out := v.signed.Bytes()
		sign := byte(0)
		if v.signed.Sign() < 0 {
			sign = 1
		}
		return append([]byte{sign}, out...)
	case KindFloat:
		bits := math.Float64bits(v.f)
		out := make([]byte, 8)
		for i := 0; i < 8; i++ {
			out[7-i] = byte(bits >> (8 * i))
		}
		return out
	case KindSymbol:
		return v.symbol.Bytes()
	default:
		return nil
	}
}

// Encode returns the canonical payload bytes for storage alongside a
// composite index key (spec.md 3.4's "full canonical byte encoding").
func (v Value) Encode() []byte { return v.compactEncoding() }

// Decode reconstructs a Value from a Kind tag and the payload bytes
// previously produced by Encode. Symbol values are reconstructed without
// their source name (only the interned hash survives the round trip);
// callers that need the name must resolve it through an attribute-name
// side table, per spec.md 9 ("Global mutable state").
func Decode(kind Kind, payload []byte) (Value, error) {
	switch kind {
	case KindNull:
		return Null(), nil
	case KindBytes:
		return NewBytes(payload), nil
	case KindEntity:
		if len(payload) != EntitySize {
			return Value{}, fmt.Errorf("value: %w: entity payload length %d", ErrInvalidValue, len(payload))
		}
		var e Entity
		copy(e[:], payload)
		return NewEntityValue(e), nil
	case KindBoolean:
		if len(payload) != 1 {
			return Value{}, fmt.Errorf("value: %w: boolean payload length %d", ErrInvalidValue, len(payload))
		}
		return NewBoolean(payload[0] != 0), nil
	case KindString:
		return NewString(string(payload)), nil
	case KindUnsignedInt:
		u, overflow := uint256.FromBig(new(big.Int).SetBytes(payload))
		if overflow {
			return Value{}, fmt.Errorf("value: %w: unsigned int overflow", ErrInvalidValue)
		}
		return Value{kind: KindUnsignedInt, u: u}, nil
	case KindSignedInt:
		if len(payload) < 1 {
			return Value{}, fmt.Errorf("value: %w: signed int payload empty", ErrInvalidValue)
		}
		mag := new(big.Int).SetBytes(payload[1:])
		if payload[0] == 1 {
			mag.Neg(mag)
		}
		return NewSignedInt(mag)
	case KindFloat:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("value: %w: float payload length %d", ErrInvalidValue, len(payload))
		}
		var bits uint64
		for i := 0; i < 8; i++ {
			bits = bits<<8 | uint64(payload[i])
		}
		return NewFloat(math.Float64frombits(bits)), nil
	case KindRecord:
		return NewRecord(payload), nil
	case KindSymbol:
		if len(payload) != AttributeHashSize {
			return Value{}, fmt.Errorf("value: %w: symbol payload length %d", ErrInvalidValue, len(payload))
		}
		var h [AttributeHashSize]byte
		copy(h[:], payload)
		return NewSymbol(AttributeFromHash("", h)), nil
	default:
		return Value{}, fmt.Errorf("value: %w: unknown kind %d", ErrInvalidValue, kind)
	}
}
