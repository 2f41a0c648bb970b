package prolly

import (
	"encoding/binary"
	"fmt"

	"github.com/dialog-db/dialog/cas"
)

// Block discriminator bytes (spec.md 6.2).
const (
	discriminatorSegment byte = 0x00
	discriminatorBranch  byte = 0x01
)

// State discriminator bytes (spec.md 6.2).
const (
	stateAdded   byte = 0x00
	stateRemoved byte = 0x01
)

// encodeSegment produces the canonical block bytes for a Segment (spec.md
// 6.2): 0x00, varint entry count, then for each entry a varint key
// length, the key, a state byte, and — only for Added entries — a varint
// payload length and the payload. Encoding is deterministic: two engines
// holding the same logical node always produce byte-identical blocks,
// since the hash is the node's identity.
func encodeSegment(s *Segment) []byte {
	var buf []byte
	buf = append(buf, discriminatorSegment)
	buf = appendVarint(buf, uint64(len(s.Entries)))
	for _, e := range s.Entries {
		buf = appendVarint(buf, uint64(len(e.Key)))
		buf = append(buf, e.Key...)
		if e.State.Removed {
			buf = append(buf, stateRemoved)
		} else {
			buf = append(buf, stateAdded)
			buf = appendVarint(buf, uint64(len(e.State.Payload)))
			buf = append(buf, e.State.Payload...)
		}
	}
	return buf
}

// encodeBranch produces the canonical block bytes for a Branch (spec.md
// 6.2): 0x01, varint link count, then for each link a varint bound
// length, the bound bytes, and the 32-byte child hash.
func encodeBranch(b *Branch) []byte {
	var buf []byte
	buf = append(buf, discriminatorBranch)
	buf = appendVarint(buf, uint64(len(b.Links)))
	for _, l := range b.Links {
		buf = appendVarint(buf, uint64(len(l.Bound)))
		buf = append(buf, l.Bound...)
		buf = append(buf, l.Child[:]...)
	}
	return buf
}

// decodeNode parses a block's discriminator byte and dispatches, returning
// exactly one of (*Segment, *Branch) non-nil.
func decodeNode(block []byte) (*Segment, *Branch, error) {
	if len(block) == 0 {
		return nil, nil, fmt.Errorf("prolly: %w: empty block", cas.ErrMalformedBlock)
	}
	switch block[0] {
	case discriminatorSegment:
		s, err := decodeSegment(block[1:])
		return s, nil, err
	case discriminatorBranch:
		b, err := decodeBranch(block[1:])
		return nil, b, err
	default:
		return nil, nil, fmt.Errorf("prolly: %w: bad discriminator %#x", cas.ErrMalformedBlock, block[0])
	}
}

func decodeSegment(b []byte) (*Segment, error) {
	count, n, err := readVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]
	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		keyLen, n, err := readVarint(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]
		if uint64(len(b)) < keyLen {
			return nil, fmt.Errorf("prolly: %w: truncated key", cas.ErrMalformedBlock)
		}
		key := append([]byte(nil), b[:keyLen]...)
		b = b[keyLen:]
		if len(b) < 1 {
			return nil, fmt.Errorf("prolly: %w: missing state byte", cas.ErrMalformedBlock)
		}
		stateByte := b[0]
		b = b[1:]
		var st State
		switch stateByte {
		case stateAdded:
			payloadLen, n, err := readVarint(b)
			if err != nil {
				return nil, err
			}
			b = b[n:]
			if uint64(len(b)) < payloadLen {
				return nil, fmt.Errorf("prolly: %w: truncated payload", cas.ErrMalformedBlock)
			}
			st = Added(append([]byte(nil), b[:payloadLen]...))
			b = b[payloadLen:]
		case stateRemoved:
			st = Tombstone()
		default:
			return nil, fmt.Errorf("prolly: %w: bad state byte %#x", cas.ErrMalformedBlock, stateByte)
		}
		entries = append(entries, Entry{Key: key, State: st})
	}
	return &Segment{Entries: entries}, nil
}

func decodeBranch(b []byte) (*Branch, error) {
	count, n, err := readVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]
	links := make([]Link, 0, count)
	for i := uint64(0); i < count; i++ {
		boundLen, n, err := readVarint(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]
		if uint64(len(b)) < boundLen {
			return nil, fmt.Errorf("prolly: %w: truncated bound", cas.ErrMalformedBlock)
		}
		bound := append([]byte(nil), b[:boundLen]...)
		b = b[boundLen:]
		if len(b) < cas.Size {
			return nil, fmt.Errorf("prolly: %w: truncated child hash", cas.ErrMalformedBlock)
		}
		var h cas.Hash
		copy(h[:], b[:cas.Size])
		b = b[cas.Size:]
		links = append(links, Link{Bound: bound, Child: h})
	}
	return &Branch{Links: links}, nil
}

func appendVarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readVarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, 0, fmt.Errorf("prolly: %w: bad varint", cas.ErrMalformedBlock)
	}
	return v, n, nil
}
