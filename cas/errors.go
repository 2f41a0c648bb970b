package cas

import "errors"

// Sentinel errors for the content-addressed store (spec.md 7): wrap these
// with fmt.Errorf("%w: ...", ErrX) at call sites so callers can still
// errors.Is against the sentinel after the wrap.
var (
	// ErrMissingBlock indicates a hash referenced from some tree node was
	// not found in the backend.
	ErrMissingBlock = errors.New("cas: missing block")
	// ErrMalformedBlock indicates decoded bytes failed structural
	// invariants (e.g. a bad discriminator byte or a truncated varint).
	ErrMalformedBlock = errors.New("cas: malformed block")
	// ErrHashMismatch indicates strict verification found that a block's
	// content does not hash to the key it was stored under.
	ErrHashMismatch = errors.New("cas: hash mismatch")
)
