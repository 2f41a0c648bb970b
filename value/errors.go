package value

import "errors"

// Sentinel validation errors returned at the value/attribute/entity API
// boundary; wrap these with fmt.Errorf("%w: ...", ErrX) so callers can
// still errors.Is against the sentinel.
var (
	ErrInvalidEntity    = errors.New("invalid entity")
	ErrInvalidAttribute = errors.New("invalid attribute")
	ErrInvalidValue     = errors.New("invalid value")
)
