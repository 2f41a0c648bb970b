package fact

import "github.com/dialog-db/dialog/value"

// Selector is the query shape select() accepts (spec.md 4.3.3): each
// field optionally narrows the search; all three unset selects every
// live artifact in the store.
type Selector struct {
	The *value.Attribute
	Of  *value.Entity
	Is  *value.Value
}
