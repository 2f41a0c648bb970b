// Package fact defines the triple (spec.md 3.3), the three composite
// index key layouts it is stored under (spec.md 3.4), and the instruction
// type the Artifacts commit protocol consumes.
package fact

import (
	"github.com/dialog-db/dialog/value"
)

// Artifact is one triple: the attribute (predicate), the entity
// (subject), and the value (object). Cause, if present, is an opaque
// pointer to a prior artifact (spec.md 3.3); the core never interprets it.
type Artifact struct {
	The   value.Attribute
	Of    value.Entity
	Is    value.Value
	Cause *[32]byte
}

// InstructionKind distinguishes the two instruction variants commit
// accepts (spec.md 4.3.2).
type InstructionKind int

const (
	Assert InstructionKind = iota
	Retract
)

// Instruction is one line of a commit: assert or retract an artifact.
type Instruction struct {
	Kind     InstructionKind
	Artifact Artifact
}
