// Package traverse is diskplan's traversal engine: it walks a schema tree
// and a filesystem in concert, creating or validating directories, files,
// and symlinks to match. It is grounded on
// original_source/diskplan-traversal/src/lib.rs (the reference
// traverse/traverse_node/traverse_directory/create/expand_uses functions),
// with eval.rs, pattern.rs, and stack.rs grounding internal/traverse's
// eval.go, pattern.go, and stack.go respectively.
package traverse

import "fmt"

// Kind classifies a traversal failure, matching SPEC_FULL.md's single-enum
// error model: every traversal error is one Kind wrapped over an optional
// cause, inspectable via errors.As without diskplan needing a distinct
// error type per failure site.
type Kind int

const (
	// KindConfig: no schema root governs a path, or a schema load failed.
	KindConfig Kind = iota
	// KindResolve: an expression referenced an undefined variable or
	// definition, or a path had no parent where one was required.
	KindResolve
	// KindMatch: a :match/:avoid expression did not compile as a regular
	// expression.
	KindMatch
	// KindPolicy: two schema entries conflict (ambiguous bindings), or a
	// relative symlink was used somewhere it isn't permitted.
	KindPolicy
	// KindIO: the underlying filesystem operation failed.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindResolve:
		return "resolve"
	case KindMatch:
		return "match"
	case KindPolicy:
		return "policy"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a Kind-tagged traversal failure, optionally wrapping a cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// NewError builds a Kind-tagged Error with no wrapped cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// wrapErr builds a Kind-tagged Error wrapping cause, matching the
// teacher's fmt.Errorf("...: %w", err) convention (internal/ingest/
// engine.go) generalized with an explicit Kind tag.
func wrapErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
