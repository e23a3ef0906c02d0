// Package dfs is diskplan's filesystem abstraction: a small capability
// interface implemented by both a physical (on-disk) backend and an
// in-memory simulator, so the traversal engine can run identically against
// a live filesystem or a dry-run sandbox.
//
// The interface shape is grounded on github.com/go-git/go-billy/v5's
// Filesystem interface family (Basic/Dir/Symlink): small composable
// methods, a Join helper rather than raw string concatenation, and
// non-dereferencing symlink classification. billy itself can't be used
// verbatim because it has no owner/group/mode attribute concept (see
// DESIGN.md).
package dfs

import "strings"

// Mode is a 16-bit container for a Unix permission mode; only the low 12
// bits are meaningful.
type Mode uint16

// Default modes applied when a schema node carries no :mode directive.
const (
	DefaultDirMode  Mode = 0o755
	DefaultFileMode Mode = 0o644

	modeMask Mode = 0o7777 // 12 bits
)

// Normalize masks mode down to its low 12 bits.
func (m Mode) Normalize() Mode { return m & modeMask }

// Attrs is the resolved, observed attribute set of an on-disk (or
// in-memory) entry.
type Attrs struct {
	Owner string
	Group string
	Mode  Mode
}

// SetAttrs is a partial attribute set to apply; nil fields are left
// unspecified and fall back to filesystem or caller defaults.
type SetAttrs struct {
	Owner *string
	Group *string
	Mode  *Mode
}

// StringPtr is a small constructor helper so call sites don't need a local
// variable to take the address of a string literal.
func StringPtr(s string) *string { return &s }

// ModePtr is the Mode analogue of StringPtr.
func ModePtr(m Mode) *Mode { return &m }

// Matches returns true iff every non-nil field of s equals the
// corresponding field of a.
func (s SetAttrs) Matches(a Attrs) bool {
	if s.Owner != nil && *s.Owner != a.Owner {
		return false
	}
	if s.Group != nil && *s.Group != a.Group {
		return false
	}
	if s.Mode != nil && s.Mode.Normalize() != a.Mode.Normalize() {
		return false
	}
	return true
}

// Filesystem is the operation set the traversal engine requires. Path
// arguments are always absolute, "/"-separated, normalized strings.
type Filesystem interface {
	// CreateDirectory creates path as a directory with the given
	// attributes. The parent must already exist and path must not.
	CreateDirectory(path string, attrs SetAttrs) error

	// CreateDirectoryAll recursively ensures every parent of path exists,
	// then path itself. It is not an error if path is already a directory.
	CreateDirectoryAll(path string, attrs SetAttrs) error

	// CreateFile creates path as a file with the given content and
	// attributes. path must not already exist.
	CreateFile(path string, attrs SetAttrs, content string) error

	// CreateSymlink creates path as a symlink pointing at target, stored
	// verbatim (never dereferenced, never rewritten).
	CreateSymlink(path, target string) error

	// Exists reports whether anything exists at path (a symlink's own
	// node, not its target, counts as existing even if the target does
	// not).
	Exists(path string) bool

	// IsDirectory reports whether path names a directory. The physical
	// backend dereferences symlinks for this classification; the in-memory
	// backend classifies the node stored at path itself.
	IsDirectory(path string) bool

	// IsFile reports whether path names a regular file. The physical
	// backend dereferences symlinks for this classification; the in-memory
	// backend classifies the node stored at path itself.
	IsFile(path string) bool

	// IsLink reports whether path itself is a symlink. Never dereferences.
	IsLink(path string) bool

	// ListDirectory returns the set of immediate child names of path.
	ListDirectory(path string) ([]string, error)

	// ReadFile returns the full contents of path as a string.
	ReadFile(path string) (string, error)

	// ReadLink returns the verbatim target of the symlink at path.
	ReadLink(path string) (string, error)

	// Attributes returns the resolved attributes of path, dereferencing
	// symlinks to their target.
	Attributes(path string) (Attrs, error)

	// SetAttributes applies attrs to path, dereferencing symlinks to
	// their target.
	SetAttributes(path string, attrs SetAttrs) error
}

// Join joins path components with "/", matching billy.Basic.Join's role of
// centralizing path construction instead of ad-hoc string concatenation at
// call sites. Diskplan paths are always absolute and "/"-separated
// regardless of host OS, so this is a plain strings.Join, not
// filepath.Join (which would rewrite separators on Windows).
func Join(elem ...string) string {
	return strings.Join(elem, "/")
}
