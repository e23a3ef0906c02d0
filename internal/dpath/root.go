// Package dpath implements diskplan's absolute-path model: normalized
// roots, root-relative "planted" paths, and symlink-aware canonicalization.
package dpath

import (
	"fmt"
	"strings"
)

// Root is an absolute, normalized path under which a schema applies.
type Root string

// NormalizeRoot checks that path is absolute and normalized per the rules in
// spec.md §3: no trailing "/" (except the literal root "/"), no "//", no
// "/./". It does not resolve ".." or symlinks — that is canonicalize's job.
func NormalizeRoot(path string) (Root, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("dpath: root %q is not absolute", path)
	}
	if path != "/" && strings.HasSuffix(path, "/") {
		return "", fmt.Errorf("dpath: root %q has a trailing slash", path)
	}
	if strings.Contains(path, "//") {
		return "", fmt.Errorf("dpath: root %q contains a repeated slash", path)
	}
	if strings.Contains(path, "/./") || path == "." || strings.HasPrefix(path, "./") {
		return "", fmt.Errorf("dpath: root %q contains a \".\" component", path)
	}
	return Root(path), nil
}

// IsNormalized reports whether path satisfies the normalization predicate
// without constructing a Root value.
func IsNormalized(path string) bool {
	_, err := NormalizeRoot(path)
	return err == nil
}

// String returns the root's absolute path.
func (r Root) String() string { return string(r) }
