package dpath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned by Canonicalize when its input is not absolute.
var ErrInvalidPath = errors.New("dpath: invalid path")

const maxSymlinkLimit = 255

// ErrSymlinkLoop is returned when canonicalization follows more symlinks
// than maxSymlinkLimit, guarding against cyclic symlinks.
var ErrSymlinkLoop = errors.New("dpath: too many levels of symbolic links")

// Linker is the minimal capability Canonicalize needs from a filesystem:
// classify a path as a symlink and read its (verbatim) target. It is
// satisfied by dfs.Filesystem; kept narrow here so the path package has no
// dependency on the filesystem package (dfs depends on dpath, not the
// reverse).
type Linker interface {
	// IsLink reports whether path names a symlink, without dereferencing.
	IsLink(path string) bool
	// ReadLink returns the verbatim target of the symlink at path.
	ReadLink(path string) (string, error)
}

// Canonicalize fully resolves path against fs: it repeatedly splits path
// into components left to right, popping the accumulator on "..", and
// whenever a component is itself a symlink, replaces the accumulated path
// with its target (absolute) or resolves the target against the symlink's
// own directory (relative), and continues the walk through the expansion.
// Components that don't exist on disk are retained verbatim (a dangling
// path canonicalizes to itself, component-wise). "." components are
// elided. Only absolute inputs are accepted.
//
// Grounded on cyphar/filepath-securejoin's component-walking loop
// (legacySecureJoinVFS), generalized to operate over diskplan's own
// filesystem abstraction instead of the OS directly, since diskplan must
// canonicalize against an in-memory simulated tree as well as the real one.
func Canonicalize(fs Linker, path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, path)
	}

	var (
		resolved    string // accumulator, always starts with "/" once non-empty
		remaining   = path
		linksWalked int
	)

	for remaining != "" {
		var part string
		if i := strings.IndexByte(remaining, '/'); i == -1 {
			part, remaining = remaining, ""
		} else {
			part, remaining = remaining[:i], remaining[i+1:]
		}

		switch part {
		case "", ".":
			continue
		case "..":
			if idx := strings.LastIndexByte(resolved, '/'); idx > 0 {
				resolved = resolved[:idx]
			} else {
				resolved = ""
			}
			continue
		}

		next := resolved + "/" + part

		if !fs.IsLink(next) {
			resolved = next
			continue
		}

		linksWalked++
		if linksWalked > maxSymlinkLimit {
			return "", fmt.Errorf("%w: resolving %q", ErrSymlinkLoop, path)
		}

		target, err := fs.ReadLink(next)
		if err != nil {
			return "", fmt.Errorf("dpath: read symlink %q: %w", next, err)
		}

		if strings.HasPrefix(target, "/") {
			// Absolute target: replace the accumulator and re-walk the
			// target's own components before resuming remaining.
			remaining = strings.TrimPrefix(target, "/") + pathSep(remaining) + remaining
			resolved = ""
		} else {
			// Relative target: expand relative to the symlink's own
			// directory, i.e. resolved (without the link's own name).
			remaining = target + pathSep(remaining) + remaining
		}
	}

	if resolved == "" {
		resolved = "/"
	}
	return resolved, nil
}

func pathSep(remaining string) string {
	if remaining == "" {
		return ""
	}
	return "/"
}
