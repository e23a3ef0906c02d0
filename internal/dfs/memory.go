package dfs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// nodeKind tags the variant stored at a path in the in-memory tree.
type nodeKind int

const (
	kindDirectory nodeKind = iota
	kindFile
	kindSymlink
)

type memNode struct {
	kind NodeKind

	// Directory
	children map[string]struct{}

	// File
	content string

	// Symlink
	target string

	attrs Attrs
}

// NodeKind is the exported alias for nodeKind, used by tests that want to
// assert on a path's raw classification.
type NodeKind = nodeKind

const (
	KindDirectory = kindDirectory
	KindFile      = kindFile
	KindSymlink   = kindSymlink
)

// Memory is an in-memory Filesystem, matching the mutex-guarded map
// convention the teacher uses for its own tree-shaped resource
// (internal/graph's arena writer): a map from absolute path string to
// node, guarded by a single sync.RWMutex. The node graph is kept
// internally consistent: every child name listed in a directory node
// exists as a full-path key in nodes.
type Memory struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

// NewMemory returns an empty in-memory filesystem containing only the root
// directory "/" with default attributes.
func NewMemory() *Memory {
	m := &Memory{nodes: make(map[string]*memNode)}
	m.nodes["/"] = &memNode{
		kind:     kindDirectory,
		children: make(map[string]struct{}),
		attrs:    Attrs{Mode: DefaultDirMode},
	}
	return m
}

func parentOf(path string) string {
	if path == "/" {
		return ""
	}
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func baseOf(path string) string {
	if path == "/" {
		return ""
	}
	idx := strings.LastIndex(path, "/")
	return path[idx+1:]
}

func applySetAttrs(base Attrs, set SetAttrs) Attrs {
	out := base
	if set.Owner != nil {
		out.Owner = *set.Owner
	}
	if set.Group != nil {
		out.Group = *set.Group
	}
	if set.Mode != nil {
		out.Mode = set.Mode.Normalize()
	}
	return out
}

func (m *Memory) CreateDirectory(path string, attrs SetAttrs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[path]; exists {
		return fmt.Errorf("dfs: create directory %q: already exists", path)
	}
	parent, ok := m.nodes[parentOf(path)]
	if !ok || parent.kind != kindDirectory {
		return fmt.Errorf("dfs: create directory %q: parent does not exist", path)
	}
	m.nodes[path] = &memNode{
		kind:     kindDirectory,
		children: make(map[string]struct{}),
		attrs:    applySetAttrs(Attrs{Mode: DefaultDirMode}, attrs),
	}
	parent.children[baseOf(path)] = struct{}{}
	return nil
}

func (m *Memory) CreateDirectoryAll(path string, attrs SetAttrs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, exists := m.nodes[path]; exists {
		if n.kind != kindDirectory {
			return fmt.Errorf("dfs: create directory %q: exists and is not a directory", path)
		}
		return nil
	}

	var components []string
	cur := path
	for cur != "/" && cur != "" {
		if _, exists := m.nodes[cur]; exists {
			break
		}
		components = append([]string{cur}, components...)
		cur = parentOf(cur)
	}

	for i, p := range components {
		isLast := i == len(components)-1
		a := SetAttrs{Mode: ModePtr(DefaultDirMode)}
		if isLast {
			a = attrs
		}
		parent, ok := m.nodes[parentOf(p)]
		if !ok || parent.kind != kindDirectory {
			return fmt.Errorf("dfs: create directory %q: parent %q is not a directory", p, parentOf(p))
		}
		m.nodes[p] = &memNode{
			kind:     kindDirectory,
			children: make(map[string]struct{}),
			attrs:    applySetAttrs(Attrs{Mode: DefaultDirMode}, a),
		}
		parent.children[baseOf(p)] = struct{}{}
	}
	return nil
}

func (m *Memory) CreateFile(path string, attrs SetAttrs, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[path]; exists {
		return fmt.Errorf("dfs: create file %q: already exists", path)
	}
	parent, ok := m.nodes[parentOf(path)]
	if !ok || parent.kind != kindDirectory {
		return fmt.Errorf("dfs: create file %q: parent does not exist", path)
	}
	m.nodes[path] = &memNode{
		kind:    kindFile,
		content: content,
		attrs:   applySetAttrs(Attrs{Mode: DefaultFileMode}, attrs),
	}
	parent.children[baseOf(path)] = struct{}{}
	return nil
}

func (m *Memory) CreateSymlink(path, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[path]; exists {
		return fmt.Errorf("dfs: create symlink %q: already exists", path)
	}
	parent, ok := m.nodes[parentOf(path)]
	if !ok || parent.kind != kindDirectory {
		return fmt.Errorf("dfs: create symlink %q: parent does not exist", path)
	}
	m.nodes[path] = &memNode{kind: kindSymlink, target: target}
	parent.children[baseOf(path)] = struct{}{}
	return nil
}

func (m *Memory) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nodes[path]
	return ok
}

func (m *Memory) IsDirectory(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	return ok && n.kind == kindDirectory
}

func (m *Memory) IsFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	return ok && n.kind == kindFile
}

func (m *Memory) IsLink(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	return ok && n.kind == kindSymlink
}

// resolveTarget follows a single symlink's target into an absolute path,
// given the symlink's own location (for relative target resolution).
func resolveTarget(linkPath, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	return normalizeSimple(parentOf(linkPath) + "/" + target)
}

// normalizeSimple collapses ".." and "." components lexically, without
// consulting the filesystem (used only for the memory backend's internal
// symlink-chasing helpers; full symlink-aware canonicalization lives in
// dpath.Canonicalize and is what the traversal engine actually uses).
func normalizeSimple(path string) string {
	parts := strings.Split(path, "/")
	var out []string
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, p)
		}
	}
	return "/" + strings.Join(out, "/")
}

// deref follows a chain of symlinks starting at path until it reaches a
// non-symlink node (or a dangling target), with loop protection.
func (m *Memory) deref(path string) (string, *memNode, bool) {
	seen := make(map[string]bool)
	cur := path
	for {
		n, ok := m.nodes[cur]
		if !ok {
			return cur, nil, false
		}
		if n.kind != kindSymlink {
			return cur, n, true
		}
		if seen[cur] {
			return cur, nil, false
		}
		seen[cur] = true
		cur = resolveTarget(cur, n.target)
	}
}

func (m *Memory) ListDirectory(path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resolved, n, ok := m.deref(path)
	if !ok || n.kind != kindDirectory {
		return nil, fmt.Errorf("dfs: list directory %q: not a directory", resolved)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) ReadFile(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	if !ok || n.kind != kindFile {
		return "", fmt.Errorf("dfs: read file %q: not a file", path)
	}
	return n.content, nil
}

func (m *Memory) ReadLink(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[path]
	if !ok || n.kind != kindSymlink {
		return "", fmt.Errorf("dfs: read link %q: not a symlink", path)
	}
	return n.target, nil
}

func (m *Memory) Attributes(path string) (Attrs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resolved, n, ok := m.deref(path)
	if !ok {
		return Attrs{}, fmt.Errorf("dfs: attributes %q: does not exist", resolved)
	}
	return n.attrs, nil
}

func (m *Memory) SetAttributes(path string, attrs SetAttrs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, n, ok := m.deref(path)
	if !ok {
		return fmt.Errorf("dfs: set attributes %q: does not exist", resolved)
	}
	n.attrs = applySetAttrs(n.attrs, attrs)
	return nil
}

// Paths returns every path known to the filesystem, sorted, excluding the
// implicit root "/". Used by the CLI's dry-run summary (SPEC_FULL.md
// §6.2) to render what a simulated run would have materialized; no
// analogue in the teacher, which never runs against an in-memory
// filesystem, but a natural extension of the same map the backend is
// already built on.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.nodes))
	for p := range m.nodes {
		if p == "/" {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var _ Filesystem = (*Memory)(nil)
