package dpath

import (
	"fmt"
	"strings"
)

// PlantedPath is an absolute path together with the byte length of its root
// prefix, giving O(1) extraction of root, relative, and absolute forms.
type PlantedPath struct {
	root       Root
	full       string
	rootLength int
}

// New plants absolute at root. If absolute is empty, the root itself is
// used. It fails when absolute does not start with root.
func New(root Root, absolute string) (PlantedPath, error) {
	rootStr := string(root)
	if absolute == "" {
		absolute = rootStr
	}
	if !strings.HasPrefix(absolute, "/") {
		return PlantedPath{}, fmt.Errorf("dpath: path %q is not absolute", absolute)
	}
	if absolute != rootStr && !strings.HasPrefix(absolute, rootStr+"/") && rootStr != "/" {
		return PlantedPath{}, fmt.Errorf("dpath: path %q is not under root %q", absolute, rootStr)
	}
	if rootStr == "/" && !strings.HasPrefix(absolute, "/") {
		return PlantedPath{}, fmt.Errorf("dpath: path %q is not under root %q", absolute, rootStr)
	}
	return PlantedPath{root: root, full: absolute, rootLength: len(rootStr)}, nil
}

// Root returns the path's root.
func (p PlantedPath) Root() Root { return p.root }

// Absolute returns the full absolute path.
func (p PlantedPath) Absolute() string { return p.full }

// Relative returns the path relative to its root, with no leading slash.
// At the root itself this is "".
func (p PlantedPath) Relative() string {
	rel := p.full[p.rootLength:]
	return strings.TrimPrefix(rel, "/")
}

// Depth returns the number of path components below the root.
func (p PlantedPath) Depth() int {
	rel := p.Relative()
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// Join appends a single path component. name must not contain "/".
func (p PlantedPath) Join(name string) (PlantedPath, error) {
	if strings.Contains(name, "/") {
		return PlantedPath{}, fmt.Errorf("dpath: join component %q contains a slash", name)
	}
	if name == "" {
		return PlantedPath{}, fmt.Errorf("dpath: join component is empty")
	}
	joined := p.full
	if joined == "/" {
		joined = "/" + name
	} else {
		joined = joined + "/" + name
	}
	return PlantedPath{root: p.root, full: joined, rootLength: p.rootLength}, nil
}

// Parent returns the planted path one component up. Fails with an error at
// the root itself (depth 0); the PARENT_* special tokens report that error
// as a KindResolve traversal error (see traverse/eval.go).
func (p PlantedPath) Parent() (PlantedPath, error) {
	if p.Depth() == 0 {
		return PlantedPath{}, fmt.Errorf("dpath: %q has no parent under root %q", p.full, p.root)
	}
	idx := strings.LastIndex(p.full, "/")
	parent := p.full[:idx]
	if parent == "" {
		parent = "/"
	}
	return PlantedPath{root: p.root, full: parent, rootLength: p.rootLength}, nil
}

// Name returns the final path component. At the root, returns "".
func (p PlantedPath) Name() string {
	if p.Depth() == 0 {
		return ""
	}
	idx := strings.LastIndex(p.full, "/")
	return p.full[idx+1:]
}
