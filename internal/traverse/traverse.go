package traverse

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/diskplan/internal/dfs"
	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
)

// Extent bounds how deep a traversal descends below its starting node,
// matching original_source/diskplan-traversal/src/lib.rs's Extent enum.
// ExtentRestricted is used both when a caller seeks one specific path
// through the schema (only that path's branch is materialized, siblings
// are left alone) and when a symlink's target is co-materialized to avoid
// a dangling link.
type Extent int

const (
	ExtentFull Extent = iota
	ExtentRestricted
)

// Traverse walks node against fs starting at path, creating or validating
// directories/files/symlinks to match. unresolved, when non-empty, is a
// slash-separated suffix still to be matched against node's schema (used
// when seeking one specific descendant instead of walking everything);
// pass "" to fully resolve from path down.
func Traverse(fs dfs.Filesystem, stack *StackFrame, node *schema.Node, path dpath.PlantedPath, unresolved string, extent Extent) error {
	return traverseNode(fs, stack, node, path, unresolved, extent)
}

// traverseNode applies node (and every schema it pulls in via :use) at
// path: each contributing schema's own entry is created, then, for the
// directory variants among them, their children are considered. Grounded
// on lib.rs's traverse_node: attributes are resolved once across node and
// its used definitions (first non-nil wins), then every contributing
// schema gets its own create()+traverse_directory() pass over the same
// path.
func traverseNode(fs dfs.Filesystem, stack *StackFrame, node *schema.Node, path dpath.PlantedPath, unresolved string, extent Extent) error {
	usedDefs, err := expandUses(stack, node)
	if err != nil {
		return err
	}

	owner, group, mode, err := resolveAttrs(stack, node, usedDefs, path)
	if err != nil {
		return err
	}
	attrs := dfs.SetAttrs{
		Owner: dfs.StringPtr(owner),
		Group: dfs.StringPtr(group),
		Mode:  dfs.ModePtr(dfs.Mode(mode)),
	}
	childStack := stack.Push(EmptySource(), owner, group, mode)

	expanded := append([]*schema.Node{node}, usedDefs...)

	matchedSeek := unresolved == ""
	for _, n := range expanded {
		if err := create(fs, childStack, n, path, attrs); err != nil {
			return err
		}
		if n.Symlink != nil {
			// create() already co-materialized the link's target, applying
			// n's own attrs and creating n's own children (if any) directly
			// at the resolved target path — see createSymlink. diskplan
			// doesn't assume filesystem operations transparently follow a
			// just-created symlink mid-path, so there's nothing further to
			// walk at path itself.
			continue
		}
		if !n.IsDirectory() {
			continue
		}
		if extent == ExtentRestricted && unresolved == "" {
			continue
		}
		found, err := traverseDirectory(fs, childStack, n, path, unresolved, extent)
		if err != nil {
			return err
		}
		if found {
			matchedSeek = true
		}
	}

	if extent == ExtentRestricted && unresolved != "" && !matchedSeek {
		return NewError(KindResolve, fmt.Sprintf("no schema entry under %q could produce %q", path.Absolute(), unresolved))
	}
	return nil
}

// create materializes n's own entry at path (directory, file, or symlink),
// applying the already-resolved attrs. It does not descend into children;
// traverseDirectory does that.
func create(fs dfs.Filesystem, stack *StackFrame, n *schema.Node, path dpath.PlantedPath, attrs dfs.SetAttrs) error {
	if n.Symlink != nil {
		target, err := Evaluate(*n.Symlink, stack, path)
		if err != nil {
			return wrapErr(KindResolve, "evaluating symlink target", err)
		}
		return createSymlink(fs, stack, n, path, target, attrs)
	}

	if n.IsDirectory() {
		if !fs.IsDirectory(path.Absolute()) {
			if err := fs.CreateDirectory(path.Absolute(), attrs); err != nil {
				return wrapErr(KindIO, fmt.Sprintf("creating directory %q", path.Absolute()), err)
			}
			return nil
		}
		current, err := fs.Attributes(path.Absolute())
		if err != nil {
			return wrapErr(KindIO, fmt.Sprintf("reading attributes of %q", path.Absolute()), err)
		}
		if !attrs.Matches(current) {
			if err := fs.SetAttributes(path.Absolute(), attrs); err != nil {
				return wrapErr(KindIO, fmt.Sprintf("updating attributes of %q", path.Absolute()), err)
			}
		}
		return nil
	}

	if fs.IsFile(path.Absolute()) {
		return nil
	}
	content, err := resolveFileContent(fs, stack, n, path)
	if err != nil {
		return err
	}
	if err := fs.CreateFile(path.Absolute(), attrs, content); err != nil {
		return wrapErr(KindIO, fmt.Sprintf("creating file %q", path.Absolute()), err)
	}
	return nil
}

// createSymlink creates the symlink itself, then — for an absolute target —
// co-materializes the path leading to the target under its own governing
// schema root, so the link doesn't dangle, applies node's own resolved
// attrs to the target entry (node's own :owner/:group/:mode win over
// whatever the target stem's root schema produced), and finally
// materializes node's own children (if any) directly at the resolved
// target path. A relative target is only permitted on a node with no
// attributes, :use list, or children of its own (matching lib.rs: a
// relative symlink can't also carry independent schema content, since both
// paths would then need materializing identically).
//
// The last two steps are diskplan's one deliberate divergence from lib.rs's
// create(): the Rust original re-enters traverse_directory using the
// symlink's own path, relying on the host OS transparently following the
// freshly created symlink for every subsequent file/directory/attribute
// syscall under it — which is exactly why the node doing the target's own
// materialization is still the symlink node, not the target stem's root.
// dfs.Filesystem makes no such guarantee (the in-memory backend certainly
// doesn't), so node's own attrs and children are addressed at the target
// path directly instead of through the link.
func createSymlink(fs dfs.Filesystem, stack *StackFrame, node *schema.Node, path dpath.PlantedPath, target string, attrs dfs.SetAttrs) error {
	isRelative := len(target) == 0 || target[0] != '/'
	if isRelative && nodeHasOwnContent(node) {
		return NewError(KindPolicy, fmt.Sprintf("relative symlink at %q cannot also declare attributes, :use, or children", path.Absolute()))
	}

	if !fs.Exists(path.Absolute()) {
		if err := fs.CreateSymlink(path.Absolute(), target); err != nil {
			return wrapErr(KindIO, fmt.Sprintf("creating symlink %q -> %q", path.Absolute(), target), err)
		}
	}

	if isRelative {
		return nil
	}

	resolver := stack.Resolver()
	rootNode, root, err := resolver.SchemaFor(target)
	if err != nil {
		return wrapErr(KindConfig, fmt.Sprintf("resolving schema for symlink target %q", target), err)
	}
	rootPath, err := dpath.New(root, "")
	if err != nil {
		return wrapErr(KindResolve, fmt.Sprintf("planting schema root %q", root), err)
	}
	targetPath, err := dpath.New(root, target)
	if err != nil {
		return wrapErr(KindResolve, fmt.Sprintf("planting symlink target %q", target), err)
	}

	if !fs.Exists(targetPath.Absolute()) {
		if err := traverseNode(fs, stack, rootNode, rootPath, targetPath.Relative(), ExtentRestricted); err != nil {
			return err
		}
	}

	if err := applyAttrsAt(fs, targetPath.Absolute(), attrs); err != nil {
		return err
	}

	if node.IsDirectory() && len(node.Dir.Entries()) > 0 {
		if _, err := traverseDirectory(fs, stack, node, targetPath, "", ExtentFull); err != nil {
			return err
		}
	}
	return nil
}

// applyAttrsAt sets attrs on the already-existing entry at path, matching
// create()'s directory branch: only a mismatch triggers a SetAttributes
// call.
func applyAttrsAt(fs dfs.Filesystem, path string, attrs dfs.SetAttrs) error {
	current, err := fs.Attributes(path)
	if err != nil {
		return wrapErr(KindIO, fmt.Sprintf("reading attributes of %q", path), err)
	}
	if attrs.Matches(current) {
		return nil
	}
	if err := fs.SetAttributes(path, attrs); err != nil {
		return wrapErr(KindIO, fmt.Sprintf("updating attributes of %q", path), err)
	}
	return nil
}

func nodeHasOwnContent(node *schema.Node) bool {
	if node.Attrs.Owner != nil || node.Attrs.Group != nil || node.Attrs.Mode != nil {
		return true
	}
	if len(node.Uses) > 0 {
		return true
	}
	if node.IsDirectory() && len(node.Dir.Entries()) > 0 {
		return true
	}
	return false
}

func resolveFileContent(fs dfs.Filesystem, stack *StackFrame, node *schema.Node, path dpath.PlantedPath) (string, error) {
	source, err := Evaluate(node.File.Source, stack, path)
	if err != nil {
		return "", wrapErr(KindResolve, "evaluating :source", err)
	}
	content, err := fs.ReadFile(source)
	if err != nil {
		return "", wrapErr(KindIO, fmt.Sprintf("reading :source %q", source), err)
	}
	return content, nil
}

// resolveAttrs resolves owner/group/mode once across node and its used
// definitions (first non-nil wins, node itself checked first), falling
// back to the inherited stack value when none of them set a given
// attribute.
func resolveAttrs(stack *StackFrame, node *schema.Node, usedDefs []*schema.Node, path dpath.PlantedPath) (owner, group string, mode uint16, err error) {
	owner = stack.Owner()
	group = stack.Group()
	mode = stack.Mode()

	candidates := append([]*schema.Node{node}, usedDefs...)
	ownerSet, groupSet, modeSet := false, false, false
	for _, c := range candidates {
		if !ownerSet && c.Attrs.Owner != nil {
			v, e := Evaluate(*c.Attrs.Owner, stack, path)
			if e != nil {
				return "", "", 0, wrapErr(KindResolve, "evaluating :owner", e)
			}
			owner = stack.Resolver().MapUser(v)
			ownerSet = true
		}
		if !groupSet && c.Attrs.Group != nil {
			v, e := Evaluate(*c.Attrs.Group, stack, path)
			if e != nil {
				return "", "", 0, wrapErr(KindResolve, "evaluating :group", e)
			}
			group = stack.Resolver().MapGroup(v)
			groupSet = true
		}
		if !modeSet && c.Attrs.Mode != nil {
			mode = *c.Attrs.Mode
			modeSet = true
		}
	}
	return owner, group, mode, nil
}

// expandUses resolves node's :use identifiers against stack's enclosing
// directory scopes, in declaration order, matching lib.rs's expand_uses
// (minus node itself, which callers already hold).
func expandUses(stack *StackFrame, node *schema.Node) ([]*schema.Node, error) {
	if len(node.Uses) == 0 {
		return nil, nil
	}
	out := make([]*schema.Node, 0, len(node.Uses))
	for _, name := range node.Uses {
		def, ok := stack.FindDefinition(name)
		if !ok {
			return nil, NewError(KindResolve, fmt.Sprintf("undefined :use %q", name))
		}
		out = append(out, def)
	}
	return out, nil
}

// directoryResolution is one entry diskplan decided to materialize while
// walking a directory: a name bound against the schema (static literal,
// matched dynamic pattern, or seen on disk) together with the child schema
// node (if any) governing it.
type directoryResolution struct {
	name  string
	child *schema.Node
	bind  schema.Binding
}

// traverseDirectory walks node's (directory) children against fs at path,
// returning whether the sought component of unresolved (if any) was
// found and traversed.
func traverseDirectory(fs dfs.Filesystem, stack *StackFrame, node *schema.Node, path dpath.PlantedPath, unresolved string, extent Extent) (bool, error) {
	frame := stack.Push(DirectorySource(node.Dir), stack.Owner(), stack.Group(), stack.Mode())

	seekName, restOfUnresolved := splitFirstComponent(unresolved)

	names, err := collectNames(fs, node, path, seekName, extent)
	if err != nil {
		return false, err
	}

	resolutions, err := resolveEntries(frame, node.Dir, path, names)
	if err != nil {
		return false, err
	}

	found := seekName == ""
	for _, r := range resolutions {
		if extent == ExtentRestricted && seekName != "" && r.name != seekName {
			continue
		}
		childPath, err := path.Join(r.name)
		if err != nil {
			return false, wrapErr(KindResolve, fmt.Sprintf("joining %q under %q", r.name, path.Absolute()), err)
		}
		if r.child == nil {
			continue // present on disk, not governed by any schema entry: leave untouched
		}

		childFrame := frame
		if r.bind.IsDynamic() {
			childFrame = frame.Push(BindingSource(r.bind.Name, r.name), frame.Owner(), frame.Group(), frame.Mode())
		}

		childUnresolved := ""
		if r.name == seekName {
			childUnresolved = restOfUnresolved
			found = true
		}
		if err := traverseNode(fs, childFrame, r.child, childPath, childUnresolved, extent); err != nil {
			return false, err
		}
	}
	return found, nil
}

func splitFirstComponent(unresolved string) (first, rest string) {
	if unresolved == "" {
		return "", ""
	}
	for i := 0; i < len(unresolved); i++ {
		if unresolved[i] == '/' {
			return unresolved[:i], unresolved[i+1:]
		}
	}
	return unresolved, ""
}

// collectNames gathers every name this directory traversal must consider:
// existing disk entries (only in full extent — a restricted traversal
// never enumerates what it isn't looking for), plus the sought component
// itself when one is being resolved, plus every static schema binding.
func collectNames(fs dfs.Filesystem, node *schema.Node, path dpath.PlantedPath, seekName string, extent Extent) ([]string, error) {
	seen := map[string]bool{}
	var names []string

	if extent == ExtentFull && fs.Exists(path.Absolute()) {
		listed, err := fs.ListDirectory(path.Absolute())
		if err != nil {
			return nil, wrapErr(KindIO, fmt.Sprintf("listing %q", path.Absolute()), err)
		}
		for _, n := range listed {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	if seekName != "" && !seen[seekName] {
		names = append(names, seekName)
		seen[seekName] = true
	}

	for _, e := range node.Dir.Entries() {
		if e.Binding.IsStatic() && !seen[e.Binding.Name] {
			seen[e.Binding.Name] = true
			names = append(names, e.Binding.Name)
		}
	}

	return names, nil
}

// resolveEntries binds each candidate name against node's schema entries:
// a Static binding matches its literal name; a Dynamic binding matches any
// name whose node pattern accepts it. Static wins over Dynamic when both
// would match (lib.rs: names map insertion order puts statics first,
// static never overwritten by dynamic). Two Static entries claiming the
// same name, or two Dynamic entries both matching the same name, are
// schema conflicts.
func resolveEntries(stack *StackFrame, dir *schema.Directory, path dpath.PlantedPath, names []string) ([]directoryResolution, error) {
	staticByName := map[string]*schema.Node{}
	for _, e := range dir.Entries() {
		if e.Binding.IsStatic() {
			if _, dup := staticByName[e.Binding.Name]; dup {
				return nil, NewError(KindPolicy, fmt.Sprintf("duplicate static binding %q", e.Binding.Name))
			}
			staticByName[e.Binding.Name] = e.Child
		}
	}

	var dynamics []schema.ChildEntry
	for _, e := range dir.Entries() {
		if e.Binding.IsDynamic() {
			dynamics = append(dynamics, e)
		}
	}

	// Every dynamic pattern is keyed off stack/path, not the candidate name,
	// so it's compiled once here rather than once per name below; a wide
	// directory (many files, a handful of $-bindings) would otherwise
	// recompile the same regex set once per entry on disk.
	patterns := make([]CompiledPattern, len(dynamics))
	for i, e := range dynamics {
		pat, err := CompilePattern(e.Child.MatchPattern, e.Child.AvoidPattern, stack, path)
		if err != nil {
			return nil, err
		}
		patterns[i] = pat
	}

	out := make([]directoryResolution, 0, len(names))
	for _, name := range names {
		if child, ok := staticByName[name]; ok {
			out = append(out, directoryResolution{name: name, child: child, bind: schema.StaticBinding(name)})
			continue
		}

		// Matching dynamic-entry indices are collected into a bitmap rather
		// than tracked with a single "matched so far" variable, so the
		// ambiguity check below is a cardinality test. Every dynamic
		// pattern is tested against every name (O(names * dynamics)
		// matches); the scan does not stop at the first conflict.
		claimed := roaring.New()
		for i, pat := range patterns {
			if pat.Matches(name) {
				claimed.Add(uint32(i))
			}
		}

		switch claimed.GetCardinality() {
		case 0:
			out = append(out, directoryResolution{name: name, child: nil})
		case 1:
			i, _ := claimed.Select(0)
			e := dynamics[i]
			out = append(out, directoryResolution{name: name, child: e.Child, bind: e.Binding})
		default:
			first, _ := claimed.Select(0)
			second, _ := claimed.Select(1)
			return nil, NewError(KindPolicy, fmt.Sprintf("name %q matches multiple dynamic bindings (%q and %q)", name, dynamics[first].Binding.Name, dynamics[second].Binding.Name))
		}
	}
	return out, nil
}
