package schema

import "sort"

// NodeKind discriminates a schema node's variant: Directory or File.
type NodeKind int

const (
	KindDirectory NodeKind = iota
	KindFile
)

// Attributes holds a node's schema-level owner/group expressions and mode.
// Mode is nil when the node carries no :mode directive (the engine then
// falls back through inheritance, see internal/traverse).
type Attributes struct {
	Owner *Expression
	Group *Expression
	Mode  *uint16 // 12 significant bits
}

// ChildEntry pairs a child's binding with its schema node. A Directory's
// Entries are sorted so every Static entry precedes every Dynamic one;
// within a group, declaration order is preserved.
type ChildEntry struct {
	Binding Binding
	Child   *Node
}

// Directory is the schema variant for a directory node: local :let
// variables, local :def definitions, and an ordered list of children.
type Directory struct {
	lets    map[string]Expression
	defs    map[string]*Node
	entries []ChildEntry
}

// NewDirectory builds a Directory schema, sorting entries static-before-
// dynamic (stable, so declaration order is preserved within each group).
func NewDirectory(lets map[string]Expression, defs map[string]*Node, entries []ChildEntry) *Directory {
	sorted := make([]ChildEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Binding.Less(sorted[j].Binding)
	})
	return &Directory{lets: lets, defs: defs, entries: sorted}
}

// GetVar looks up a :let expression by identifier.
func (d *Directory) GetVar(id string) (Expression, bool) {
	e, ok := d.lets[id]
	return e, ok
}

// GetDef looks up a :def sub-schema by identifier.
func (d *Directory) GetDef(id string) (*Node, bool) {
	n, ok := d.defs[id]
	return n, ok
}

// Entries returns the ordered (binding, child) list, Static first.
func (d *Directory) Entries() []ChildEntry { return d.entries }

// Vars returns the directory's :let bindings.
func (d *Directory) Vars() map[string]Expression { return d.lets }

// Defs returns the directory's :def bindings.
func (d *Directory) Defs() map[string]*Node { return d.defs }

// File is the schema variant for a file node: a required source
// expression naming the path content is copied from.
type File struct {
	Source Expression
}

// Node is an immutable schema tree node, owned by a Cache.
type Node struct {
	// Line is the source substring identifying this node, used in
	// diagnostics.
	Line string

	MatchPattern *Expression
	AvoidPattern *Expression
	Symlink      *Expression
	Uses         []string // ordered identifier references to :def's

	Attrs Attributes

	Kind NodeKind
	Dir  *Directory // set iff Kind == KindDirectory
	File *File      // set iff Kind == KindFile
}

// IsDirectory reports whether the node is a Directory variant.
func (n *Node) IsDirectory() bool { return n.Kind == KindDirectory }

// IsFile reports whether the node is a File variant.
func (n *Node) IsFile() bool { return n.Kind == KindFile }
