package traverse

import (
	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
)

// Resolver maps an absolute path to the configured stem that governs it:
// the stem's root and the schema tree's root node (the same pair for
// every path under that root — traversal walks down from there, not from
// an already-descended node). It also maps raw owner/group names through
// any configured override table. Satisfied by api.Config; kept as an
// interface here so traverse only depends on dpath/dfs/schema, never on
// the api package (api.Config depends on traverse's sibling packages, not
// the other way around).
type Resolver interface {
	SchemaFor(absPath string) (*schema.Node, dpath.Root, error)
	MapUser(name string) string
	MapGroup(name string) string
}

// variableSourceKind discriminates a stack frame's local variable scope,
// matching original_source/diskplan-traversal/src/stack.rs's
// VariableSource enum (Empty/Directory/Binding/Map).
type variableSourceKind int

const (
	sourceEmpty variableSourceKind = iota
	sourceDirectory
	sourceBinding
	sourceMap
)

// VariableSource is one stack frame's local variable scope.
type VariableSource struct {
	kind      variableSourceKind
	dir       *schema.Directory
	bindName  string
	bindValue string
	m         map[string]string
}

// EmptySource carries no local variables.
func EmptySource() VariableSource { return VariableSource{kind: sourceEmpty} }

// DirectorySource exposes a directory schema's :let variables and :def
// definitions to the frame and its descendants.
func DirectorySource(d *schema.Directory) VariableSource {
	return VariableSource{kind: sourceDirectory, dir: d}
}

// BindingSource binds one dynamic variable to the name it matched during
// directory traversal.
func BindingSource(name, value string) VariableSource {
	return VariableSource{kind: sourceBinding, bindName: name, bindValue: value}
}

// MapSource exposes a flat name->value table, used for the top-level
// --vars overrides (--usermap/--groupmap go through Resolver instead).
func MapSource(m map[string]string) VariableSource {
	return VariableSource{kind: sourceMap, m: m}
}

// Value is the result of a stack variable lookup: either a raw string
// (from a binding or map) or a schema Expression that itself requires
// evaluation (from a directory's :let), matching stack.rs's Value enum.
type Value struct {
	expr   *schema.Expression
	str    string
	isExpr bool
}

func exprValue(e schema.Expression) Value { return Value{expr: &e, isExpr: true} }
func strValue(s string) Value             { return Value{str: s} }

// StackFrame threads variable scope and inherited owner/group/mode
// through a traversal, linked to its parent so lookups and definition
// search walk outward to enclosing scopes. Grounded on
// original_source/diskplan-traversal/src/stack.rs's StackFrame.
type StackFrame struct {
	parent   *StackFrame
	resolver Resolver
	vars     VariableSource

	owner string
	group string
	mode  uint16
}

// NewStack starts a traversal's root frame.
func NewStack(resolver Resolver, owner, group string, mode uint16) *StackFrame {
	return &StackFrame{resolver: resolver, vars: EmptySource(), owner: owner, group: group, mode: mode}
}

// Push returns a child frame with a new local variable scope, inheriting
// (or overriding) owner/group/mode.
func (s *StackFrame) Push(vars VariableSource, owner, group string, mode uint16) *StackFrame {
	return &StackFrame{parent: s, resolver: s.resolver, vars: vars, owner: owner, group: group, mode: mode}
}

func (s *StackFrame) Resolver() Resolver { return s.resolver }
func (s *StackFrame) Owner() string      { return s.owner }
func (s *StackFrame) Group() string      { return s.group }
func (s *StackFrame) Mode() uint16       { return s.mode }

// Lookup resolves a variable identifier against this frame's scope, then
// its ancestors.
func (s *StackFrame) Lookup(name string) (Value, bool) {
	switch s.vars.kind {
	case sourceDirectory:
		if e, ok := s.vars.dir.GetVar(name); ok {
			return exprValue(e), true
		}
	case sourceBinding:
		if s.vars.bindName == name {
			return strValue(s.vars.bindValue), true
		}
	case sourceMap:
		if v, ok := s.vars.m[name]; ok {
			return strValue(v), true
		}
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return Value{}, false
}

// FindDefinition resolves a :def identifier against this frame's
// directory scope, then its ancestors.
func (s *StackFrame) FindDefinition(name string) (*schema.Node, bool) {
	if s.vars.kind == sourceDirectory {
		if n, ok := s.vars.dir.GetDef(name); ok {
			return n, true
		}
	}
	if s.parent != nil {
		return s.parent.FindDefinition(name)
	}
	return nil, false
}
