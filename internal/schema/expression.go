// Package schema holds diskplan's immutable schema tree: nodes, bindings,
// expressions, and the cache that owns parsed schema text.
//
// The tree shape (a node carrying a name/pattern, children, and file
// leaves) is grounded on the teacher's api.Topology/api.Node
// (api/schema.go in agentic-research-mache): a recursive Node with Name,
// Children, and Files, generalized here with pattern/symlink expressions,
// :use lists and attributes in place of the teacher's JSON template
// fields.
package schema

import "fmt"

// SpecialTag enumerates the seven built-in path projections an expression
// token may reference.
type SpecialTag int

const (
	// Path is the current path relative to the active root.
	Path SpecialTag = iota
	// FullPath is the current absolute path.
	FullPath
	// Name is the final component of the current path.
	Name
	// ParentPath is the relative path minus its final component.
	ParentPath
	// ParentFullPath is the absolute path minus its final component.
	ParentFullPath
	// ParentName is the penultimate path component.
	ParentName
	// RootPath is the absolute path of the active root.
	RootPath
)

func (t SpecialTag) String() string {
	switch t {
	case Path:
		return "PATH"
	case FullPath:
		return "FULL_PATH"
	case Name:
		return "NAME"
	case ParentPath:
		return "PARENT_PATH"
	case ParentFullPath:
		return "PARENT_FULL_PATH"
	case ParentName:
		return "PARENT_NAME"
	case RootPath:
		return "ROOT_PATH"
	default:
		return fmt.Sprintf("SpecialTag(%d)", int(t))
	}
}

// SpecialTagByName looks up a built-in tag by its spelling in schema text.
func SpecialTagByName(name string) (SpecialTag, bool) {
	switch name {
	case "PATH":
		return Path, true
	case "FULL_PATH":
		return FullPath, true
	case "NAME":
		return Name, true
	case "PARENT_PATH":
		return ParentPath, true
	case "PARENT_FULL_PATH":
		return ParentFullPath, true
	case "PARENT_NAME":
		return ParentName, true
	case "ROOT_PATH":
		return RootPath, true
	default:
		return 0, false
	}
}

// TokenKind discriminates the three token shapes an Expression is built
// from.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenVariable
	TokenSpecial
)

// Token is one element of an Expression: a literal text run, a reference
// to a variable identifier, or a built-in Special projection.
type Token struct {
	Kind     TokenKind
	Text     string     // TokenText
	Variable string     // TokenVariable: the referenced identifier
	Special  SpecialTag // TokenSpecial
}

func TextToken(s string) Token          { return Token{Kind: TokenText, Text: s} }
func VariableToken(id string) Token     { return Token{Kind: TokenVariable, Variable: id} }
func SpecialToken(tag SpecialTag) Token { return Token{Kind: TokenSpecial, Special: tag} }

// Expression is an ordered sequence of tokens, evaluated left to right.
type Expression []Token

// String renders the expression back into roughly its source form, used in
// diagnostics.
func (e Expression) String() string {
	var out string
	for _, t := range e {
		switch t.Kind {
		case TokenText:
			out += t.Text
		case TokenVariable:
			out += "$" + t.Variable
		case TokenSpecial:
			out += "$" + t.Special.String()
		}
	}
	return out
}
