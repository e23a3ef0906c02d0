// Package schematext implements diskplan's significant-indentation schema
// text format: a lexer and recursive-descent parser turning schema source
// into an internal/schema.Node tree.
//
// The grammar and node-assembly rules are grounded on
// original_source/diskplan-schema/src/text/builder.rs (the current,
// colon-prefixed directive grammar — :let/:def/:use/:match/:avoid/:mode/
// :owner/:group/:source/:target — and its exact validation error wording)
// and original_source/src/schema/text.rs (the indentation/operator
// combinator shape: indentation must be an exact multiple of four spaces,
// an "operator" is either a directive or an item/def header opening a
// nested block of further operators). The span-chain error model is
// grounded on original_source/diskplan-schema/src/text/error.rs.
package schematext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/diskplan/internal/schema"
)

// Parser implements schema.Parser by parsing diskplan's text schema
// format.
type Parser struct{}

// NewParser returns a Parser for diskplan's text schema format.
func NewParser() *Parser { return &Parser{} }

// Parse parses source into a schema.Node tree. path is used only in the
// message Parse wraps around top-level assembly errors; Parse itself never
// touches the filesystem.
func (p *Parser) Parse(path string, source string) (*schema.Node, error) {
	lines := lex(source)
	cur := &cursor{lines: lines, source: source}

	ops, err := parseBody(cur, 0)
	if err != nil {
		return nil, err
	}
	if l, ok := cur.peekContent(); ok {
		return nil, NewError("unexpected indentation", lineSpan(source, l))
	}

	full := Span{Source: source, Start: 0, End: len(source)}
	node, err := assemble(ops, assembleContext{isDirectory: true, topLevel: true}, full)
	if err != nil {
		return nil, wrapAny(err, fmt.Sprintf("while parsing schema %q", path), full)
	}
	return node, nil
}

// cursor walks the lexed line list, transparently skipping blank and
// comment lines (they carry no structure and may be discarded wherever
// encountered).
type cursor struct {
	lines  []physLine
	pos    int
	source string
}

func (c *cursor) peekContent() (*physLine, bool) {
	for c.pos < len(c.lines) {
		l := &c.lines[c.pos]
		if l.kind == lineContent {
			return l, true
		}
		c.pos++
	}
	return nil, false
}

func (c *cursor) advance() { c.pos++ }

func lineSpan(source string, l *physLine) Span {
	return Span{Source: source, Start: l.start, End: l.end}
}

// op is one parsed operator: either a simple directive or an item/def
// header opening a nested block, per original_source/src/schema/text.rs's
// Operator enum.
type op struct {
	span Span

	kind string // "item", "def", or a directive name

	// item / def header fields
	name        string // static binding literal, or def name
	dynamicVar  string // set instead of name for a "$ident" dynamic binding
	isDirectory bool
	arrow       *schema.Expression
	child       *schema.Node

	// directive argument fields
	letExpr    schema.Expression
	useName    string
	matchExpr  schema.Expression
	avoidExpr  schema.Expression
	mode       uint16
	ownerExpr  schema.Expression
	groupExpr  schema.Expression
	sourceExpr schema.Expression
	targetExpr schema.Expression
}

// parseBody parses every operator at exactly the given indentation,
// recursing into indent+4 for each item/def header's own nested block.
// It stops (without consuming) at the first content line whose indent is
// less than indent, leaving it for an enclosing call to see.
func parseBody(cur *cursor, indent int) ([]op, error) {
	var ops []op
	for {
		l, ok := cur.peekContent()
		if !ok {
			return ops, nil
		}
		if l.indent%4 != 0 {
			return nil, NewError("indentation must be an exact multiple of four spaces", lineSpan(cur.source, l))
		}
		if l.indent < indent {
			return ops, nil
		}
		if l.indent > indent {
			return nil, NewError("unexpected indentation", lineSpan(cur.source, l))
		}

		cur.advance()
		parsed, err := parseLine(cur, l, indent)
		if err != nil {
			return nil, err
		}
		ops = append(ops, parsed)
	}
}

func parseLine(cur *cursor, l *physLine, indent int) (op, error) {
	span := lineSpan(cur.source, l)
	if strings.HasPrefix(l.body, ":") {
		return parseDirective(cur, l, span, indent)
	}
	return parseHeader(cur, l, span, indent, "item")
}

func parseDirective(cur *cursor, l *physLine, span Span, indent int) (op, error) {
	rest := l.body[1:]
	name, args, argsOffset := splitWord(rest, l.start+1)

	switch name {
	case "def":
		return parseHeader(cur, &physLine{body: args, indent: l.indent, start: argsOffset, end: l.end, kind: lineContent}, span, indent, "def")
	case "let":
		return parseLet(args, argsOffset, span, cur.source)
	case "use":
		id, _, ok := readIdentifier(args, argsOffset)
		if !ok {
			return op{}, NewError(":use requires a definition name", span)
		}
		return op{kind: "use", span: span, useName: id}, nil
	case "match":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "match", span: span, matchExpr: expr}, nil
	case "avoid":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "avoid", span: span, avoidExpr: expr}, nil
	case "mode":
		mode, err := parseOctalMode(strings.TrimSpace(args), argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "mode", span: span, mode: mode}, nil
	case "owner":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "owner", span: span, ownerExpr: expr}, nil
	case "group":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "group", span: span, groupExpr: expr}, nil
	case "source":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "source", span: span, sourceExpr: expr}, nil
	case "target":
		expr, err := parseExpression(args, argsOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		return op{kind: "target", span: span, targetExpr: expr}, nil
	default:
		return op{}, NewError(fmt.Sprintf("unknown directive %q", ":"+name), span)
	}
}

func parseLet(args string, argsOffset int, span Span, source string) (op, error) {
	id, n, ok := readIdentifier(args, argsOffset)
	if !ok {
		return op{}, NewError(":let requires a variable name", span)
	}
	rest := strings.TrimLeft(args[n:], " ")
	if !strings.HasPrefix(rest, "=") {
		return op{}, NewError(":let requires '= EXPR' after the variable name", span)
	}
	exprOffset := argsOffset + n + (len(args[n:]) - len(rest)) + 1
	exprText := strings.TrimLeft(rest[1:], " ")
	exprOffset += len(rest[1:]) - len(exprText)
	expr, err := parseExpression(exprText, exprOffset, source)
	if err != nil {
		return op{}, err
	}
	return op{kind: "let", span: span, name: id, letExpr: expr}, nil
}

// parseHeader parses an item or def header: a binding (static filename or
// "$identifier"), an optional trailing '/' marking a directory, and an
// optional "-> EXPR" symlink target, followed by the header's own nested
// block at indent+4.
func parseHeader(cur *cursor, l *physLine, span Span, indent int, opKind string) (op, error) {
	body := l.body
	base := l.start

	var name, dynamicVar string
	var consumed int
	if strings.HasPrefix(body, "$") {
		id, n, ok := readIdentifier(body[1:], base+1)
		if !ok {
			return op{}, NewError("expected a variable name after '$'", span)
		}
		dynamicVar = id
		consumed = 1 + n
	} else {
		n := 0
		for n < len(body) && isFilenameByte(body[n]) {
			n++
		}
		if n == 0 {
			return op{}, NewError("expected a name", span)
		}
		name = body[:n]
		consumed = n
	}

	isDirectory := false
	if consumed < len(body) && body[consumed] == '/' {
		isDirectory = true
		consumed++
	}

	rest := body[consumed:]
	trimmed := strings.TrimLeft(rest, " ")
	consumed += len(rest) - len(trimmed)

	var arrow *schema.Expression
	if strings.HasPrefix(trimmed, "->") {
		afterArrow := trimmed[2:]
		exprText := strings.TrimLeft(afterArrow, " ")
		exprOffset := base + consumed + 2 + (len(afterArrow) - len(exprText))
		expr, err := parseExpression(exprText, exprOffset, cur.source)
		if err != nil {
			return op{}, err
		}
		arrow = &expr
	} else if trimmed != "" {
		return op{}, NewError(fmt.Sprintf("unexpected trailing text %q", trimmed), span)
	}

	childOps, err := parseBody(cur, indent+4)
	if err != nil {
		return op{}, err
	}
	child, err := assemble(childOps, assembleContext{isDirectory: isDirectory, isDef: opKind == "def"}, span)
	if err != nil {
		return op{}, err
	}

	return op{
		kind:        opKind,
		span:        span,
		name:        name,
		dynamicVar:  dynamicVar,
		isDirectory: isDirectory,
		arrow:       arrow,
		child:       child,
	}, nil
}

// splitWord splits s at the first run of spaces into (word, remainder),
// reporting the absolute source offset of remainder's first byte.
func splitWord(s string, base int) (word, remainder string, remainderOffset int) {
	i := 0
	for i < len(s) && s[i] != ' ' {
		i++
	}
	word = s[:i]
	rest := s[i:]
	trimmed := strings.TrimLeft(rest, " ")
	return word, trimmed, base + i + (len(rest) - len(trimmed))
}

func readIdentifier(s string, base int) (id string, consumed int, ok bool) {
	if s == "" || !isIdentByte(s[0], true) {
		return "", 0, false
	}
	n := 1
	for n < len(s) && isIdentByte(s[n], false) {
		n++
	}
	return s[:n], n, true
}

func isIdentByte(b byte, first bool) bool {
	if b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b == '_' {
		return true
	}
	if !first && b >= '0' && b <= '9' {
		return true
	}
	return false
}

func isFilenameByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '_', '-', '.', '@', '^', '+', '%', '=':
		return true
	}
	return false
}

func parseOctalMode(s string, offset int, source string) (uint16, error) {
	if s == "" {
		return 0, NewError(":mode requires an octal value", Span{Source: source, Start: offset, End: offset})
	}
	v, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return 0, NewError(fmt.Sprintf("invalid octal mode %q", s), Span{Source: source, Start: offset, End: offset + len(s)})
	}
	return uint16(v), nil
}

// parseExpression reads a sequence of literal text runs and $variable /
// ${variable} references, matching the teacher-agnostic rule in spec.md:
// a bare '$' followed by neither an identifier start nor '{' is folded
// back into the surrounding literal text rather than rejected. A "${" must
// be closed by '}' around a valid identifier; otherwise it is an error.
func parseExpression(text string, base int, source string) (schema.Expression, error) {
	var toks schema.Expression
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, schema.TextToken(buf.String()))
			buf.Reset()
		}
	}

	i := 0
	for i < len(text) {
		if text[i] != '$' {
			buf.WriteByte(text[i])
			i++
			continue
		}
		rest := text[i+1:]
		if strings.HasPrefix(rest, "{") {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, NewError("unterminated ${...} variable reference", Span{Source: source, Start: base + i, End: base + len(text)})
			}
			name := rest[1:end]
			if !isValidIdentifier(name) {
				return nil, NewError(fmt.Sprintf("invalid variable name %q", name), Span{Source: source, Start: base + i, End: base + i + 2 + end})
			}
			flush()
			toks = append(toks, tokenForName(name))
			i += 1 + end + 2
			continue
		}
		if len(rest) > 0 && isIdentByte(rest[0], true) {
			n := 1
			for n < len(rest) && isIdentByte(rest[n], false) {
				n++
			}
			flush()
			toks = append(toks, tokenForName(rest[:n]))
			i += 1 + n
			continue
		}
		buf.WriteByte('$')
		i++
	}
	flush()
	if len(toks) == 0 {
		return nil, NewError("expected an expression", Span{Source: source, Start: base, End: base + len(text)})
	}
	return toks, nil
}

func tokenForName(name string) schema.Token {
	if tag, ok := schema.SpecialTagByName(name); ok {
		return schema.SpecialToken(tag)
	}
	return schema.VariableToken(name)
}

func isValidIdentifier(s string) bool {
	if s == "" || !isIdentByte(s[0], true) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i], false) {
			return false
		}
	}
	return true
}
