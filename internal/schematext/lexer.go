package schematext

import "strings"

// lineKind classifies one physical line of schema text.
type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineContent
)

// physLine is one physical line, already split from the source and
// classified, with its indentation measured in leading space characters.
// Tabs are never treated as indentation; a tab in a content line's
// leading whitespace stays in its body, where the parser rejects it (it
// is neither a name, a '$' binding, nor a ':' directive).
type physLine struct {
	kind   lineKind
	indent int    // count of leading U+0020 bytes, content lines only
	body   string // text after the indentation (content lines) or after '#' (comments)
	start  int    // byte offset of the line's first rune in the source
	end    int    // byte offset one past the line's last rune (excludes '\n')
}

// lex splits source into physical lines and classifies each one. Blank
// lines (whitespace only) and comment lines (whitespace then '#') never
// carry structural indentation; only lineContent entries participate in
// the block-nesting grammar.
func lex(source string) []physLine {
	var lines []physLine
	offset := 0
	for offset <= len(source) {
		nl := strings.IndexByte(source[offset:], '\n')
		var raw string
		var end int
		if nl < 0 {
			raw = source[offset:]
			end = len(source)
		} else {
			raw = source[offset : offset+nl]
			end = offset + nl
		}

		indent := 0
		for indent < len(raw) && raw[indent] == ' ' {
			indent++
		}
		rest := raw[indent:]

		switch {
		case rest == "":
			lines = append(lines, physLine{kind: lineBlank, start: offset, end: end})
		case rest[0] == '#':
			lines = append(lines, physLine{kind: lineComment, body: rest[1:], start: offset, end: end})
		default:
			lines = append(lines, physLine{kind: lineContent, indent: indent, body: rest, start: offset + indent, end: end})
		}

		if nl < 0 {
			break
		}
		offset += nl + 1
	}
	return lines
}
