package traverse

import (
	"fmt"
	"strings"

	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
)

// Evaluate renders expr to a string against stack's variable scope and
// path's special projections. Grounded on
// original_source/diskplan-traversal/src/eval.rs's evaluate function: text
// tokens are copied verbatim, variable tokens resolve through the stack
// (recursing if the bound value is itself an expression), and special
// tokens project fields of path.
func Evaluate(expr schema.Expression, stack *StackFrame, path dpath.PlantedPath) (string, error) {
	var b strings.Builder
	for _, tok := range expr {
		switch tok.Kind {
		case schema.TokenText:
			b.WriteString(tok.Text)
		case schema.TokenVariable:
			s, err := evaluateVariable(tok.Variable, stack, path)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case schema.TokenSpecial:
			s, err := evaluateSpecial(tok.Special, path)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	return b.String(), nil
}

func evaluateVariable(name string, stack *StackFrame, path dpath.PlantedPath) (string, error) {
	v, ok := stack.Lookup(name)
	if !ok {
		return "", NewError(KindResolve, fmt.Sprintf("undefined variable \"%s\"", name))
	}
	if v.isExpr {
		return Evaluate(*v.expr, stack, path)
	}
	return v.str, nil
}

func evaluateSpecial(tag schema.SpecialTag, path dpath.PlantedPath) (string, error) {
	switch tag {
	case schema.FullPath:
		return path.Absolute(), nil
	case schema.Path:
		return path.Relative(), nil
	case schema.Name:
		return path.Name(), nil
	case schema.ParentFullPath:
		p, err := path.Parent()
		if err != nil {
			return "", wrapErr(KindResolve, fmt.Sprintf("path %q has no parent", path.Absolute()), err)
		}
		return p.Absolute(), nil
	case schema.ParentPath:
		p, err := path.Parent()
		if err != nil {
			return "", wrapErr(KindResolve, fmt.Sprintf("path %q has no parent", path.Relative()), err)
		}
		return p.Relative(), nil
	case schema.ParentName:
		p, err := path.Parent()
		if err != nil {
			return "", wrapErr(KindResolve, fmt.Sprintf("path %q has no parent", path.Relative()), err)
		}
		return p.Name(), nil
	case schema.RootPath:
		return path.Root().String(), nil
	default:
		return "", NewError(KindResolve, fmt.Sprintf("unknown special tag %v", tag))
	}
}
