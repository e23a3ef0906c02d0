package schematext

import (
	"fmt"

	"github.com/agentic-research/diskplan/internal/schema"
)

// assembleContext carries the context a block of operators is being
// assembled under: whether it is itself a directory (from its header's
// trailing '/', or unconditionally true at the document root), whether it
// is the body of a :def (unbound template — cannot carry :match/:avoid),
// and whether it is the document root (cannot carry :match either).
type assembleContext struct {
	isDirectory bool
	isDef       bool
	topLevel    bool
}

// assemble applies the node-assembly rules from
// original_source/diskplan-schema/src/text/builder.rs's SchemaNodeBuilder
// to the operators collected for one block, producing the schema.Node it
// describes.
func assemble(ops []op, ctx assembleContext, headerSpan Span) (*schema.Node, error) {
	var (
		lets    map[string]schema.Expression
		defs    map[string]*schema.Node
		entries []schema.ChildEntry
		uses    []string

		matchExpr, avoidExpr, ownerExpr, groupExpr, sourceExpr, targetExpr schema.Expression
		mode                                                               uint16

		seenMatch, seenAvoid, seenOwner, seenGroup, seenSource, seenTarget, seenMode bool
	)

	for _, o := range ops {
		switch o.kind {
		case "let":
			if !ctx.isDirectory {
				return nil, NewError("Cannot use :let to set variables inside files (add a '/' to make it a directory)", o.span)
			}
			if lets == nil {
				lets = make(map[string]schema.Expression)
			}
			if _, dup := lets[o.name]; dup {
				return nil, NewError(fmt.Sprintf(":let %s occurs twice", o.name), o.span)
			}
			lets[o.name] = o.letExpr

		case "def":
			if !ctx.isDirectory {
				return nil, NewError("Cannot use :def to add definitions inside files (add a '/' to make it a directory)", o.span)
			}
			if defs == nil {
				defs = make(map[string]*schema.Node)
			}
			if _, dup := defs[o.name]; dup {
				return nil, NewError(fmt.Sprintf(":def %s occurs twice", o.name), o.span)
			}
			child := o.child
			if o.arrow != nil {
				if child.Symlink != nil {
					return nil, NewError(":target occurs twice", o.span)
				}
				child.Symlink = o.arrow
			}
			defs[o.name] = child

		case "use":
			uses = append(uses, o.useName)

		case "match":
			if ctx.isDef {
				return nil, NewError(":match cannot be used in definition", o.span)
			}
			if ctx.topLevel {
				return nil, NewError(":match cannot be used at the top level", o.span)
			}
			if seenMatch {
				return nil, NewError(":match occurs twice", o.span)
			}
			seenMatch = true
			matchExpr = o.matchExpr

		case "avoid":
			if ctx.isDef {
				return nil, NewError(":avoid cannot be used in definition", o.span)
			}
			if seenAvoid {
				return nil, NewError(":avoid occurs twice", o.span)
			}
			seenAvoid = true
			avoidExpr = o.avoidExpr

		case "mode":
			if seenMode {
				return nil, NewError(":mode occurs twice", o.span)
			}
			seenMode = true
			mode = o.mode

		case "owner":
			if seenOwner {
				return nil, NewError(":owner occurs twice", o.span)
			}
			seenOwner = true
			ownerExpr = o.ownerExpr

		case "group":
			if seenGroup {
				return nil, NewError(":group occurs twice", o.span)
			}
			seenGroup = true
			groupExpr = o.groupExpr

		case "source":
			if seenSource {
				return nil, NewError(":source occurs twice", o.span)
			}
			seenSource = true
			sourceExpr = o.sourceExpr

		case "target":
			if seenTarget {
				return nil, NewError(":target occurs twice", o.span)
			}
			seenTarget = true
			targetExpr = o.targetExpr

		case "item":
			if !ctx.isDirectory {
				return nil, NewError("Files cannot have child items", o.span)
			}
			var binding schema.Binding
			if o.dynamicVar != "" {
				binding = schema.DynamicBinding(o.dynamicVar)
			} else {
				binding = schema.StaticBinding(o.name)
			}
			child := o.child
			if o.arrow != nil {
				if child.Symlink != nil {
					return nil, NewError(":target occurs twice", o.span)
				}
				child.Symlink = o.arrow
			}
			entries = append(entries, schema.ChildEntry{Binding: binding, Child: child})

		default:
			return nil, NewError(fmt.Sprintf("internal: unhandled operator %q", o.kind), o.span)
		}
	}

	if seenSource && len(uses) > 0 {
		return nil, NewError(":use cannot be used in conjunction with :source", headerSpan)
	}
	if seenSource && ctx.isDirectory {
		return nil, NewError(":source cannot be used on a directory (remove :source, or remove the trailing '/')", headerSpan)
	}
	if !ctx.isDirectory && !seenSource && len(uses) == 0 {
		return nil, NewError("File must have a :source (or add a '/' to make it a directory)", headerSpan)
	}

	node := &schema.Node{
		Line: headerSpan.Text(),
		Uses: uses,
		Attrs: schema.Attributes{
			Owner: exprPtrOrNil(seenOwner, ownerExpr),
			Group: exprPtrOrNil(seenGroup, groupExpr),
		},
	}
	if seenMode {
		m := mode
		node.Attrs.Mode = &m
	}
	if seenMatch {
		e := matchExpr
		node.MatchPattern = &e
	}
	if seenAvoid {
		e := avoidExpr
		node.AvoidPattern = &e
	}
	if seenTarget {
		e := targetExpr
		node.Symlink = &e
	}

	if ctx.isDirectory {
		node.Kind = schema.KindDirectory
		node.Dir = schema.NewDirectory(lets, defs, entries)
	} else {
		node.Kind = schema.KindFile
		node.File = &schema.File{Source: sourceExpr}
	}
	return node, nil
}

func exprPtrOrNil(seen bool, e schema.Expression) *schema.Expression {
	if !seen {
		return nil
	}
	return &e
}
