package traverse

import (
	"fmt"
	"regexp"

	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
)

// CompiledPattern is a node's :match/:avoid pair compiled into anchored
// regular expressions, evaluated once per directory entry name against a
// schema's dynamic-binding candidates. Grounded on
// original_source/diskplan-traversal/src/pattern.rs's CompiledPattern enum
// (Any / Regex / RegexWithExclusions), collapsed here into one struct since
// Go regexps are cheap to default to ".*".
type CompiledPattern struct {
	any   bool
	match *regexp.Regexp
	avoid *regexp.Regexp
}

// CompilePattern evaluates node's :match and :avoid expressions (if any)
// against stack/path and compiles them into anchored patterns. A node with
// neither directive matches any name; one with only :avoid matches
// anything not excluded.
func CompilePattern(matchExpr, avoidExpr *schema.Expression, stack *StackFrame, path dpath.PlantedPath) (CompiledPattern, error) {
	if matchExpr == nil && avoidExpr == nil {
		return CompiledPattern{any: true}, nil
	}

	var match *regexp.Regexp
	if matchExpr != nil {
		s, err := Evaluate(*matchExpr, stack, path)
		if err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, "evaluating :match", err)
		}
		if _, err := regexp.Compile(s); err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, fmt.Sprintf("compiling :match %q", s), err)
		}
		re, err := regexp.Compile("^(?:" + s + ")$")
		if err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, fmt.Sprintf("compiling :match %q", s), err)
		}
		match = re
	}

	var avoid *regexp.Regexp
	if avoidExpr != nil {
		s, err := Evaluate(*avoidExpr, stack, path)
		if err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, "evaluating :avoid", err)
		}
		if _, err := regexp.Compile(s); err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, fmt.Sprintf("compiling :avoid %q", s), err)
		}
		re, err := regexp.Compile("^(?:" + s + ")$")
		if err != nil {
			return CompiledPattern{}, wrapErr(KindMatch, fmt.Sprintf("compiling :avoid %q", s), err)
		}
		avoid = re
	}

	if match == nil {
		return CompiledPattern{avoid: avoid}, nil
	}
	return CompiledPattern{match: match, avoid: avoid}, nil
}

// Matches reports whether name satisfies the pattern: not excluded by
// :avoid, and either unconstrained or matched by :match.
func (p CompiledPattern) Matches(name string) bool {
	if p.avoid != nil && p.avoid.MatchString(name) {
		return false
	}
	if p.any || p.match == nil {
		return true
	}
	return p.match.MatchString(name)
}
