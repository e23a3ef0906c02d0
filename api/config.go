// Package api holds diskplan's public value types: the stem table a
// configuration file resolves into, and the variable/user-group override
// maps threaded in from the CLI. internal/config builds these; internal/
// traverse consumes them through the traverse.Resolver interface.
//
// Grounded on the teacher's api package (agentic-research-mache/api),
// which plays the same role there: the boundary type a cmd/ entry point
// builds and the engine internals consume. It builds on internal/dpath,
// internal/schema and internal/schematext for its root, node and parser
// types.
package api

import (
	"fmt"
	"os/user"
	"sort"
	"strings"

	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
	"github.com/agentic-research/diskplan/internal/schematext"
)

// Stem is a configured (root, schema-path) pair: spec.md §3's "Stem".
type Stem struct {
	Root       dpath.Root
	SchemaPath string
}

// VarMap is a flat set of top-level variable overrides, supplied via the
// CLI's --vars flag.
type VarMap map[string]string

// UserGroupMap is a name->name override table, supplied via --usermap or
// --groupmap. A name absent from the map passes through unchanged.
type UserGroupMap map[string]string

// Config is the external API the core traversal engine requires (spec.md
// §6): a stem table resolved by longest-prefix match, user/group override
// maps, a schema cache, and the current user/group for default top-level
// attribution. It implements traverse.Resolver.
type Config struct {
	stems []Stem // sorted longest-root-first, so StemFor's scan finds the longest match first

	Vars     VarMap
	UserMap  UserGroupMap
	GroupMap UserGroupMap
	Cache    *schema.Cache
	Owner    string
	Group    string
}

// NewConfig builds a Config from a set of stems plus the override maps and
// current-user attribution internal/config resolves at load time.
func NewConfig(stems []Stem, vars VarMap, userMap, groupMap UserGroupMap, cache *schema.Cache, owner, group string) *Config {
	sorted := append([]Stem(nil), stems...)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Root) > len(sorted[j].Root)
	})
	return &Config{
		stems:    sorted,
		Vars:     vars,
		UserMap:  userMap,
		GroupMap: groupMap,
		Cache:    cache,
		Owner:    owner,
		Group:    group,
	}
}

// CurrentUserGroup resolves the host process's user and group names via
// os/user, for use as a Config's default top-level attribution when the
// caller supplies none.
func CurrentUserGroup() (string, string, error) {
	u, err := user.Current()
	if err != nil {
		return "", "", fmt.Errorf("api: resolve current user: %w", err)
	}
	owner := u.Username
	group := owner
	if g, err := user.LookupGroupId(u.Gid); err == nil {
		group = g.Name
	}
	return owner, group, nil
}

// StemFor returns the stem whose root is the longest prefix of path, per
// spec.md §3's longest-prefix-match rule (stems are keyed by distinct
// roots, so a tie is impossible).
func (c *Config) StemFor(path string) (Stem, bool) {
	for _, s := range c.stems {
		root := string(s.Root)
		if path == root {
			return s, true
		}
		if root == "/" || strings.HasPrefix(path, root+"/") {
			return s, true
		}
	}
	return Stem{}, false
}

// SchemaFor implements traverse.Resolver: it resolves path's governing
// stem, loads (and caches) that stem's schema file, and returns the
// schema's root node together with the stem's root.
func (c *Config) SchemaFor(path string) (*schema.Node, dpath.Root, error) {
	stem, ok := c.StemFor(path)
	if !ok {
		return nil, "", fmt.Errorf("api: no configured stem contains %q", path)
	}
	node, err := c.Cache.Load(stem.SchemaPath)
	if err != nil {
		return nil, "", fmt.Errorf("api: loading schema %q for stem %q: %w", stem.SchemaPath, stem.Root, err)
	}
	return node, stem.Root, nil
}

// MapUser maps a raw owner name through the --usermap override table,
// passing it through unchanged if absent.
func (c *Config) MapUser(name string) string {
	if v, ok := c.UserMap[name]; ok {
		return v
	}
	return name
}

// MapGroup maps a raw group name through the --groupmap override table,
// passing it through unchanged if absent.
func (c *Config) MapGroup(name string) string {
	if v, ok := c.GroupMap[name]; ok {
		return v
	}
	return name
}

// NewSchemaCache returns a schema cache wired to diskplan's text parser,
// a small convenience so callers (internal/config, cmd/diskplan) don't
// need to import schematext directly just to build one.
func NewSchemaCache() *schema.Cache {
	return schema.NewCache(schematext.NewParser())
}
