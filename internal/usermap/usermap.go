// Package usermap resolves owner/group names for default top-level
// attribution and builds the override tables fed by the --usermap/
// --groupmap CLI flags.
//
// Grounded on stdlib os/user for host resolution; the override-then-
// fall-back-to-host shape follows moby-moby's pkg/idtools convention of
// layering a small name-remapping table in front of host identity
// resolution, rather than replacing it (moby-moby's idtools maps UIDs
// through a subordinate-ID range the same way this package maps names
// through a flat override table).
package usermap

import (
	"os/user"
	"strings"

	"github.com/agentic-research/diskplan/api"
)

// Resolver resolves owner/group names, consulting an override table
// before falling back to host name resolution. A name with no configured
// mapping and no host-side indirection needed just passes through.
type Resolver struct {
	userMap  api.UserGroupMap
	groupMap api.UserGroupMap
}

// New returns a Resolver that maps names through userMap/groupMap before
// any other resolution; either may be nil.
func New(userMap, groupMap api.UserGroupMap) *Resolver {
	return &Resolver{userMap: userMap, groupMap: groupMap}
}

// MapUser maps name through the configured user override table, passing
// it through unchanged if absent.
func (r *Resolver) MapUser(name string) string {
	if v, ok := r.userMap[name]; ok {
		return v
	}
	return name
}

// MapGroup maps name through the configured group override table, passing
// it through unchanged if absent.
func (r *Resolver) MapGroup(name string) string {
	if v, ok := r.groupMap[name]; ok {
		return v
	}
	return name
}

// CurrentOwnerGroup resolves the host process's user and primary group
// names, for use as a Config's default top-level attribution.
func CurrentOwnerGroup() (owner, group string, err error) {
	u, err := user.Current()
	if err != nil {
		return "", "", err
	}
	owner = u.Username
	group = owner
	if g, gerr := user.LookupGroupId(u.Gid); gerr == nil {
		group = g.Name
	}
	return owner, group, nil
}

// LookupUID resolves name to a host UID string. It does not consult the
// override table. The physical filesystem backend does not call it; it
// resolves names for chown with its own lookup in internal/dfs.
func LookupUID(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.Uid, nil
}

// LookupGID resolves name to a host GID string, the group analogue of
// LookupUID.
func LookupGID(name string) (string, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return "", err
	}
	return g.Gid, nil
}

// ParseKV parses the "k:v,k:v" syntax shared by --usermap/--groupmap/
// --vars into a flat map. cmd/diskplan/args.go wraps it for the CLI
// flags; config files carry no override tables. Entries
// without a ":" or with an empty key are skipped rather than erroring —
// this is a best-effort override table, not a validated wire format.
func ParseKV(s string) api.UserGroupMap {
	m := api.UserGroupMap{}
	if s == "" {
		return m
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, ":")
		if !ok || k == "" {
			continue
		}
		m[k] = v
	}
	return m
}
