package usermap_test

import (
	"testing"

	"github.com/agentic-research/diskplan/internal/usermap"
)

func TestParseKV(t *testing.T) {
	m := usermap.ParseKV("alice:svc-alice,bob:svc-bob")
	if m["alice"] != "svc-alice" || m["bob"] != "svc-bob" {
		t.Fatalf("unexpected map: %#v", m)
	}
}

func TestParseKVSkipsMalformedEntries(t *testing.T) {
	m := usermap.ParseKV("alice:svc-alice,noColon,:empty-key")
	if len(m) != 1 || m["alice"] != "svc-alice" {
		t.Fatalf("expected only the well-formed entry, got: %#v", m)
	}
}

func TestParseKVEmptyString(t *testing.T) {
	m := usermap.ParseKV("")
	if len(m) != 0 {
		t.Fatalf("expected empty map, got: %#v", m)
	}
}

func TestResolverMapsThroughOverrideTable(t *testing.T) {
	r := usermap.New(
		map[string]string{"alice": "svc-alice"},
		map[string]string{"staff": "svc-staff"},
	)
	if got := r.MapUser("alice"); got != "svc-alice" {
		t.Fatalf("MapUser(alice) = %q, want svc-alice", got)
	}
	if got := r.MapUser("root"); got != "root" {
		t.Fatalf("MapUser(root) = %q, want passthrough root", got)
	}
	if got := r.MapGroup("staff"); got != "svc-staff" {
		t.Fatalf("MapGroup(staff) = %q, want svc-staff", got)
	}
}
