package main

import "testing"

func TestParseKVDelegatesToUsermap(t *testing.T) {
	m := parseKV("alice:svc-alice,bob:svc-bob")
	if m["alice"] != "svc-alice" || m["bob"] != "svc-bob" {
		t.Fatalf("unexpected map: %#v", m)
	}
}
