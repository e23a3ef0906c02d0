package main

import "github.com/agentic-research/diskplan/internal/usermap"

// parseKV parses the "k:v,k:v" syntax shared by --usermap/--groupmap/
// --vars. Delegates to internal/usermap.ParseKV; kept as a thin wrapper
// here because SPEC_FULL.md §6.3 calls out this file by name as the flag
// parser.
//
// Grounded on the teacher's own flag-adjacent parsing style in
// cmd/agent.go, which favors direct strings manipulation over a CSV/INI
// library for small inline formats.
func parseKV(s string) map[string]string {
	return usermap.ParseKV(s)
}
