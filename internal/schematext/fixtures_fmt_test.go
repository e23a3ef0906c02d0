package schematext

import "testing"

func TestFormatFixtureAttrsAligns(t *testing.T) {
	src := "root = \"/srv\"\nschema=\"stem.diskplan\"\n"
	got := FormatFixtureAttrs(src)
	want := "root   = \"/srv\"\nschema = \"stem.diskplan\"\n"
	if got != want {
		t.Fatalf("FormatFixtureAttrs(%q) = %q, want %q", src, got, want)
	}
}
