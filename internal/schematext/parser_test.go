package schematext

import (
	"strings"
	"testing"

	"github.com/agentic-research/diskplan/internal/schema"
)

func mustParse(t *testing.T, src string) *schema.Node {
	t.Helper()
	node, err := NewParser().Parse("test.diskplan", src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return node
}

func TestParseEmptySchemaIsEmptyDirectory(t *testing.T) {
	node := mustParse(t, "")
	if !node.IsDirectory() {
		t.Fatal("expected root to be a directory")
	}
	if len(node.Dir.Entries()) != 0 {
		t.Errorf("expected no entries, got %d", len(node.Dir.Entries()))
	}
}

func TestParseNestedDirectories(t *testing.T) {
	src := "config/\n" +
		"    database/\n" +
		"        cache/\n"
	node := mustParse(t, src)
	entries := node.Dir.Entries()
	if len(entries) != 1 || entries[0].Binding.Name != "config" {
		t.Fatalf("unexpected top entries: %+v", entries)
	}
	db := entries[0].Child
	if !db.IsDirectory() {
		t.Fatal("config should be a directory")
	}
	dbEntries := db.Dir.Entries()
	if len(dbEntries) != 1 || dbEntries[0].Binding.Name != "database" {
		t.Fatalf("unexpected config entries: %+v", dbEntries)
	}
}

func TestParseFileWithSource(t *testing.T) {
	src := "settings.toml\n" +
		"    :source $ROOT_PATH/templates/settings.toml\n"
	node := mustParse(t, src)
	entries := node.Dir.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	f := entries[0].Child
	if !f.IsFile() {
		t.Fatal("settings.toml should be a file")
	}
	if len(f.File.Source) == 0 {
		t.Fatal("expected a non-empty source expression")
	}
}

func TestParseSymlinkWithArrowAndNestedSchema(t *testing.T) {
	src := "current/ -> $ROOT_PATH/releases/$release\n" +
		"    bin/\n"
	node := mustParse(t, src)
	entries := node.Dir.Entries()
	current := entries[0].Child
	if current.Symlink == nil {
		t.Fatal("expected current to carry a symlink target expression")
	}
	if len(current.Dir.Entries()) != 1 {
		t.Fatal("expected current's nested schema to still have its bin/ entry")
	}
}

func TestParseStaticBeforeDynamicOrdering(t *testing.T) {
	src := "$name/\n" +
		"    :match [a-z]+\n" +
		"www\n" +
		"    :source $ROOT_PATH/index.html\n"
	node := mustParse(t, src)
	entries := node.Dir.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Binding.IsStatic() || entries[0].Binding.Name != "www" {
		t.Errorf("expected static www first, got %+v", entries[0])
	}
	if !entries[1].Binding.IsDynamic() || entries[1].Binding.Name != "name" {
		t.Errorf("expected dynamic name second, got %+v", entries[1])
	}
}

func TestParseLetAndUse(t *testing.T) {
	src := ":let greeting = hello\n" +
		":def base/\n" +
		"    :owner $greeting\n" +
		"app/\n" +
		"    :use base\n"
	node := mustParse(t, src)
	if v, ok := node.Dir.GetVar("greeting"); !ok || v.String() != "hello" {
		t.Errorf("GetVar(greeting) = %v, %v", v, ok)
	}
	if _, ok := node.Dir.GetDef("base"); !ok {
		t.Error("expected base def to be registered")
	}
	entries := node.Dir.Entries()
	if len(entries[0].Child.Uses) != 1 || entries[0].Child.Uses[0] != "base" {
		t.Errorf("expected app/ to record :use base, got %+v", entries[0].Child.Uses)
	}
}

func TestParseAvoidPattern(t *testing.T) {
	src := "$name/\n" +
		"    :avoid ^\\.\n"
	node := mustParse(t, src)
	child := node.Dir.Entries()[0].Child
	if child.AvoidPattern == nil {
		t.Fatal("expected an avoid pattern")
	}
}

func TestParseModeOctal(t *testing.T) {
	src := "bin/\n" +
		"    :mode 755\n"
	node := mustParse(t, src)
	child := node.Dir.Entries()[0].Child
	if child.Attrs.Mode == nil || *child.Attrs.Mode != 0o755 {
		t.Fatalf("expected mode 0755, got %+v", child.Attrs.Mode)
	}
}

func TestParseRejectsBadIndentation(t *testing.T) {
	src := "config/\n" +
		"   nested/\n" // three spaces, not a multiple of four
	if _, err := NewParser().Parse("t", src); err == nil {
		t.Fatal("expected an indentation error")
	}
}

func TestParseRejectsTopLevelMatch(t *testing.T) {
	src := ":match foo\n"
	if _, err := NewParser().Parse("t", src); err == nil {
		t.Fatal("expected :match to be rejected at the top level")
	}
}

func TestParseRejectsFileWithoutSource(t *testing.T) {
	src := "plain\n"
	_, err := NewParser().Parse("t", src)
	if err == nil {
		t.Fatal("expected an error for a file with no :source")
	}
	if !strings.Contains(err.Error(), "must have a :source") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseRejectsFileWithChildItems(t *testing.T) {
	src := "plain\n" +
		"    :source x\n" +
		"    nested\n" +
		"        :source y\n"
	if _, err := NewParser().Parse("t", src); err == nil {
		t.Fatal("expected an error for a file with child items")
	}
}

func TestParseRejectsSourceAndUseTogether(t *testing.T) {
	src := ":def base\n" +
		"    :source x\n" +
		"plain\n" +
		"    :use base\n" +
		"    :source y\n"
	if _, err := NewParser().Parse("t", src); err == nil {
		t.Fatal("expected :source and :use to be mutually exclusive")
	}
}

func TestParseRejectsDuplicateDirective(t *testing.T) {
	src := "bin/\n" +
		"    :mode 755\n" +
		"    :mode 644\n"
	if _, err := NewParser().Parse("t", src); err == nil {
		t.Fatal("expected duplicate :mode to be rejected")
	}
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	src := "# a top comment\n" +
		"\n" +
		"config/\n" +
		"    # a nested comment\n" +
		"\n" +
		"    nested/\n"
	node := mustParse(t, src)
	if len(node.Dir.Entries()) != 1 {
		t.Fatalf("expected comments and blanks to be ignored, got %+v", node.Dir.Entries())
	}
}

func TestParseDollarEscapedIntoLiteralText(t *testing.T) {
	src := "file\n" +
		"    :source price: $5 exactly\n"
	node := mustParse(t, src)
	src2 := node.Dir.Entries()[0].Child.File.Source.String()
	if !strings.Contains(src2, "$5") {
		t.Errorf("expected literal $5 to survive, got %q", src2)
	}
}
