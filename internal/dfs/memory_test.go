package dfs

import "testing"

func TestMemoryCreateDirectoryAll(t *testing.T) {
	m := NewMemory()
	if err := m.CreateDirectoryAll("/a/b/c", SetAttrs{}); err != nil {
		t.Fatal(err)
	}
	if !m.IsDirectory("/a") || !m.IsDirectory("/a/b") || !m.IsDirectory("/a/b/c") {
		t.Fatal("expected all intermediate directories to exist")
	}
	// idempotent
	if err := m.CreateDirectoryAll("/a/b/c", SetAttrs{}); err != nil {
		t.Fatalf("second call should be a no-op, got %v", err)
	}
}

func TestMemoryDefaultModes(t *testing.T) {
	m := NewMemory()
	_ = m.CreateDirectory("/d", SetAttrs{})
	_ = m.CreateFile("/f", SetAttrs{}, "")
	da, _ := m.Attributes("/d")
	fa, _ := m.Attributes("/f")
	if da.Mode != DefaultDirMode {
		t.Errorf("directory mode = %o, want %o", da.Mode, DefaultDirMode)
	}
	if fa.Mode != DefaultFileMode {
		t.Errorf("file mode = %o, want %o", fa.Mode, DefaultFileMode)
	}
}

func TestMemorySymlinkNotDereferencedByIsLink(t *testing.T) {
	m := NewMemory()
	_ = m.CreateDirectory("/target", SetAttrs{})
	_ = m.CreateSymlink("/link", "/target")
	if !m.IsLink("/link") {
		t.Error("expected /link to be classified as a symlink")
	}
	if m.IsDirectory("/link") {
		t.Error("in-memory IsDirectory must not dereference symlinks")
	}
}

func TestMemoryListDirectoryDereferencesSymlink(t *testing.T) {
	m := NewMemory()
	_ = m.CreateDirectory("/target", SetAttrs{})
	_ = m.CreateDirectory("/target/child", SetAttrs{})
	_ = m.CreateSymlink("/link", "/target")
	names, err := m.ListDirectory("/link")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "child" {
		t.Errorf("ListDirectory(/link) = %v, want [child]", names)
	}
}

func TestMemoryAttributesDereferenceSymlink(t *testing.T) {
	m := NewMemory()
	mode := Mode(0o700)
	_ = m.CreateDirectory("/target", SetAttrs{Mode: &mode})
	_ = m.CreateSymlink("/link", "/target")
	a, err := m.Attributes("/link")
	if err != nil {
		t.Fatal(err)
	}
	if a.Mode != mode {
		t.Errorf("Attributes(/link).Mode = %o, want %o", a.Mode, mode)
	}
}

func TestSetAttrsMatches(t *testing.T) {
	owner := "root"
	set := SetAttrs{Owner: &owner}
	if !set.Matches(Attrs{Owner: "root", Group: "whatever"}) {
		t.Error("expected match on owner-only SetAttrs")
	}
	if set.Matches(Attrs{Owner: "other"}) {
		t.Error("expected mismatch")
	}
}
