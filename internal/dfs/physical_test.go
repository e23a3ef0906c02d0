package dfs

import (
	"path/filepath"
	"testing"
)

func TestPhysicalCreateDirectoryAllAndFile(t *testing.T) {
	root := t.TempDir()
	p := NewPhysical()

	dir := filepath.Join(root, "a", "b", "c")
	if err := p.CreateDirectoryAll(dir, SetAttrs{}); err != nil {
		t.Fatalf("CreateDirectoryAll: %v", err)
	}
	if !p.IsDirectory(dir) {
		t.Fatalf("expected %q to be a directory", dir)
	}
	// idempotent
	if err := p.CreateDirectoryAll(dir, SetAttrs{}); err != nil {
		t.Fatalf("second CreateDirectoryAll should be a no-op, got %v", err)
	}

	file := filepath.Join(dir, "file.txt")
	if err := p.CreateFile(file, SetAttrs{}, "hello"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if !p.IsFile(file) {
		t.Fatalf("expected %q to be a file", file)
	}
	got, err := p.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadFile = %q, want %q", got, "hello")
	}
}

func TestPhysicalCreateDirectoryAllRejectsFileAtPath(t *testing.T) {
	root := t.TempDir()
	p := NewPhysical()

	file := filepath.Join(root, "notadir")
	if err := p.CreateFile(file, SetAttrs{}, ""); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := p.CreateDirectoryAll(file, SetAttrs{}); err == nil {
		t.Fatal("expected CreateDirectoryAll to reject a path that already exists as a file")
	}
}

func TestPhysicalSymlinkNotDereferencedByIsLink(t *testing.T) {
	root := t.TempDir()
	p := NewPhysical()

	target := filepath.Join(root, "target")
	if err := p.CreateDirectory(target, SetAttrs{}); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	link := filepath.Join(root, "link")
	if err := p.CreateSymlink(link, target); err != nil {
		t.Fatalf("CreateSymlink: %v", err)
	}

	if !p.IsLink(link) {
		t.Error("expected link to be classified as a symlink")
	}
	if p.IsDirectory(link) == false {
		t.Error("expected IsDirectory to dereference the symlink to its target")
	}

	got, err := p.ReadLink(link)
	if err != nil {
		t.Fatalf("ReadLink: %v", err)
	}
	if got != target {
		t.Errorf("ReadLink = %q, want %q", got, target)
	}
}

func TestPhysicalListDirectorySorted(t *testing.T) {
	root := t.TempDir()
	p := NewPhysical()

	for _, name := range []string{"zebra", "apple", "mango"} {
		if err := p.CreateFile(filepath.Join(root, name), SetAttrs{}, ""); err != nil {
			t.Fatalf("CreateFile %q: %v", name, err)
		}
	}

	names, err := p.ListDirectory(root)
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("ListDirectory = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListDirectory[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestPhysicalDefaultModes(t *testing.T) {
	root := t.TempDir()
	p := NewPhysical()

	dir := filepath.Join(root, "d")
	file := filepath.Join(root, "f")
	if err := p.CreateDirectory(dir, SetAttrs{}); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := p.CreateFile(file, SetAttrs{}, ""); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	da, err := p.Attributes(dir)
	if err != nil {
		t.Fatalf("Attributes(dir): %v", err)
	}
	fa, err := p.Attributes(file)
	if err != nil {
		t.Fatalf("Attributes(file): %v", err)
	}
	if da.Mode != DefaultDirMode {
		t.Errorf("directory mode = %o, want %o", da.Mode, DefaultDirMode)
	}
	if fa.Mode != DefaultFileMode {
		t.Errorf("file mode = %o, want %o", fa.Mode, DefaultFileMode)
	}
}

var _ Filesystem = (*Physical)(nil)
