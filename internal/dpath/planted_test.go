package dpath

import "testing"

func TestPlantedPathJoinSafety(t *testing.T) {
	root, err := NormalizeRoot("/t")
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Join("a/b"); err == nil {
		t.Error("expected Join with a slash to fail")
	}
	child, err := p.Join("a")
	if err != nil {
		t.Fatal(err)
	}
	if child.Absolute() != "/t/a" {
		t.Errorf("Absolute() = %q, want /t/a", child.Absolute())
	}
	if child.Relative() != "a" {
		t.Errorf("Relative() = %q, want a", child.Relative())
	}
	if child.Name() != "a" {
		t.Errorf("Name() = %q, want a", child.Name())
	}
}

func TestPlantedPathParent(t *testing.T) {
	root, _ := NormalizeRoot("/t")
	p, _ := New(root, "/t")
	if _, err := p.Parent(); err == nil {
		t.Error("expected Parent() at root to fail")
	}
	child, _ := p.Join("sub")
	parent, err := child.Parent()
	if err != nil {
		t.Fatal(err)
	}
	if parent.Absolute() != "/t" {
		t.Errorf("Parent().Absolute() = %q, want /t", parent.Absolute())
	}
}
