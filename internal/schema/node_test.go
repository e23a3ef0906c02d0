package schema

import "testing"

func TestDirectoryEntriesStaticBeforeDynamic(t *testing.T) {
	entries := []ChildEntry{
		{Binding: DynamicBinding("v1"), Child: &Node{}},
		{Binding: StaticBinding("fixed"), Child: &Node{}},
		{Binding: DynamicBinding("v2"), Child: &Node{}},
		{Binding: StaticBinding("other"), Child: &Node{}},
	}
	dir := NewDirectory(nil, nil, entries)
	got := dir.Entries()
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if !got[0].Binding.IsStatic() || !got[1].Binding.IsStatic() {
		t.Errorf("expected first two entries static, got %+v", got[:2])
	}
	if !got[2].Binding.IsDynamic() || !got[3].Binding.IsDynamic() {
		t.Errorf("expected last two entries dynamic, got %+v", got[2:])
	}
	// declaration order preserved within group
	if got[0].Binding.Name != "fixed" || got[1].Binding.Name != "other" {
		t.Errorf("static order not preserved: %+v", got[:2])
	}
	if got[2].Binding.Name != "v1" || got[3].Binding.Name != "v2" {
		t.Errorf("dynamic order not preserved: %+v", got[2:])
	}
}

func TestDirectoryAccessors(t *testing.T) {
	lets := map[string]Expression{"x": {TextToken("1")}}
	def := &Node{Line: "def-node"}
	defs := map[string]*Node{"d": def}
	dir := NewDirectory(lets, defs, nil)

	if _, ok := dir.GetVar("missing"); ok {
		t.Error("expected missing var to be absent")
	}
	if v, ok := dir.GetVar("x"); !ok || v.String() != "1" {
		t.Errorf("GetVar(x) = %v, %v", v, ok)
	}
	if d, ok := dir.GetDef("d"); !ok || d != def {
		t.Errorf("GetDef(d) = %v, %v", d, ok)
	}
}
