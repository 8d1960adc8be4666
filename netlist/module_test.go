//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"testing"
)

func TestModuleAddGates(t *testing.T) {
	m := NewModule("top")
	a := m.AddWire(2)
	b := m.AddWire(2)

	y, cell := m.AddAnd(a.Spec(), b.Spec())
	if cell.Kind != And {
		t.Errorf("Kind = %s, want %s", cell.Kind, And)
	}
	if w, ok := y.IsWire(); !ok || w.Width != 2 {
		t.Errorf("AddAnd output should be a fresh 2-bit wire, got %s", y)
	}
	if len(m.Cells()) != 1 {
		t.Fatalf("len(Cells) = %d, want 1", len(m.Cells()))
	}

	m.Remove(cell)
	if len(m.Cells()) != 0 {
		t.Fatalf("len(Cells) after Remove = %d, want 0", len(m.Cells()))
	}
}

func TestModuleConnectWidthMismatch(t *testing.T) {
	m := NewModule("top")
	a := m.AddWire(2)
	b := m.AddWire(3)

	err := m.Connect(a.Spec(), b.Spec())
	if err == nil {
		t.Fatal("expected a width mismatch error")
	}
	if _, ok := err.(*WidthMismatchError); !ok {
		t.Fatalf("err = %T, want *WidthMismatchError", err)
	}
}

func TestModuleGeneratedNamesArePrivate(t *testing.T) {
	m := NewModule("top")
	w := m.AddWire(1)
	if w.Public() {
		t.Error("generated wire should not be public")
	}
}
