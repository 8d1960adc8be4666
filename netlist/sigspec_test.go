//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"testing"
)

func TestSigBitEqual(t *testing.T) {
	w1 := NewWire("a", 4)
	w2 := NewWire("b", 4)

	if !w1.Bit(0).Equal(w1.Bit(0)) {
		t.Error("same wire bit should be equal")
	}
	if w1.Bit(0).Equal(w1.Bit(1)) {
		t.Error("different index should not be equal")
	}
	if w1.Bit(0).Equal(w2.Bit(0)) {
		t.Error("different wire should not be equal")
	}
	if !ConstBit(Bit0).Equal(ConstBit(Bit0)) {
		t.Error("same constant should be equal")
	}
	if ConstBit(Bit0).Equal(ConstBit(Bit1)) {
		t.Error("different constant should not be equal")
	}
	if ConstBit(Bit0).Equal(w1.Bit(0)) {
		t.Error("constant should never equal a wire bit")
	}
}

func TestSigSpecIsWire(t *testing.T) {
	w := NewWire("x", 3)

	if _, ok := w.Spec().IsWire(); !ok {
		t.Error("full-width spec of a wire should report IsWire")
	}

	partial := SigSpec{w.Bit(1), w.Bit(2)}
	if _, ok := partial.IsWire(); ok {
		t.Error("partial slice starting at a nonzero index is not a wire")
	}

	reversed := SigSpec{w.Bit(2), w.Bit(1), w.Bit(0)}
	if _, ok := reversed.IsWire(); ok {
		t.Error("out-of-order bits are not a wire")
	}

	mixed := SigSpec{w.Bit(0), ConstBit(Bit0), w.Bit(2)}
	if _, ok := mixed.IsWire(); ok {
		t.Error("a spec with a constant is not a wire")
	}
}

func TestSigSpecBitsIn(t *testing.T) {
	w := NewWire("y", 4)
	full := w.Spec()
	sub := SigSpec{w.Bit(1), w.Bit(3)}

	positions := full.BitsIn(sub)
	if len(positions) != 2 || positions[0] != 1 || positions[1] != 3 {
		t.Fatalf("unexpected positions: %v", positions)
	}

	residual := full.Without(positions)
	want := SigSpec{w.Bit(0), w.Bit(2)}
	if !residual.Equal(want) {
		t.Fatalf("residual = %s, want %s", residual, want)
	}
}

func TestSigSpecReplaceBits(t *testing.T) {
	a := NewWire("a", 2)
	b := NewWire("b", 2)

	repl := map[SigBit]SigBit{
		a.Bit(0): b.Bit(0),
	}
	spec := SigSpec{a.Bit(0), a.Bit(1)}
	out, changed := spec.ReplaceBits(repl)
	if !changed {
		t.Error("expected a replacement to be reported")
	}
	want := SigSpec{b.Bit(0), a.Bit(1)}
	if !out.Equal(want) {
		t.Fatalf("out = %s, want %s", out, want)
	}

	_, changed = spec.ReplaceBits(map[SigBit]SigBit{})
	if changed {
		t.Error("empty replacement map should report no change")
	}
}

func TestWireRangeCoalesce(t *testing.T) {
	w := NewWire("c", 4)
	spec := WireRange(w, 1, 3)
	want := SigSpec{w.Bit(1), w.Bit(2), w.Bit(3)}
	if !spec.Equal(want) {
		t.Fatalf("WireRange = %s, want %s", spec, want)
	}
}
