//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"testing"
)

// chainModule builds a module with wire a (1-bit input port), b, c (private,
// 1-bit), and connections b<-a, c<-b — spec.md §8 scenario 1.
func chainModule() (*Module, *Wire, *Wire, *Wire) {
	m := NewModule("top")
	a := NewWire("a", 1)
	a.SetPortInput(true)
	b := NewWire("$b", 1)
	c := NewWire("$c", 1)
	m.AddNamedWire(a)
	m.AddNamedWire(b)
	m.AddNamedWire(c)
	m.Connect(b.Spec(), a.Spec())
	m.Connect(c.Spec(), b.Spec())
	return m, a, b, c
}

func TestSigMapPrefersInputPort(t *testing.T) {
	m, a, b, c := chainModule()
	_ = m

	sm := BuildSigMap(m)
	if !sm.Canon(b.Bit(0)).Equal(a.Bit(0)) {
		t.Errorf("canon(b) = %s, want a", sm.Canon(b.Bit(0)))
	}
	if !sm.Canon(c.Bit(0)).Equal(a.Bit(0)) {
		t.Errorf("canon(c) = %s, want a", sm.Canon(c.Bit(0)))
	}
	if !sm.Canon(a.Bit(0)).Equal(a.Bit(0)) {
		t.Error("canon(a) should be idempotent")
	}
}

func TestSigMapPrefersPublicOverPrivate(t *testing.T) {
	m := NewModule("top")
	pub := NewWire("pub", 1)
	priv := NewWire("$priv", 1)
	m.AddNamedWire(pub)
	m.AddNamedWire(priv)
	m.Connect(priv.Spec(), pub.Spec())

	sm := BuildSigMap(m)
	if !sm.Canon(priv.Bit(0)).Equal(pub.Bit(0)) {
		t.Errorf("canon(priv) = %s, want pub", sm.Canon(priv.Bit(0)))
	}
}

func TestSigMapConstantNonUnification(t *testing.T) {
	// spec.md §8 scenario 2: x <- 0, y <- 0 must not collapse x and y.
	m := NewModule("top")
	x := NewWire("x", 1)
	y := NewWire("y", 1)
	m.AddNamedWire(x)
	m.AddNamedWire(y)
	m.Connect(x.Spec(), SigSpec{ConstBit(Bit0)})
	m.Connect(y.Spec(), SigSpec{ConstBit(Bit0)})

	sm := BuildSigMap(m)
	if sm.Canon(x.Bit(0)).Equal(sm.Canon(y.Bit(0))) {
		t.Error("constants must not unify x and y (P6)")
	}
}
