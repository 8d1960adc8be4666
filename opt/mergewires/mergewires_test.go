//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package mergewires

import (
	"testing"

	"github.com/markkurossi/netlist/netlist"
)

// chainModule builds spec.md §8 scenario 1: wires a (1-bit input
// port), b, c (private, 1-bit) and connections b<-a, c<-b, with b and
// c both read by a cell port so the rewrite is observable.
func chainModule() (*netlist.Module, *netlist.Wire, *netlist.Wire, *netlist.Wire, *netlist.Cell) {
	m := netlist.NewModule("top")
	a := netlist.NewWire("a", 1)
	a.SetPortInput(true)
	b := netlist.NewWire("$b", 1)
	c := netlist.NewWire("$c", 1)
	m.AddNamedWire(a)
	m.AddNamedWire(b)
	m.AddNamedWire(c)

	m.Connect(b.Spec(), a.Spec())
	m.Connect(c.Spec(), b.Spec())

	_, cell := m.AddOr(b.Spec(), c.Spec())
	return m, a, b, c, cell
}

func TestChainCollapse(t *testing.T) {
	m, a, _, _, cell := chainModule()

	if err := Run(nil, m); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !cell.Port("A").Equal(a.Spec()) {
		t.Errorf("cell port A = %s, want %s", cell.Port("A"), a.Spec())
	}
	if !cell.Port("B").Equal(a.Spec()) {
		t.Errorf("cell port B = %s, want %s", cell.Port("B"), a.Spec())
	}

	conns := m.Connections()
	if len(conns) != 2 {
		t.Fatalf("len(Connections) = %d, want 2", len(conns))
	}
	for _, conn := range conns {
		if !conn.RHS.Equal(a.Spec()) {
			t.Errorf("connection rhs = %s, want a", conn.RHS)
		}
	}
}

func TestConstantIsolation(t *testing.T) {
	// spec.md §8 scenario 2.
	m := netlist.NewModule("top")
	x := netlist.NewWire("x", 1)
	y := netlist.NewWire("y", 1)
	m.AddNamedWire(x)
	m.AddNamedWire(y)
	m.Connect(x.Spec(), netlist.SigSpec{netlist.ConstBit(netlist.Bit0)})
	m.Connect(y.Spec(), netlist.SigSpec{netlist.ConstBit(netlist.Bit0)})

	if err := Run(nil, m); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Both connections to the constant must survive untouched: x and
	// y were never unified, so neither is a "member" rewritten to the
	// other.
	if len(m.Connections()) != 2 {
		t.Fatalf("len(Connections) = %d, want 2", len(m.Connections()))
	}
}

func TestIdempotence(t *testing.T) {
	m, _, _, _, _ := chainModule()

	if err := Run(nil, m); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := append([]netlist.Connection{}, m.Connections()...)

	if err := Run(nil, m); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := m.Connections()

	if len(first) != len(second) {
		t.Fatalf("connection count changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].LHS.Equal(second[i].LHS) || !first[i].RHS.Equal(second[i].RHS) {
			t.Fatalf("connection %d changed on second run: %v -> %v",
				i, first[i], second[i])
		}
	}
}

func TestCoalesceContiguousBus(t *testing.T) {
	// b[4] and a[4] are two independent wires fully unioned bit by
	// bit; the representative choice should keep a (input port), and
	// the four single-bit pairs should coalesce into one 4-bit
	// connection.
	m := netlist.NewModule("top")
	a := netlist.NewWire("a", 4)
	a.SetPortInput(true)
	b := netlist.NewWire("$b", 4)
	m.AddNamedWire(a)
	m.AddNamedWire(b)
	m.Connect(b.Spec(), a.Spec())

	if err := Run(nil, m); err != nil {
		t.Fatalf("Run: %v", err)
	}

	conns := m.Connections()
	if len(conns) != 1 {
		t.Fatalf("len(Connections) = %d, want 1 (coalesced)", len(conns))
	}
	if conns[0].LHS.Width() != 4 || conns[0].RHS.Width() != 4 {
		t.Fatalf("connection width = %d/%d, want 4/4",
			conns[0].LHS.Width(), conns[0].RHS.Width())
	}
}
