//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"fmt"
)

// Connection is an ordered (lhs, rhs) pair of equal-width SigSpecs;
// rhs drives lhs.
type Connection struct {
	LHS SigSpec
	RHS SigSpec
}

// Module is a mutable gate-level netlist: a set of wires, cells, and
// connections. Module is owned by the surrounding pass manager;
// passes borrow it mutably for the duration of a single run.
type Module struct {
	Name        string
	design      *Design
	wires       []*Wire
	cells       []*Cell
	connections []Connection
	nextGenID   uint64
}

// NewModule creates an empty module. Passes in this repository
// normally receive a module already populated by a design; NewModule
// exists for tests and standalone use.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Design returns the design owning the module, or nil if the module
// was created standalone.
func (m *Module) Design() *Design { return m.design }

// Wires returns the module's wires.
func (m *Module) Wires() []*Wire { return m.wires }

// Cells returns the module's cells.
func (m *Module) Cells() []*Cell { return m.cells }

// Connections returns the module's connection list.
func (m *Module) Connections() []Connection { return m.connections }

// SetConnections replaces the module's connection list wholesale;
// used by merge-wires to install the post-rewrite list (spec.md
// §4.2 steps 4-6).
func (m *Module) SetConnections(conns []Connection) { m.connections = conns }

// AppendConnections appends to the module's connection list.
func (m *Module) AppendConnections(conns []Connection) {
	m.connections = append(m.connections, conns...)
}

// genName returns a fresh, stable, module-unique generated wire name.
// Generated names begin with the sigil that marks a wire private
// (spec.md §3), so wires created through this method are never
// public.
func (m *Module) genName(prefix string) string {
	m.nextGenID++
	return fmt.Sprintf("$%s$%d", prefix, m.nextGenID)
}

// AddWire creates and registers a fresh, compiler-generated wire of
// the given width.
func (m *Module) AddWire(width int) *Wire {
	w := NewWire(m.genName("wire"), width)
	m.wires = append(m.wires, w)
	return w
}

// AddNamedWire registers a wire that already carries a caller-chosen
// name (used by tests building fixture modules with public ports).
func (m *Module) AddNamedWire(w *Wire) *Wire {
	m.wires = append(m.wires, w)
	return w
}

// addCell registers a cell built elsewhere (e.g. by the raw NewCell
// constructor) with the module.
func (m *Module) addCell(c *Cell) *Cell {
	m.cells = append(m.cells, c)
	return c
}

// AddCell registers a cell built with the raw NewCell constructor,
// whose ports reference existing wire bits rather than a freshly
// allocated output wire (used by opt/tribuf to rewire split and
// merged tri-state and mux cells in place).
func (m *Module) AddCell(c *Cell) *Cell {
	return m.addCell(c)
}

// Remove deletes the cell from the module's cell list. It does not
// touch any auxiliary index a pass may be maintaining over the
// cell's ports; callers that keep such indexes (see opt/tribuf)
// un-index the cell themselves before calling Remove.
func (m *Module) Remove(c *Cell) {
	for i, o := range m.cells {
		if o == c {
			m.cells = append(m.cells[:i], m.cells[i+1:]...)
			return
		}
	}
}

// Connect appends a new (lhs, rhs) connection. Widths must match.
func (m *Module) Connect(lhs, rhs SigSpec) error {
	if len(lhs) != len(rhs) {
		return &WidthMismatchError{
			Context: "Module.Connect",
			Want:    len(lhs),
			Got:     len(rhs),
		}
	}
	m.connections = append(m.connections, Connection{LHS: lhs, RHS: rhs})
	return nil
}

// SetScratchpad sets a key in the owning design's scratchpad. It is a
// no-op if the module has no owning design (standalone test
// modules).
func (m *Module) SetScratchpad(key string, value bool) {
	if m.design != nil {
		m.design.Scratchpad[key] = value
	}
}

// --- gate constructors (spec.md §4.6 mutation façade) ---
//
// Each constructor allocates a fresh output wire, builds the cell,
// registers both with the module, and returns the output SigSpec
// alongside the cell so callers can further adjust ports/params.

func (m *Module) newGate(kind Kind, width int) (*Cell, SigSpec) {
	y := m.AddWire(width)
	c := NewCell(kind)
	m.addCell(c)
	return c, y.Spec()
}

// AddNot creates a $not cell computing the bitwise complement of a.
func (m *Module) AddNot(a SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(Not, len(a))
	c.SetPort("A", a)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddOr creates a $or cell computing the bitwise OR of a and b.
func (m *Module) AddOr(a, b SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(Or, len(a))
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddAnd creates a $and cell computing the bitwise AND of a and b.
func (m *Module) AddAnd(a, b SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(And, len(a))
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddReduceOr creates a $reduce_or cell computing the 1-bit OR
// reduction of a.
func (m *Module) AddReduceOr(a SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(ReduceOr, 1)
	c.SetPort("A", a)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddMux creates a $mux cell: Y = S ? B : A.
func (m *Module) AddMux(a, b, s SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(Mux, len(a))
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("S", s)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddPmux creates a $pmux cell: Y = A, overridden by the slice of B
// selected by the one-hot bit set in S.
func (m *Module) AddPmux(a, b, s SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(Pmux, len(a))
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("S", s)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	c.SetParam("S_WIDTH", len(s))
	return y, c
}

// AddTribuf creates a $tribuf cell: Y = EN ? A : Z.
func (m *Module) AddTribuf(a, en SigSpec) (SigSpec, *Cell) {
	c, y := m.newGate(Tribuf, len(a))
	c.SetPort("A", a)
	c.SetPort("EN", en)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	return y, c
}

// AddAssert creates a $assert cell asserting that a is true (1-bit).
func (m *Module) AddAssert(a SigSpec) *Cell {
	c := NewCell(Assert)
	m.addCell(c)
	c.SetPort("A", a)
	return c
}
