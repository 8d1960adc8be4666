//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package tribuf

import (
	"github.com/markkurossi/netlist/netlist"
)

// Worker holds the per-module state of a single pass run: the module
// being rewritten, the two auxiliary indexes spec.md §4.3 describes
// (driving_cells and know_muxes), and the propagation worklist.
//
// The spec sketches a single module-level hook that every port
// mutation would funnel through. We keep that responsibility on
// Worker instead: merge-wires has no use for these indexes, so making
// them a module-wide concern would mean every other pass pays for
// bookkeeping it never reads. Worker's index/unindex/removeCell wrappers
// are the one choke point tribuf itself uses for every port mutation.
type Worker struct {
	log    *netlist.Logger
	module *netlist.Module
	sel    netlist.CellSelector
	opts   Options
	stats  netlist.Stats

	// driving maps a bit to every cell that drives it through an
	// output port (spec.md §4.3's driving_cells).
	driving map[netlist.SigBit][]*netlist.Cell

	// knowMuxes maps a bit to every mux/tribuf cell that reads it
	// through a data-input port (A, B for mux; A for tribuf) —
	// spec.md §4.3's know_muxes.
	knowMuxes map[netlist.SigBit][]*netlist.Cell

	// worklist holds tribuf output bits still to be considered for
	// propagation (spec.md §4.4's added_tribufs).
	worklist []netlist.SigBit
}

// Run applies the pass to a single module (spec.md §6:
// "tribuf [selection] [-merge] [-logic] [-formal] [-propagate]
// [-force]").
func Run(log *netlist.Logger, m *netlist.Module, sel netlist.CellSelector, opts Options) error {
	if sel == nil {
		sel = netlist.SelectAllCells
	}
	opts = opts.normalize()

	w := &Worker{
		log:       log,
		module:    m,
		sel:       sel,
		opts:      opts,
		stats:     netlist.NewStats(),
		driving:   make(map[netlist.SigBit][]*netlist.Cell),
		knowMuxes: make(map[netlist.SigBit][]*netlist.Cell),
	}

	if err := w.recognize(); err != nil {
		return err
	}
	if err := w.checkDebug(); err != nil {
		return err
	}

	if opts.Propagate {
		if err := w.propagate(); err != nil {
			return err
		}
		if err := w.checkDebug(); err != nil {
			return err
		}
	}

	if opts.Merge {
		if err := w.mergeAll(); err != nil {
			return err
		}
		if err := w.checkDebug(); err != nil {
			return err
		}
	}

	if w.stats.Total() > 0 {
		m.SetScratchpad("tribuf.added_something", true)
	}
	return nil
}

func (w *Worker) checkDebug() error {
	if !w.opts.Debug {
		return nil
	}
	return w.CheckInvariants()
}

// outputPorts names the ports of kind that drive bits (spec.md §3):
// every cell kind this package knows about drives through "Y" except
// $assert, which has no output.
func outputPorts(kind netlist.Kind) []string {
	if kind == netlist.Assert {
		return nil
	}
	return []string{"Y"}
}

// dataInputPorts names the ports of kind that know_muxes tracks:
// a mux's two data inputs, or a tribuf's single data input.
func dataInputPorts(kind netlist.Kind) []string {
	switch {
	case kind.IsMux():
		return []string{"A", "B"}
	case kind.IsTribuf():
		return []string{"A"}
	default:
		return nil
	}
}

func removeCellFromIndex(list []*netlist.Cell, c *netlist.Cell) []*netlist.Cell {
	for i, o := range list {
		if o == c {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// index registers c's output and (if relevant) data-input ports in
// the driving and know_muxes indexes.
func (w *Worker) index(c *netlist.Cell) {
	for _, p := range outputPorts(c.Kind) {
		for _, b := range c.Port(p) {
			w.driving[b] = append(w.driving[b], c)
		}
	}
	for _, p := range dataInputPorts(c.Kind) {
		for _, b := range c.Port(p) {
			w.knowMuxes[b] = append(w.knowMuxes[b], c)
		}
	}
}

// unindex removes every trace of c from both indexes, using its
// CURRENT ports — callers must unindex before mutating a cell's ports
// or removing it from the module.
func (w *Worker) unindex(c *netlist.Cell) {
	for _, p := range outputPorts(c.Kind) {
		for _, b := range c.Port(p) {
			w.driving[b] = removeCellFromIndex(w.driving[b], c)
		}
	}
	for _, p := range dataInputPorts(c.Kind) {
		for _, b := range c.Port(p) {
			w.knowMuxes[b] = removeCellFromIndex(w.knowMuxes[b], c)
		}
	}
}

// removeCell un-indexes c and deletes it from the module.
func (w *Worker) removeCell(c *netlist.Cell) {
	w.unindex(c)
	w.module.Remove(c)
}

// wrap registers a freshly built cell returned by one of Module's
// AddX gate constructors with the worker's indexes.
func (w *Worker) wrap(y netlist.SigSpec, c *netlist.Cell) (netlist.SigSpec, *netlist.Cell) {
	w.index(c)
	return y, c
}

func (w *Worker) addNot(a netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	return w.wrap(w.module.AddNot(a))
}

func (w *Worker) addOr(a, b netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	return w.wrap(w.module.AddOr(a, b))
}

func (w *Worker) addAnd(a, b netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	return w.wrap(w.module.AddAnd(a, b))
}

func (w *Worker) addReduceOr(a netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	return w.wrap(w.module.AddReduceOr(a))
}

func (w *Worker) addPmux(a, b, s netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	return w.wrap(w.module.AddPmux(a, b, s))
}

// newMuxCell builds a mux of the given concrete kind ($mux or
// $_MUX_) with explicit ports, used whenever a rewrite needs the
// output to land on specific pre-existing wire bits.
func (w *Worker) newMuxCell(kind netlist.Kind, a, b, s, y netlist.SigSpec) *netlist.Cell {
	c := netlist.NewCell(kind)
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("S", s)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	w.module.AddCell(c)
	w.index(c)
	return c
}

// addMux builds a mux of the given concrete kind with a fresh output
// wire.
func (w *Worker) addMux(kind netlist.Kind, a, b, s netlist.SigSpec) (netlist.SigSpec, *netlist.Cell) {
	y := w.module.AddWire(len(a))
	return y.Spec(), w.newMuxCell(kind, a, b, s, y.Spec())
}

// newTribufCell builds a tri-state of the given concrete kind with
// explicit ports, used whenever a rewrite needs the output to land on
// specific pre-existing wire bits (a split or a collapsed reader)
// rather than a fresh wire.
func (w *Worker) newTribufCell(kind netlist.Kind, a, en, y netlist.SigSpec) *netlist.Cell {
	c := netlist.NewCell(kind)
	c.SetPort("A", a)
	c.SetPort(kind.EnablePort(), en)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	w.module.AddCell(c)
	w.index(c)
	return c
}

// allTribuf reports whether every cell in cells is a tri-state buffer.
// When it is not, it also returns the first offending cell, so callers
// can report an UnsupportedDriverError naming it.
func allTribuf(cells []*netlist.Cell) (bool, *netlist.Cell) {
	for _, c := range cells {
		if !c.Kind.IsTribuf() {
			return false, c
		}
	}
	return true, nil
}

// complement returns, in ascending order, every index in [0,n) not
// present in positions.
func complement(n int, positions []int) []int {
	in := make(map[int]bool, len(positions))
	for _, p := range positions {
		in[p] = true
	}
	var out []int
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}

// splitTribuf narrows a tri-state down to the bit positions of its Y
// port listed in positions (in the order given), leaving the
// remaining bits, if any, driven by a second tri-state of the same
// kind and enable. If positions already covers the whole cell, c is
// returned unchanged as kept and resid is nil.
func (w *Worker) splitTribuf(c *netlist.Cell, positions []int) (kept, resid *netlist.Cell) {
	y := c.Port("Y")
	if len(positions) == len(y) {
		return c, nil
	}

	a := c.Port("A")
	en := c.Port(c.Kind.EnablePort())
	rest := complement(len(y), positions)

	w.removeCell(c)

	kept = w.newTribufCell(c.Kind, a.Select(positions), en, y.Select(positions))
	if len(rest) > 0 {
		resid = w.newTribufCell(c.Kind, a.Select(rest), en, y.Select(rest))
	}
	return kept, resid
}

// splitMux is splitTribuf's counterpart for a mux: S is shared
// unsliced across both halves, A/B/Y are sliced.
func (w *Worker) splitMux(c *netlist.Cell, positions []int) (kept, resid *netlist.Cell) {
	y := c.Port("Y")
	if len(positions) == len(y) {
		return c, nil
	}

	a := c.Port("A")
	b := c.Port("B")
	s := c.Port("S")
	rest := complement(len(y), positions)

	w.removeCell(c)

	kept = w.newMuxCell(c.Kind, a.Select(positions), b.Select(positions), s, y.Select(positions))
	if len(rest) > 0 {
		resid = w.newMuxCell(c.Kind, a.Select(rest), b.Select(rest), s, y.Select(rest))
	}
	return kept, resid
}

func (w *Worker) ref(c *netlist.Cell) netlist.Ref {
	return netlist.CellRef(w.module, c)
}
