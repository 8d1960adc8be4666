//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package tribuf

import "github.com/markkurossi/netlist/netlist"

// recognize implements spec.md §4.3: it rewrites every z-mux (a mux
// with one or both data inputs tied to constant Z) into a $tribuf or
// $_TBUF_, seeds the propagation worklist with every tri-state's
// output bits, and builds the driving_cells and know_muxes indexes
// over the resulting netlist.
func (w *Worker) recognize() error {
	cells := append([]*netlist.Cell{}, w.module.Cells()...)

	for _, c := range cells {
		if !w.sel(w.module, c) {
			continue
		}
		if c.Kind.IsTribuf() {
			w.recognizeExistingTribuf(c)
			continue
		}
		if c.Kind.IsMux() {
			w.recognizeMux(c)
		}
	}

	// driving_cells spans every cell's output ports, not just
	// tri-states and muxes; build it last, over the netlist as it
	// stands after every z-mux rewrite above.
	for _, c := range w.module.Cells() {
		for _, p := range outputPorts(c.Kind) {
			for _, b := range c.Port(p) {
				w.driving[b] = append(w.driving[b], c)
			}
		}
	}

	return nil
}

func (w *Worker) recognizeExistingTribuf(c *netlist.Cell) {
	for _, b := range c.Port("Y") {
		w.worklist = append(w.worklist, b)
	}
	for _, b := range c.Port("A") {
		w.knowMuxes[b] = append(w.knowMuxes[b], c)
	}
}

func (w *Worker) recognizeMux(c *netlist.Cell) {
	a := c.Port("A")
	b := c.Port("B")
	s := c.Port("S")
	y := c.Port("Y")

	aZ := a.AllZ()
	bZ := b.AllZ()

	switch {
	case aZ && bZ:
		w.removeCell(c)
		w.stats.Inc("tribuf.zmux_removed")
		w.log.Logf(w.ref(c), "removed mux with both data inputs tied to Z")

	case aZ:
		// mux(Z, B, S) drives B when S=1: a tri-state gated directly
		// by S.
		w.rewriteMuxToTribuf(c, b, s, y)

	case bZ:
		// mux(A, Z, S) drives A when S=0: a tri-state gated by ¬S.
		nens, _ := w.addNot(s)
		w.rewriteMuxToTribuf(c, a, nens, y)

	default:
		if w.opts.Propagate {
			for _, bit := range a {
				w.knowMuxes[bit] = append(w.knowMuxes[bit], c)
			}
			for _, bit := range b {
				w.knowMuxes[bit] = append(w.knowMuxes[bit], c)
			}
		}
	}
}

// rewriteMuxToTribuf turns a recognized z-mux into a tri-state buffer
// in place, preserving its output wire so every existing reader of y
// keeps working unchanged.
func (w *Worker) rewriteMuxToTribuf(c *netlist.Cell, a, en, y netlist.SigSpec) {
	kind := netlist.Tribuf
	if c.Kind == netlist.MuxGate {
		kind = netlist.TbufGate
	}

	c.Kind = kind
	c.UnsetPort("B")
	c.UnsetPort("S")
	c.SetPort("A", a)
	c.SetPort(kind.EnablePort(), en)
	c.SetPort("Y", y)
	c.SetParam("WIDTH", len(a))
	delete(c.Params, "S_WIDTH")

	for _, bit := range y {
		w.worklist = append(w.worklist, bit)
	}
	for _, bit := range a {
		w.knowMuxes[bit] = append(w.knowMuxes[bit], c)
	}

	w.stats.Inc("tribuf.zmux_recognized")
	w.log.Logf(w.ref(c), "recognized z-mux as a tri-state buffer")
}
