//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package tribuf

import "github.com/markkurossi/netlist/netlist"

// reader names a cell together with the one data-input port through
// which it reads a bit of interest.
type reader struct {
	cell *netlist.Cell
	port string
}

// propagate implements spec.md §4.4: it drains the worklist of
// tri-state output bits, and for each one still read by a mux or
// another tri-state, rewrites the reader so the tri-state semantics
// move downstream of it instead of being resolved into a plain mux
// or a chained buffer. Bits with no reader, with a non-tribuf driver,
// or with multiple drivers and merging disabled are left alone.
//
// A dangling-tribuf sweep after the worklist drains removes every
// tri-state whose readers a rewrite rule replaced and that is left
// with no remaining reader (spec.md §9's first open question):
// propagation can strand such a buffer, and nothing else in the pass
// revisits it. Tri-states no rule touched are never removed.
func (w *Worker) propagate() error {
	visited := make(map[netlist.SigBit]bool)
	stranded := make(map[*netlist.Cell]bool)

	for len(w.worklist) > 0 {
		b := w.worklist[0]
		w.worklist = w.worklist[1:]
		if visited[b] {
			continue
		}

		drivers := w.driving[b]
		if len(drivers) == 0 {
			continue
		}
		if ok, bad := allTribuf(drivers); !ok {
			err := &netlist.UnsupportedDriverError{Signal: b, Driver: bad}
			w.log.Warningf(netlist.WireRef(w.module, b.Wire),
				"%s, skipping propagation", err)
			continue
		}
		if len(drivers) > 1 {
			if !w.opts.Merge {
				w.log.Warningf(netlist.WireRef(w.module, b.Wire),
					"signal %s has multiple tri-state drivers and merge is disabled, skipping propagation", b)
				continue
			}
			if err := w.mergeGroup(b, visited); err != nil {
				return err
			}
			drivers = w.driving[b]
			if len(drivers) != 1 {
				continue
			}
		}

		driver := drivers[0]
		driverY := driver.Port("Y")
		for _, yb := range driverY {
			visited[yb] = true
		}

		applied := false
		for _, r := range w.readersOf(driverY) {
			if !w.sel(w.module, r.cell) {
				continue
			}
			if err := w.applyPropagationRule(driver, r); err != nil {
				return err
			}
			applied = true
		}
		if applied {
			for _, yb := range driverY {
				for _, c := range w.driving[yb] {
					stranded[c] = true
				}
			}
		}
	}

	w.gcDanglingTribufs(stranded)
	return nil
}

// readersOf collects every distinct (cell, port) pair through which
// some bit of y is read via know_muxes.
func (w *Worker) readersOf(y netlist.SigSpec) []reader {
	type key struct {
		cell *netlist.Cell
		port string
	}
	seen := make(map[key]bool)
	var result []reader

	for _, b := range y {
		for _, c := range w.knowMuxes[b] {
			for _, p := range dataInputPorts(c.Kind) {
				if c.Port(p).IndexOf(b) < 0 {
					continue
				}
				k := key{c, p}
				if seen[k] {
					continue
				}
				seen[k] = true
				result = append(result, reader{cell: c, port: p})
			}
		}
	}
	return result
}

func (w *Worker) applyPropagationRule(driver *netlist.Cell, r reader) error {
	if r.cell.Kind.IsMux() {
		if r.port == "A" {
			return w.applyTriMuxA(driver, r.cell)
		}
		return w.applyTriMuxB(driver, r.cell)
	}
	return w.applyTriTri(driver, r.cell)
}

// alignDriverReader narrows driver and reader (whose port name is
// given) down to exactly the bits they share, in matching order, so
// a rewrite rule can assume driver.Y and the reader's port line up
// bit for bit. It returns nil, nil if the two share no bit (a stale
// know_muxes entry from an already-handled prior split).
func (w *Worker) alignDriverReader(driver, reader *netlist.Cell, port string) (*netlist.Cell, *netlist.Cell) {
	driverY := driver.Port("Y")
	readerPort := reader.Port(port)

	var driverPos, readerPos []int
	for i, db := range driverY {
		j := readerPort.IndexOf(db)
		if j >= 0 {
			driverPos = append(driverPos, i)
			readerPos = append(readerPos, j)
		}
	}
	if len(driverPos) == 0 {
		return nil, nil
	}

	alignedDriver, _ := w.splitTribuf(driver, driverPos)

	var alignedReader *netlist.Cell
	if reader.Kind.IsMux() {
		alignedReader, _ = w.splitMux(reader, readerPos)
	} else {
		alignedReader, _ = w.splitTribuf(reader, readerPos)
	}
	return alignedDriver, alignedReader
}

// applyTriMuxA implements the tri -> mux-A rewrite rule:
//
//	tribuf(X, E, Y1); mux(A=Y1, B, S, Y=Y2)
//	=>
//	mux(A=X, B, S, Y=Y3); tribuf(Y3, E|S, Y2)
func (w *Worker) applyTriMuxA(driver, muxCell *netlist.Cell) error {
	driver, muxCell = w.alignDriverReader(driver, muxCell, "A")
	if driver == nil {
		return nil
	}

	x := driver.Port("A")
	e := driver.Port(driver.Kind.EnablePort())
	b := muxCell.Port("B")
	s := muxCell.Port("S")
	y2 := muxCell.Port("Y")

	en, _ := w.addOr(e, s)
	y3, _ := w.addMux(muxCell.Kind, x, b, s)

	tribufKind := netlist.Tribuf
	if muxCell.Kind == netlist.MuxGate {
		tribufKind = netlist.TbufGate
	}
	w.newTribufCell(tribufKind, y3, en, y2)

	w.removeCell(muxCell)

	for _, yb := range y2 {
		w.worklist = append(w.worklist, yb)
	}
	w.stats.Inc("tribuf.propagated_mux_a")
	w.log.Logf(w.ref(driver), "propagated tri-state through mux input A")
	return nil
}

// applyTriMuxB is applyTriMuxA's mirror for the B input:
//
//	tribuf(X, E, Y1); mux(A, B=Y1, S, Y=Y2)
//	=>
//	mux(A, B=X, S, Y=Y3); tribuf(Y3, E|~S, Y2)
func (w *Worker) applyTriMuxB(driver, muxCell *netlist.Cell) error {
	driver, muxCell = w.alignDriverReader(driver, muxCell, "B")
	if driver == nil {
		return nil
	}

	x := driver.Port("A")
	e := driver.Port(driver.Kind.EnablePort())
	a := muxCell.Port("A")
	s := muxCell.Port("S")
	y2 := muxCell.Port("Y")

	nens, _ := w.addNot(s)
	en, _ := w.addOr(e, nens)
	y3, _ := w.addMux(muxCell.Kind, a, x, s)

	tribufKind := netlist.Tribuf
	if muxCell.Kind == netlist.MuxGate {
		tribufKind = netlist.TbufGate
	}
	w.newTribufCell(tribufKind, y3, en, y2)

	w.removeCell(muxCell)

	for _, yb := range y2 {
		w.worklist = append(w.worklist, yb)
	}
	w.stats.Inc("tribuf.propagated_mux_b")
	w.log.Logf(w.ref(driver), "propagated tri-state through mux input B")
	return nil
}

// applyTriTri implements the tri -> tri collapse rule:
//
//	tribuf(X, E1, Y1); tribuf(A=Y1, E2, Y2)
//	=>
//	tribuf(X, E1&E2, Y2)
func (w *Worker) applyTriTri(driver, readerTri *netlist.Cell) error {
	driver, readerTri = w.alignDriverReader(driver, readerTri, "A")
	if driver == nil {
		return nil
	}

	x := driver.Port("A")
	e1 := driver.Port(driver.Kind.EnablePort())
	e2 := readerTri.Port(readerTri.Kind.EnablePort())
	y2 := readerTri.Port("Y")

	enAnd, _ := w.addAnd(e1, e2)
	w.newTribufCell(readerTri.Kind, x, enAnd, y2)

	w.removeCell(readerTri)

	for _, yb := range y2 {
		w.worklist = append(w.worklist, yb)
	}
	w.stats.Inc("tribuf.propagated_tri_tri")
	w.log.Logf(w.ref(driver), "collapsed chained tri-state buffers")
	return nil
}

// gcDanglingTribufs removes every tri-state among candidates left with
// no reader: not a module output port, not another cell's input, and
// not the RHS of a connection.
func (w *Worker) gcDanglingTribufs(candidates map[*netlist.Cell]bool) {
	for {
		removedAny := false
		for _, c := range append([]*netlist.Cell{}, w.module.Cells()...) {
			if !candidates[c] || !c.Kind.IsTribuf() {
				continue
			}
			if w.hasAnyReader(c.Port("Y")) {
				continue
			}
			w.removeCell(c)
			w.stats.Inc("tribuf.gc_dangling")
			w.log.Logf(w.ref(c), "removed dangling tri-state with no remaining reader")
			removedAny = true
		}
		if !removedAny {
			return
		}
	}
}

func (w *Worker) hasAnyReader(y netlist.SigSpec) bool {
	for _, b := range y {
		if b.Wire.PortOutput() {
			return true
		}
	}

	for _, c := range w.module.Cells() {
		outputs := make(map[string]bool)
		for _, p := range outputPorts(c.Kind) {
			outputs[p] = true
		}
		for _, name := range c.PortNames() {
			if outputs[name] {
				continue
			}
			if len(c.Port(name).BitsIn(y)) > 0 {
				return true
			}
		}
	}

	for _, conn := range w.module.Connections() {
		if len(conn.RHS.BitsIn(y)) > 0 {
			return true
		}
	}
	return false
}
