//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package tribuf

import (
	"fmt"
	"sort"

	"github.com/markkurossi/netlist/netlist"
)

// mergeAll implements spec.md §4.5 as a standalone sweep over every
// tri-state output bit, in a deterministic order. A bit with a single
// driver is merged too when Logic or Formal would convert it to plain
// logic regardless of driver count; otherwise (plain Merge) a lone
// driver has nothing to merge and is left alone, matching tribuf.cc's
// merge() early return ("GetSize(cells) <= 1 && !no_tribuf").
func (w *Worker) mergeAll() error {
	visited := make(map[netlist.SigBit]bool)

	for _, sig := range w.tribufOutputBits() {
		if visited[sig] {
			continue
		}
		drivers := w.driving[sig]
		if len(drivers) == 0 {
			continue
		}
		if len(drivers) <= 1 && !w.opts.noTribuf(sig.Wire.PortOutput()) {
			continue
		}
		if ok, bad := allTribuf(drivers); !ok {
			err := &netlist.UnsupportedDriverError{Signal: sig, Driver: bad}
			w.log.Warningf(netlist.WireRef(w.module, sig.Wire),
				"%s, skipping merge", err)
			continue
		}
		if err := w.mergeGroup(sig, visited); err != nil {
			return err
		}
	}
	return nil
}

// tribufOutputBits returns every bit driven by at least one tri-state
// buffer cell (tribuf.cc's tribuf_signals), ordered by (wire name,
// index) for run-to-run determinism.
func (w *Worker) tribufOutputBits() []netlist.SigBit {
	seen := make(map[netlist.SigBit]bool)
	var bits []netlist.SigBit
	for _, c := range w.module.Cells() {
		if !c.Kind.IsTribuf() {
			continue
		}
		for _, b := range c.Port("Y") {
			if !seen[b] {
				seen[b] = true
				bits = append(bits, b)
			}
		}
	}
	sort.Slice(bits, func(i, j int) bool {
		if bits[i].Wire.Name != bits[j].Wire.Name {
			return bits[i].Wire.Name < bits[j].Wire.Name
		}
		return bits[i].Index < bits[j].Index
	})
	return bits
}

// mergeGroup implements spec.md §4.5's algorithm for the driver group
// of sig: it identifies every sibling bit driven by any of sig's
// drivers, partitions the full driver set by enable, computes the
// bit-intersection across the partitions relevant to sig, merges each
// relevant partition down to that intersection, and replaces the
// group with a single priority mux plus, unless converted to plain
// logic, a wrapping tri-state.
func (w *Worker) mergeGroup(sig netlist.SigBit, visited map[netlist.SigBit]bool) error {
	drivers := append([]*netlist.Cell{}, w.driving[sig]...)

	siblings := w.siblingBits(drivers)
	for _, b := range siblings {
		visited[b] = true
	}

	allDrivers, err := w.allDriversOf(siblings)
	if err != nil {
		return err
	}
	if allDrivers == nil {
		// a non-tribuf driver was found and logged; leave the group
		// untouched.
		return nil
	}

	partitions, order, err := w.partitionByEnable(allDrivers)
	if err != nil {
		return err
	}

	relevant := relevantEnables(partitions, order, drivers)
	intersection := intersectBits(siblings, relevant, partitions)
	if len(intersection) == 0 {
		return nil
	}

	merged := make(map[netlist.SigBit]*netlist.Cell, len(relevant))
	for _, e := range relevant {
		cell, err := w.mergePartitionToIntersection(partitions[e], e, intersection)
		if err != nil {
			return err
		}
		merged[e] = cell
	}

	return w.finishMerge(sig, intersection, relevant, merged)
}

// siblingBits collects, in first-seen order, every bit any of drivers
// outputs through its Y port.
func (w *Worker) siblingBits(drivers []*netlist.Cell) netlist.SigSpec {
	var siblings netlist.SigSpec
	seen := make(map[netlist.SigBit]bool)
	for _, c := range drivers {
		for _, b := range c.Port("Y") {
			if !seen[b] {
				seen[b] = true
				siblings = append(siblings, b)
			}
		}
	}
	return siblings
}

// allDriversOf gathers every cell driving any sibling bit, and
// requires that all of them be tri-states; returns nil, nil (no
// error) if one is not, having already logged a warning.
func (w *Worker) allDriversOf(siblings netlist.SigSpec) (map[*netlist.Cell]bool, error) {
	set := make(map[*netlist.Cell]bool)
	for _, b := range siblings {
		for _, c := range w.driving[b] {
			if !c.Kind.IsTribuf() {
				err := &netlist.UnsupportedDriverError{Signal: b, Driver: c}
				w.log.Warningf(w.ref(c), "%s, aborting merge", err)
				return nil, nil
			}
			set[c] = true
		}
	}
	return set, nil
}

// partitionByEnable groups drivers by their (required 1-bit) enable
// signal, returning both the partitions and the enables in
// first-seen order for deterministic iteration.
func (w *Worker) partitionByEnable(drivers map[*netlist.Cell]bool) (map[netlist.SigBit][]*netlist.Cell, []netlist.SigBit, error) {
	partitions := make(map[netlist.SigBit][]*netlist.Cell)
	var order []netlist.SigBit

	cells := make([]*netlist.Cell, 0, len(drivers))
	for _, c := range w.module.Cells() {
		if drivers[c] {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return cellSortKey(cells[i]) < cellSortKey(cells[j])
	})

	for _, c := range cells {
		en := c.Port(c.Kind.EnablePort())
		if len(en) != 1 {
			return nil, nil, &netlist.WideEnableError{Cell: c, Width: len(en)}
		}
		e := en[0]
		if _, ok := partitions[e]; !ok {
			order = append(order, e)
		}
		partitions[e] = append(partitions[e], c)
	}
	return partitions, order, nil
}

// cellSortKey orders cells for iteration by their Y port's first bit,
// which every driver we partition has. Cells sharing that bit tie;
// partitionByEnable sorts stably, so tied cells keep module order.
func cellSortKey(c *netlist.Cell) string {
	y := c.Port("Y")
	if len(y) == 0 {
		return ""
	}
	return fmt.Sprintf("%s[%d]", y[0].Wire.Name, y[0].Index)
}

// relevantEnables returns, in order, the enables of partitions that
// contain at least one of sig's original drivers.
func relevantEnables(partitions map[netlist.SigBit][]*netlist.Cell, order []netlist.SigBit, drivers []*netlist.Cell) []netlist.SigBit {
	driverSet := make(map[*netlist.Cell]bool, len(drivers))
	for _, c := range drivers {
		driverSet[c] = true
	}

	var relevant []netlist.SigBit
	for _, e := range order {
		for _, c := range partitions[e] {
			if driverSet[c] {
				relevant = append(relevant, e)
				break
			}
		}
	}
	return relevant
}

// intersectBits returns the sibling bits driven by every relevant
// partition.
func intersectBits(siblings netlist.SigSpec, relevant []netlist.SigBit, partitions map[netlist.SigBit][]*netlist.Cell) netlist.SigSpec {
	var result netlist.SigSpec
	for _, b := range siblings {
		coveredByAll := true
		for _, e := range relevant {
			if !partitionCovers(partitions[e], b) {
				coveredByAll = false
				break
			}
		}
		if coveredByAll {
			result = append(result, b)
		}
	}
	return result
}

func partitionCovers(cells []*netlist.Cell, b netlist.SigBit) bool {
	for _, c := range cells {
		if c.Port("Y").IndexOf(b) >= 0 {
			return true
		}
	}
	return false
}

// mergePartitionToIntersection splits every cell of a partition down
// to the bits it contributes to the intersection, folds those bits
// into a single combined A input (in intersection order), and builds
// one tri-state driving exactly the intersection off that partition's
// shared enable. A cell's bits outside the intersection, if any,
// survive as a separate tri-state of the same kind and enable (left
// by splitTribuf).
func (w *Worker) mergePartitionToIntersection(cells []*netlist.Cell, e netlist.SigBit, intersection netlist.SigSpec) (*netlist.Cell, error) {
	combinedA := make(netlist.SigSpec, len(intersection))
	filled := make([]bool, len(intersection))

	for _, c := range append([]*netlist.Cell{}, cells...) {
		y := c.Port("Y")
		var cellPos, interPos []int
		for i, yb := range y {
			j := intersection.IndexOf(yb)
			if j >= 0 {
				cellPos = append(cellPos, i)
				interPos = append(interPos, j)
			}
		}
		if len(cellPos) == 0 {
			continue
		}

		kept, _ := w.splitTribuf(c, cellPos)
		keptA := kept.Port("A")
		for k, pos := range interPos {
			combinedA[pos] = keptA[k]
			filled[pos] = true
		}
		w.removeCell(kept)
	}

	for i, f := range filled {
		if !f {
			return nil, fmt.Errorf("tribuf merge: intersection bit %s not covered by any partition driver",
				intersection[i])
		}
	}

	t := w.newTribufCell(cells[0].Kind, combinedA, netlist.SigSpec{e}, intersection)
	if src, ok := cells[0].Attrs["src"]; ok {
		t.Attrs["src"] = src
	}
	return t, nil
}

// finishMerge builds the priority mux over the merged partitions and
// either wires its output straight to the intersection (plain logic)
// or wraps it in a tri-state gated by the OR of the partition
// enables, per Options.noTribuf. Under -formal, it also emits a
// mutual-exclusion assertion per partition before tearing the
// partition cells down.
func (w *Worker) finishMerge(sig netlist.SigBit, intersection netlist.SigSpec, relevant []netlist.SigBit, merged map[netlist.SigBit]*netlist.Cell) error {
	var s, b netlist.SigSpec
	for _, e := range relevant {
		s = append(s, e)
		b = append(b, merged[e].Port("A")...)
	}

	a := make(netlist.SigSpec, len(intersection))
	for i := range a {
		a[i] = netlist.ConstBit(netlist.BitX)
	}

	pmuxY, _ := w.addPmux(a, b, s)

	if w.opts.Formal && len(relevant) >= 2 {
		w.emitConflictAssertions(relevant, merged)
	}

	noTribuf := w.opts.noTribuf(sig.Wire.PortOutput())

	for _, e := range relevant {
		w.removeCell(merged[e])
	}

	if noTribuf {
		if err := w.module.Connect(intersection, pmuxY); err != nil {
			return err
		}
	} else {
		enable := s[:1]
		if len(s) > 1 {
			enable, _ = w.addReduceOr(s)
		}
		w.newTribufCell(netlist.Tribuf, pmuxY, enable, intersection)
	}

	w.stats.Inc("tribuf.merged")
	w.log.Logf(netlist.WireRef(w.module, sig.Wire),
		"merged %d tri-state driver(s) of signal %s", len(relevant), sig)

	for _, yb := range intersection {
		w.worklist = append(w.worklist, yb)
	}
	return nil
}

// emitConflictAssertions implements spec.md §4.5 step 7: for each
// relevant partition, assert that its enable is never simultaneously
// true with any of the others.
func (w *Worker) emitConflictAssertions(relevant []netlist.SigBit, merged map[netlist.SigBit]*netlist.Cell) {
	for _, e := range relevant {
		var others netlist.SigSpec
		for _, o := range relevant {
			if !o.Equal(e) {
				others = append(others, o)
			}
		}

		otherOr := others[:1]
		if len(others) > 1 {
			otherOr, _ = w.addReduceOr(others)
		}

		conflict, _ := w.addAnd(netlist.SigSpec{e}, otherOr)
		notConflict, _ := w.addNot(conflict)

		assertCell := w.module.AddAssert(notConflict)
		assertCell.Attrs["keep"] = "1"
		if src, ok := merged[e].Attrs["src"]; ok {
			assertCell.Attrs["src"] = src
		}
		w.stats.Inc("tribuf.conflict_assert")
	}
}
