//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package tribuf

import (
	"fmt"

	"github.com/markkurossi/netlist/netlist"
)

// CheckInvariants verifies spec.md §8's P5: every entry in
// driving_cells names a cell that genuinely drives that bit through
// an output port, and every entry in know_muxes names a cell that
// genuinely reads that bit through a tracked data-input port. Run
// calls this after every phase when Options.Debug is set; it is also
// useful directly from tests exercising index maintenance.
func (w *Worker) CheckInvariants() error {
	for b, cells := range w.driving {
		for _, c := range cells {
			if !cellHasBitIn(c, outputPorts(c.Kind), b) {
				return &netlist.InvariantViolationError{
					Index: "driving_cells",
					Detail: fmt.Sprintf(
						"%s is listed as a driver of %s but has no output port containing it",
						c, b),
				}
			}
		}
	}

	for b, cells := range w.knowMuxes {
		for _, c := range cells {
			if !cellHasBitIn(c, dataInputPorts(c.Kind), b) {
				return &netlist.InvariantViolationError{
					Index: "know_muxes",
					Detail: fmt.Sprintf(
						"%s is listed as a reader of %s but has no tracked data-input port containing it",
						c, b),
				}
			}
		}
	}

	return nil
}

func cellHasBitIn(c *netlist.Cell, ports []string, b netlist.SigBit) bool {
	for _, p := range ports {
		if c.Port(p).IndexOf(b) >= 0 {
			return true
		}
	}
	return false
}
