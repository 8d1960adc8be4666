//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import "fmt"

// WidthMismatchError reports a constructed connection or port
// assignment with mismatched widths. Fatal: it indicates a caller
// contract violation (spec.md §7).
type WidthMismatchError struct {
	Context string
	Want    int
	Got     int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("%s: width mismatch: want %d, got %d",
		e.Context, e.Want, e.Got)
}

// InvariantViolationError reports that an auxiliary index
// (driving_cells or know_muxes) disagrees with the netlist it
// indexes. Fatal in debug builds, silent in release (spec.md §7); see
// opt/tribuf's debug-only CheckInvariants.
type InvariantViolationError struct {
	Index  string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Index, e.Detail)
}

// UnsupportedDriverError reports that a signal slated for merge or
// propagation is driven by a cell that is not a tri-state buffer.
// Recoverable: the caller logs it and skips the offending signal
// (spec.md §7).
type UnsupportedDriverError struct {
	Signal SigBit
	Driver *Cell
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("signal %s has non-tribuf driver %s", e.Signal, e.Driver)
}

// WideEnableError reports that a tri-state buffer's enable port is
// wider than one bit. Fatal (spec.md §7, §9).
type WideEnableError struct {
	Cell  *Cell
	Width int
}

func (e *WideEnableError) Error() string {
	return fmt.Sprintf("tribuf %s has %d-bit enable, expected 1", e.Cell, e.Width)
}
