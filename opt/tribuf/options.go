//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

// Package tribuf implements the tribuf pass: it recognizes z-muxes as
// tri-state buffers, optionally propagates tri-state semantics through
// downstream muxes and tri-states, and optionally merges multiple
// drivers of a net into one priority-muxed driver (spec.md §4.3-4.5).
package tribuf

// Options selects which phases of the pass run and how the optional
// merge phase resolves a driver group back into the netlist (spec.md
// §6).
type Options struct {
	// Merge enables the merge phase (spec.md §4.5). Implied by
	// Propagate, Logic, and Formal.
	Merge bool

	// Logic converts a merged driver group to plain logic (the pmux
	// output wired directly, no wrapping tri-state) unless the net is
	// a module output port, in which case Force is required to drop
	// the tri-state.
	Logic bool

	// Formal converts every merged driver group to plain logic and
	// additionally emits $assert cells checking that the group's
	// enables are mutually exclusive.
	Formal bool

	// Propagate enables the propagation phase (spec.md §4.4).
	Propagate bool

	// Force allows Logic to drop the tri-state wrapper even on a
	// module output port.
	Force bool

	// Debug enables the expensive index/netlist cross-check
	// (CheckInvariants) after every phase; fatal on mismatch. Off by
	// default so production runs pay only the ordinary pass cost
	// (spec.md §7's debug/release split for InvariantViolationError).
	Debug bool
}

// normalize applies the CLI implication rules of spec.md §6:
// -propagate, -logic, and -formal all imply -merge.
func (o Options) normalize() Options {
	if o.Propagate || o.Logic || o.Formal {
		o.Merge = true
	}
	return o
}

// noTribuf reports whether a merged driver group should be converted
// to plain logic rather than wrapped back in a tri-state buffer
// (spec.md §4.5 step 6), given whether the merged signal is a module
// output port.
func (o Options) noTribuf(isOutputPort bool) bool {
	if o.Formal {
		return true
	}
	if o.Logic {
		return o.Force || !isOutputPort
	}
	return false
}
