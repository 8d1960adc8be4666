//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

// Package mergewires implements the opt_merge_wires pass: it collapses
// every weakly connected component of a module's wire connectivity
// graph into a single representative wire, rewriting every cell port
// and connection to reference that representative (spec.md §4.2).
package mergewires

import (
	"sort"

	"github.com/markkurossi/netlist/netlist"
)

// Run applies the pass to a single module. It has no options: it
// acts on every cell and every connection of m (spec.md §6:
// "opt_merge_wires [selection] — no options").
//
// Run is idempotent (spec.md §8, P3): running it twice on the same
// module produces the same connection list and the same cell ports on
// the second run as it did after the first.
func Run(log *netlist.Logger, m *netlist.Module) error {
	ref := netlist.ModuleRef(m)
	sm := netlist.BuildSigMap(m)

	memberMap, pairs := classify(sm)

	var changed bool

	// Step 3: rewrite every cell port through the member->
	// representative map built in step 2.
	for _, c := range m.Cells() {
		for _, port := range c.PortNames() {
			spec := c.Port(port)
			rewritten, ok := spec.ReplaceBits(memberMap)
			if !ok {
				continue
			}
			c.SetPort(port, rewritten)
			changed = true
			log.Logf(ref, "rewrote %s port %s to %s", c.Kind, port, rewritten)
		}
	}

	// Step 4: drop self-loop bit positions from the pre-rewrite
	// connection list, comparing through SigMap so that a connection
	// like b<-a collapses once b and a share a representative. This
	// must happen against the ORIGINAL connection bits, before the
	// member->representative substitution of step 5, so that the
	// redundancy test and the substitution count as separate,
	// independently observable rewrites (spec.md §4.2 step 4).
	var survivors []netlist.Connection
	for _, conn := range m.Connections() {
		var lhs, rhs netlist.SigSpec
		for i := range conn.LHS {
			cl := sm.Canon(conn.LHS[i])
			cr := sm.Canon(conn.RHS[i])
			if cl.Equal(cr) {
				changed = true
				continue
			}
			lhs = append(lhs, conn.LHS[i])
			rhs = append(rhs, conn.RHS[i])
		}
		if len(lhs) == 0 {
			continue
		}
		survivors = append(survivors, netlist.Connection{LHS: lhs, RHS: rhs})
	}

	// Step 5: apply the member->representative rewrite to what
	// remains.
	final := make([]netlist.Connection, 0, len(survivors))
	for _, conn := range survivors {
		lhs, lc := conn.LHS.ReplaceBits(memberMap)
		rhs, rc := conn.RHS.ReplaceBits(memberMap)
		if lc || rc {
			changed = true
		}
		final = append(final, netlist.Connection{LHS: lhs, RHS: rhs})
	}
	m.SetConnections(final)

	// Step 6: emit a minimal set of (member, representative)
	// connections, coalescing contiguous runs so that a bus doesn't
	// explode into one connection per bit.
	emitted := coalesce(pairs)
	if len(emitted) > 0 {
		m.AppendConnections(emitted)
		changed = true
		log.Logf(ref, "emitted %d representative connection(s)", len(emitted))
	}

	// Step 7.
	if changed {
		m.SetScratchpad("opt.did_something", true)
	}
	return nil
}

// pair associates a non-representative class member with its
// representative.
type pair struct {
	member netlist.SigBit
	repr   netlist.SigBit
}

// classify buckets every bit the SigMap knows about by its
// representative and returns both a member->representative map (for
// ReplaceBits) and the ordered list of (member, representative) pairs
// step 6 needs to coalesce into connections.
func classify(sm *netlist.SigMap) (map[netlist.SigBit]netlist.SigBit, []pair) {
	memberMap := make(map[netlist.SigBit]netlist.SigBit)
	var pairs []pair

	for _, b := range sm.AllBits() {
		repr := sm.Canon(b)
		if repr.Equal(b) {
			continue
		}
		memberMap[b] = repr
		pairs = append(pairs, pair{member: b, repr: repr})
	}
	return memberMap, pairs
}

// coalesce sorts the (member, representative) pairs by
// (member_wire, member_index) and merges a run of consecutive entries
// that share the same pair of wires and advance both indices by one
// into a single multi-bit connection (spec.md §4.2 step 6).
func coalesce(pairs []pair) []netlist.Connection {
	if len(pairs) == 0 {
		return nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].member.Wire != pairs[j].member.Wire {
			return pairs[i].member.Wire.Name < pairs[j].member.Wire.Name
		}
		return pairs[i].member.Index < pairs[j].member.Index
	})

	var conns []netlist.Connection
	i := 0
	for i < len(pairs) {
		j := i + 1
		for j < len(pairs) &&
			pairs[j].member.Wire == pairs[i].member.Wire &&
			pairs[j].repr.Wire == pairs[j-1].repr.Wire &&
			pairs[j].member.Index == pairs[j-1].member.Index+1 &&
			pairs[j].repr.Index == pairs[j-1].repr.Index+1 {
			j++
		}

		// repr is never a constant: constants are excluded from
		// unification (spec.md §4.1), so no class member can ever be
		// canonicalized to one.
		memberSpec := netlist.WireRange(pairs[i].member.Wire,
			pairs[i].member.Index, pairs[j-1].member.Index)
		reprSpec := netlist.WireRange(pairs[i].repr.Wire,
			pairs[i].repr.Index, pairs[j-1].repr.Index)

		conns = append(conns, netlist.Connection{LHS: memberSpec, RHS: reprSpec})
		i = j
	}
	return conns
}
