//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

// SigMap is the equivalence oracle of spec.md §4.1: a union-find over
// every bit that appears in a module's connections, answering "what
// is the canonical representative bit of this bit". Its equivalence
// classes do not change once built; Canon still updates internal
// state (path compression, and a query for a bit no connection
// mentioned records that bit as its own singleton class).
//
// Representative choice follows the preference rule of spec.md §4.1:
// a bit of an input port beats a bit of a public-named wire, which
// beats an arbitrary member. Rather than union first and re-pick
// roots in a second pass, the root carries a preference score that is
// compared on every union (spec.md §9's first recipe) — unions happen
// while scanning the connection list once, so this keeps canon()
// O(1)-amortized without a second full scan.
type SigMap struct {
	parent map[SigBit]SigBit
	rank   map[SigBit]int
}

// preference scores a bit for representative selection: higher wins.
func preference(b SigBit) int {
	if b.IsConst() {
		return -1
	}
	if b.Wire.PortInput() {
		return 2
	}
	if b.Wire.Public() {
		return 1
	}
	return 0
}

// less breaks preference ties deterministically so that the same
// input always yields the same representative within a single run
// (spec.md §6).
func less(a, b SigBit) bool {
	if a.Wire.Name != b.Wire.Name {
		return a.Wire.Name < b.Wire.Name
	}
	return a.Index < b.Index
}

// NewSigMap creates an empty SigMap. Most callers want BuildSigMap.
func NewSigMap() *SigMap {
	return &SigMap{
		parent: make(map[SigBit]SigBit),
		rank:   make(map[SigBit]int),
	}
}

// BuildSigMap constructs a SigMap from a module's connection list per
// spec.md §4.1: for each (lhs, rhs) connection of width n, bit i of
// lhs is unioned with bit i of rhs unless either side is a constant.
// Constants are deliberately excluded from unification so that two
// unrelated components don't merge just because both tie something to
// ground (spec.md §8, P6).
func BuildSigMap(m *Module) *SigMap {
	sm := NewSigMap()
	for _, conn := range m.Connections() {
		n := len(conn.LHS)
		for i := 0; i < n; i++ {
			a, b := conn.LHS[i], conn.RHS[i]
			if a.IsConst() || b.IsConst() {
				continue
			}
			sm.union(a, b)
		}
	}
	return sm
}

// find returns the current root of b's class, compressing the path
// as it walks up, and implicitly initializing b as a singleton class
// if it has not been seen before.
func (sm *SigMap) find(b SigBit) SigBit {
	p, ok := sm.parent[b]
	if !ok {
		sm.parent[b] = b
		return b
	}
	if p == b {
		return b
	}
	root := sm.find(p)
	sm.parent[b] = root
	return root
}

// union merges the classes of a and b, keeping as root whichever
// current root has the higher preference score (ties broken
// deterministically by less).
func (sm *SigMap) union(a, b SigBit) {
	ra, rb := sm.find(a), sm.find(b)
	if ra == rb {
		return
	}

	winner, loser := ra, rb
	pa, pb := preference(ra), preference(rb)
	if pb > pa || (pb == pa && less(rb, ra)) {
		winner, loser = rb, ra
	}

	sm.parent[loser] = winner
	if sm.rank[winner] <= sm.rank[loser] {
		sm.rank[winner] = sm.rank[loser] + 1
	}
}

// Canon returns the representative bit of b. Constants are their own
// representative, since they are never unioned with anything.
func (sm *SigMap) Canon(b SigBit) SigBit {
	if b.IsConst() {
		return b
	}
	return sm.find(b)
}

// CanonSpec canonicalizes every bit of s.
func (sm *SigMap) CanonSpec(s SigSpec) SigSpec {
	r := make(SigSpec, len(s))
	for i, b := range s {
		r[i] = sm.Canon(b)
	}
	return r
}

// AllBits returns every bit that appears in the map, i.e. every
// non-constant bit reachable from the connection list BuildSigMap
// scanned, plus any bit Canon has since been queried with. Used by
// merge-wires to bucket bits by representative.
func (sm *SigMap) AllBits() []SigBit {
	bits := make([]SigBit, 0, len(sm.parent))
	for b := range sm.parent {
		bits = append(bits, b)
	}
	return bits
}
