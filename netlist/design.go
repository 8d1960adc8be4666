//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import "sort"

// Design owns a set of named modules and the cross-pass scratchpad
// (spec.md §3). It is the handle the surrounding pass manager lends
// to a pass, module by module.
type Design struct {
	Modules    map[string]*Module
	Scratchpad map[string]bool
}

// NewDesign creates an empty design.
func NewDesign() *Design {
	return &Design{
		Modules:    make(map[string]*Module),
		Scratchpad: make(map[string]bool),
	}
}

// AddModule creates a new module, registers it with the design, and
// returns it.
func (d *Design) AddModule(name string) *Module {
	m := &Module{Name: name, design: d}
	d.Modules[name] = m
	return m
}

// SelectedModules returns the modules for which sel reports true, in
// a stable order. A nil selector selects every module.
func (d *Design) SelectedModules(sel ModuleSelector) []*Module {
	names := make([]string, 0, len(d.Modules))
	for n := range d.Modules {
		names = append(names, n)
	}
	sort.Strings(names)

	var result []*Module
	for _, n := range names {
		m := d.Modules[n]
		if sel == nil || sel(m) {
			result = append(result, m)
		}
	}
	return result
}
