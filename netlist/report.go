//
// Copyright (c) 2024-2026 Markku Rossi
//
// All rights reserved.
//

package netlist

import (
	"fmt"
	"io"
	"sort"

	"github.com/markkurossi/tabulate"
)

// Stats accumulates named rewrite counters for a pass run. Passes
// populate it; callers may render it with Report, the same way the
// teacher's circuit/timing.go renders a profiling report with
// tabulate.
type Stats map[string]int

// NewStats creates an empty Stats value.
func NewStats() Stats {
	return make(Stats)
}

// Inc increments the named counter by one.
func (s Stats) Inc(name string) {
	s[name]++
}

// Add increments the named counter by n.
func (s Stats) Add(name string, n int) {
	s[name] += n
}

// Total sums every counter.
func (s Stats) Total() int {
	var total int
	for _, v := range s {
		total += v
	}
	return total
}

// Report renders the stats as a Unicode table to out, one row per
// counter, sorted by name for determinism.
func (s Stats) Report(out io.Writer) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Rewrite").SetAlign(tabulate.ML)
	tab.Header("Count").SetAlign(tabulate.MR)

	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		row := tab.Row()
		row.Column(n)
		row.Column(fmt.Sprintf("%d", s[n]))
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", s.Total())).SetFormat(tabulate.FmtBold)

	tab.Print(out)
}
