// Package cpf implements the CPF auditing scoring engine: a pure
// transformation from raw per-indicator operator input into the normalized
// risk/maturity view consumed by dashboards, reports and statistics.
//
// The engine holds no state across calls and performs no I/O; every function
// here is a deterministic function of its arguments.
package cpf

import "fmt"

// Taxonomy describes the indicator grid an assessment is scored against.
// Production uses the fixed 10x10 CPF grid; tests may use smaller grids.
type Taxonomy struct {
	Categories            int
	IndicatorsPerCategory int
}

// DefaultTaxonomy is the production CPF grid: 10 categories of 10 indicators.
var DefaultTaxonomy = Taxonomy{Categories: 10, IndicatorsPerCategory: 10}

// TotalIndicators returns the number of indicators in the grid.
func (t Taxonomy) TotalIndicators() int {
	return t.Categories * t.IndicatorsPerCategory
}

// Keys returns every indicator key of the grid in wire form ("1-1" .. "10-10"),
// the form the assessment editor persists.
func (t Taxonomy) Keys() []string {
	keys := make([]string, 0, t.TotalIndicators())
	for cat := 1; cat <= t.Categories; cat++ {
		for ind := 1; ind <= t.IndicatorsPerCategory; ind++ {
			keys = append(keys, fmt.Sprintf("%d-%d", cat, ind))
		}
	}
	return keys
}
