package scoring

import "github.com/ZanzyTHEbar/qb-excellence-index/internal/reference"

// Context carries the per-request ranking flags.
type Context struct {
	// IncludePlayoffs folds postseason records into every category.
	IncludePlayoffs bool `json:"include_playoffs"`
	// Year restricts scoring to one season; 0 blends all supported years.
	Year int `json:"year"`
	// NormalizeVariance rescales category z-scores to unit variance before
	// weighting.
	NormalizeVariance bool `json:"normalize_variance"`
	// Verbose enables the trace hook.
	Verbose bool `json:"verbose"`
}

// SingleYear reports whether the request targets one season.
func (c Context) SingleYear() bool {
	return c.Year != 0
}

type yearWeight struct {
	year   int
	weight float64
}

// plan lists the years a calculator considers and their weights. Single-year
// mode uses the target year with weight 1; otherwise every year of table
// with a positive weight, in ascending order.
func (c Context) plan(table reference.YearWeights) []yearWeight {
	if c.SingleYear() {
		return []yearWeight{{year: c.Year, weight: 1}}
	}
	out := make([]yearWeight, 0, len(table))
	for _, y := range table.Years() {
		if w := table.Weight(y); w > 0 {
			out = append(out, yearWeight{year: y, weight: w})
		}
	}
	return out
}
