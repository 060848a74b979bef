package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/plantimals/pifst/merge"
)

// Summary mirrors a pandas describe() column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarises every numeric column, ignoring nulls. Columns without
// a single value get NaN statistics and a zero count.
func Describe(rows []merge.Row, cols []merge.Column) []Summary {
	var out []Summary
	for _, c := range cols {
		if c.Kind == merge.Text {
			continue
		}
		vals := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v, ok := c.Number(r); ok {
				vals = append(vals, v)
			}
		}
		out = append(out, summarize(c.Name, vals))
	}
	return out
}

func summarize(name string, vals []float64) Summary {
	s := Summary{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sort.Float64s(vals)
	s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.Std = math.NaN()
	}
	s.Min = vals[0]
	s.Max = vals[len(vals)-1]
	s.Q25 = quantile(vals, 0.25)
	s.Q50 = quantile(vals, 0.5)
	s.Q75 = quantile(vals, 0.75)
	return s
}

// quantile interpolates linearly between closest ranks, as numpy and pandas do.
func quantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// MissingCount is the number of null cells in one column.
type MissingCount struct {
	Column  string
	Count   int
	Percent float64
}

// Missing lists the columns with at least one null cell, in column order.
func Missing(rows []merge.Row, cols []merge.Column) []MissingCount {
	var out []MissingCount
	if len(rows) == 0 {
		return out
	}
	for _, c := range cols {
		n := 0
		for _, r := range rows {
			if c.Missing(r) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		pct := math.Round(float64(n)/float64(len(rows))*100*100) / 100
		out = append(out, MissingCount{Column: c.Name, Count: n, Percent: pct})
	}
	return out
}

// Round4 rounds to the four decimals the statistics are printed with.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
