package merge

import (
	"strconv"
)

// NA is written for every missing cell.
const NA = "NA"

type Kind int

const (
	Text Kind = iota
	Integer
	Float
)

// Column is one output column and how to read it from a Row. Integer
// columns keep their own accessor so positions survive formatting at full
// int64 precision.
type Column struct {
	Name    string
	Kind    Kind
	integer func(Row) (int64, bool)
	num     func(Row) (float64, bool)
	text    func(Row) string
}

// Format renders the cell, NA when null.
func (c Column) Format(r Row) string {
	switch c.Kind {
	case Text:
		return c.text(r)
	case Integer:
		v, ok := c.integer(r)
		if !ok {
			return NA
		}
		return strconv.FormatInt(v, 10)
	}
	v, ok := c.num(r)
	if !ok {
		return NA
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Number returns the numeric cell, false when null or a text column.
func (c Column) Number(r Row) (float64, bool) {
	switch c.Kind {
	case Text:
		return 0, false
	case Integer:
		v, ok := c.integer(r)
		return float64(v), ok
	}
	return c.num(r)
}

// Missing reports whether the cell is null.
func (c Column) Missing(r Row) bool {
	if c.Kind == Text {
		return false
	}
	_, ok := c.Number(r)
	return !ok
}

func value(f func(Row) Value) func(Row) (float64, bool) {
	return func(r Row) (float64, bool) {
		v := f(r)
		return v.Float64, v.Valid
	}
}

func count(f func(Row) Count) func(Row) (int64, bool) {
	return func(r Row) (int64, bool) {
		c := f(r)
		return c.Int64, c.Valid
	}
}

func always(f func(Row) int64) func(Row) (int64, bool) {
	return func(r Row) (int64, bool) { return f(r), true }
}

// Columns is the fixed output schema: CHROM, BIN_START, BIN_END, POS_ID,
// <pop1>_PI, <pop2>_PI, PI_RATIO, WEIGHTED_FST, MEAN_FST, followed by the
// per-source variant counts when withCounts is set.
func Columns(pop1, pop2 string, withCounts bool) []Column {
	cols := []Column{
		{Name: "CHROM", Kind: Text, text: func(r Row) string { return r.Key.Chrom }},
		{Name: "BIN_START", Kind: Integer, integer: always(func(r Row) int64 { return r.Key.Start })},
		{Name: "BIN_END", Kind: Integer, integer: always(func(r Row) int64 { return r.Key.End })},
		{Name: "POS_ID", Kind: Text, text: func(r Row) string { return r.Key.String() }},
		{Name: pop1 + "_PI", Kind: Float, num: value(func(r Row) Value { return r.PiPop1 })},
		{Name: pop2 + "_PI", Kind: Float, num: value(func(r Row) Value { return r.PiPop2 })},
		{Name: "PI_RATIO", Kind: Float, num: value(func(r Row) Value { return r.PiRatio })},
		{Name: "WEIGHTED_FST", Kind: Float, num: value(func(r Row) Value { return r.WeightedFst })},
		{Name: "MEAN_FST", Kind: Float, num: value(func(r Row) Value { return r.MeanFst })},
	}
	if withCounts {
		cols = append(cols,
			Column{Name: pop1 + "_N_VAR", Kind: Integer, integer: count(func(r Row) Count { return r.VarPop1 })},
			Column{Name: pop2 + "_N_VAR", Kind: Integer, integer: count(func(r Row) Count { return r.VarPop2 })},
			Column{Name: "FST_N_VAR", Kind: Integer, integer: count(func(r Row) Count { return r.VarFst })},
		)
	}
	return cols
}
