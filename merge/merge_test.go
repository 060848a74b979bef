package merge

import (
	"bytes"
	"math"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantimals/pifst/table"
	"github.com/plantimals/pifst/window"
)

func div(chrom string, start, end, n int64, pi float64) table.Diversity {
	return table.Diversity{Key: window.New(chrom, start, end), Variants: n, Pi: pi}
}

func fst(chrom string, start, end, n int64, w, m float64) table.Differentiation {
	return table.Differentiation{Key: window.New(chrom, start, end), Variants: n, WeightedFst: w, MeanFst: m}
}

func sources(p1 []table.Diversity, p2 []table.Diversity, f []table.Differentiation) Sources {
	s := Sources{
		Pop1: map[window.Key]table.Diversity{},
		Pop2: map[window.Key]table.Diversity{},
		Fst:  map[window.Key]table.Differentiation{},
	}
	for _, d := range p1 {
		s.Pop1[d.Key] = d
	}
	for _, d := range p2 {
		s.Pop2[d.Key] = d
	}
	for _, d := range f {
		s.Fst[d.Key] = d
	}
	return s
}

func format(cols []Column, r Row) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Format(r)
	}
	return out
}

func TestMergeAllSourcesPresent(t *testing.T) {
	src := sources(
		[]table.Diversity{div("chr1", 0, 50000, 10, 0.002)},
		[]table.Diversity{div("chr1", 0, 50000, 8, 0.004)},
		[]table.Differentiation{fst("chr1", 0, 50000, 9, 0.15, 0.12)},
	)
	rows := Merge(src, Options{Log: zerolog.Nop()})
	require.Len(t, rows, 1)
	assert.Equal(t,
		[]string{"chr1", "0", "50000", "chr1:0-50000", "0.002", "0.004", "0.5", "0.15", "0.12"},
		format(Columns("QH", "QL", false), rows[0]))
}

func TestMergeFstOnlyWindow(t *testing.T) {
	src := sources(nil, nil, []table.Differentiation{fst("chr2", 0, 50000, 3, 0.2, 0.1)})
	rows := Merge(src, Options{Log: zerolog.Nop()})
	require.Len(t, rows, 1)
	assert.Equal(t,
		[]string{"chr2", "0", "50000", "chr2:0-50000", NA, NA, NA, "0.2", "0.1"},
		format(Columns("QH", "QL", false), rows[0]))
}

func TestMergeUnionCompleteness(t *testing.T) {
	src := sources(
		[]table.Diversity{div("chr1", 0, 10, 1, 0.1), div("chr1", 10, 20, 1, 0.1)},
		[]table.Diversity{div("chr1", 10, 20, 1, 0.2), div("chr2", 0, 10, 1, 0.2)},
		[]table.Differentiation{fst("chr3", 0, 10, 1, 0.3, 0.3), fst("chr1", 0, 10, 1, 0.3, 0.3)},
	)
	rows := Merge(src, Options{Log: zerolog.Nop()})

	want := map[window.Key]bool{}
	for k := range src.Pop1 {
		want[k] = true
	}
	for k := range src.Pop2 {
		want[k] = true
	}
	for k := range src.Fst {
		want[k] = true
	}
	got := map[window.Key]int{}
	for _, r := range rows {
		got[r.Key]++
	}
	assert.Len(t, rows, len(want))
	for k := range want {
		assert.Equal(t, 1, got[k], k.String())
	}
}

func TestRatioNullSafety(t *testing.T) {
	tests := []struct {
		name string
		p1   []table.Diversity
		p2   []table.Diversity
		want Value
	}{
		{name: "pop2 absent", p1: []table.Diversity{div("c", 0, 1, 1, 0.3)}, want: Value{}},
		{name: "pop2 zero", p1: []table.Diversity{div("c", 0, 1, 1, 0.3)}, p2: []table.Diversity{div("c", 0, 1, 1, 0)}, want: Value{}},
		{name: "pop2 nan", p1: []table.Diversity{div("c", 0, 1, 1, 0.3)}, p2: []table.Diversity{div("c", 0, 1, 1, math.NaN())}, want: Value{}},
		{name: "pop1 absent counts as zero", p2: []table.Diversity{div("c", 0, 1, 1, 0.3)}, want: Value{Float64: 0, Valid: true}},
		{name: "pop1 nan", p1: []table.Diversity{div("c", 0, 1, 1, math.NaN())}, p2: []table.Diversity{div("c", 0, 1, 1, 0.3)}, want: Value{}},
		{name: "both present", p1: []table.Diversity{div("c", 0, 1, 1, 0.3)}, p2: []table.Diversity{div("c", 0, 1, 1, 0.6)}, want: Value{Float64: 0.5, Valid: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Merge(sources(tt.p1, tt.p2, nil), Options{Log: zerolog.Nop()})
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].PiRatio)
		})
	}
}

func TestMergeNaturalOrder(t *testing.T) {
	src := sources(
		[]table.Diversity{
			div("chr10", 0, 10, 1, 0.1),
			div("chrX", 0, 10, 1, 0.1),
			div("chr2", 50, 60, 1, 0.1),
			div("chr2", 0, 10, 1, 0.1),
			div("chr1", 0, 10, 1, 0.1),
		},
		nil, nil,
	)
	var ids []string
	for _, r := range Merge(src, Options{Log: zerolog.Nop()}) {
		ids = append(ids, r.Key.String())
	}
	assert.Equal(t, []string{"chr1:0-10", "chr2:0-10", "chr2:50-60", "chr10:0-10", "chrX:0-10"}, ids)

	ids = ids[:0]
	for _, r := range Merge(src, Options{Order: window.Lexical, Log: zerolog.Nop()}) {
		ids = append(ids, r.Key.String())
	}
	assert.Equal(t, []string{"chr1:0-10", "chr10:0-10", "chr2:0-10", "chr2:50-60", "chrX:0-10"}, ids)
}

func TestMergeDeterministicUnderTies(t *testing.T) {
	// same chromosome rank and start: order must come from end and raw label, not map iteration
	src := sources(
		[]table.Diversity{
			div("chr1", 0, 20, 1, 0.1),
			div("1", 0, 10, 1, 0.1),
			div("chr1", 0, 10, 1, 0.1),
			div("CHR1", 0, 10, 1, 0.1),
		},
		nil, nil,
	)
	first := Merge(src, Options{Log: zerolog.Nop()})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Merge(src, Options{Log: zerolog.Nop()}))
	}
}

func TestMergeDropsMalformedKeys(t *testing.T) {
	src := sources(
		[]table.Diversity{div("chr1", -100, 10, 1, 0.1), div("chr1", 0, 10, 1, 0.1)},
		nil, nil,
	)
	var logs bytes.Buffer
	rows := Merge(src, Options{Log: zerolog.New(&logs)})
	require.Len(t, rows, 1)
	assert.Equal(t, window.New("chr1", 0, 10), rows[0].Key)
	assert.Contains(t, logs.String(), "incorrect key format")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	src := sources([]table.Diversity{div("chr1", 0, 10, 1, 0.1)}, nil, nil)
	before := len(src.Pop1)
	Merge(src, Options{Log: zerolog.Nop()})
	assert.Len(t, src.Pop1, before)
	assert.Empty(t, src.Pop2)
	assert.Empty(t, src.Fst)
}

func TestColumnsWithCounts(t *testing.T) {
	src := sources([]table.Diversity{div("chr1", 0, 10, 7, 0.1)}, nil, nil)
	rows := Merge(src, Options{Log: zerolog.Nop()})
	cols := Columns("QH", "QL", true)
	require.Len(t, cols, 12)
	assert.Equal(t, "QH_N_VAR", cols[9].Name)
	got := format(cols, rows[0])
	assert.Equal(t, []string{"7", NA, NA}, got[9:])
}

func TestIntegerColumnsKeepFullPrecision(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		n          int64
	}{
		{name: "past 2^53", start: 9007199254740993, end: 9007199254740995, n: 9007199254740997},
		{name: "max int64", start: math.MaxInt64 - 2, end: math.MaxInt64, n: math.MaxInt64},
		{name: "small", start: 1, end: 50000, n: 3},
	}
	cols := Columns("QH", "QL", true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sources([]table.Diversity{div("chr1", tt.start, tt.end, tt.n, 0.1)}, nil, nil)
			rows := Merge(src, Options{Log: zerolog.Nop()})
			require.Len(t, rows, 1)
			got := format(cols, rows[0])
			assert.Equal(t, "chr1:"+got[1]+"-"+got[2], got[3], "BIN_START and BIN_END agree with POS_ID")
			assert.Equal(t, strconv.FormatInt(tt.start, 10), got[1])
			assert.Equal(t, strconv.FormatInt(tt.end, 10), got[2])
			assert.Equal(t, strconv.FormatInt(tt.n, 10), got[9])

			v, ok := cols[1].Number(rows[0])
			assert.True(t, ok)
			assert.InDelta(t, float64(tt.start), v, 1)
		})
	}
}
