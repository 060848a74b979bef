/*Package merge outer-joins the two diversity tables and the differentiation
table on their window keys and derives the pi ratio for every window.
*/
package merge

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/plantimals/pifst/table"
	"github.com/plantimals/pifst/window"
)

// Value is a nullable float cell.
type Value struct {
	Float64 float64
	Valid   bool
}

// Some wraps v, treating NaN as missing.
func Some(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{Float64: v, Valid: true}
}

// Count is a nullable variant count.
type Count struct {
	Int64 int64
	Valid bool
}

// Row is one merged window.
type Row struct {
	Key         window.Key
	PiPop1      Value
	PiPop2      Value
	PiRatio     Value
	WeightedFst Value
	MeanFst     Value
	VarPop1     Count
	VarPop2     Count
	VarFst      Count
}

// Sources are the three keyed inputs. The engine only reads them.
type Sources struct {
	Pop1 map[window.Key]table.Diversity
	Pop2 map[window.Key]table.Diversity
	Fst  map[window.Key]table.Differentiation
}

type Options struct {
	Order window.Order
	Log   zerolog.Logger
}

// Merge returns one row per window found in any source, ordered by
// chromosome, start and end.
func Merge(src Sources, opts Options) []Row {
	if opts.Order == "" {
		opts.Order = window.Natural
	}
	keys := union(src, opts.Log)
	opts.Log.Info().Int("windows", len(keys)).Msg("total unique windows")

	sort.Slice(keys, func(i, j int) bool { return opts.Order.Less(keys[i], keys[j]) })

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, build(k, src))
	}
	return rows
}

// union collects every key once, dropping keys whose canonical form cannot
// be decomposed again.
func union(src Sources, log zerolog.Logger) []window.Key {
	seen := make(map[window.Key]struct{}, len(src.Pop1)+len(src.Pop2)+len(src.Fst))
	for k := range src.Pop1 {
		seen[k] = struct{}{}
	}
	for k := range src.Pop2 {
		seen[k] = struct{}{}
	}
	for k := range src.Fst {
		seen[k] = struct{}{}
	}

	keys := make([]window.Key, 0, len(seen))
	for k := range seen {
		if err := k.Check(); err != nil {
			log.Warn().Err(err).Str("key", k.String()).Msg("incorrect key format, dropping window")
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func build(k window.Key, src Sources) Row {
	row := Row{Key: k}

	d1, ok1 := src.Pop1[k]
	if ok1 {
		row.PiPop1 = Some(d1.Pi)
		row.VarPop1 = Count{Int64: d1.Variants, Valid: true}
	}
	d2, ok2 := src.Pop2[k]
	if ok2 {
		row.PiPop2 = Some(d2.Pi)
		row.VarPop2 = Count{Int64: d2.Variants, Valid: true}
	}
	row.PiRatio = ratio(d1.Pi, ok1, d2.Pi, ok2)

	if f, ok := src.Fst[k]; ok {
		row.WeightedFst = Some(f.WeightedFst)
		row.MeanFst = Some(f.MeanFst)
		row.VarFst = Count{Int64: f.Variants, Valid: true}
	}
	return row
}

// ratio is pi1/pi2. An absent pi1 counts as zero; an absent, zero or NaN
// pi2 gives null.
func ratio(pi1 float64, ok1 bool, pi2 float64, ok2 bool) Value {
	if !ok2 || pi2 == 0 || math.IsNaN(pi2) {
		return Value{}
	}
	if !ok1 {
		pi1 = 0
	}
	return Some(pi1 / pi2)
}
