package window

import (
	"fmt"
	"strconv"
	"strings"
)

// Order selects how chromosome labels are compared.
type Order string

const (
	// Natural strips a case-insensitive "chr" prefix, puts numeric labels first in
	// numeric order (2 before 10) and the rest (M, X, Y, scaffolds) after them.
	Natural Order = "natural"
	// Lexical compares raw labels as strings.
	Lexical Order = "lexical"
)

// Orders lists the accepted values for the --sort flag.
var Orders = []string{string(Natural), string(Lexical)}

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Natural, nil
	case Natural, Lexical:
		return o, nil
	default:
		return "", fmt.Errorf("unknown chromosome order %q (want %s)", s, strings.Join(Orders, " or "))
	}
}

// chromRank is the comparable form of a chromosome label under Natural order.
type chromRank struct {
	numeric bool
	n       uint64
	label   string
}

func rank(chrom string) chromRank {
	s := chrom
	if len(s) >= 3 && strings.EqualFold(s[:3], "chr") {
		s = s[3:]
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return chromRank{numeric: true, n: n}
	}
	return chromRank{label: strings.ToLower(s)}
}

// CompareChrom returns -1, 0 or +1. Under Natural, labels that rank equal
// ("chr1" and "1") fall back to the raw string so the result is a total order.
func (o Order) CompareChrom(a, b string) int {
	if a == b {
		return 0
	}
	if o == Lexical {
		return strings.Compare(a, b)
	}
	ra, rb := rank(a), rank(b)
	switch {
	case ra.numeric && !rb.numeric:
		return -1
	case !ra.numeric && rb.numeric:
		return 1
	case ra.numeric:
		if ra.n != rb.n {
			if ra.n < rb.n {
				return -1
			}
			return 1
		}
	default:
		if c := strings.Compare(ra.label, rb.label); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// Less orders keys by chromosome, then start, then end.
func (o Order) Less(a, b Key) bool {
	if c := o.CompareChrom(a.Chrom, b.Chrom); c != 0 {
		return c < 0
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}
