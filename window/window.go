/*Package window holds the genomic window key shared by every input table
and the chromosome orderings used to sort merged rows.
*/
package window

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedKey = errors.New("malformed window key")

//Key identifies a genomic bin. Start <= End is assumed, not enforced.
type Key struct {
	Chrom string
	Start int64
	End   int64
}

//New builds a Key from its parts
func New(chrom string, start, end int64) Key {
	return Key{Chrom: chrom, Start: start, End: end}
}

//String renders the canonical "chrom:start-end" form used as POS_ID
func (k Key) String() string {
	return k.Chrom + ":" + strconv.FormatInt(k.Start, 10) + "-" + strconv.FormatInt(k.End, 10)
}

//ParseKey is the inverse of Key.String
func ParseKey(s string) (Key, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return Key{}, fmt.Errorf("%w: %q has no chromosome separator", ErrMalformedKey, s)
	}
	chrom, span := s[:i], s[i+1:]
	lo, hi, ok := strings.Cut(span, "-")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q has no range separator", ErrMalformedKey, s)
	}
	start, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: start: %v", ErrMalformedKey, s, err)
	}
	end, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: end: %v", ErrMalformedKey, s, err)
	}
	return Key{Chrom: chrom, Start: start, End: end}, nil
}

//Check reports whether k survives a trip through its canonical string.
func (k Key) Check() error {
	back, err := ParseKey(k.String())
	if err != nil {
		return err
	}
	if back != k {
		return fmt.Errorf("%w: %q does not round-trip", ErrMalformedKey, k.String())
	}
	return nil
}
