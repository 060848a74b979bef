package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plantimals/pifst/window"
)

// ErrNoHeader is returned for a table without even a header line.
var ErrNoHeader = errors.New("missing header line")

const (
	diversityFields       = 5 // CHROM BIN_START BIN_END N_VARIANTS PI
	differentiationFields = 6 // CHROM BIN_START BIN_END N_VARIANTS WEIGHTED_FST MEAN_FST
)

// Diversity is one row of a windowed pi table.
type Diversity struct {
	Key      window.Key
	Variants int64
	Pi       float64
}

// Differentiation is one row of a windowed Weir & Cockerham Fst table.
type Differentiation struct {
	Key         window.Key
	Variants    int64
	WeightedFst float64
	MeanFst     float64
}

// Stats summarises one read.
type Stats struct {
	Header  string
	Lines   int
	Parsed  int
	Skipped int
	Windows int
}

// Reader parses window tables, reporting skipped lines to its logger.
type Reader struct {
	log zerolog.Logger
}

func NewReader(log zerolog.Logger) *Reader {
	return &Reader{log: log}
}

// ReadDiversity reads a vcftools --window-pi table for population pop.
func (r *Reader) ReadDiversity(path, pop string) (map[window.Key]Diversity, Stats, error) {
	log := r.log.With().Str("pop", pop).Str("file", path).Logger()
	log.Info().Msg("reading pi table")
	out := make(map[window.Key]Diversity)
	st, err := scan(path, diversityFields, log, func(k window.Key, f []string) error {
		n, err := parseInt(f[3], "N_VARIANTS")
		if err != nil {
			return err
		}
		pi, err := parseFloat(f[4], "PI")
		if err != nil {
			return err
		}
		out[k] = Diversity{Key: k, Variants: n, Pi: pi}
		return nil
	})
	if err != nil {
		return nil, st, err
	}
	st.Windows = len(out)
	log.Info().Int("windows", st.Windows).Int("skipped", st.Skipped).Msg("read pi table")
	return out, st, nil
}

// ReadDifferentiation reads a vcftools --fst-window-size table.
func (r *Reader) ReadDifferentiation(path string) (map[window.Key]Differentiation, Stats, error) {
	log := r.log.With().Str("file", path).Logger()
	log.Info().Msg("reading Fst table")
	out := make(map[window.Key]Differentiation)
	st, err := scan(path, differentiationFields, log, func(k window.Key, f []string) error {
		n, err := parseInt(f[3], "N_VARIANTS")
		if err != nil {
			return err
		}
		weighted, err := parseFloat(f[4], "WEIGHTED_FST")
		if err != nil {
			return err
		}
		mean, err := parseFloat(f[5], "MEAN_FST")
		if err != nil {
			return err
		}
		out[k] = Differentiation{Key: k, Variants: n, WeightedFst: weighted, MeanFst: mean}
		return nil
	})
	if err != nil {
		return nil, st, err
	}
	st.Windows = len(out)
	log.Info().Int("windows", st.Windows).Int("skipped", st.Skipped).Msg("read Fst table")
	return out, st, nil
}

// scan skips the header, splits every later line on whitespace and hands
// lines with at least minFields fields to add. Lines that are short or fail
// to parse are logged and skipped whatever their length; only I/O problems
// end the scan.
func scan(path string, minFields int, log zerolog.Logger, add func(window.Key, []string) error) (Stats, error) {
	var st Stats
	rc, err := Open(path)
	if err != nil {
		return st, err
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64*1024)
	header, err := readLine(br)
	if err != nil && (err != io.EOF || header == "") {
		if err == io.EOF {
			return st, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, ErrNoHeader)
		}
		return st, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	st.Header = strings.TrimSpace(header)
	log.Debug().Str("header", st.Header).Msg("header")

	lineNum := 1
	for err != io.EOF {
		var line string
		line, err = readLine(br)
		if err != nil && err != io.EOF {
			return st, fmt.Errorf("%w: %s: line %d: %v", ErrUnreadable, path, lineNum+1, err)
		}
		if err == io.EOF && line == "" {
			break
		}
		lineNum++
		st.Lines++
		fields := strings.Fields(line)
		if len(fields) < minFields {
			st.Skipped++
			log.Warn().Int("line", lineNum).Int("fields", len(fields)).Str("text", excerpt(line)).
				Msgf("expected at least %d fields, skipping", minFields)
			continue
		}
		k, perr := parseKey(fields)
		if perr == nil {
			perr = add(k, fields)
		}
		if perr != nil {
			st.Skipped++
			log.Warn().Int("line", lineNum).Err(perr).Msg("value conversion error, skipping")
			continue
		}
		st.Parsed++
	}
	return st, nil
}

// readLine returns the next line without its line ending. The last line of a
// file may lack one, in which case it comes back together with io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

const excerptLen = 120

// excerpt keeps warnings about junk lines readable.
func excerpt(line string) string {
	line = strings.TrimSpace(line)
	if len(line) <= excerptLen {
		return line
	}
	return line[:excerptLen] + fmt.Sprintf("... (%d bytes)", len(line))
}

func parseKey(f []string) (window.Key, error) {
	start, err := parseInt(f[1], "BIN_START")
	if err != nil {
		return window.Key{}, err
	}
	end, err := parseInt(f[2], "BIN_END")
	if err != nil {
		return window.Key{}, err
	}
	return window.New(f[0], start, end), nil
}

func parseInt(s, col string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", col, excerpt(s))
	}
	return v, nil
}

// parseFloat also accepts the "-nan" vcftools writes for undefined Fst.
func parseFloat(s, col string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if strings.EqualFold(strings.TrimLeft(s, "+-"), "nan") {
			return math.NaN(), nil
		}
		return 0, fmt.Errorf("%s: invalid number %q", col, excerpt(s))
	}
	return v, nil
}
