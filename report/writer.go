/*Package report writes the merged window table and prints the preview,
descriptive statistics and missing-value summary that accompany it.
*/
package report

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"

	"github.com/plantimals/pifst/merge"
)

var ErrWrite = errors.New("write merged table")

// WriteTable writes a tab-delimited table with a header row.
func WriteTable(w io.Writer, rows []merge.Row, cols []merge.Column) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'

	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = c.Name
	}
	if err := tw.Write(record); err != nil {
		return err
	}
	for _, r := range rows {
		for i, c := range cols {
			record[i] = c.Format(r)
		}
		if err := tw.Write(record); err != nil {
			return err
		}
	}
	tw.Flush()
	return tw.Error()
}

// Save writes the table to path, creating its directory first. A path
// ending in .gz is written BGZF-compressed so it can be tabix-indexed.
func Save(path string, rows []merge.Row, cols []merge.Column) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWrite, cerr)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		if err := WriteTable(f, rows, cols); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
		}
		return nil
	}

	bw, err := bgzf.NewWriterLevel(f, gzip.BestCompression, 1)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := WriteTable(bw, rows, cols); err != nil {
		bw.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
