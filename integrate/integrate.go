package integrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plantimals/pifst/config"
	"github.com/plantimals/pifst/merge"
	"github.com/plantimals/pifst/report"
	"github.com/plantimals/pifst/table"
)

var ErrMissingInput = errors.New("input file does not exist")

// Stager copies a finished table somewhere else, e.g. a GCS bucket.
type Stager interface {
	Stage(ctx context.Context, path, bucket string) (string, error)
}

type Client struct {
	cfg      config.Config
	log      zerolog.Logger
	out      io.Writer
	stager   Stager
	progress *progress
}

// Result describes one completed run.
type Result struct {
	Output  string
	Rows    int
	Pop1    table.Stats
	Pop2    table.Stats
	Fst     table.Stats
	Staged  string
	Columns []merge.Column
}

//NewClient returns a Client for cfg. Diagnostics go to log, the report to out.
func NewClient(cfg config.Config, log zerolog.Logger, out io.Writer) *Client {
	return &Client{cfg: cfg, log: log, out: out, progress: newProgress(false)}
}

//WithStager sets the Stager used when cfg.Push is on
func (c *Client) WithStager(s Stager) *Client {
	c.stager = s
	return c
}

//WithProgress shows a spinner on stderr while the run is busy
func (c *Client) WithProgress(enabled bool) *Client {
	c.progress = newProgress(enabled)
	return c
}

// CheckInputs reports every missing input before anything is read.
func (c *Client) CheckInputs() error {
	var missing []string
	for _, p := range c.cfg.Inputs() {
		if _, err := os.Stat(p); err != nil {
			c.log.Error().Str("file", p).Msg("file does not exist")
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}

// Run reads the three tables, merges them and writes the result. Every
// returned error is fatal for the run.
func (c *Client) Run(ctx context.Context) (Result, error) {
	c.logParameters()
	res := Result{Output: c.cfg.Output}

	if err := c.CheckInputs(); err != nil {
		return res, err
	}

	rdr := table.NewReader(c.log)
	var (
		src merge.Sources
		err error
	)

	c.progress.step("reading " + c.cfg.Pop1 + " pi")
	if src.Pop1, res.Pop1, err = rdr.ReadDiversity(c.cfg.Pop1Pi, c.cfg.Pop1); err != nil {
		c.progress.stop()
		return res, err
	}
	c.progress.step("reading " + c.cfg.Pop2 + " pi")
	if src.Pop2, res.Pop2, err = rdr.ReadDiversity(c.cfg.Pop2Pi, c.cfg.Pop2); err != nil {
		c.progress.stop()
		return res, err
	}
	c.progress.step("reading Fst")
	if src.Fst, res.Fst, err = rdr.ReadDifferentiation(c.cfg.Fst); err != nil {
		c.progress.stop()
		return res, err
	}

	c.progress.step("merging windows")
	c.log.Info().Msg("starting data merge")
	rows := merge.Merge(src, merge.Options{Order: c.cfg.Order(), Log: c.log})
	res.Rows = len(rows)
	res.Columns = merge.Columns(c.cfg.Pop1, c.cfg.Pop2, c.cfg.WithCounts)

	c.progress.step("writing " + c.cfg.Output)
	err = report.Save(c.cfg.Output, rows, res.Columns)
	c.progress.stop()
	if err != nil {
		return res, err
	}
	report.Console{Out: c.out, Preview: c.cfg.Preview}.Print(c.cfg.Output, rows, res.Columns)

	if c.cfg.Push {
		if c.stager == nil {
			return res, fmt.Errorf("push requested but no stager configured")
		}
		url, err := c.stager.Stage(ctx, c.cfg.Output, c.cfg.Bucket)
		if err != nil {
			return res, fmt.Errorf("stage %s: %w", c.cfg.Output, err)
		}
		res.Staged = url
		c.log.Info().Str("url", url).Msg("staged merged table")
	}

	c.log.Info().Int("rows", res.Rows).Str("output", res.Output).Msg("processing complete")
	return res, nil
}

func (c *Client) logParameters() {
	c.log.Info().
		Str("pop1", c.cfg.Pop1).
		Str("pop1_pi", c.cfg.Pop1Pi).
		Str("pop2", c.cfg.Pop2).
		Str("pop2_pi", c.cfg.Pop2Pi).
		Str("fst", c.cfg.Fst).
		Str("output", c.cfg.Output).
		Str("sort", c.cfg.Sort).
		Msg("parameters")
}
