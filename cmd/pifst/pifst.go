/*pifst merges windowed pi for two populations with the windowed Fst between them,
watches the inputs for changes and stages results in Cloud Storage
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/plantimals/pifst/config"
	"github.com/plantimals/pifst/gcsuploader"
	"github.com/plantimals/pifst/integrate"
	"github.com/plantimals/pifst/window"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const help = `merge pi values and Fst values for two populations into one window table.

merge is the default command. A population labelled merge, watch, push or help
is read as that command unless the command is given first:
  pifst merge merge merge.windowed.pi QL QL.windowed.pi merge_QL.weir.fst out.tab`

var (
	cyan = color.New(color.FgCyan).SprintFunc()
)

type runArgs struct {
	pop1, pi1, pop2, pi2, fst, output *string
}

func addRunArgs(cmd *kingpin.CmdClause) runArgs {
	return runArgs{
		pop1:   cmd.Arg("pop1", "name of population 1").Required().String(),
		pi1:    cmd.Arg("pop1-pi-file", "vcftools windowed pi for population 1").Required().ExistingFile(),
		pop2:   cmd.Arg("pop2", "name of population 2").Required().String(),
		pi2:    cmd.Arg("pop2-pi-file", "vcftools windowed pi for population 2").Required().ExistingFile(),
		fst:    cmd.Arg("fst-file", "vcftools windowed Weir & Cockerham Fst between the populations").Required().ExistingFile(),
		output: cmd.Arg("output-file", "merged table; .gz is written bgzipped").Required().String(),
	}
}

// exit carries a status out of kingpin's terminate hook.
type exit int

type cli struct {
	app    *kingpin.Application
	stdout io.Writer
	stderr io.Writer

	cfg     config.Config
	cfgPath *string
	changed map[string]bool

	merge, watch, push   *kingpin.CmdClause
	mergeArgs, watchArgs runArgs
	pushInput            *string
}

func newCLI(stdout, stderr io.Writer) *cli {
	c := &cli{
		app:     kingpin.New("pifst", help),
		stdout:  stdout,
		stderr:  stderr,
		cfg:     config.DefaultConfig(),
		changed: map[string]bool{},
	}
	c.app.UsageTemplate(kingpin.CompactUsageTemplate).Version("1.0.0").Author("Rob Long")
	c.app.UsageWriter(stdout).ErrorWriter(stderr)
	c.app.Terminate(func(status int) { panic(exit(status)) })

	c.cfgPath = c.app.Flag("config", "path to config file (default: $HOME/.pifst/config.toml)").String()

	flag := func(name, help string) *kingpin.FlagClause {
		f := c.app.Flag(name, help)
		f.PreAction(func(*kingpin.ParseContext) error {
			c.changed[name] = true
			return nil
		})
		return f
	}
	cfg := &c.cfg
	flag("sort", "chromosome order: natural (chr2 before chr10) or lexical").Short('s').Default(cfg.Sort).EnumVar(&cfg.Sort, window.Orders...)
	flag("preview", "rows shown in the console preview").Default(fmt.Sprint(cfg.Preview)).IntVar(&cfg.Preview)
	flag("with-counts", "append per-source variant counts to the table").BoolVar(&cfg.WithCounts)
	flag("quiet", "only log errors").Short('q').BoolVar(&cfg.Quiet)
	flag("log-level", "debug, info, warn or error").Default(cfg.LogLevel).StringVar(&cfg.LogLevel)
	flag("push", "stage the merged table in --bucket after writing it").Short('p').BoolVar(&cfg.Push)
	flag("bucket", "Cloud Storage bucket (name or gs:// url) for --push and push").Short('b').StringVar(&cfg.Bucket)
	flag("project", "google cloud project that owns the bucket").Short('g').Default(cfg.Project).StringVar(&cfg.Project)
	flag("debounce", "quiet period before watch re-runs").Default(cfg.Debounce.String()).DurationVar(&cfg.Debounce)

	c.merge = c.app.Command("merge", "merge two pi tables and one Fst table").Default()
	c.mergeArgs = addRunArgs(c.merge)

	c.watch = c.app.Command("watch", "merge, then merge again whenever an input table changes")
	c.watchArgs = addRunArgs(c.watch)

	c.push = c.app.Command("push", "copy a merged table into the --bucket Cloud Storage bucket")
	c.pushInput = c.push.Arg("input-file", "merged table to stage").Required().ExistingFile()
	return c
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args and runs the selected command, returning the exit status.
// Usage errors print the error and usage to stderr and return 1.
func run(args []string, stdout, stderr io.Writer) (code int) {
	c := newCLI(stdout, stderr)
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(exit)
			if !ok {
				panic(r)
			}
			code = int(e)
		}
	}()

	cmd, err := c.app.Parse(args)
	if err != nil {
		c.app.FatalUsage("%s\n", err)
	}

	if err := config.Load(&c.cfg, *c.cfgPath, c.changed); err != nil {
		c.app.Fatalf("load config: %s", err)
	}
	log := c.cfg.Logger(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case c.merge.FullCommand():
		err = c.RunMerge(ctx, c.mergeArgs, log)
	case c.watch.FullCommand():
		err = c.RunWatch(ctx, c.watchArgs, log)
	case c.push.FullCommand():
		err = c.RunPush(ctx, *c.pushInput, log)
	}
	if err != nil {
		log.Error().Err(err).Msg("pifst")
		return 1
	}
	return 0
}

func (c *cli) newClient(ctx context.Context, args runArgs, log zerolog.Logger) (*integrate.Client, func(), error) {
	cfg := c.cfg
	cfg.Pop1, cfg.Pop1Pi = *args.pop1, *args.pi1
	cfg.Pop2, cfg.Pop2Pi = *args.pop2, *args.pi2
	cfg.Fst, cfg.Output = *args.fst, *args.output
	if err := cfg.Validate(); err != nil {
		c.app.FatalUsage("%s\n", err)
	}
	log.Debug().Interface("config", cfg).Msg("configuration")

	client := integrate.NewClient(cfg, log, c.stdout).
		WithProgress(integrate.Interactive() && log.GetLevel() >= zerolog.WarnLevel)
	if !cfg.Push {
		return client, func() {}, nil
	}
	gcs, err := gcsuploader.New(ctx, cfg.Project, log)
	if err != nil {
		return nil, nil, err
	}
	return client.WithStager(gcs), func() { gcs.Close() }, nil
}

func (c *cli) RunMerge(ctx context.Context, args runArgs, log zerolog.Logger) error {
	client, done, err := c.newClient(ctx, args, log)
	if err != nil {
		return err
	}
	defer done()

	start := time.Now()
	res, err := client.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "\nmerged table at: %s (%d rows, %.2f seconds)\n", cyan(res.Output), res.Rows, time.Since(start).Seconds())
	if res.Staged != "" {
		fmt.Fprintf(c.stdout, "staged at: %s\n", cyan(res.Staged))
	}
	fmt.Fprintln(c.stdout)
	return nil
}

func (c *cli) RunWatch(ctx context.Context, args runArgs, log zerolog.Logger) error {
	client, done, err := c.newClient(ctx, args, log)
	if err != nil {
		return err
	}
	defer done()
	return client.Watch(ctx)
}

func (c *cli) RunPush(ctx context.Context, input string, log zerolog.Logger) error {
	if c.cfg.Bucket == "" {
		c.app.FatalUsage("push needs --bucket\n")
	}
	gcs, err := gcsuploader.New(ctx, c.cfg.Project, log)
	if err != nil {
		return err
	}
	defer gcs.Close()

	url, err := gcs.Stage(ctx, input, c.cfg.Bucket)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "\nstaged at: %s\n\n", cyan(url))
	return nil
}
