/*pifst merges windowed pi for two populations with the windowed Fst between them
 */
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/plantimals/pifst/config"
	"github.com/plantimals/pifst/integrate"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	cyan = color.New(color.FgCyan).SprintFunc()
)

// exit carries a status out of kingpin's terminate hook.
type exit int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run merges the tables named in args and returns the exit status. Usage
// errors print the error and usage to stderr and return 1.
func run(args []string, stdout, stderr io.Writer) (code int) {
	app := kingpin.New("pifst", "merge pi values and Fst values for two populations into one window table")
	app.UsageTemplate(kingpin.CompactUsageTemplate).Version("1.0.0").Author("Rob Long")
	app.UsageWriter(stdout).ErrorWriter(stderr)
	app.Terminate(func(status int) { panic(exit(status)) })
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(exit)
			if !ok {
				panic(r)
			}
			code = int(e)
		}
	}()

	pop1 := app.Arg("pop1", "name of population 1").Required().String()
	pi1 := app.Arg("pop1-pi-file", "vcftools windowed pi for population 1").Required().ExistingFile()
	pop2 := app.Arg("pop2", "name of population 2").Required().String()
	pi2 := app.Arg("pop2-pi-file", "vcftools windowed pi for population 2").Required().ExistingFile()
	fst := app.Arg("fst-file", "vcftools windowed Weir & Cockerham Fst between the populations").Required().ExistingFile()
	output := app.Arg("output-file", "merged table; .gz is written bgzipped").Required().String()

	if _, err := app.Parse(args); err != nil {
		app.FatalUsage("%s\n", err)
	}

	cfg := config.DefaultConfig()
	if err := config.Load(&cfg, "", nil); err != nil {
		app.Fatalf("load config: %s", err)
	}
	cfg.Pop1, cfg.Pop1Pi = *pop1, *pi1
	cfg.Pop2, cfg.Pop2Pi = *pop2, *pi2
	cfg.Fst, cfg.Output = *fst, *output
	cfg.Push = false // staging lives in cmd/pifst
	if err := cfg.Validate(); err != nil {
		app.FatalUsage("%s\n", err)
	}

	log := cfg.Logger(stderr)
	client := integrate.NewClient(cfg, log, stdout)
	res, err := client.Run(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("pifst")
		return 1
	}
	fmt.Fprintf(stdout, "\nmerged table at: %s\n\n", cyan(res.Output))
	return 0
}
