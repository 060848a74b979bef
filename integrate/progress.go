package integrate

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// progress is a spinner on stderr; disabled it does nothing.
type progress struct {
	s *spinner.Spinner
}

func newProgress(enabled bool) *progress {
	if !enabled {
		return &progress{}
	}
	return &progress{s: spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))}
}

// Interactive reports whether stderr is a terminal worth animating.
func Interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progress) step(msg string) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Prefix = msg + "   "
	p.s.Unlock()
	if !p.s.Active() {
		p.s.Start()
	}
}

func (p *progress) stop() {
	if p.s == nil {
		return
	}
	p.s.Stop()
}
