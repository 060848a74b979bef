package integrate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs once, then re-runs whenever one of the input tables is written,
// created or renamed into place. Events closer together than the configured
// debounce collapse into one run. Runs never overlap. A failed re-run is
// logged and watching continues; only the first run and watcher setup
// failures are returned.
func (c *Client) Watch(ctx context.Context) error {
	if _, err := c.Run(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	targets, dirs, err := watchTargets(c.cfg.Inputs())
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	c.log.Info().Strs("dirs", dirs).Msg("watching input tables")

	debounce := c.cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, targets) {
				continue
			}
			c.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("input changed")
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			if _, err := c.Run(ctx); err != nil {
				c.log.Error().Err(err).Msg("re-run failed, waiting for the next change")
			}
		}
	}
}

func watchTargets(inputs []string) (map[string]bool, []string, error) {
	targets := make(map[string]bool, len(inputs))
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range inputs {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true
		if d := filepath.Dir(abs); !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return targets, dirs, nil
}

func relevant(event fsnotify.Event, targets map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return targets[abs]
}
