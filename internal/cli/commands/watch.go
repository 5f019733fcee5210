package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/builder"
	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/engine"
	"github.com/leapstack-labs/leapform/internal/parser"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile specifications when they change",
		Long: `Watch the forms directory and recompile specifications as they change.

A full build runs first so the cache starts warm; after that only changed
files recompile. Deleting a file drops its cache entries, so recreating
it later always recompiles.

In JSON mode every event is one JSON line, suitable for piping.`,
		Example: `  # Watch with the configured target
  leapform watch

  # Watch as a JSON event stream
  leapform watch --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 250*time.Millisecond, "quiet period before recompiling after a change")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	profile, err := cfg.Profile("")
	if err != nil {
		return err
	}
	// Fail before the loop starts, not on every recompile.
	if !builder.IsRegistered(cfg.Target) {
		return &builder.UnknownTargetError{Target: cfg.Target, Available: builder.List()}
	}
	compileOpts := engine.CompileOptions{Target: cfg.Target, Profile: profile}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial full build so the watcher starts from a warm cache.
	inputs, err := eng.DiscoverInputs()
	if err != nil {
		return err
	}
	if len(inputs) > 0 {
		results, err := eng.CompileBatch(ctx, inputs, compileOpts)
		if err != nil {
			return err
		}
		for _, res := range results {
			emitWatchResult(r, res)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDir(watcher, cfg.FormsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.FormsDir, err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		emitWatchEvent(r, output.WatchEvent{Event: "watching", Path: cfg.FormsDir})
	} else {
		hint := ""
		if r.IsTTY() {
			hint = " Press Ctrl+C to stop."
		}
		r.Println("")
		r.Printf("Watching %s (target %s).%s\n", cfg.FormsDir, cfg.Target, hint)
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := make(map[string]bool)
	removed := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New subdirectories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDir(watcher, event.Name)
					continue
				}
			}
			if _, supported := parser.FormatForPath(event.Name); !supported {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				pending[event.Name] = true
				delete(removed, event.Name)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				removed[event.Name] = true
				delete(pending, event.Name)
			default:
				continue
			}
			debounce.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			for _, path := range sortedPaths(removed) {
				if err := eng.ForgetInput(path); err != nil {
					logger.Debug("failed to drop cache entry", "path", path, "error", err)
				}
				emitWatchEvent(r, output.WatchEvent{Event: "removed", Path: path})
			}
			clear(removed)

			paths := sortedPaths(pending)
			clear(pending)
			if len(paths) == 0 {
				continue
			}

			results, err := eng.CompileBatch(ctx, paths, compileOpts)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("recompile failed", "error", err)
				continue
			}
			for _, res := range results {
				emitWatchResult(r, res)
			}
		}
	}
}

// watchDir recursively adds a directory tree to the watcher, skipping
// hidden directories such as the state directory.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if name := info.Name(); len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func sortedPaths(set map[string]bool) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// emitWatchResult reports one compile outcome in the active output mode.
func emitWatchResult(r *output.Renderer, res *engine.CompileResult) {
	if res == nil {
		return
	}
	ev := output.WatchEvent{Event: "compile", Path: res.Input}
	switch {
	case res.Skipped:
		ev.Status = "skipped"
	case res.Err != nil:
		ev.Status = "failed"
		ev.Error = res.Err.Error()
	default:
		ev.Status = "success"
	}
	emitWatchEvent(r, ev)
}

// emitWatchEvent writes one event as a styled status line, or as a single
// compact JSON line in JSON mode.
func emitWatchEvent(r *output.Renderer, ev output.WatchEvent) {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if r.EffectiveMode() == output.ModeJSON {
		_ = json.NewEncoder(r.Writer()).Encode(ev)
		return
	}

	switch ev.Event {
	case "removed":
		r.StatusLine(ev.Path, "skipped", "removed")
	default:
		detail := ev.Error
		if ev.Status == "skipped" {
			detail = "unchanged"
		}
		r.StatusLine(ev.Path, ev.Status, detail)
	}
}
