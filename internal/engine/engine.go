// Package engine orchestrates the compile pipeline: parse, validate,
// resolve the deployment order, build documents and write artifacts. It
// owns the build cache that makes repeat compiles incremental.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/leapstack-labs/leapform/internal/state"
)

// Engine coordinates compiles against one project: a forms directory, an
// output directory and a state store.
type Engine struct {
	formsDir string
	outDir   string
	workers  int
	logger   *slog.Logger
	store    *state.Store
}

// Config holds the engine configuration.
type Config struct {
	// FormsDir is the directory scanned for form specifications.
	FormsDir string
	// OutDir is the directory artifacts are written to.
	OutDir string
	// StatePath is the path to the state database (":memory:" or "" for
	// an ephemeral store).
	StatePath string
	// Workers caps concurrent compiles in CompileBatch. Zero or negative
	// means one worker per CPU.
	Workers int
	// Logger is the structured logger (optional, uses discard logger if nil).
	Logger *slog.Logger
}

// New creates an engine and opens its state store, running any pending
// migrations.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = ":memory:"
	}
	store, err := state.Open(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate state store: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Debug("engine initialized",
		"forms_dir", cfg.FormsDir,
		"out_dir", cfg.OutDir,
		"state", statePath,
		"workers", workers)

	return &Engine{
		formsDir: cfg.FormsDir,
		outDir:   cfg.OutDir,
		workers:  workers,
		logger:   logger,
		store:    store,
	}, nil
}

// Store exposes the state store for read-side commands (artifact
// listings).
func (e *Engine) Store() *state.Store {
	return e.store
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("failed to close state store: %w", err)
	}
	return nil
}
