package engine

// compile.go - the compile pipeline for a single input and the
// concurrent batch wrapper around it.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapform/internal/builder"
	"github.com/leapstack-labs/leapform/internal/dag"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/internal/validate"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// CompileOptions configures a compile pass.
type CompileOptions struct {
	// Target selects the registered builder (webform, postgres).
	Target string
	// Profile carries the platform naming constraints. The zero value
	// falls back to the default profile.
	Profile core.Profile
	// Force bypasses the unchanged-input gate.
	Force bool
	// DryRun renders documents without writing artifacts or cache rows.
	DryRun bool
	// Combined additionally writes all forms of an input as one script in
	// deployment order, Content phase before Epilogue phase. Skipped when
	// any form failed to build.
	Combined bool
	// SuggestReferences forwards the advisory prose scan to the markdown
	// parser.
	SuggestReferences bool
}

// CompileResult reports one input's trip through the pipeline. Stages
// that never ran because an earlier one failed leave their fields zero.
type CompileResult struct {
	// Input is the path as given by the caller.
	Input string
	// Skipped is set when the unchanged-input gate short-circuited the
	// compile. No other field is populated.
	Skipped bool
	// App is the parsed canonical model.
	App *core.App
	// Suggestions are advisory foreign-key candidates from prose.
	Suggestions []parser.Suggestion
	// Validation holds every finding. Errors gate the build.
	Validation validate.Result
	// Order is the deployment order over all forms of the App.
	Order dag.Order
	// Documents maps form id to its rendered artifact.
	Documents map[string]*builder.Document
	// Failures lists forms that could not be rendered.
	Failures []builder.Failure
	// Artifacts lists the files written, in deployment order.
	Artifacts []Artifact
	// Duration is the wall time of this compile.
	Duration time.Duration
	// Err is the terminal pipeline error, filled in by CompileBatch.
	// Single compiles report it through the Compile return value instead.
	Err error
}

// Artifact is one file written to the output directory.
type Artifact struct {
	FormID string
	Target string
	Path   string
	Hash   string
}

// ValidationFailedError gates the build when validation reports errors.
// The findings themselves live on the CompileResult.
type ValidationFailedError struct {
	Input  string
	Errors int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%s: validation failed with %d error(s)", e.Input, e.Errors)
}

// BuildFailedError reports that one or more forms could not be rendered.
// Sibling forms still built and their artifacts were written.
type BuildFailedError struct {
	Input  string
	Failed int
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("%s: %d form(s) failed to build", e.Input, e.Failed)
}

// Compile runs one input through parse, validate, resolve, build and
// write. Unchanged inputs are skipped unless forced; a dry run renders
// everything but writes nothing.
func (e *Engine) Compile(ctx context.Context, path string, opts CompileOptions) (*CompileResult, error) {
	start := time.Now()
	result := &CompileResult{Input: path}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Profile.Name == "" {
		opts.Profile = core.DefaultProfile()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input path: %w", err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	hash := computeHash(src)

	// Dry runs always render; a combined-script request must not be
	// swallowed by the unchanged-input gate either.
	if !opts.Force && !opts.DryRun && !opts.Combined {
		stored, err := e.store.GetInputHash(absPath, opts.Target)
		if err == nil && stored != "" && stored == hash {
			e.logger.Debug("skipping unchanged input", "path", path, "target", opts.Target)
			result.Skipped = true
			return result, nil
		}
	}

	parsed, err := parser.ParseContent(path, src, parser.Options{SuggestReferences: opts.SuggestReferences})
	if err != nil {
		return nil, err
	}
	result.App = parsed.App
	result.Suggestions = parsed.Suggestions
	e.logger.Debug("parsed input", "path", path, "app", parsed.App.AppID, "forms", len(parsed.App.Forms))

	result.Validation = validate.Validate(parsed.App, opts.Profile)
	if !result.Validation.OK() {
		e.logger.Debug("validation gated build",
			"path", path,
			"errors", len(result.Validation.Errors),
			"warnings", len(result.Validation.Warnings))
		return result, &ValidationFailedError{Input: path, Errors: len(result.Validation.Errors)}
	}

	order, err := dag.Resolve(parsed.App)
	if err != nil {
		return result, err
	}
	result.Order = order

	built, err := builder.Build(parsed.App, opts.Profile, opts.Target)
	if err != nil {
		return result, err
	}
	result.Documents = built.Documents
	result.Failures = built.Failures

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if !opts.DryRun {
		artifacts, err := e.writeArtifacts(parsed.App, order, built)
		result.Artifacts = artifacts
		if err != nil {
			return result, err
		}
		if built.OK() {
			if opts.Combined {
				combined, err := e.writeCombined(parsed.App, order, built)
				if err != nil {
					return result, err
				}
				result.Artifacts = append(result.Artifacts, combined)
			}
			if err := e.store.SetInputHash(absPath, opts.Target, hash); err != nil {
				e.logger.Debug("failed to record input hash", "path", path, "error", err)
			}
		}
	}

	if len(result.Failures) > 0 {
		return result, &BuildFailedError{Input: path, Failed: len(result.Failures)}
	}

	e.logger.Info("compiled input",
		"path", path,
		"target", opts.Target,
		"forms", len(parsed.App.Forms),
		"artifacts", len(result.Artifacts),
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// CompileBatch compiles independent inputs concurrently, bounded by the
// engine worker limit. Per-input failures land on the matching result's
// Err field; the returned error is reserved for cancellation.
func (e *Engine) CompileBatch(ctx context.Context, paths []string, opts CompileOptions) ([]*CompileResult, error) {
	results := make([]*CompileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Compile(ctx, path, opts)
			if res == nil {
				res = &CompileResult{Input: path}
			}
			res.Err = err
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ForgetInput drops the cache entries for an input across all targets, so
// a file recreated under the same path always recompiles. Used when watch
// mode sees a deletion.
func (e *Engine) ForgetInput(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	return e.store.DeleteInputHash(absPath)
}

// BatchSummary aggregates a batch of compile results for reporting.
type BatchSummary struct {
	Compiled  int
	Skipped   int
	Failed    int
	Forms     int
	Artifacts int
	Duration  time.Duration
}

// Summarize folds compile results into counts. Results with a terminal
// error count as failed even when some forms rendered.
func Summarize(results []*CompileResult, duration time.Duration) BatchSummary {
	s := BatchSummary{Duration: duration}
	for _, r := range results {
		if r == nil {
			continue
		}
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Compiled++
		}
		if r.App != nil {
			s.Forms += len(r.App.Forms)
		}
		s.Artifacts += len(r.Artifacts)
	}
	return s
}

// String renders a one-line summary.
func (s BatchSummary) String() string {
	return fmt.Sprintf("compiled %d, skipped %d, failed %d input(s), wrote %d artifact(s) in %v",
		s.Compiled, s.Skipped, s.Failed, s.Artifacts, s.Duration.Round(time.Millisecond))
}

// computeHash generates a SHA256 hash of content.
func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8]) // First 8 bytes for brevity
}
