package engine

// write.go - artifact output. Writes go through a temp file in the
// destination directory plus rename, so a crash mid-write never leaves a
// torn artifact behind.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapform/internal/builder"
	"github.com/leapstack-labs/leapform/internal/dag"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// writeArtifacts writes the built documents under the output directory
// in deployment order and records them in the artifact manifest. Forms
// that failed to build have no document and are skipped.
func (e *Engine) writeArtifacts(app *core.App, order dag.Order, built *builder.Result) ([]Artifact, error) {
	if len(built.Documents) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var artifacts []Artifact
	for _, formID := range order {
		doc, ok := built.Documents[formID]
		if !ok {
			continue
		}
		content := doc.Bytes()
		outPath := filepath.Join(e.outDir, doc.Filename)
		if err := writeFileAtomic(outPath, content, 0o644); err != nil {
			return artifacts, fmt.Errorf("failed to write artifact %s: %w", doc.Filename, err)
		}

		hash := computeHash(content)
		artifacts = append(artifacts, Artifact{
			FormID: formID,
			Target: built.Target,
			Path:   outPath,
			Hash:   hash,
		})
		e.logger.Debug("wrote artifact", "form", formID, "path", outPath)

		if err := e.store.RecordArtifact(app.AppID, formID, built.Target, outPath, hash); err != nil {
			e.logger.Debug("failed to record artifact", "form", formID, "error", err)
		}
	}
	return artifacts, nil
}

// writeCombined writes every document of one input as a single script,
// all Content in deployment order followed by all Epilogues. The caller
// guarantees every form built.
func (e *Engine) writeCombined(app *core.App, order dag.Order, built *builder.Result) (Artifact, error) {
	b, err := builder.Get(built.Target)
	if err != nil {
		return Artifact{}, err
	}
	content := builder.Combine(built, order)
	outPath := filepath.Join(e.outDir, app.AppID+"_combined"+b.FileExtension())
	if err := writeFileAtomic(outPath, content, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("failed to write combined script: %w", err)
	}
	e.logger.Debug("wrote combined script", "app", app.AppID, "path", outPath)

	// App-level output: no form id, no manifest row. The per-form rows
	// remain the manifest's grain.
	return Artifact{Target: built.Target, Path: outPath, Hash: computeHash(content)}, nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	success = true
	return nil
}
