package engine

// discovery.go - locating compilable inputs under the forms directory.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/leapform/internal/parser"
)

// DiscoverInputs walks the forms directory and returns every supported
// input file (markdown, CSV, YAML), sorted so batch compiles run in a
// reproducible order.
func (e *Engine) DiscoverInputs() ([]string, error) {
	if e.formsDir == "" {
		return nil, fmt.Errorf("no forms directory configured")
	}

	var inputs []string
	err := filepath.Walk(e.formsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := parser.FormatForPath(path); !ok {
			return nil
		}
		inputs = append(inputs, path)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("forms directory %s does not exist", e.formsDir)
		}
		return nil, fmt.Errorf("failed to scan forms directory: %w", err)
	}

	sort.Strings(inputs)
	e.logger.Debug("discovered inputs", "dir", e.formsDir, "count", len(inputs))
	return inputs, nil
}
