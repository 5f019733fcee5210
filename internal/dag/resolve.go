package dag

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// resolve.go - deployment-order resolution over foreign-key edges.

// Order is a deployment order: form ids sequenced so every dependency
// precedes its dependents. A derived view over the App, never owned state.
type Order []string

// Index returns the position of a form id in the order, or -1.
func (o Order) Index(formID string) int {
	for i, id := range o {
		if id == formID {
			return i
		}
	}
	return -1
}

// CycleError reports a dependency cycle between forms. Always fatal for
// the whole App: no deployment order exists, so no partial build is
// attempted.
type CycleError struct {
	// Cycle is the minimal cycle path, first id repeated at the end,
	// e.g. [a b a].
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic form dependency: %s", strings.Join(e.Cycle, " -> "))
}

// BuildGraph constructs the form dependency graph: one node per form in
// declaration order, and an edge target -> owner for every field reference
// (the target must be deployed before the owner can point at it).
// References to unknown forms are skipped here; the validator reports them
// as dangling. A form referencing itself is a length-1 cycle and fails
// immediately.
func BuildGraph(app *core.App) (*Graph, error) {
	g := NewGraph()
	for i := range app.Forms {
		g.AddNode(app.Forms[i].ID, &app.Forms[i])
	}

	for i := range app.Forms {
		form := &app.Forms[i]
		for _, field := range form.References() {
			target := field.Reference.Form
			if target == form.ID {
				return nil, &CycleError{Cycle: []string{form.ID, form.ID}}
			}
			if _, ok := g.GetNode(target); !ok {
				continue
			}
			if err := g.AddEdge(target, form.ID); err != nil {
				return nil, fmt.Errorf("failed to add dependency edge %s -> %s: %w", target, form.ID, err)
			}
		}
	}

	return g, nil
}

// Resolve computes the deployment order for an App. Fails with a
// *CycleError when the foreign-key graph is not a DAG.
func Resolve(app *core.App) (Order, error) {
	g, err := BuildGraph(app)
	if err != nil {
		return nil, err
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	return Order(sorted), nil
}
