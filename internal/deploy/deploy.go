// Package deploy defines the boundary between the build pipeline and
// platform deployment. leapform renders and orders documents; pushing
// them to a live platform belongs to Deployer implementations outside
// this repository.
package deploy

import (
	"context"

	"github.com/leapstack-labs/leapform/internal/builder"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// Status classifies the outcome of deploying one form.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// FormResult reports the deployment outcome for a single form.
type FormResult struct {
	FormID string
	Status Status
	Reason string
}

// Deployer pushes built documents to a platform. Implementations must
// process forms in the given order so referenced forms exist before
// their dependents.
type Deployer interface {
	Deploy(ctx context.Context, app *core.App, order []string, documents map[string]*builder.Document) ([]FormResult, error)
}

// DryRunner is a Deployer that deploys nothing: every form reports
// skipped. It backs --dry-run and tests.
type DryRunner struct{}

var _ Deployer = DryRunner{}

func (DryRunner) Deploy(ctx context.Context, _ *core.App, order []string, documents map[string]*builder.Document) ([]FormResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]FormResult, 0, len(order))
	for _, id := range order {
		reason := "dry run"
		if _, ok := documents[id]; !ok {
			reason = "no document built"
		}
		results = append(results, FormResult{FormID: id, Status: StatusSkipped, Reason: reason})
	}
	return results, nil
}
