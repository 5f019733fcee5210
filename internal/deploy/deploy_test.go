package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapform/internal/builder"
)

func TestDryRunner_AllSkipped(t *testing.T) {
	documents := map[string]*builder.Document{
		"deployment_jobs":    {FormID: "deployment_jobs", Target: "webform"},
		"deployment_history": {FormID: "deployment_history", Target: "webform"},
	}
	order := []string{"deployment_jobs", "deployment_history"}

	results, err := DryRunner{}.Deploy(context.Background(), nil, order, documents)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, r := range results {
		assert.Equal(t, order[i], r.FormID, "results should follow deployment order")
		assert.Equal(t, StatusSkipped, r.Status)
		assert.Equal(t, "dry run", r.Reason)
	}
}

func TestDryRunner_MissingDocument(t *testing.T) {
	documents := map[string]*builder.Document{
		"deployment_jobs": {FormID: "deployment_jobs", Target: "webform"},
	}
	order := []string{"deployment_jobs", "deployment_history"}

	results, err := DryRunner{}.Deploy(context.Background(), nil, order, documents)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "dry run", results[0].Reason)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Equal(t, "no document built", results[1].Reason)
}

func TestDryRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DryRunner{}.Deploy(ctx, nil, []string{"deployment_jobs"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
