package dag

import (
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func fkField(id, targetForm, targetField string) core.Field {
	return core.Field{
		ID:   id,
		Type: core.FieldForeignKey,
		Reference: &core.Reference{
			Form:  targetForm,
			Field: targetField,
		},
	}
}

// deployTrackerApp mirrors the four-form deployment tracker layout:
// two forms reference deployment_jobs, component_registry stands alone.
func deployTrackerApp() *core.App {
	return &core.App{
		AppID: "deploy_tracker",
		Forms: []core.Form{
			{
				ID: "deployment_history",
				Fields: []core.Field{
					{ID: "entry_id", Type: core.FieldText, PrimaryKey: true},
					fkField("job_id", "deployment_jobs", "job_id"),
				},
			},
			{
				ID: "prerequisite_validation",
				Fields: []core.Field{
					{ID: "check_id", Type: core.FieldText, PrimaryKey: true},
					fkField("job_id", "deployment_jobs", "job_id"),
				},
			},
			{
				ID: "deployment_jobs",
				Fields: []core.Field{
					{ID: "job_id", Type: core.FieldText, PrimaryKey: true},
				},
			},
			{
				ID: "component_registry",
				Fields: []core.Field{
					{ID: "component_id", Type: core.FieldText, PrimaryKey: true},
				},
			},
		},
	}
}

func TestResolve_DependenciesFirst(t *testing.T) {
	order, err := Resolve(deployTrackerApp())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("expected 4 forms in order, got %d: %v", len(order), order)
	}

	jobs := order.Index("deployment_jobs")
	history := order.Index("deployment_history")
	prereq := order.Index("prerequisite_validation")
	registry := order.Index("component_registry")

	if jobs == -1 || history == -1 || prereq == -1 || registry == -1 {
		t.Fatalf("order is missing forms: %v", order)
	}
	if jobs > history {
		t.Errorf("deployment_jobs must precede deployment_history: %v", order)
	}
	if jobs > prereq {
		t.Errorf("deployment_jobs must precede prerequisite_validation: %v", order)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first, err := Resolve(deployTrackerApp())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for range 10 {
		again, err := Resolve(deployTrackerApp())
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("order not reproducible: %v vs %v", again, first)
			}
		}
	}
}

func TestResolve_DeclarationOrderTies(t *testing.T) {
	// deployment_history is declared before deployment_jobs, yet jobs must
	// come first; among unconstrained forms declaration order decides.
	order, err := Resolve(deployTrackerApp())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// At step 0 the ready set is {deployment_jobs, component_registry};
	// deployment_jobs is declared earlier, so it is taken first.
	if order[0] != "deployment_jobs" {
		t.Errorf("order[0] = %q, want deployment_jobs", order[0])
	}
	// With jobs placed, history and prerequisite free up in declaration
	// order ahead of component_registry's declaration position.
	want := Order{"deployment_jobs", "deployment_history", "prerequisite_validation", "component_registry"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestResolve_MutualCycle(t *testing.T) {
	app := &core.App{
		Forms: []core.Form{
			{ID: "alpha", Fields: []core.Field{
				{ID: "id", Type: core.FieldText, PrimaryKey: true},
				fkField("beta_ref", "beta", "id"),
			}},
			{ID: "beta", Fields: []core.Field{
				{ID: "id", Type: core.FieldText, PrimaryKey: true},
				fkField("alpha_ref", "alpha", "id"),
			}},
		},
	}

	_, err := Resolve(app)
	if err == nil {
		t.Fatal("expected cycle error for mutual references")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	msg := cycleErr.Error()
	if !strings.Contains(msg, "alpha") || !strings.Contains(msg, "beta") {
		t.Errorf("cycle error should name both forms: %q", msg)
	}
}

func TestResolve_SelfReference(t *testing.T) {
	app := &core.App{
		Forms: []core.Form{
			{ID: "org_units", Fields: []core.Field{
				{ID: "unit_id", Type: core.FieldText, PrimaryKey: true},
				fkField("parent_id", "org_units", "unit_id"),
			}},
		},
	}

	_, err := Resolve(app)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError for self-reference, got %T: %v", err, err)
	}
	if len(cycleErr.Cycle) != 2 || cycleErr.Cycle[0] != "org_units" {
		t.Errorf("cycle = %v, want [org_units org_units]", cycleErr.Cycle)
	}
}

func TestResolve_DanglingReferenceIgnored(t *testing.T) {
	// Unresolvable targets are the validator's finding; the resolver
	// still orders what it can.
	app := &core.App{
		Forms: []core.Form{
			{ID: "solo", Fields: []core.Field{
				{ID: "id", Type: core.FieldText, PrimaryKey: true},
				fkField("ghost_ref", "ghost", "id"),
			}},
		},
	}

	order, err := Resolve(app)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(order) != 1 || order[0] != "solo" {
		t.Errorf("order = %v, want [solo]", order)
	}
}

func TestBuildGraph_Edges(t *testing.T) {
	g, err := BuildGraph(deployTrackerApp())
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}

	children := g.GetChildren("deployment_jobs")
	if len(children) != 2 {
		t.Fatalf("deployment_jobs children = %v, want two dependents", children)
	}
}
