package core

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"deployment_jobs", "deployment_jobs"},
		{"Deployment Jobs", "deployment_jobs"},
		{"Deployment  Jobs", "deployment_jobs"},
		{"component-registry", "component_registry"},
		{"Prerequisite Validation!", "prerequisite_validation"},
		{"  padded  ", "padded"},
		{"ALLCAPS", "allcaps"},
		{"v2 Rollout (staging)", "v2_rollout_staging"},
		{"", ""},
		{"___", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTableNameForID(t *testing.T) {
	if got := TableNameForID("Deployment Jobs"); got != "deployment_jobs" {
		t.Errorf("TableNameForID = %q, want deployment_jobs", got)
	}
	// Repeated calls must agree.
	a, b := TableNameForID("component_registry"), TableNameForID("component_registry")
	if a != b {
		t.Errorf("TableNameForID not deterministic: %q vs %q", a, b)
	}
}
