package output

// json.go - output shapes for --output json. These are the stable
// machine-readable contract of the CLI; renames here break scripted
// callers.

import "github.com/leapstack-labs/leapform/internal/validate"

// BuildOutput is the result of a build invocation.
type BuildOutput struct {
	Target  string             `json:"target"`
	Inputs  []BuildInputResult `json:"inputs"`
	Summary BuildSummary       `json:"summary"`
}

// BuildInputResult reports one input file's compile.
type BuildInputResult struct {
	Input      string             `json:"input"`
	AppID      string             `json:"app_id,omitempty"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Errors     []validate.Finding `json:"errors,omitempty"`
	Warnings   []validate.Finding `json:"warnings,omitempty"`
	Order      []string           `json:"order,omitempty"`
	Artifacts  []BuildArtifact    `json:"artifacts,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

// BuildArtifact is one written artifact. FormID is empty for app-level
// outputs such as combined scripts.
type BuildArtifact struct {
	FormID string `json:"form_id,omitempty"`
	Path   string `json:"path"`
	Hash   string `json:"hash"`
}

// BuildSummary aggregates a build run.
type BuildSummary struct {
	Compiled  int   `json:"compiled"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
	Artifacts int   `json:"artifacts"`
	TotalMS   int64 `json:"total_ms"`
}

// ValidateOutput is the result of a validate invocation.
type ValidateOutput struct {
	Inputs  []ValidateFileResult `json:"inputs"`
	Summary ValidateSummary      `json:"summary"`
}

// ValidateFileResult reports one input file's findings.
type ValidateFileResult struct {
	Input    string             `json:"input"`
	AppID    string             `json:"app_id,omitempty"`
	Error    string             `json:"error,omitempty"`
	Errors   []validate.Finding `json:"errors,omitempty"`
	Warnings []validate.Finding `json:"warnings,omitempty"`
}

// ValidateSummary aggregates validation findings.
type ValidateSummary struct {
	Inputs   int `json:"inputs"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// OrderOutput is the deployment order of one input.
type OrderOutput struct {
	Input string   `json:"input"`
	AppID string   `json:"app_id"`
	Order []string `json:"order"`
}

// DAGOutput is the dependency graph of one input.
type DAGOutput struct {
	Input      string     `json:"input"`
	AppID      string     `json:"app_id"`
	Levels     []DAGLevel `json:"levels"`
	Roots      []string   `json:"roots"`
	Leaves     []string   `json:"leaves"`
	TotalForms int        `json:"total_forms"`
	TotalEdges int        `json:"total_edges"`
}

// DAGLevel groups forms deployable in the same wave.
type DAGLevel struct {
	Level int       `json:"level"`
	Forms []DAGNode `json:"forms"`
}

// DAGNode is one form in the graph.
type DAGNode struct {
	ID        string   `json:"id"`
	Table     string   `json:"table"`
	DependsOn []string `json:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty"`
}

// ListOutput is the forms inventory across inputs.
type ListOutput struct {
	Apps    []AppInfo   `json:"apps"`
	Summary ListSummary `json:"summary"`
}

// AppInfo describes one parsed application.
type AppInfo struct {
	Input   string     `json:"input"`
	AppID   string     `json:"app_id"`
	AppName string     `json:"app_name"`
	Version string     `json:"version,omitempty"`
	Forms   []FormInfo `json:"forms"`
}

// FormInfo describes one form.
type FormInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Fields     int      `json:"fields"`
	PrimaryKey string   `json:"primary_key,omitempty"`
	References []string `json:"references,omitempty"`
}

// ListSummary aggregates the inventory.
type ListSummary struct {
	TotalApps   int `json:"total_apps"`
	TotalForms  int `json:"total_forms"`
	TotalFields int `json:"total_fields"`
}

// ArtifactsOutput is the manifest of recorded build outputs.
type ArtifactsOutput struct {
	Apps  []AppArtifacts `json:"apps"`
	Total int            `json:"total"`
}

// AppArtifacts groups one app's recorded artifacts.
type AppArtifacts struct {
	Input     string         `json:"input"`
	AppID     string         `json:"app_id"`
	Artifacts []ArtifactInfo `json:"artifacts"`
}

// ArtifactInfo is one manifest row.
type ArtifactInfo struct {
	FormID  string `json:"form_id"`
	Target  string `json:"target"`
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	BuiltAt string `json:"built_at"`
}

// DeployOutput is the per-form outcome of a deployment pass.
type DeployOutput struct {
	Input  string             `json:"input"`
	AppID  string             `json:"app_id"`
	Target string             `json:"target"`
	DryRun bool               `json:"dry_run"`
	Forms  []DeployFormResult `json:"forms"`
}

// DeployFormResult is one form's deployment outcome.
type DeployFormResult struct {
	FormID string `json:"form_id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// RulesOutput is the payload of rules --output json.
type RulesOutput struct {
	Rules []RuleInfo `json:"rules"`
	Total int        `json:"total"`
}

// RuleInfo describes one validation rule.
type RuleInfo struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// WatchEvent is one JSON line of watch-mode progress.
type WatchEvent struct {
	Event     string `json:"event"`
	Path      string `json:"path,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}
