package parser

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func loadTrackerDoc(t *testing.T) []byte {
	t.Helper()
	src, err := os.ReadFile("testdata/deploy_tracker.md")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return src
}

func TestParseMarkdown_Tracker(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	app := result.App

	if app.AppID != "deploy_tracker" || app.AppName != "Deploy Tracker" || app.Version != "1.0.0" {
		t.Errorf("app metadata = %q/%q/%q", app.AppID, app.AppName, app.Version)
	}

	wantForms := []struct {
		id     string
		fields int
	}{
		{"deployment_jobs", 16},
		{"deployment_history", 10},
		{"prerequisite_validation", 9},
		{"component_registry", 10},
	}
	if len(app.Forms) != len(wantForms) {
		t.Fatalf("parsed %d forms, want %d", len(app.Forms), len(wantForms))
	}
	for i, want := range wantForms {
		form := app.Forms[i]
		if form.ID != want.id {
			t.Errorf("form %d id = %q, want %q (section order must be preserved)", i, form.ID, want.id)
		}
		if len(form.Fields) != want.fields {
			t.Errorf("form %s has %d fields, want %d", form.ID, len(form.Fields), want.fields)
		}
	}
}

func TestParseMarkdown_PrimaryKeys(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}

	wantPK := map[string]string{
		"deployment_jobs":         "job_id",
		"deployment_history":      "entry_id",
		"prerequisite_validation": "check_id",
		"component_registry":      "component_id",
	}
	for formID, fieldID := range wantPK {
		pk := result.App.Form(formID).PrimaryField()
		if pk == nil || pk.ID != fieldID {
			t.Errorf("%s primary field = %+v, want %s", formID, pk, fieldID)
		}
	}
}

func TestParseMarkdown_ForeignKeys(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	app := result.App

	history := app.Form("deployment_history").Field("job_id")
	if history.Type != core.FieldForeignKey {
		t.Errorf("history job_id type = %s, want foreign_key", history.Type)
	}
	if ref := history.Reference; ref == nil ||
		ref.Form != "deployment_jobs" || ref.Field != "job_id" || ref.LabelField != "job_name" {
		t.Errorf("history job_id reference = %+v", history.Reference)
	}

	// Declared as Text Field, promoted by the explicit annotation with the
	// ASCII arrow; the label field defaults to the target field.
	prereq := app.Form("prerequisite_validation").Field("job_id")
	if prereq.Type != core.FieldForeignKey {
		t.Errorf("prereq job_id type = %s, want foreign_key", prereq.Type)
	}
	if ref := prereq.Reference; ref == nil || ref.Form != "deployment_jobs" || ref.LabelField != "job_id" {
		t.Errorf("prereq job_id reference = %+v", prereq.Reference)
	}

	// Prose like "Link to parent team registry" must never become a
	// reference on its own.
	owner := app.Form("component_registry").Field("owner_team")
	if owner.Type != core.FieldText || owner.Reference != nil {
		t.Errorf("owner_team = %s/%+v, prose must not be inferred as a foreign key", owner.Type, owner.Reference)
	}
}

func TestParseMarkdown_SelectOptions(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	app := result.App

	status := app.Form("deployment_jobs").Field("status")
	want := []string{"pending", "running", "completed", "failed", "rolled_back"}
	if len(status.Options) != len(want) {
		t.Fatalf("status options = %v, want %v", status.Options, want)
	}
	for i := range want {
		if status.Options[i] != want[i] {
			t.Errorf("status options[%d] = %q, want %q", i, status.Options[i], want[i])
		}
	}
}

func TestParseMarkdown_SharedEnumeration(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}

	form := result.App.Form("prerequisite_validation")
	current := form.Field("result")
	previous := form.Field("previous_result")

	if len(current.Options) != 3 || len(previous.Options) != 3 {
		t.Fatalf("shared enumeration not applied: %v / %v", current.Options, previous.Options)
	}
	for i := range current.Options {
		if current.Options[i] != previous.Options[i] {
			t.Errorf("shared options differ at %d: %q vs %q", i, current.Options[i], previous.Options[i])
		}
	}

	// The sequences are copies, not aliases.
	current.Options[0] = "mutated"
	if previous.Options[0] == "mutated" {
		t.Error("shared option sequences alias the same backing array")
	}
}

func TestParseMarkdown_FieldDetails(t *testing.T) {
	result, err := ParseMarkdown(loadTrackerDoc(t), Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	jobs := result.App.Form("deployment_jobs")

	jobID := jobs.Field("job_id")
	if jobID.Size != 20 || !jobID.Required || jobID.Label != "Job ID" {
		t.Errorf("job_id = %+v, want size 20 required label \"Job ID\"", jobID)
	}

	retry := jobs.Field("retry_limit")
	if retry.Type != core.FieldNumber || retry.Default != "3" {
		t.Errorf("retry_limit = %+v, want number with default 3", retry)
	}

	createdAt := jobs.Field("created_at")
	if createdAt.Type != core.FieldHidden || createdAt.Default != "@now" {
		t.Errorf("created_at = %+v, want hidden with placeholder default", createdAt)
	}

	if jobs.TableName != "deployment_jobs" {
		t.Errorf("jobs table = %q", jobs.TableName)
	}
	// Table name falls back to the id transform when no Table line is given.
	if got := result.App.Form("deployment_history").TableName; got != "deployment_history" {
		t.Errorf("history table = %q, want deployment_history", got)
	}
}

func TestParseMarkdown_Suggestions(t *testing.T) {
	src := loadTrackerDoc(t)

	// Off by default.
	result, err := ParseMarkdown(src, Options{})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if len(result.Suggestions) != 0 {
		t.Fatalf("suggestions without opt-in: %+v", result.Suggestions)
	}

	result, err = ParseMarkdown(src, Options{SuggestReferences: true})
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if len(result.Suggestions) != 1 {
		t.Fatalf("suggestions = %+v, want exactly one", result.Suggestions)
	}
	sug := result.Suggestions[0]
	if sug.FormID != "component_registry" || sug.FieldID != "owner_team" || sug.TargetForm != "team_registry" {
		t.Errorf("suggestion = %+v", sug)
	}
	// The field itself stays untouched.
	owner := result.App.Form("component_registry").Field("owner_team")
	if owner.Type != core.FieldText || owner.Reference != nil {
		t.Errorf("suggestion mutated the field: %+v", owner)
	}
}

func TestParseMarkdown_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "no form sections",
			doc:  "# Title\n\nJust prose.\n",
			want: "no form sections",
		},
		{
			name: "table outside form section",
			doc:  "| Field Name | Type |\n|---|---|\n| a | text |\n",
			want: "outside a form section",
		},
		{
			name: "unknown column header",
			doc:  "## Form: X\n\n| Field Name | Widget |\n|---|---|\n| a | text |\n",
			want: "unknown column header",
		},
		{
			name: "missing field name column",
			doc:  "## Form: X\n\n| Label | Type |\n|---|---|\n| a | text |\n",
			want: "no Field Name column",
		},
		{
			name: "invalid size",
			doc:  "## Form: X\n\n| Field Name | Size |\n|---|---|\n| a | wide |\n",
			want: "invalid size",
		},
		{
			name: "malformed foreign key annotation",
			doc:  "## Form: X\n\n| Field Name | Type |\n|---|---|\n| a | text |\n\nForeign Key: a -> b.c\n",
			want: "malformed foreign key annotation",
		},
		{
			name: "foreign key names unknown field",
			doc:  "## Form: X\n\n| Field Name | Type |\n|---|---|\n| a | text |\n\nForeign Key: `ghost` -> `b.c`\n",
			want: "unknown field \"ghost\"",
		},
		{
			name: "primary key names unknown field",
			doc:  "## Form: X\n\n| Field Name | Type |\n|---|---|\n| a | text |\n\nPrimary Key: `ghost`\n",
			want: "unknown field \"ghost\"",
		},
		{
			name: "options for unknown field",
			doc: "## Form: X\n\n| Field Name | Type |\n|---|---|\n| a | select |\n\n" +
				"### Select Box Options\n\n- ghost: x, y\n",
			want: "unknown field \"ghost\"",
		},
		{
			name: "options for non-select field",
			doc: "## Form: X\n\n| Field Name | Type |\n|---|---|\n| a | text |\n\n" +
				"### Select Box Options\n\n- a: x, y\n",
			want: "non-select field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkdown([]byte(tt.doc), Options{})
			if err == nil {
				t.Fatal("expected parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if !strings.Contains(perr.Reason, tt.want) {
				t.Errorf("error %q does not mention %q", perr.Reason, tt.want)
			}
		})
	}
}

func TestParseMarkdown_ErrorLines(t *testing.T) {
	doc := "## Form: X\n\n| Field Name | Size |\n|---|---|\n| a | wide |\n"
	_, err := ParseMarkdown([]byte(doc), Options{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Line != 5 {
		t.Errorf("error line = %d, want 5 (the offending row)", perr.Line)
	}
}
