package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func ddlApp() *core.App {
	return &core.App{
		AppID:   "deploy_tracker",
		AppName: "Deploy Tracker",
		Version: "1.0.0",
		Forms: []core.Form{
			{
				ID:        "deployment_jobs",
				Name:      "Deployment Jobs",
				TableName: "deployment_jobs",
				Fields: []core.Field{
					{ID: "job_id", Label: "Job ID", Type: core.FieldText, Size: 20, Required: true, PrimaryKey: true},
					{ID: "job_name", Label: "Job Name", Type: core.FieldText, Size: 64, Required: true},
					{ID: "retry_limit", Label: "Retry Limit", Type: core.FieldNumber, Default: "3"},
					{ID: "status", Label: "Status", Type: core.FieldSelect, Required: true, Default: "pending",
						Options: []string{"pending", "running", "done"}},
					{ID: "notes", Label: "Notes", Type: core.FieldTextarea},
					{ID: "scheduled_date", Label: "Scheduled Date", Type: core.FieldDate, Required: true},
				},
				Indexes: []core.Index{
					{Kind: core.IndexUnique, Fields: []string{"job_name"}},
					{Kind: core.IndexComposite, Fields: []string{"status", "scheduled_date"}},
				},
			},
			{
				ID:        "deployment_history",
				Name:      "Deployment History",
				TableName: "deployment_history",
				Fields: []core.Field{
					{ID: "entry_id", Label: "Entry ID", Type: core.FieldText, Size: 20, Required: true, PrimaryKey: true},
					{ID: "job_id", Label: "Job", Type: core.FieldForeignKey, Required: true,
						Reference: &core.Reference{Form: "deployment_jobs", Field: "job_id", LabelField: "job_name"}},
					{ID: "operator", Label: "Operator", Type: core.FieldSelect,
						Reference: &core.Reference{Form: "deployment_jobs", Field: "job_id", LabelField: "job_name"}},
				},
			},
		},
	}
}

func TestPostgres_CreateTable(t *testing.T) {
	result, err := Build(ddlApp(), core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK(), "failures: %+v", result.Failures)

	want := `create table if not exists deployment_jobs (
  job_id varchar(20) primary key,
  job_name varchar(64) not null,
  retry_limit numeric default 3,
  status varchar(255) not null default 'pending' check (status in ('pending', 'running', 'done')),
  notes text,
  scheduled_date date not null
);
create unique index if not exists deployment_jobs_job_name_uq on deployment_jobs (job_name);
create index if not exists deployment_jobs_status_scheduled_date_idx on deployment_jobs (status, scheduled_date);
`
	doc := result.Documents["deployment_jobs"]
	assert.Equal(t, want, string(doc.Content))
	assert.Empty(t, doc.Epilogue, "no references, no constraint phase")
	assert.Equal(t, "deployment_jobs.sql", doc.Filename)
}

func TestPostgres_ReferenceColumns(t *testing.T) {
	result, err := Build(ddlApp(), core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK())

	doc := result.Documents["deployment_history"]
	content := string(doc.Content)

	// Reference columns borrow the target column's type.
	assert.Contains(t, content, "job_id varchar(20) not null")
	assert.Contains(t, content, "operator varchar(20)")
	assert.NotContains(t, content, "operator varchar(20) check",
		"referenced selects take their values from the target table, not a check")

	epilogue := string(doc.Epilogue)
	assert.Contains(t, epilogue,
		"alter table deployment_history add constraint deployment_history_job_id_fk "+
			"foreign key (job_id) references deployment_jobs (job_id);")
	assert.Contains(t, epilogue,
		"alter table deployment_history add constraint deployment_history_operator_fk "+
			"foreign key (operator) references deployment_jobs (job_id);")
}

func TestPostgres_PlaceholderDefaultsSkipped(t *testing.T) {
	app := ddlApp()
	app.Forms[0].Fields[5].Default = "@now"

	result, err := Build(app, core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK())

	content := string(result.Documents["deployment_jobs"].Content)
	assert.NotContains(t, content, "@now", "placeholder defaults are runtime values")
	assert.Contains(t, content, "scheduled_date date not null")
}

func TestPostgres_LiteralDefaultEscaping(t *testing.T) {
	app := ddlApp()
	app.Forms[0].Fields[1].Default = "O'Brien"

	result, err := Build(app, core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK())

	content := string(result.Documents["deployment_jobs"].Content)
	assert.Contains(t, content, "default 'O''Brien'")
}

func TestPostgres_ReservedIdentifiersQuoted(t *testing.T) {
	app := &core.App{
		AppID: "acl", AppName: "ACL", Version: "1.0.0",
		Forms: []core.Form{{
			ID:        "order",
			Name:      "Order",
			TableName: "order",
			Fields: []core.Field{
				{ID: "order_id", Type: core.FieldText, Required: true, PrimaryKey: true},
				{ID: "user", Type: core.FieldText, Size: 40},
				{ID: "Group", Type: core.FieldText},
			},
		}},
	}

	result, err := Build(app, core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK(), "failures: %+v", result.Failures)

	content := string(result.Documents["order"].Content)
	assert.Contains(t, content, `create table if not exists "order" (`)
	assert.Contains(t, content, `"user" varchar(40)`)
	assert.Contains(t, content, `"Group" varchar(255)`, "mixed case needs quoting to survive")
	assert.Contains(t, content, "order_id varchar(255) primary key")
}

func TestPostgres_FileFieldFails(t *testing.T) {
	app := ddlApp()
	app.Forms[0].Fields = append(app.Forms[0].Fields,
		core.Field{ID: "config_file", Label: "Config File", Type: core.FieldFile})

	result, err := Build(app, core.DefaultProfile(), "postgres")
	require.NoError(t, err)

	assert.False(t, result.OK())
	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, "deployment_jobs", failure.FormID)
	assert.Equal(t, "config_file", failure.Err.FieldID)
	assert.Contains(t, failure.Err.Reason, "no column mapping")

	// The history form is unaffected.
	assert.Contains(t, result.Documents, "deployment_history")
	assert.Equal(t, []string{"deployment_history"}, result.Order)
}

func TestPostgres_ReferenceChainLoop(t *testing.T) {
	app := &core.App{
		AppID: "loop", AppName: "Loop", Version: "1.0.0",
		Forms: []core.Form{
			{
				ID: "alpha", Name: "Alpha", TableName: "alpha",
				Fields: []core.Field{{ID: "a_id", Type: core.FieldForeignKey, PrimaryKey: true,
					Reference: &core.Reference{Form: "beta", Field: "b_id", LabelField: "b_id"}}},
			},
			{
				ID: "beta", Name: "Beta", TableName: "beta",
				Fields: []core.Field{{ID: "b_id", Type: core.FieldForeignKey, PrimaryKey: true,
					Reference: &core.Reference{Form: "alpha", Field: "a_id", LabelField: "a_id"}}},
			},
		},
	}

	result, err := Build(app, core.DefaultProfile(), "postgres")
	require.NoError(t, err)

	require.Len(t, result.Failures, 2, "both ends of the loop must fail, not hang")
	for _, failure := range result.Failures {
		assert.Contains(t, failure.Err.Reason, "loops")
	}
}

func TestCombine_TwoPhase(t *testing.T) {
	result, err := Build(ddlApp(), core.DefaultProfile(), "postgres")
	require.NoError(t, err)
	require.True(t, result.OK())

	combined := string(Combine(result, []string{"deployment_jobs", "deployment_history"}))

	firstAlter := strings.Index(combined, "alter table")
	lastCreate := strings.LastIndex(combined, "create table")
	require.Greater(t, firstAlter, -1)
	require.Greater(t, lastCreate, -1)
	assert.Greater(t, firstAlter, lastCreate, "every table exists before the first constraint")

	// Unknown or failed ids are skipped, not fatal.
	partial := Combine(result, []string{"deployment_history", "ghost"})
	assert.NotContains(t, string(partial), "create table if not exists deployment_jobs")
}

func TestPostgres_Deterministic(t *testing.T) {
	profile := core.DefaultProfile()

	first, err := Build(ddlApp(), profile, "postgres")
	require.NoError(t, err)
	second, err := Build(ddlApp(), profile, "postgres")
	require.NoError(t, err)

	for _, id := range first.Order {
		assert.Equal(t, string(first.Documents[id].Bytes()), string(second.Documents[id].Bytes()))
	}
}
