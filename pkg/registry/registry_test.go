package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"candidate-evaluator/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `{
  "version": "1.0.0",
  "activities": [
    {
      "id": "evaluate-interview",
      "displayName": "Evaluate Interview",
      "category": "evaluation",
      "version": "1.0.0",
      "taskType": "evaluate-interview",
      "implementationStatus": "completed",
      "inputSchema": {
        "type": "object",
        "properties": {"interviewId": {"type": "integer", "minimum": 1}},
        "required": ["interviewId"],
        "additionalProperties": true
      },
      "errorCodes": ["INTERVIEW_NOT_FOUND", "DATABASE_INSERT_FAILED"],
      "timeout": "10m",
      "retries": 3
    }
  ]
}`

func writeRegistry(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Load / Find
// ==========================

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)

	a, ok := reg.Find("evaluate-interview")
	require.True(t, ok)
	assert.Equal(t, "Evaluate Interview", a.DisplayName)
	require.NotNil(t, reg.InputSchema("evaluate-interview"))
	assert.Equal(t, []string{"interviewId"}, reg.InputSchema("evaluate-interview").Required)

	assert.Nil(t, reg.InputSchema("send-notification"))
	assert.Empty(t, reg.Validate())
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadRegistry(writeRegistry(t, "{not json"))
	assert.Error(t, err)
}

func TestNilRegistry(t *testing.T) {
	var reg *ActivityRegistry
	_, ok := reg.Find("evaluate-interview")
	assert.False(t, ok)
	assert.Nil(t, reg.InputSchema("evaluate-interview"))
}

func TestSave_RoundTrip(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, reg.Save(out, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)))

	again, err := LoadRegistry(out)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-02T09:00:00Z", again.LastUpdated)
	assert.Len(t, again.Activities, 1)
}

// ==========================
// Validate
// ==========================

func TestValidate_Problems(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "evaluate-interview", ImplementationStatus: StatusCompleted},
		{ID: "a", TaskType: "Evaluate", ImplementationStatus: "done", Timeout: "forever", ErrorCodes: []string{"NOPE"}},
		{TaskType: "x-y"},
	}}

	problems := reg.Validate()
	assert.Contains(t, problems, "a: duplicate id")
	assert.Contains(t, problems, `a: unknown status "done"`)
	assert.Contains(t, problems, `a: invalid timeout "forever"`)
	assert.Contains(t, problems, "a: unknown error code NOPE")
	assert.Contains(t, problems, "activity without id")
	assert.Len(t, problems, 6)
}

// ==========================
// ValidateVariables
// ==========================

func TestValidateVariables(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry))
	require.NoError(t, err)
	schema := reg.InputSchema("evaluate-interview")

	tests := []struct {
		name    string
		vars    string
		wantErr bool
	}{
		{"valid", `{"interviewId": 8, "candidateName": "Ada"}`, false},
		{"missing", `{"candidateName": "Ada"}`, true},
		{"wrong type", `{"interviewId": "8"}`, true},
		{"below minimum", `{"interviewId": 0}`, true},
		{"not json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariables(schema, tt.vars)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.NoError(t, ValidateVariables(nil, `{}`))
}

// ==========================
// Shipped registry
// ==========================

func TestShippedRegistry(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	assert.Empty(t, reg.Validate())

	for _, taskType := range []string{
		"analyze-resume", "generate-questions", "evaluate-interview", "record-hr-decision",
		"recalculate-percentiles", "export-ranking-report", "send-notification",
	} {
		schema := reg.InputSchema(taskType)
		require.NotNil(t, schema, taskType)
		assert.True(t, schema.AdditionalProperties, "%s must accept other process variables", taskType)
	}

	// process variables from earlier tasks ride along with every job
	vars := `{"interviewId": 5, "decision": "Selected", "applicationId": 21, "overallScore": 81.5, "notes": null}`
	assert.NoError(t, ValidateVariables(reg.InputSchema("record-hr-decision"), vars))
	assert.Error(t, ValidateVariables(reg.InputSchema("record-hr-decision"), `{"interviewId": 5, "decision": "Maybe"}`))
}
