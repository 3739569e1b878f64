package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// Job variable schemas
// ==========================================

func TestValidateInput(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"interviewId": {Type: "integer", Minimum: Float64Ptr(1)},
			"decision":    {Type: "string", Enum: []string{"Pending", "Selected", "Rejected", "On-Hold"}},
			"notes":       {Type: "string", MaxLength: IntPtr(10)},
		},
		Required: []string{"interviewId"},
	}

	tests := []struct {
		name       string
		input      map[string]interface{}
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid with JSON number",
			input:     map[string]interface{}{"interviewId": float64(12), "decision": "Selected"},
			wantValid: true,
		},
		{
			name:       "missing required",
			input:      map[string]interface{}{"decision": "Selected"},
			wantFields: []string{"interviewId"},
		},
		{
			name:       "fractional id",
			input:      map[string]interface{}{"interviewId": 1.5},
			wantFields: []string{"interviewId"},
		},
		{
			name:       "bad enum and long notes",
			input:      map[string]interface{}{"interviewId": float64(3), "decision": "Maybe", "notes": "far too long text"},
			wantFields: []string{"decision", "notes"},
		},
		{
			name:      "null optional field",
			input:     map[string]interface{}{"interviewId": float64(3), "notes": nil},
			wantValid: true,
		},
		{
			name:       "null required field",
			input:      map[string]interface{}{"interviewId": nil},
			wantFields: []string{"interviewId"},
		},
		{
			name:       "extra field rejected",
			input:      map[string]interface{}{"interviewId": float64(3), "foo": true},
			wantFields: []string{"foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input, schema)
			assert.Equal(t, tt.wantValid, res.Valid, res.Messages())
			for _, f := range tt.wantFields {
				assert.True(t, res.HasFieldError(f), "expected error for %s", f)
			}
		})
	}
}

func TestValidateTaskType(t *testing.T) {
	assert.NoError(t, ValidateTaskType("evaluate-interview"))
	assert.NoError(t, ValidateTaskType("export-ranking-report"))
	assert.Error(t, ValidateTaskType("evaluate"))
	assert.Error(t, ValidateTaskType("Evaluate_Interview"))
}

// ==========================================
// Model replies
// ==========================================

const scoreSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number"},
    "feedback": {"type": "string"}
  }
}`

type scoreReply struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func TestDecodeReply(t *testing.T) {
	t.Run("fenced object", func(t *testing.T) {
		var out scoreReply
		err := DecodeReply("```json\n{\"score\": 82, \"feedback\": \"solid\"}\n```", scoreSchema, &out)
		require.NoError(t, err)
		assert.Equal(t, 82.0, out.Score)
		assert.Equal(t, "solid", out.Feedback)
	})

	t.Run("schema violation", func(t *testing.T) {
		var out scoreReply
		err := DecodeReply(`{"feedback": "no score"}`, scoreSchema, &out)
		assert.Error(t, err)
	})

	t.Run("no object", func(t *testing.T) {
		var out scoreReply
		err := DecodeReply("I cannot answer that", scoreSchema, &out)
		assert.ErrorIs(t, err, ErrNoJSONObject)
	})
}
