package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"candidate-evaluator/internal/common/queue"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/evaluation/aggregate"
	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/internal/report"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Arguments
// ==========================

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID("job id", tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "job id")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newEnqueueFlags(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "enqueue"}
	c.Flags().AddFlagSet(enqueueCmd.Flags())
	// enqueueCmd's flag values are shared, so reset them for each case
	for _, name := range []string{"application", "interview", "job"} {
		require.NoError(t, c.Flags().Set(name, "0"))
	}
	for _, name := range []string{"decision", "notes", "by"} {
		require.NoError(t, c.Flags().Set(name, ""))
	}
	for k, v := range flags {
		require.NoError(t, c.Flags().Set(k, v))
	}
	return c
}

func TestRequestFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		flags   map[string]string
		check   func(t *testing.T, req queue.EvaluationRequest)
		wantErr bool
	}{
		{
			name:  "application submitted",
			kind:  queue.KindApplicationSubmitted,
			flags: map[string]string{"application": "7", "job": "3"},
			check: func(t *testing.T, req queue.EvaluationRequest) {
				assert.Equal(t, int64(7), req.ApplicationID)
				assert.Equal(t, int64(3), req.JobID)
			},
		},
		{
			name:  "interview completed",
			kind:  queue.KindInterviewCompleted,
			flags: map[string]string{"interview": "9"},
			check: func(t *testing.T, req queue.EvaluationRequest) {
				assert.Equal(t, int64(9), req.InterviewID)
			},
		},
		{
			name:  "hr decision",
			kind:  queue.KindHRDecision,
			flags: map[string]string{"interview": "9", "decision": "Selected", "by": "dana"},
			check: func(t *testing.T, req queue.EvaluationRequest) {
				assert.Equal(t, "Selected", req.Decision)
				assert.Equal(t, "dana", req.DecidedBy)
			},
		},
		{
			name:  "hr decision defaults decided by",
			kind:  queue.KindHRDecision,
			flags: map[string]string{"interview": "9", "decision": "Rejected"},
			check: func(t *testing.T, req queue.EvaluationRequest) {
				assert.NotEmpty(t, req.DecidedBy)
			},
		},
		{name: "missing application", kind: queue.KindApplicationSubmitted, wantErr: true},
		{name: "decision without interview", kind: queue.KindHRDecision, flags: map[string]string{"decision": "Selected"}, wantErr: true},
		{name: "unknown kind", kind: "resume_uploaded", flags: map[string]string{"application": "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := requestFromFlags(newEnqueueFlags(t, tt.flags), tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, queue.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, req.Kind)
			tt.check(t, req)
		})
	}
}

// ==========================
// Output
// ==========================

func TestPrintEvaluation(t *testing.T) {
	ev := &pipeline.Evaluation{
		InterviewID:   5,
		ApplicationID: 21,
		ResultID:      8,
		Resume:        evaluation.Succeeded(evaluation.PillarResume, 80, nil),
		Confidence:    evaluation.Failed(evaluation.PillarConfidence, "no frames"),
		Communication: evaluation.Succeeded(evaluation.PillarCommunication, 70.5, nil),
		Knowledge:     evaluation.Succeeded(evaluation.PillarKnowledge, 65, nil),
		OverallScore:  61.25,
		Percentile:    75,
		Summary:       aggregate.Summary{Recommendation: aggregate.Hire},
	}

	var buf bytes.Buffer
	require.NoError(t, printEvaluation(&buf, ev))
	out := buf.String()

	assert.Regexp(t, `interview\s+5\n`, out)
	assert.Contains(t, out, "no frames")
	assert.Contains(t, out, "70.50")
	assert.Contains(t, out, "61.25")
	assert.Contains(t, out, "75.0")
	assert.Contains(t, out, aggregate.Hire)
}

func TestPrintPercentiles_Sorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPercentiles(&buf, map[int64]float64{1: 25, 2: 100, 3: 62.5, 4: 100}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "2 "))
	assert.True(t, strings.HasPrefix(lines[2], "4 "))
	assert.True(t, strings.HasPrefix(lines[3], "3 "))
	assert.True(t, strings.HasPrefix(lines[4], "1 "))
}

func TestPrintDecision(t *testing.T) {
	at := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		out  pipeline.DecisionOutcome
		want string
	}{
		{"with status", pipeline.DecisionOutcome{InterviewID: 5, ApplicationID: 21, Decision: "Selected", ApplicationStatus: "Hired", DecidedAt: at},
			"interview 5: Selected (application 21 is now Hired) at 2025-05-02T09:00:00Z\n"},
		{"on hold", pipeline.DecisionOutcome{InterviewID: 5, ApplicationID: 21, Decision: "On-Hold", DecidedAt: at},
			"interview 5: On-Hold at 2025-05-02T09:00:00Z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printDecision(&buf, &tt.out)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &report.Report{JobID: 3, Candidates: 4, LocalPath: "/tmp/r.xlsx", Location: "s3://reports/r.xlsx"})
	assert.Equal(t, "job 3: 4 candidates written to /tmp/r.xlsx\nuploaded to s3://reports/r.xlsx\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "evalctl version: unknown\n", buf.String())
}
