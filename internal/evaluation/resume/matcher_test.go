package resume

import (
	"context"
	"errors"
	"strings"
	"testing"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply string
	err   error
	req   llm.Request
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.req = req
	return s.reply, s.err
}

const sampleResume = "Backend engineer with 6 years of experience building Golang services " +
	"packaged with Docker and deployed on bare metal servers."

func sampleJob() *models.Job {
	return &models.Job{
		ID:             3,
		Title:          "Platform Engineer",
		SkillsRequired: "Golang, Docker, Terraform, Kubernetes",
	}
}

// ==========================
// Fallback scoring
// ==========================

func TestFallback_KnownScore(t *testing.T) {
	res := Fallback(sampleResume, sampleJob())

	require.True(t, res.OK())
	// similarity 0 (no job text), skills 2/4 -> 50*0.35, 6 years -> 18, base 10
	assert.InDelta(t, 45.5, res.Score, 1e-9)
	assert.Equal(t, false, res.Details["ai_powered"])
	assert.Equal(t, []string{"terraform", "kubernetes"}, res.Details["missing_skills"])
	assert.Contains(t, res.Details["matched_skills"], "docker")
}

func TestFallback_NoJobSkillsUsesFoundSkills(t *testing.T) {
	job := &models.Job{Description: "We build data pipelines."}
	res := Fallback("Data engineer: python, kafka, redis, kubernetes and airflow. Built pipelines for analytics.", job)
	require.True(t, res.OK())

	found := res.Details["matched_skills"].([]string)
	assert.GreaterOrEqual(t, len(found), 4)
	assert.Empty(t, res.Details["missing_skills"])
}

func TestFallback_ScoreAlwaysInRange(t *testing.T) {
	long := strings.Repeat("python django docker kubernetes aws 40 years of experience ", 200)
	tests := []struct {
		name   string
		resume string
		job    *models.Job
	}{
		{"empty job", sampleResume, &models.Job{}},
		{"identical text", long, &models.Job{Description: long, SkillsRequired: "python, docker"}},
		{"huge experience", "I have 99 years of experience with everything under the sun, truly.", &models.Job{}},
		{"unicode", "Ingénieur logiciel — 5 ans d'expérience en Go, Kubernetes et Postgres; équipe distribuée.", sampleJob()},
		{"no overlap", strings.Repeat("zzz ", 50), sampleJob()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Fallback(tt.resume, tt.job)
			assert.GreaterOrEqual(t, res.Score, 0.0)
			assert.LessOrEqual(t, res.Score, 100.0)
		})
	}
}

func TestMatch_DeterministicWithoutLLM(t *testing.T) {
	m := NewMatcher(nil, logger.NewTestLogger(t))
	job := &models.Job{
		Description:    "Build and operate Go microservices on Kubernetes.",
		Requirements:   "3+ years of experience with Go, PostgreSQL and Docker.",
		SkillsRequired: "go, postgresql, docker",
	}

	first := m.Match(context.Background(), sampleResume+" PostgreSQL replication and Kubernetes operators.", job)
	for i := 0; i < 5; i++ {
		again := m.Match(context.Background(), sampleResume+" PostgreSQL replication and Kubernetes operators.", job)
		assert.Equal(t, first.Score, again.Score)
	}
	assert.Greater(t, first.Score, 10.0)
}

func TestExperienceYears(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"5 years of experience in sales", 5},
		{"3+ years experience, later 7 years of experience", 7},
		{"Experience of 4 years in QA", 4},
		{"experience 12+ years", 12},
		{"fresh graduate", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExperienceYears(tt.text), tt.text)
	}
}

// ==========================
// LLM path
// ==========================

func TestMatch_LLM(t *testing.T) {
	stub := &stubLLM{reply: "Here is my evaluation:\n```json\n" + `{
		"overall_score": 82,
		"breakdown": {"skills_match": {"score": 35, "details": "Go and Docker present"}},
		"matched_skills": ["go", "docker"],
		"missing_skills": ["terraform"],
		"strengths": ["backend depth"],
		"concerns": [],
		"recommendation": "Interview."
	}` + "\n```"}

	m := NewMatcher(stub, logger.NewTestLogger(t))
	res := m.Match(context.Background(), sampleResume, sampleJob())

	require.True(t, res.OK())
	assert.Equal(t, 82.0, res.Score)
	assert.Equal(t, true, res.Details["ai_powered"])
	assert.Equal(t, "Interview.", res.Details["recommendation"])
	assert.Contains(t, stub.req.Prompt, "SKILLS REQUIRED:\nGolang, Docker, Terraform, Kubernetes")
	assert.Equal(t, float32(0.3), stub.req.Temperature)
	assert.Equal(t, 2000, stub.req.MaxTokens)
}

func TestMatch_LLMScoreClamped(t *testing.T) {
	m := NewMatcher(&stubLLM{reply: `{"overall_score": 140}`}, logger.NewTestLogger(t))
	res := m.Match(context.Background(), sampleResume, sampleJob())
	assert.Equal(t, 100.0, res.Score)
}

func TestMatch_LLMFailuresFallBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"request error", &stubLLM{err: errors.New("rate limited")}},
		{"no json", &stubLLM{reply: "I think this candidate is great"}},
		{"wrong type", &stubLLM{reply: `{"overall_score": "high"}`}},
		{"missing score", &stubLLM{reply: `{"recommendation": "hire"}`}},
	}

	want := Fallback(sampleResume, sampleJob()).Score
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.stub, logger.NewTestLogger(t))
			res := m.Match(context.Background(), sampleResume, sampleJob())
			require.True(t, res.OK())
			assert.Equal(t, false, res.Details["ai_powered"])
			assert.Equal(t, want, res.Score)
		})
	}
}

func TestMatch_ShortResume(t *testing.T) {
	m := NewMatcher(nil, logger.NewTestLogger(t))
	res := m.Match(context.Background(), "  John Doe, developer ", sampleJob())
	assert.Equal(t, evaluation.StatusError, res.Status)
	assert.Equal(t, 0.0, res.Score)
	assert.NotEmpty(t, res.Error)
}

func TestMatch_PromptTruncatesResume(t *testing.T) {
	stub := &stubLLM{reply: `{"overall_score": 50}`}
	m := NewMatcher(stub, logger.NewTestLogger(t))

	m.Match(context.Background(), strings.Repeat("a", 9000)+"TAILMARKER", sampleJob())
	assert.NotContains(t, stub.req.Prompt, "TAILMARKER")
}
