package questions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	reply string
	err   error
	last  llm.Request
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.last = req
	return s.reply, s.err
}

var job = &models.Job{
	ID:           7,
	Title:        "Backend Engineer",
	Description:  "Build Go services.",
	Requirements: "Go, PostgreSQL, Kafka",
}

const reply = `Sure! {
  "questions": [
    {"question": "How would you partition a Kafka topic for ordered per-user events?", "type": "technical",
     "difficulty": "hard", "expected_keywords": ["partition key", "ordering", " consumer group ", ""]},
    {"question": "Tell me about a time when a migration went wrong.", "type": "Behavioral|Situational",
     "difficulty": "Medium", "expected_keywords": ["rollback", "communication"]},
    {"question": "   ", "type": "General"},
    {"question": "How would you handle a slow query in production?", "type": "Situational",
     "difficulty": "unknown", "expected_keywords": ["explain", "index"]}
  ]
}`

// ==========================
// Fallback
// ==========================

func TestFallback(t *testing.T) {
	assert.Len(t, Fallback(10), 10)
	assert.Len(t, Fallback(3), 3)
	assert.Len(t, Fallback(25), 10)
	assert.Len(t, Fallback(0), 10)

	qs := Fallback(1)
	assert.Equal(t, "Tell me about yourself and your professional background.", qs[0].Text)
	assert.Equal(t, []string{"experience", "skills", "background"}, qs[0].ExpectedKeywords)

	// callers may mutate what they get back
	qs[0].ExpectedKeywords[0] = "changed"
	assert.Equal(t, "experience", Fallback(1)[0].ExpectedKeywords[0])
}

// ==========================
// Generate
// ==========================

func TestGenerate_LLM(t *testing.T) {
	stub := &stubLLM{reply: reply}
	g := NewGenerator(stub, logger.NewTestLogger(t))

	qs, ai := g.Generate(context.Background(), strings.Repeat("r", 5000)+"TAIL", job, 8)

	require.True(t, ai)
	require.Len(t, qs, 3)
	assert.Equal(t, models.QuestionTechnical, qs[0].Type)
	assert.Equal(t, models.DifficultyHard, qs[0].Difficulty)
	assert.Equal(t, models.QuestionGeneral, qs[1].Type)
	assert.Equal(t, models.DifficultyMedium, qs[2].Difficulty)

	assert.NotContains(t, stub.last.Prompt, "TAIL")
	assert.Contains(t, stub.last.Prompt, "Create exactly 8 interview questions")
	assert.Contains(t, stub.last.Prompt, "- 4 Technical questions")
	assert.Contains(t, stub.last.Prompt, "- 2 Behavioral questions")
	assert.Equal(t, 4000, stub.last.MaxTokens)
}

func TestGenerate_TruncatesToCount(t *testing.T) {
	g := NewGenerator(&stubLLM{reply: reply}, logger.NewTestLogger(t))
	qs, ai := g.Generate(context.Background(), "resume", job, 2)
	assert.True(t, ai)
	assert.Len(t, qs, 2)
}

func TestGenerate_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
		count  int
		want   int
	}{
		{"no client", nil, 0, DefaultCount},
		{"request error", &stubLLM{err: errors.New("unavailable")}, 5, 5},
		{"empty questions", &stubLLM{reply: `{"questions": []}`}, 5, 5},
		{"blank questions only", &stubLLM{reply: `{"questions": [{"question": " "}]}`}, 4, 4},
		{"garbage", &stubLLM{reply: "no json here"}, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.client, logger.NewTestLogger(t))
			qs, ai := g.Generate(context.Background(), "resume", job, tt.count)
			assert.False(t, ai)
			assert.Equal(t, Fallback(tt.want), qs)
		})
	}
}

func TestToModels(t *testing.T) {
	qs := []Question{
		{Text: "Q1", Type: models.QuestionTechnical, Difficulty: models.DifficultyEasy, ExpectedKeywords: []string{" go ", "", "channels"}},
		{Text: "Q2", Type: models.QuestionGeneral, Difficulty: models.DifficultyMedium},
	}

	rows := ToModels(42, qs, 0)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(42), rows[0].InterviewID)
	assert.Equal(t, "go, channels", rows[0].ExpectedKeywords)
	assert.Equal(t, 1, rows[0].Order)
	assert.Equal(t, 2, rows[1].Order)
	assert.Equal(t, DefaultTimeLimitSeconds, rows[1].TimeLimitSeconds)
	assert.Equal(t, "", rows[1].ExpectedKeywords)
}
