package knowledge

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
	calls int
	last  llm.Request
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

const transcript = `Python is a high-level programming language known for its readability and simplicity.
It is popular because of its easy syntax and vast library ecosystem.
For OOP, it supports classes and objects. Inheritance allows code reuse.
Encapsulation helps hide internal details. Polymorphism enables flexible interfaces.`

func questions() []models.InterviewQuestion {
	return []models.InterviewQuestion{
		{ID: 11, Text: "What is Python and why is it popular?", ExpectedKeywords: "python, programming, easy, readable, libraries"},
		{ID: 12, Text: "Explain Object Oriented Programming", ExpectedKeywords: "class, object, inheritance, encapsulation, polymorphism"},
	}
}

// ==========================
// Components
// ==========================

func TestKeywordMatch(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		keywords string
		want     float64
	}{
		{"two of three", "Python is readable", "python, readable, libraries, ", 200.0 / 3},
		{"case insensitive", "I used KAFKA daily", "Kafka", 100},
		{"no keywords", "anything at all", "", 0},
		{"blank keywords", "anything at all", " , ,", 0},
		{"empty answer", "", "go", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KeywordMatch(tt.answer, tt.keywords), 1e-9)
		})
	}
}

func TestLengthScore(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	tests := []struct {
		n    int
		want float64
	}{
		{0, 0},
		{10, 30},
		{20, 60},
		{40, 75},
		{60, 90},
		{100, 92},
		{500, 100},
	}
	for _, tt := range tests {
		score, wc := LengthScore(words(tt.n))
		assert.InDelta(t, tt.want, score, 1e-9, "words=%d", tt.n)
		assert.Equal(t, tt.n, wc)
	}
}

func TestCombine(t *testing.T) {
	ai := 80.0
	assert.InDelta(t, 80*0.5+50*0.2+40*0.15+90*0.15, Combine(&ai, 50, 40, 90), 1e-9)
	assert.InDelta(t, 50*0.4+40*0.35+90*0.25, Combine(nil, 50, 40, 90), 1e-9)
}

// ==========================
// ScoreAnswer
// ==========================

func TestScoreAnswer_TooShort(t *testing.T) {
	a := NewAnalyzer(nil, logger.NewTestLogger(t))
	s := a.ScoreAnswer(context.Background(), "Explain Go channels", "  yes  ", "channel")
	assert.Equal(t, 0.0, s.Score)
	assert.NotEmpty(t, s.Error)
	assert.Nil(t, s.AIScore)
}

func TestScoreAnswer_WithLLM(t *testing.T) {
	stub := &stubLLM{reply: `{"score": 85, "correctness": 90, "relevance": 80, "completeness": 70,
		"technical_depth": 75, "feedback": "Solid overview", "key_points_covered": ["readability"],
		"missing_points": ["GIL"]}`}
	a := NewAnalyzer(stub, logger.NewTestLogger(t))

	s := a.ScoreAnswer(context.Background(), questions()[0].Text, transcript, questions()[0].ExpectedKeywords)

	require.NotNil(t, s.AIScore)
	assert.Equal(t, 85.0, *s.AIScore)
	assert.Equal(t, "Solid overview", s.Feedback)
	assert.Equal(t, []string{"GIL"}, s.MissingPoints)
	assert.InDelta(t, Combine(s.AIScore, s.KeywordScore, s.RelevanceScore, s.LengthScore), s.Score, 0.02)
	assert.Equal(t, float32(0.3), stub.last.Temperature)
	assert.Equal(t, 1500, stub.last.MaxTokens)
	assert.Contains(t, stub.last.Prompt, "Expected Keywords/Concepts: python, programming")
}

func TestScoreAnswer_NoKeywordsPrompt(t *testing.T) {
	stub := &stubLLM{reply: `{"score": 60}`}
	a := NewAnalyzer(stub, logger.NewTestLogger(t))
	a.ScoreAnswer(context.Background(), "Tell me about yourself", transcript, "")
	assert.Contains(t, stub.last.Prompt, "Expected Keywords/Concepts: Not specified")
}

func TestScoreAnswer_LLMFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"request error", &stubLLM{err: errors.New("timeout")}},
		{"prose reply", &stubLLM{reply: "Great answer overall."}},
		{"score missing", &stubLLM{reply: `{"feedback": "fine"}`}},
	}

	q := questions()[1]
	want := NewAnalyzer(nil, logger.NewNoOpLogger()).ScoreAnswer(context.Background(), q.Text, transcript, q.ExpectedKeywords)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.stub, logger.NewTestLogger(t))
			s := a.ScoreAnswer(context.Background(), q.Text, transcript, q.ExpectedKeywords)
			assert.Nil(t, s.AIScore)
			assert.Equal(t, want.Score, s.Score)
		})
	}
}

// ==========================
// Analyze
// ==========================

func TestAnalyze_MeanOfQuestions(t *testing.T) {
	a := NewAnalyzer(nil, logger.NewTestLogger(t))
	res := a.Analyze(context.Background(), questions(), transcript)

	require.True(t, res.OK(), res.Error)
	scores := res.Details["individual_scores"].([]QuestionScore)
	require.Len(t, scores, 2)

	assert.Equal(t, 1, scores[0].QuestionIndex)
	assert.Equal(t, 2, scores[1].QuestionIndex)
	assert.Equal(t, int64(12), scores[1].QuestionID)
	assert.Equal(t, SourceInterview, scores[0].TranscriptSource)
	assert.InDelta(t, (scores[0].Score+scores[1].Score)/2, res.Score, 0.01)
	assert.Equal(t, false, res.Details["ai_used"])
	// "readable" and "libraries" are missing from the first answer
	assert.Equal(t, 60.0, scores[0].KeywordScore)
	assert.Equal(t, 100.0, scores[1].KeywordScore)
}

func TestAnalyze_PerQuestionAnswers(t *testing.T) {
	qs := questions()
	qs[0].AnswerTranscript = "I mostly write Java."

	a := NewAnalyzer(nil, logger.NewTestLogger(t))
	res := a.Analyze(context.Background(), qs, transcript)
	scores := res.Details["individual_scores"].([]QuestionScore)

	assert.Equal(t, SourceAnswer, scores[0].TranscriptSource)
	assert.Equal(t, 0.0, scores[0].KeywordScore)
	assert.Equal(t, SourceInterview, scores[1].TranscriptSource)
}

func TestAnalyze_QuestionTextTruncated(t *testing.T) {
	qs := []models.InterviewQuestion{{Text: strings.Repeat("q", 250)}}
	a := NewAnalyzer(nil, logger.NewTestLogger(t))
	res := a.Analyze(context.Background(), qs, transcript)
	scores := res.Details["individual_scores"].([]QuestionScore)
	assert.Len(t, scores[0].Question, 100)
}

func TestAnalyze_Errors(t *testing.T) {
	a := NewAnalyzer(nil, logger.NewTestLogger(t))

	res := a.Analyze(context.Background(), questions(), "too short")
	assert.Equal(t, evaluation.StatusError, res.Status)
	assert.Equal(t, 0.0, res.Score)

	res = a.Analyze(context.Background(), nil, transcript)
	assert.Equal(t, evaluation.StatusError, res.Status)
	assert.Equal(t, "no questions to evaluate against", res.Error)
}

func TestAnalyze_AIUsed(t *testing.T) {
	stub := &stubLLM{reply: `{"score": 90, "feedback": "ok"}`}
	a := NewAnalyzer(stub, logger.NewTestLogger(t))
	res := a.Analyze(context.Background(), questions(), transcript)

	assert.Equal(t, true, res.Details["ai_used"])
	assert.Equal(t, 2, stub.calls)
}
