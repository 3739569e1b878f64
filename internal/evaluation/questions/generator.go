// Package questions generates tailored interview questions from a resume and
// a job posting.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/common/validation"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/models"
)

const (
	DefaultCount            = 10
	DefaultTimeLimitSeconds = 120

	maxResumeChars = 4000
)

var ErrNoQuestions = errors.New("reply contained no questions")

// Question is a generated question before it is persisted.
type Question struct {
	Text               string   `json:"question"`
	Type               string   `json:"type"`
	Difficulty         string   `json:"difficulty"`
	ExpectedKeywords   []string `json:"expected_keywords"`
	EvaluationCriteria string   `json:"evaluation_criteria,omitempty"`
}

// Generator produces interview questions with an LLM and falls back to a
// fixed generic set.
type Generator struct {
	llm    llm.Client
	logger logger.Logger
}

// NewGenerator returns a Generator. client may be nil.
func NewGenerator(client llm.Client, log logger.Logger) *Generator {
	return &Generator{
		llm:    client,
		logger: log.WithFields(map[string]interface{}{"component": "question-generator"}),
	}
}

// Generate returns up to count questions (DefaultCount when count <= 0) and
// whether they came from the LLM.
func (g *Generator) Generate(ctx context.Context, resumeText string, job *models.Job, count int) ([]Question, bool) {
	if count <= 0 {
		count = DefaultCount
	}
	if g.llm != nil && job != nil {
		qs, err := g.generateWithLLM(ctx, resumeText, job, count)
		if err == nil {
			return qs, true
		}
		g.logger.Warn("llm question generation failed, using fallback", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
		metrics.LLMFallbacks.WithLabelValues("questions").Inc()
	}
	return Fallback(count), false
}

func (g *Generator) generateWithLLM(ctx context.Context, resumeText string, job *models.Job, count int) ([]Question, error) {
	technical := count / 2
	behavioral := count / 4
	situational := count / 4

	prompt := fmt.Sprintf(userPromptTemplate,
		count, truncate(resumeText, maxResumeChars), job.Description, job.Requirements,
		technical, behavioral, situational)

	reply, err := g.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := validation.DecodeReply(reply, replySchema, &out); err != nil {
		return nil, err
	}

	qs := make([]Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		q.Type = normalizeType(q.Type)
		q.Difficulty = normalizeDifficulty(q.Difficulty)
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	if len(qs) > count {
		qs = qs[:count]
	}
	return qs, nil
}

// ToModels converts generated questions into rows for interviewID, numbered
// from 1.
func ToModels(interviewID int64, qs []Question, timeLimitSeconds int) []models.InterviewQuestion {
	if timeLimitSeconds <= 0 {
		timeLimitSeconds = DefaultTimeLimitSeconds
	}
	out := make([]models.InterviewQuestion, 0, len(qs))
	for i, q := range qs {
		kws := make([]string, 0, len(q.ExpectedKeywords))
		for _, k := range q.ExpectedKeywords {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
		out = append(out, models.InterviewQuestion{
			InterviewID:      interviewID,
			Text:             q.Text,
			Type:             q.Type,
			ExpectedKeywords: strings.Join(kws, ", "),
			Difficulty:       q.Difficulty,
			Order:            i + 1,
			TimeLimitSeconds: timeLimitSeconds,
		})
	}
	return out
}

// The reply sometimes uses the template's pipe list or lowercase.
func normalizeType(t string) string {
	for _, known := range []string{models.QuestionTechnical, models.QuestionBehavioral, models.QuestionSituational} {
		if strings.EqualFold(strings.TrimSpace(t), known) {
			return known
		}
	}
	return models.QuestionGeneral
}

func normalizeDifficulty(d string) string {
	for _, known := range []string{models.DifficultyEasy, models.DifficultyHard} {
		if strings.EqualFold(strings.TrimSpace(d), known) {
			return known
		}
	}
	return models.DifficultyMedium
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
