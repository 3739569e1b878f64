// Package knowledge scores how well the candidate's answers cover the
// interview questions.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"strings"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/common/validation"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/textproc"
)

const (
	MinTranscriptChars = 20
	MinAnswerChars     = 10
	MinWords           = 20

	maxFeatures       = 3000
	maxQuestionPrefix = 100
)

// Transcript sources reported per question.
const (
	SourceAnswer    = "answer"
	SourceInterview = "interview"
)

// QuestionScore is the evaluation of one answer.
type QuestionScore struct {
	QuestionIndex    int      `json:"question_index"`
	QuestionID       int64    `json:"question_id,omitempty"`
	Question         string   `json:"question"`
	Score            float64  `json:"score"`
	KeywordScore     float64  `json:"keyword_score"`
	RelevanceScore   float64  `json:"relevance_score"`
	LengthScore      float64  `json:"length_score"`
	WordCount        int      `json:"word_count"`
	AIScore          *float64 `json:"ai_score"`
	Feedback         string   `json:"feedback"`
	KeyPointsCovered []string `json:"key_points_covered,omitempty"`
	MissingPoints    []string `json:"missing_points,omitempty"`
	TranscriptSource string   `json:"transcript_source"`
	Error            string   `json:"error,omitempty"`
}

type Analyzer struct {
	llm    llm.Client
	logger logger.Logger
}

// NewAnalyzer returns an Analyzer. client may be nil, in which case answers
// are scored on keywords, relevance and length only.
func NewAnalyzer(client llm.Client, log logger.Logger) *Analyzer {
	return &Analyzer{
		llm:    client,
		logger: log.WithFields(map[string]interface{}{"component": "knowledge"}),
	}
}

// Analyze scores every question. A question with its own answer transcript is
// scored on that answer; otherwise the whole interview transcript stands in.
// The pillar score is the mean over questions.
func (a *Analyzer) Analyze(ctx context.Context, questions []models.InterviewQuestion, transcript string) evaluation.PillarResult {
	if len(strings.TrimSpace(transcript)) < MinTranscriptChars {
		return evaluation.Failed(evaluation.PillarKnowledge, "transcript is empty or too short")
	}
	if len(questions) == 0 {
		return evaluation.Failed(evaluation.PillarKnowledge, "no questions to evaluate against")
	}

	scores := make([]QuestionScore, 0, len(questions))
	var sum float64
	aiUsed := false
	for i, q := range questions {
		answer, source := q.AnswerTranscript, SourceAnswer
		if strings.TrimSpace(answer) == "" {
			answer, source = transcript, SourceInterview
		}

		s := a.ScoreAnswer(ctx, q.Text, answer, q.ExpectedKeywords)
		s.QuestionIndex = i + 1
		s.QuestionID = q.ID
		s.Question = truncate(q.Text, maxQuestionPrefix)
		s.TranscriptSource = source
		if s.AIScore != nil {
			aiUsed = true
		}

		scores = append(scores, s)
		sum += s.Score
	}

	overall := sum / float64(len(scores))
	a.logger.Info("knowledge analyzed", map[string]interface{}{
		"questions": len(scores),
		"score":     textproc.Round(overall, 2),
		"aiUsed":    aiUsed,
	})

	return evaluation.Succeeded(evaluation.PillarKnowledge, overall, map[string]interface{}{
		"questions_evaluated": len(scores),
		"transcript_length":   len(transcript),
		"individual_scores":   scores,
		"ai_used":             aiUsed,
	})
}

// ScoreAnswer evaluates one answer against its question and expected keywords.
func (a *Analyzer) ScoreAnswer(ctx context.Context, question, answer, expectedKeywords string) QuestionScore {
	if len(strings.TrimSpace(answer)) < MinAnswerChars {
		return QuestionScore{
			Feedback: "No substantial answer detected",
			Error:    "no answer provided or answer too short",
		}
	}

	keyword := KeywordMatch(answer, expectedKeywords)
	relevance := textproc.CosineSimilarity(answer, question, maxFeatures) * 100
	length, words := LengthScore(answer)

	out := QuestionScore{
		KeywordScore:   textproc.Round(keyword, 2),
		RelevanceScore: textproc.Round(relevance, 2),
		LengthScore:    textproc.Round(length, 2),
		WordCount:      words,
		Feedback:       "Evaluation complete",
	}

	var reply *answerReply
	if a.llm != nil {
		r, err := a.evaluateWithLLM(ctx, question, answer, expectedKeywords)
		if err != nil {
			a.logger.Warn("llm answer evaluation failed", map[string]interface{}{"error": err.Error()})
			metrics.LLMFallbacks.WithLabelValues(evaluation.PillarKnowledge).Inc()
		} else {
			reply = r
		}
	}

	if reply != nil {
		ai := textproc.Clamp(reply.Score, 0, 100)
		out.AIScore = &ai
		out.Score = Combine(&ai, keyword, relevance, length)
		if reply.Feedback != "" {
			out.Feedback = reply.Feedback
		}
		out.KeyPointsCovered = reply.KeyPointsCovered
		out.MissingPoints = reply.MissingPoints
	} else {
		out.Score = Combine(nil, keyword, relevance, length)
	}
	out.Score = textproc.Round(out.Score, 2)
	return out
}

func (a *Analyzer) evaluateWithLLM(ctx context.Context, question, answer, expectedKeywords string) (*answerReply, error) {
	if strings.TrimSpace(expectedKeywords) == "" {
		expectedKeywords = "Not specified"
	}
	text, err := a.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(userPromptTemplate, question, expectedKeywords, answer),
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}
	var out answerReply
	if err := validation.DecodeReply(text, replySchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Combine weights the component scores: 0.5*ai + 0.2*keyword + 0.15*relevance
// + 0.15*length with an AI score, 0.4*keyword + 0.35*relevance + 0.25*length
// without.
func Combine(ai *float64, keyword, relevance, length float64) float64 {
	if ai != nil {
		return *ai*0.50 + keyword*0.20 + relevance*0.15 + length*0.15
	}
	return keyword*0.40 + relevance*0.35 + length*0.25
}

// KeywordMatch is the percentage of comma-separated keywords found in answer.
// No keywords scores 0.
func KeywordMatch(answer, expectedKeywords string) float64 {
	keywords := models.SplitList(expectedKeywords)
	if len(keywords) == 0 || answer == "" {
		return 0
	}
	lower := strings.ToLower(answer)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords)) * 100
}

// LengthScore rates answer length against MinWords and returns it with the
// word count.
func LengthScore(answer string) (float64, int) {
	wc := len(textproc.Words(answer))
	n := float64(wc)
	var score float64
	switch {
	case wc < MinWords:
		score = n / MinWords * 60
	case wc < MinWords*3:
		score = 60 + (n-MinWords)/(MinWords*2)*30
	default:
		score = 90 + math.Min(10, (n-MinWords*3)/20)
	}
	return math.Min(100, score), wc
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
