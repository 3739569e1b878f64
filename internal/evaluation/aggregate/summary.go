package aggregate

import (
	"context"
	"fmt"
	"sort"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/common/validation"
	"candidate-evaluator/internal/llm"
)

// Recommendations.
const (
	StrongHire = "Strong Hire"
	Hire       = "Hire"
	Consider   = "Consider"
	OnHold     = "On Hold"
	DoNotHire  = "Do Not Hire"
)

const passMark = 60.0

// Summary is the HR-facing digest of an evaluation.
type Summary struct {
	Summary             string   `json:"summary"`
	Recommendation      string   `json:"recommendation"`
	TopStrengths        []string `json:"top_strengths"`
	AreasOfConcern      []string `json:"areas_of_concern"`
	InterviewHighlights string   `json:"interview_highlights"`
	AIPowered           bool     `json:"ai_powered"`
}

type SummaryInput struct {
	CandidateName string
	JobTitle      string
	Scores        Scores
	Overall       float64
}

type Summarizer struct {
	llm    llm.Client
	logger logger.Logger
}

// NewSummarizer returns a Summarizer. client may be nil.
func NewSummarizer(client llm.Client, log logger.Logger) *Summarizer {
	return &Summarizer{
		llm:    client,
		logger: log.WithFields(map[string]interface{}{"component": "summary"}),
	}
}

// Summarize asks the LLM for a summary and falls back to score bands.
func (s *Summarizer) Summarize(ctx context.Context, in SummaryInput) Summary {
	if s.llm != nil {
		out, err := s.summarizeWithLLM(ctx, in)
		if err == nil {
			return out
		}
		s.logger.Warn("llm summary failed, using fallback", map[string]interface{}{"error": err.Error()})
		metrics.LLMFallbacks.WithLabelValues("summary").Inc()
	}
	return FallbackSummary(in)
}

func (s *Summarizer) summarizeWithLLM(ctx context.Context, in SummaryInput) (Summary, error) {
	prompt := fmt.Sprintf(summaryPromptTemplate,
		in.CandidateName, in.JobTitle,
		in.Scores.Resume, in.Scores.Confidence, in.Scores.Communication, in.Scores.Knowledge,
		in.Overall)

	reply, err := s.llm.Complete(ctx, llm.Request{
		System:      summarySystemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	if err := validation.DecodeReply(reply, summarySchema, &out); err != nil {
		return Summary{}, err
	}
	out.TopStrengths = nonNil(out.TopStrengths)
	out.AreasOfConcern = nonNil(out.AreasOfConcern)
	out.AIPowered = true
	return out, nil
}

// FallbackSummary derives the recommendation from the overall score
// (80/70/60 bands) and names the two strongest pillars at or above 60 and
// the two weakest below 60.
func FallbackSummary(in SummaryInput) Summary {
	rec := Recommendation(in.Overall)
	var text string
	switch rec {
	case StrongHire:
		text = fmt.Sprintf("%s demonstrated excellent performance across all evaluation criteria for the %s position.", in.CandidateName, in.JobTitle)
	case Hire:
		text = fmt.Sprintf("%s showed strong qualifications and performed well in the interview for %s.", in.CandidateName, in.JobTitle)
	case Consider:
		text = fmt.Sprintf("%s met basic requirements for %s but may need additional evaluation.", in.CandidateName, in.JobTitle)
	default:
		text = fmt.Sprintf("%s showed potential but scored below expectations for the %s role.", in.CandidateName, in.JobTitle)
	}

	return Summary{
		Summary:             text,
		Recommendation:      rec,
		TopStrengths:        Strengths(in.Scores),
		AreasOfConcern:      Concerns(in.Scores),
		InterviewHighlights: "Automated evaluation - manual review recommended.",
	}
}

// Recommendation maps an overall score to its score band.
func Recommendation(overall float64) string {
	switch {
	case overall >= 80:
		return StrongHire
	case overall >= 70:
		return Hire
	case overall >= 60:
		return Consider
	}
	return OnHold
}

type labelled struct {
	label string
	score float64
}

// Strengths returns up to two labels for the highest pillars scoring at least 60.
func Strengths(s Scores) []string {
	items := []labelled{
		{"Resume alignment with job requirements", s.Resume},
		{"Interview confidence and presence", s.Confidence},
		{"Communication clarity", s.Communication},
		{"Technical knowledge depth", s.Knowledge},
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	out := []string{}
	for _, it := range items[:2] {
		if it.score >= passMark {
			out = append(out, it.label)
		}
	}
	return out
}

// Concerns returns up to two labels for the lowest pillars scoring below 60.
func Concerns(s Scores) []string {
	items := []labelled{
		{"Resume-job fit", s.Resume},
		{"Confidence during interview", s.Confidence},
		{"Communication skills", s.Communication},
		{"Technical knowledge", s.Knowledge},
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score < items[j].score })

	out := []string{}
	for _, it := range items[:2] {
		if it.score < passMark {
			out = append(out, it.label)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const summarySchema = `{
  "type": "object",
  "required": ["summary", "recommendation"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "recommendation": {"enum": ["Strong Hire", "Hire", "Consider", "On Hold", "Do Not Hire"]},
    "top_strengths": {"type": "array", "items": {"type": "string"}},
    "areas_of_concern": {"type": "array", "items": {"type": "string"}},
    "interview_highlights": {"type": "string"}
  }
}`

const summarySystemPrompt = `You are an expert HR analyst providing interview evaluation summaries.
Be concise, professional and actionable in your assessment.`

const summaryPromptTemplate = `Generate a brief HR evaluation summary for a candidate interview.

CANDIDATE: %s
POSITION: %s

SCORES (out of 100):
- Resume Match: %.1f%%
- Confidence Level: %.1f%%
- Communication Skills: %.1f%%
- Technical Knowledge: %.1f%%
- OVERALL SCORE: %.1f%%

Provide evaluation in JSON format:
{
    "summary": "2-3 sentence professional summary for HR reviewing this candidate",
    "recommendation": "Strong Hire|Hire|Consider|On Hold|Do Not Hire",
    "top_strengths": ["strength1", "strength2"],
    "areas_of_concern": ["concern1", "concern2"],
    "interview_highlights": "1 sentence about notable interview performance"
}

Be balanced and fair. Consider that:
- 80+ is excellent
- 70-79 is good
- 60-69 is average
- Below 60 needs attention

Return ONLY valid JSON.`
