// Package resume scores how well a resume fits a job posting.
package resume

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
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
	MinResumeChars   = 50
	maxPromptChars   = 8000
	maxFeatures      = 5000
	maxMatchedSkills = 15
	maxMissingSkills = 10
)

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\+?\s*years?\s*(?:of\s*)?experience`),
	regexp.MustCompile(`experience\s*(?:of\s*)?(\d+)\+?\s*years?`),
}

// knownSkills is scanned for in every resume regardless of the job.
var knownSkills = []string{
	"python", "java", "javascript", "c++", "c#", "sql", "nosql", "mongodb",
	"react", "angular", "vue", "node.js", "express", "django", "flask",
	"aws", "azure", "gcp", "docker", "kubernetes", "git", "linux",
	"machine learning", "deep learning", "tensorflow", "pytorch", "nlp",
	"data analysis", "data science", "excel", "power bi", "tableau",
	"html", "css", "rest api", "graphql", "agile", "scrum", "jira",
	"communication", "leadership", "teamwork", "problem solving",
	"php", "ruby", "go", "rust", "swift", "kotlin", "typescript",
	"mysql", "postgresql", "redis", "elasticsearch", "kafka",
	"spring", "laravel", "rails", "fastapi", "nextjs", "svelte",
}

// Matcher scores resumes with an LLM rubric and falls back to TF-IDF and
// keyword matching when the model is unavailable or its reply is unusable.
type Matcher struct {
	llm    llm.Client
	logger logger.Logger
}

// NewMatcher returns a Matcher. client may be nil.
func NewMatcher(client llm.Client, log logger.Logger) *Matcher {
	return &Matcher{
		llm:    client,
		logger: log.WithFields(map[string]interface{}{"component": "resume-matcher"}),
	}
}

// Match scores resumeText against job.
func (m *Matcher) Match(ctx context.Context, resumeText string, job *models.Job) evaluation.PillarResult {
	resumeText = strings.TrimSpace(resumeText)
	if len(resumeText) < MinResumeChars {
		return evaluation.Failed(evaluation.PillarResume, "could not extract sufficient text from resume")
	}
	if job == nil {
		return evaluation.Failed(evaluation.PillarResume, "job is required")
	}

	if m.llm != nil {
		res, err := m.matchWithLLM(ctx, resumeText, job)
		if err == nil {
			return res
		}
		m.logger.Warn("llm resume analysis failed, using fallback", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}

	metrics.LLMFallbacks.WithLabelValues(evaluation.PillarResume).Inc()
	return Fallback(resumeText, job)
}

// JobContext renders the four job sections the rubric is scored against.
func JobContext(job *models.Job) string {
	var sections []string
	add := func(title, body string) {
		if strings.TrimSpace(body) != "" {
			sections = append(sections, title+":\n"+strings.TrimSpace(body))
		}
	}
	add("JOB DESCRIPTION", job.Description)
	add("REQUIREMENTS", job.Requirements)
	add("RESPONSIBILITIES", job.Responsibilities)
	add("SKILLS REQUIRED", job.SkillsRequired)
	return strings.Join(sections, "\n\n")
}

func (m *Matcher) matchWithLLM(ctx context.Context, resumeText string, job *models.Job) (evaluation.PillarResult, error) {
	prompt := fmt.Sprintf(userPromptTemplate, JobContext(job), truncate(resumeText, maxPromptChars))

	reply, err := m.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return evaluation.PillarResult{}, err
	}

	var out rubricReply
	if err := validation.DecodeReply(reply, replySchema, &out); err != nil {
		return evaluation.PillarResult{}, err
	}

	breakdown := make(map[string]interface{}, len(out.Breakdown))
	for k, v := range out.Breakdown {
		breakdown[k] = map[string]interface{}{"score": v.Score, "details": v.Details}
	}

	return evaluation.Succeeded(evaluation.PillarResume, out.OverallScore, map[string]interface{}{
		"breakdown":      breakdown,
		"matched_skills": nonNil(out.MatchedSkills),
		"missing_skills": nonNil(out.MissingSkills),
		"strengths":      nonNil(out.Strengths),
		"concerns":       nonNil(out.Concerns),
		"recommendation": out.Recommendation,
		"ai_powered":     true,
	}), nil
}

// Fallback is the deterministic score:
// 0.35*similarity + 0.35*skill match + min(years*3, 20) + 10, clamped to [0,100].
func Fallback(resumeText string, job *models.Job) evaluation.PillarResult {
	lower := strings.ToLower(resumeText)
	similarity := textproc.CosineSimilarity(resumeText, job.Description+" "+job.Requirements, maxFeatures) * 100

	jobSkills := job.Skills()
	found := foundSkills(lower, jobSkills)

	var (
		skillPct float64
		missing  []string
	)
	if len(jobSkills) > 0 {
		matched := 0
		for _, s := range jobSkills {
			if strings.Contains(lower, s) {
				matched++
			} else if len(missing) < maxMissingSkills {
				missing = append(missing, s)
			}
		}
		skillPct = float64(matched) / float64(len(jobSkills)) * 100
	} else {
		skillPct = math.Min(float64(len(found))*8, 100)
	}

	years := ExperienceYears(lower)
	experiencePoints := math.Min(float64(years)*3, 20)

	score := similarity*0.35 + skillPct*0.35 + experiencePoints + 10

	matched := found
	if len(matched) > maxMatchedSkills {
		matched = matched[:maxMatchedSkills]
	}

	return evaluation.Succeeded(evaluation.PillarResume, score, map[string]interface{}{
		"breakdown": map[string]interface{}{
			"skills_match": map[string]interface{}{
				"score":   textproc.Round(skillPct*0.35, 1),
				"details": fmt.Sprintf("%d skills found", len(found)),
			},
			"similarity": map[string]interface{}{
				"score":   textproc.Round(similarity*0.35, 1),
				"details": "TF-IDF similarity",
			},
			"experience": map[string]interface{}{
				"score":   experiencePoints,
				"details": fmt.Sprintf("%d years detected", years),
			},
		},
		"matched_skills": nonNil(matched),
		"missing_skills": nonNil(missing),
		"ai_powered":     false,
	})
}

// ExperienceYears returns the largest "N years of experience" figure in text.
func ExperienceYears(text string) int {
	best := 0
	for _, p := range experiencePatterns {
		for _, m := range p.FindAllStringSubmatch(strings.ToLower(text), -1) {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > best {
				best = n
			}
		}
	}
	return best
}

// foundSkills lists known and job skills that occur in the resume, in list
// order without duplicates.
func foundSkills(lowerResume string, jobSkills []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{knownSkills, jobSkills} {
		for _, s := range list {
			if seen[s] || !strings.Contains(lowerResume, s) {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
