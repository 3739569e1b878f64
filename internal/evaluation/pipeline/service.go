// Package pipeline runs the full evaluation of one interview: it resolves the
// recording, scores the four pillars, combines them and persists the result.
package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/common/observability"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/evaluation/aggregate"
	"candidate-evaluator/internal/evaluation/communication"
	"candidate-evaluator/internal/evaluation/knowledge"
	"candidate-evaluator/internal/media"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/storage"
	"candidate-evaluator/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMeaningfulSpeechChars is the trimmed transcript length below which
// communication and knowledge are not scored.
const DefaultMeaningfulSpeechChars = 50

const errNoVideo = "no interview video"

// Repository is the slice of *store.Repository the pipeline needs.
type Repository interface {
	GetInterview(ctx context.Context, id int64) (*models.Interview, error)
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	GetCandidateContact(ctx context.Context, appID int64) (*models.CandidateContact, error)
	ListQuestions(ctx context.Context, interviewID int64) ([]models.InterviewQuestion, error)
	GetResultByInterview(ctx context.Context, interviewID int64) (*models.CandidateResult, error)
	JobResultScores(ctx context.Context, jobID int64) ([]store.ResultScore, error)
	SaveAnswerScores(ctx context.Context, questions []models.InterviewQuestion) error
	SaveResult(ctx context.Context, res *models.CandidateResult) (int64, error)
	UpdatePercentiles(ctx context.Context, percentiles map[int64]float64) error
	MarkInterviewAnalyzed(ctx context.Context, interviewID int64) error
	UpdateApplicationStatus(ctx context.Context, appID int64, status string) error
	RecordDecision(ctx context.Context, d store.Decision, appID int64) error
	LogActivity(ctx context.Context, entry models.ActivityLog) error
}

var _ Repository = (*store.Repository)(nil)

// ResultIndexer mirrors results into the search index.
type ResultIndexer interface {
	Index(ctx context.Context, doc models.RankedCandidate) error
}

// Fetcher makes a stored object available locally.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*storage.Local, error)
}

// Transcriber turns a video into text; *media.Converter satisfies it.
type Transcriber interface {
	VideoToTranscript(ctx context.Context, videoPath string) (*media.Transcript, error)
}

// ConfidenceAnalyzer scores on-camera presence; *confidence.Analyzer satisfies it.
type ConfidenceAnalyzer interface {
	Analyze(ctx context.Context, videoPath string, duration float64) evaluation.PillarResult
}

// Components are the collaborators of a Service. Index and Observability may be nil.
type Components struct {
	Repo          Repository
	Index         ResultIndexer
	Files         Fetcher
	Transcriber   Transcriber
	Confidence    ConfidenceAnalyzer
	Communication *communication.Analyzer
	Knowledge     *knowledge.Analyzer
	Summarizer    *aggregate.Summarizer
	Observability *observability.Observability
}

type Service struct {
	Components
	weights         aggregate.Weights
	meaningfulChars int
	logger          logger.Logger
	now             func() time.Time
}

func NewService(c Components, weights aggregate.Weights, meaningfulChars int, log logger.Logger) *Service {
	if meaningfulChars <= 0 {
		meaningfulChars = DefaultMeaningfulSpeechChars
	}
	return &Service{
		Components:      c,
		weights:         weights,
		meaningfulChars: meaningfulChars,
		logger:          log.WithFields(map[string]interface{}{"component": "pipeline"}),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Evaluation is the outcome of EvaluateInterview.
type Evaluation struct {
	InterviewID   int64                   `json:"interviewId"`
	ApplicationID int64                   `json:"applicationId"`
	JobID         int64                   `json:"jobId"`
	ResultID      int64                   `json:"resultId"`
	Resume        evaluation.PillarResult `json:"resume"`
	Confidence    evaluation.PillarResult `json:"confidence"`
	Communication evaluation.PillarResult `json:"communication"`
	Knowledge     evaluation.PillarResult `json:"knowledge"`
	OverallScore  float64                 `json:"overallScore"`
	Percentile    float64                 `json:"percentile"`
	Summary       aggregate.Summary       `json:"summary"`
}

// Scores returns the four pillar scores.
func (e *Evaluation) Scores() aggregate.Scores {
	return aggregate.Scores{
		Resume:        e.Resume.Score,
		Confidence:    e.Confidence.Score,
		Communication: e.Communication.Score,
		Knowledge:     e.Knowledge.Score,
	}
}

// EvaluateInterview scores one interview end to end. Pillar failures are
// recorded on the pillar; only lookup and persistence failures are returned.
func (s *Service) EvaluateInterview(ctx context.Context, interviewID int64) (*Evaluation, error) {
	start := time.Now()
	ctx, span := s.Observability.StartSpan(ctx, "evaluate-interview",
		attribute.Int64("interview.id", interviewID))
	defer span.End()

	iv, app, job, questions, err := s.load(ctx, interviewID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ev := &Evaluation{
		InterviewID:   iv.ID,
		ApplicationID: app.ID,
		JobID:         job.ID,
		Resume:        resumePillar(app),
	}
	s.observe(ev.Resume)

	s.scoreRecording(ctx, iv, questions, ev)

	ev.OverallScore = aggregate.Overall(ev.Scores(), s.weights)

	contact, err := s.Repo.GetCandidateContact(ctx, app.ID)
	if err != nil {
		s.logger.Warn("candidate contact unavailable", map[string]interface{}{"applicationId": app.ID, "error": err.Error()})
		contact = &models.CandidateContact{}
	}
	ev.Summary = s.Summarizer.Summarize(ctx, aggregate.SummaryInput{
		CandidateName: contact.FullName,
		JobTitle:      job.Title,
		Scores:        ev.Scores(),
		Overall:       ev.OverallScore,
	})

	if err := s.persist(ctx, ev, iv, app, questions); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	percentiles, err := s.RecalculatePercentiles(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	ev.Percentile = percentiles[ev.ResultID]

	s.index(ctx, ev, job, contact.FullName, s.currentDecision(ctx, iv.ID))
	s.logActivity(ctx, models.ActivityLog{
		Action:     "Interview Analyzed",
		EntityType: "Interview",
		EntityID:   iv.ID,
		Details:    fmt.Sprintf("Overall score %.2f, percentile %.1f", ev.OverallScore, ev.Percentile),
	})
	s.Observability.RecordEvaluation(ctx, ev.Summary.Recommendation, ev.OverallScore)

	s.logger.Info("interview evaluated", map[string]interface{}{
		"interviewId":   iv.ID,
		"resultId":      ev.ResultID,
		"resume":        ev.Resume.Score,
		"confidence":    ev.Confidence.Score,
		"communication": ev.Communication.Score,
		"knowledge":     ev.Knowledge.Score,
		"overall":       ev.OverallScore,
		"percentile":    ev.Percentile,
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return ev, nil
}

func (s *Service) load(ctx context.Context, interviewID int64) (*models.Interview, *models.Application, *models.Job, []models.InterviewQuestion, error) {
	iv, err := s.Repo.GetInterview(ctx, interviewID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil, nil, nil, errors.NewInterviewNotFoundError(interviewID)
		}
		return nil, nil, nil, nil, errors.NewQueryExecutionFailedError("get_interview", err)
	}
	app, err := s.Repo.GetApplication(ctx, iv.ApplicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil, nil, nil, errors.NewApplicationNotFoundError(iv.ApplicationID)
		}
		return nil, nil, nil, nil, errors.NewQueryExecutionFailedError("get_application", err)
	}
	job, err := s.Repo.GetJob(ctx, app.JobID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil, nil, nil, errors.NewJobNotFoundError(app.JobID)
		}
		return nil, nil, nil, nil, errors.NewQueryExecutionFailedError("get_job", err)
	}
	questions, err := s.Repo.ListQuestions(ctx, interviewID)
	if err != nil {
		return nil, nil, nil, nil, errors.NewQueryExecutionFailedError("list_questions", err)
	}
	return iv, app, job, questions, nil
}

// resumePillar reuses the score computed when the application was screened.
// An application that was never screened, or whose screening stored an
// error, yields a failed pillar.
func resumePillar(app *models.Application) evaluation.PillarResult {
	var analysis map[string]interface{}
	if len(app.ResumeAnalysis) > 0 {
		_ = json.Unmarshal(app.ResumeAnalysis, &analysis)
	}
	if len(analysis) == 0 && app.AIResumeScore == 0 {
		return evaluation.Failed(evaluation.PillarResume, "resume not analyzed")
	}
	if msg, _ := analysis["error"].(string); msg != "" {
		res := evaluation.Failed(evaluation.PillarResume, "%s", msg)
		res.Details = analysis
		return res
	}
	if analysis == nil {
		analysis = map[string]interface{}{}
	}
	return evaluation.Succeeded(evaluation.PillarResume, app.AIResumeScore, analysis)
}

// scoreRecording runs the three video-based pillars into ev.
func (s *Service) scoreRecording(ctx context.Context, iv *models.Interview, questions []models.InterviewQuestion, ev *Evaluation) {
	if strings.TrimSpace(iv.VideoPath) == "" {
		ev.Confidence = evaluation.Failed(evaluation.PillarConfidence, errNoVideo)
		ev.Communication = evaluation.Failed(evaluation.PillarCommunication, errNoVideo)
		ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, errNoVideo)
		s.observe(ev.Confidence, ev.Communication, ev.Knowledge)
		return
	}

	video, err := s.Files.Fetch(ctx, iv.VideoPath)
	if err != nil {
		msg := fmt.Sprintf("video unavailable: %v", err)
		ev.Confidence = evaluation.Failed(evaluation.PillarConfidence, "%s", msg)
		ev.Communication = evaluation.Failed(evaluation.PillarCommunication, "%s", msg)
		ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, "%s", msg)
		s.observe(ev.Confidence, ev.Communication, ev.Knowledge)
		return
	}
	defer video.Release()

	var transcript string
	var duration float64
	var transcriptErr error
	s.step(ctx, "transcribe", func(ctx context.Context) {
		t, err := s.Transcriber.VideoToTranscript(ctx, video.Path)
		if err != nil {
			transcriptErr = err
			return
		}
		transcript, duration = t.Text, t.Duration
	})

	s.step(ctx, evaluation.PillarConfidence, func(ctx context.Context) {
		ev.Confidence = s.Confidence.Analyze(ctx, video.Path, duration)
	})

	switch {
	case transcriptErr != nil:
		msg := fmt.Sprintf("transcription failed: %v", transcriptErr)
		ev.Communication = evaluation.Failed(evaluation.PillarCommunication, "%s", msg)
		ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, "%s", msg)
	case len(strings.TrimSpace(transcript)) <= communication.MinTranscriptChars:
		ev.Communication = evaluation.Failed(evaluation.PillarCommunication, "transcript is empty or too short")
		ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, "transcript is empty or too short")
	default:
		s.step(ctx, evaluation.PillarCommunication, func(ctx context.Context) {
			ev.Communication = s.Communication.Analyze(transcript, duration)
		})
		if len(questions) == 0 {
			ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, "no questions to evaluate against")
			break
		}
		s.step(ctx, evaluation.PillarKnowledge, func(ctx context.Context) {
			ev.Knowledge = s.Knowledge.Analyze(ctx, questions, transcript)
		})
		applyAnswers(questions, ev.Knowledge)
	}

	if n := len(strings.TrimSpace(transcript)); n < s.meaningfulChars {
		msg := fmt.Sprintf("no meaningful speech detected (%d characters)", n)
		if ev.Communication.OK() {
			ev.Communication = evaluation.Failed(evaluation.PillarCommunication, "%s", msg)
		}
		if ev.Knowledge.OK() {
			ev.Knowledge = evaluation.Failed(evaluation.PillarKnowledge, "%s", msg)
		}
	}

	if ev.Communication.Details != nil {
		ev.Communication.Details["transcript"] = transcript
	}
	s.observe(ev.Confidence, ev.Communication, ev.Knowledge)
}

// step wraps one stage of the evaluation in a tracing span.
func (s *Service) step(ctx context.Context, name string, fn func(ctx context.Context)) {
	start := time.Now()
	ctx, span := s.Observability.StartSpan(ctx, "evaluate."+name)
	defer span.End()
	fn(ctx)
	s.Observability.RecordStep(ctx, name, time.Since(start))
}

func (s *Service) observe(results ...evaluation.PillarResult) {
	for _, r := range results {
		metrics.PillarScore.WithLabelValues(r.Pillar).Observe(r.Score)
		if !r.OK() {
			metrics.PillarFailures.WithLabelValues(r.Pillar).Inc()
			s.logger.Warn("pillar failed", map[string]interface{}{"pillar": r.Pillar, "error": r.Error})
		}
	}
}

// applyAnswers records each question's knowledge score. The interview-long
// transcript is not copied onto the questions: a stored answer transcript is
// scored as the candidate's own answer on the next run.
func applyAnswers(questions []models.InterviewQuestion, res evaluation.PillarResult) {
	scores, _ := res.Details["individual_scores"].([]knowledge.QuestionScore)
	for i := range questions {
		if i >= len(scores) {
			break
		}
		score := scores[i].Score
		questions[i].AnswerScore = &score
	}
}

func (s *Service) persist(ctx context.Context, ev *Evaluation, iv *models.Interview, app *models.Application, questions []models.InterviewQuestion) error {
	if ev.Knowledge.OK() && len(questions) > 0 {
		if err := s.Repo.SaveAnswerScores(ctx, questions); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}
	}

	summary, err := json.Marshal(ev.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	res := &models.CandidateResult{
		InterviewID:         iv.ID,
		ResumeScore:         ev.Resume.Score,
		ConfidenceScore:     ev.Confidence.Score,
		CommunicationScore:  ev.Communication.Score,
		KnowledgeScore:      ev.Knowledge.Score,
		ResumeDetail:        ev.Resume.DetailJSON(),
		ConfidenceDetail:    ev.Confidence.DetailJSON(),
		CommunicationDetail: ev.Communication.DetailJSON(),
		KnowledgeDetail:     ev.Knowledge.DetailJSON(),
		Summary:             summary,
		OverallScore:        ev.OverallScore,
		Percentile:          100,
	}
	if ev.ResultID, err = s.Repo.SaveResult(ctx, res); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	if err := s.Repo.MarkInterviewAnalyzed(ctx, iv.ID); err != nil {
		return errors.NewQueryExecutionFailedError("mark_interview_analyzed", err)
	}
	if err := s.Repo.UpdateApplicationStatus(ctx, app.ID, models.StatusInterview); err != nil {
		return errors.NewQueryExecutionFailedError("update_application_status", err)
	}
	return nil
}

// RecalculatePercentiles ranks every analyzed result of a job and stores the
// percentiles. It returns them keyed by result id.
func (s *Service) RecalculatePercentiles(ctx context.Context, jobID int64) (map[int64]float64, error) {
	scores, err := s.Repo.JobResultScores(ctx, jobID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("job_result_scores", err)
	}

	all := make([]float64, len(scores))
	for i, sc := range scores {
		all[i] = sc.OverallScore
	}
	out := make(map[int64]float64, len(scores))
	for _, sc := range scores {
		out[sc.ResultID] = aggregate.Percentile(sc.OverallScore, all)
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := s.Repo.UpdatePercentiles(ctx, out); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update_percentiles", err)
	}

	s.logger.Debug("percentiles recalculated", map[string]interface{}{"jobId": jobID, "results": len(out)})
	return out, nil
}

func (s *Service) index(ctx context.Context, ev *Evaluation, job *models.Job, candidate, decision string) {
	if s.Index == nil {
		return
	}
	doc := models.RankedCandidate{
		ResultID:           ev.ResultID,
		InterviewID:        ev.InterviewID,
		ApplicationID:      ev.ApplicationID,
		JobID:              job.ID,
		JobTitle:           job.Title,
		CandidateName:      candidate,
		ResumeScore:        ev.Resume.Score,
		ConfidenceScore:    ev.Confidence.Score,
		CommunicationScore: ev.Communication.Score,
		KnowledgeScore:     ev.Knowledge.Score,
		OverallScore:       ev.OverallScore,
		Percentile:         ev.Percentile,
		HRDecision:         decision,
	}
	if err := s.Index.Index(ctx, doc); err != nil {
		s.logger.Warn("search indexing failed", map[string]interface{}{"resultId": ev.ResultID, "error": err.Error()})
	}
}

// currentDecision reads back the HR decision a re-analysis preserved.
func (s *Service) currentDecision(ctx context.Context, interviewID int64) string {
	res, err := s.Repo.GetResultByInterview(ctx, interviewID)
	if err != nil || res.HRDecision == "" {
		return models.DecisionPending
	}
	return res.HRDecision
}

func (s *Service) logActivity(ctx context.Context, entry models.ActivityLog) {
	entry.CreatedAt = s.now()
	if err := s.Repo.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity log failed", map[string]interface{}{"action": entry.Action, "error": err.Error()})
	}
}
