// internal/workers/evaluation/analyze-resume/handler.go
package analyzeresume

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/store"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "analyze-resume"
)

type Repository interface {
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpdateResumeScore(ctx context.Context, appID int64, score float64, analysis json.RawMessage) error
	UpdateApplicationStatus(ctx context.Context, appID int64, status string) error
	LogActivity(ctx context.Context, entry models.ActivityLog) error
}

// ResumeSource returns the text of a stored resume; *pipeline.ResumeReader satisfies it.
type ResumeSource interface {
	Read(ctx context.Context, location string) (string, error)
}

// Matcher scores a resume against a job; *resume.Matcher satisfies it.
type Matcher interface {
	Match(ctx context.Context, resumeText string, job *models.Job) evaluation.PillarResult
}

type Handler struct {
	config       *Config
	repo         Repository
	resumes      ResumeSource
	matcher      Matcher
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, repo Repository, resumes ResumeSource, matcher Matcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		resumes:      resumes,
		matcher:      matcher,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := registry.ValidateVariables(h.config.InputSchema, job.Variables); err != nil {
		h.fail(client, job, err)
		return
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID <= 0 {
		return nil, errors.NewInvalidInputError("applicationId is required")
	}

	app, err := h.repo.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
		}
		return nil, errors.NewQueryExecutionFailedError("get_application", err)
	}
	job, err := h.repo.GetJob(ctx, app.JobID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewJobNotFoundError(app.JobID)
		}
		return nil, errors.NewQueryExecutionFailedError("get_job", err)
	}

	// An unreadable document scores as a failed pillar; an unreachable one is retried.
	text, err := h.resumes.Read(ctx, app.ResumePath)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeResumeExtractionFailed) {
			return nil, err
		}
		h.logger.Warn("resume text extraction failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
		text = ""
	}

	result := h.matcher.Match(ctx, text, job)
	if err := h.repo.UpdateResumeScore(ctx, app.ID, result.Score, result.DetailJSON()); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	shortlisted := result.OK() && result.Score >= h.config.ShortlistThreshold
	if screenable(app.Status) {
		status := models.StatusScreening
		if shortlisted {
			status = models.StatusShortlisted
		}
		if err := h.repo.UpdateApplicationStatus(ctx, app.ID, status); err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := h.repo.LogActivity(ctx, models.ActivityLog{
		Action:     "Resume Screened",
		EntityType: "Application",
		EntityID:   app.ID,
		Details:    fmt.Sprintf("resume score %.2f (%s)", result.Score, result.Status),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		h.logger.Warn("activity log failed", map[string]interface{}{"error": err.Error()})
	}

	output := &Output{
		ApplicationID: app.ID,
		JobID:         job.ID,
		ResumeScore:   result.Score,
		ResumeStatus:  result.Status,
		MatchedSkills: stringList(result.Details["matched_skills"]),
		Shortlisted:   shortlisted,
		Error:         result.Error,
	}
	if ai, ok := result.Details["ai_powered"].(bool); ok {
		output.AIPowered = ai
	}

	h.logger.Info("resume analyzed", map[string]interface{}{
		"applicationId": app.ID,
		"jobId":         job.ID,
		"score":         result.Score,
		"status":        result.Status,
		"shortlisted":   output.Shortlisted,
	})
	return output, nil
}

// screenable reports whether screening may still move the application. Later
// stages are never rolled back by a re-run.
func screenable(status string) bool {
	switch status {
	case "", models.StatusApplied, models.StatusScreening, models.StatusShortlisted:
		return true
	}
	return false
}

func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

// Execute runs the task without a broker.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
