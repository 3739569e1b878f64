// internal/workers/evaluation/generate-questions/handler.go
package generatequestions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/evaluation/questions"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/store"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-questions"
)

type Repository interface {
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	GetInterviewByApplication(ctx context.Context, appID int64) (*models.Interview, error)
	ListQuestions(ctx context.Context, interviewID int64) ([]models.InterviewQuestion, error)
	CreateInterview(ctx context.Context, iv *models.Interview, questions []models.InterviewQuestion) (int64, error)
	UpdateApplicationStatus(ctx context.Context, appID int64, status string) error
	LogActivity(ctx context.Context, entry models.ActivityLog) error
}

type ResumeSource interface {
	Read(ctx context.Context, location string) (string, error)
}

// QuestionGenerator is satisfied by *questions.Generator.
type QuestionGenerator interface {
	Generate(ctx context.Context, resumeText string, job *models.Job, count int) ([]questions.Question, bool)
}

type Handler struct {
	config       *Config
	repo         Repository
	resumes      ResumeSource
	generator    QuestionGenerator
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, repo Repository, resumes ResumeSource, generator QuestionGenerator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		resumes:      resumes,
		generator:    generator,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		now:          func() time.Time { return time.Now().UTC() },
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

	// A redelivered job must not invite the candidate twice.
	existing, err := h.repo.GetInterviewByApplication(ctx, app.ID)
	switch {
	case err == nil:
		return h.existingOutput(ctx, existing)
	case !stderrors.Is(err, store.ErrNotFound):
		return nil, errors.NewQueryExecutionFailedError("get_interview", err)
	}

	job, err := h.repo.GetJob(ctx, app.JobID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewJobNotFoundError(app.JobID)
		}
		return nil, errors.NewQueryExecutionFailedError("get_job", err)
	}

	var resumeText string
	if app.ResumePath != "" {
		resumeText, err = h.resumes.Read(ctx, app.ResumePath)
		if err != nil {
			h.logger.Warn("resume unavailable, generating without it", map[string]interface{}{
				"applicationId": app.ID,
				"error":         err.Error(),
			})
			resumeText = ""
		}
	}

	count := input.QuestionCount
	if count <= 0 {
		count = h.config.QuestionCount
	}
	qs, aiGenerated := h.generator.Generate(ctx, resumeText, job, count)

	now := h.now()
	code, err := models.NewInterviewCode(now)
	if err != nil {
		return nil, fmt.Errorf("interview code: %w", err)
	}
	expires := now.Add(h.config.Validity)
	iv := &models.Interview{
		ApplicationID: app.ID,
		Code:          code,
		CreatedAt:     now,
		ExpiresAt:     &expires,
	}

	id, err := h.repo.CreateInterview(ctx, iv, questions.ToModels(0, qs, h.config.TimeLimitSeconds))
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	if err := h.repo.UpdateApplicationStatus(ctx, app.ID, models.StatusInterview); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update_application_status", err)
	}
	if err := h.repo.LogActivity(ctx, models.ActivityLog{
		Action:     "Interview Scheduled",
		EntityType: "Interview",
		EntityID:   id,
		Details:    fmt.Sprintf("%s with %d questions", code, len(qs)),
		CreatedAt:  now,
	}); err != nil {
		h.logger.Warn("activity log failed", map[string]interface{}{"error": err.Error()})
	}

	h.logger.Info("interview created", map[string]interface{}{
		"applicationId": app.ID,
		"interviewId":   id,
		"questions":     len(qs),
		"aiGenerated":   aiGenerated,
	})

	return &Output{
		ApplicationID: app.ID,
		InterviewID:   id,
		InterviewCode: code,
		QuestionCount: len(qs),
		AIGenerated:   aiGenerated,
		ExpiresAt:     expires.Format(time.RFC3339),
	}, nil
}

func (h *Handler) existingOutput(ctx context.Context, iv *models.Interview) (*Output, error) {
	qs, err := h.repo.ListQuestions(ctx, iv.ID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_questions", err)
	}
	out := &Output{
		ApplicationID: iv.ApplicationID,
		InterviewID:   iv.ID,
		InterviewCode: iv.Code,
		QuestionCount: len(qs),
		Existing:      true,
	}
	if iv.ExpiresAt != nil {
		out.ExpiresAt = iv.ExpiresAt.UTC().Format(time.RFC3339)
	}
	h.logger.Info("interview already exists", map[string]interface{}{
		"applicationId": iv.ApplicationID,
		"interviewId":   iv.ID,
	})
	return out, nil
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
