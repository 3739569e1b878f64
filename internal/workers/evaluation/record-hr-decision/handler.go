// internal/workers/evaluation/record-hr-decision/handler.go
package recordhrdecision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-hr-decision"
)

// DecisionRecorder is satisfied by *pipeline.Service.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, req pipeline.DecisionRequest) (*pipeline.DecisionOutcome, error)
}

type Handler struct {
	config       *Config
	recorder     DecisionRecorder
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, recorder DecisionRecorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		recorder:     recorder,
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
	if input.InterviewID <= 0 {
		return nil, errors.NewInvalidInputError("interviewId is required")
	}
	decidedBy := strings.TrimSpace(input.DecidedBy)
	if decidedBy == "" {
		decidedBy = "system"
	}

	outcome, err := h.recorder.RecordDecision(ctx, pipeline.DecisionRequest{
		InterviewID: input.InterviewID,
		Decision:    input.Decision,
		Notes:       input.Notes,
		DecidedBy:   decidedBy,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		InterviewID:          outcome.InterviewID,
		ApplicationID:        outcome.ApplicationID,
		JobID:                outcome.JobID,
		HRDecision:           outcome.Decision,
		ApplicationStatus:    outcome.ApplicationStatus,
		DecidedAt:            outcome.DecidedAt.UTC().Format(time.RFC3339),
		NotificationTemplate: templateForDecision(outcome.Decision),
	}, nil
}

func templateForDecision(decision string) string {
	switch decision {
	case models.DecisionSelected:
		return models.TemplateDecisionSelected
	case models.DecisionRejected:
		return models.TemplateDecisionRejected
	}
	return ""
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
