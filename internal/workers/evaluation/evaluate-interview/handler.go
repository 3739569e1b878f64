// internal/workers/evaluation/evaluate-interview/handler.go
package evaluateinterview

import (
	"context"
	"encoding/json"
	"fmt"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/evaluation"
	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-interview"
)

// Evaluator is satisfied by *pipeline.Service.
type Evaluator interface {
	EvaluateInterview(ctx context.Context, interviewID int64) (*pipeline.Evaluation, error)
}

type Handler struct {
	config       *Config
	evaluator    Evaluator
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, evaluator Evaluator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		evaluator:    evaluator,
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

	ev, err := h.evaluator.EvaluateInterview(ctx, input.InterviewID)
	if err != nil {
		return nil, err
	}

	out := &Output{
		InterviewID:        ev.InterviewID,
		ApplicationID:      ev.ApplicationID,
		JobID:              ev.JobID,
		ResultID:           ev.ResultID,
		ResumeScore:        ev.Resume.Score,
		ConfidenceScore:    ev.Confidence.Score,
		CommunicationScore: ev.Communication.Score,
		KnowledgeScore:     ev.Knowledge.Score,
		OverallScore:       ev.OverallScore,
		Percentile:         ev.Percentile,
		Recommendation:     ev.Summary.Recommendation,
	}
	for _, p := range []evaluation.PillarResult{ev.Resume, ev.Confidence, ev.Communication, ev.Knowledge} {
		if p.OK() {
			continue
		}
		if out.PillarErrors == nil {
			out.PillarErrors = map[string]string{}
		}
		out.PillarErrors[p.Pillar] = p.Error
	}
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
