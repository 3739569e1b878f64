// internal/workers/evaluation/export-ranking-report/handler.go
package exportrankingreport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/report"
	"candidate-evaluator/internal/store"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "export-ranking-report"
)

// Exporter is satisfied by *report.Exporter.
type Exporter interface {
	Export(ctx context.Context, jobID int64) (*report.Report, error)
}

type Handler struct {
	config       *Config
	exporter     Exporter
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, exporter Exporter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		exporter:     exporter,
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
	if input.JobID <= 0 {
		return nil, errors.NewInvalidInputError("jobId is required")
	}

	rep, err := h.exporter.Export(ctx, input.JobID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewJobNotFoundError(input.JobID)
		}
		return nil, errors.NewReportExportFailedError(err)
	}

	return &Output{
		JobID:          rep.JobID,
		ReportFile:     rep.FileName,
		ReportLocation: rep.Location,
		CandidateCount: rep.Candidates,
	}, nil
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
