// Package intake turns queued evaluation requests into process instances.
package intake

import (
	"context"
	"fmt"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/queue"
)

// ProcessStarter is satisfied by *camunda.Client.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// Variables are the process variables a request starts with. Names match the
// worker inputs so tasks can read them without mappings.
type Variables struct {
	Kind          string `json:"kind"`
	ApplicationID int64  `json:"applicationId,omitempty"`
	InterviewID   int64  `json:"interviewId,omitempty"`
	JobID         int64  `json:"jobId,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Notes         string `json:"notes,omitempty"`
	DecidedBy     string `json:"decidedBy,omitempty"`
}

func VariablesFor(req queue.EvaluationRequest) Variables {
	return Variables{
		Kind:          req.Kind,
		ApplicationID: req.ApplicationID,
		InterviewID:   req.InterviewID,
		JobID:         req.JobID,
		Decision:      req.Decision,
		Notes:         req.Notes,
		DecidedBy:     req.DecidedBy,
	}
}

type Intake struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func New(starter ProcessStarter, processID string, log logger.Logger) *Intake {
	return &Intake{
		starter:   starter,
		processID: processID,
		logger:    log.WithFields(map[string]interface{}{"component": "intake", "processId": processID}),
	}
}

// Handle starts one process instance per request. It has the queue.HandlerFunc
// signature; an error requeues the message.
func (i *Intake) Handle(ctx context.Context, req queue.EvaluationRequest) error {
	key, err := i.starter.StartProcess(ctx, i.processID, VariablesFor(req))
	if err != nil {
		i.logger.Error("start process failed", map[string]interface{}{
			"kind":          req.Kind,
			"applicationId": req.ApplicationID,
			"interviewId":   req.InterviewID,
			"error":         err.Error(),
		})
		return fmt.Errorf("start %s for %s: %w", i.processID, req.Kind, err)
	}

	i.logger.Info("process started", map[string]interface{}{
		"kind":               req.Kind,
		"applicationId":      req.ApplicationID,
		"interviewId":        req.InterviewID,
		"processInstanceKey": key,
	})
	return nil
}
