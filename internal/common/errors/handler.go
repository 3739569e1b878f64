// internal/common/errors/handler.go
package errors

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the slice of logger.Logger the handler needs. Declared here so
// this package does not import the logger.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports a failed job to the broker. Codes with a retry budget
// are failed so Zeebe retries them; everything else, and any job whose
// retries are exhausted, is thrown as a BPMN error for the process to catch.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	fields := map[string]interface{}{
		"jobKey":             job.Key,
		"jobType":            job.Type,
		"processInstanceKey": job.ProcessInstanceKey,
		"errorCode":          string(stdErr.Code),
		"bpmnErrorCode":      bpmnErr.Code,
		"category":           GetErrorCategory(stdErr.Code),
		"details":            stdErr.Details,
	}

	var sendErr error
	if bpmnErr.Retries > 0 && job.Retries > 0 {
		retries := remainingRetries(job, bpmnErr.Retries)
		fields["retriesLeft"] = retries
		h.logger.Warn("job failed, broker will retry", fields)
		sendErr = h.fail(ctx, client, job.Key, retries, bpmnErr)
	} else {
		h.logger.Error("job failed, throwing bpmn error", fields)
		sendErr = h.throw(ctx, client, job.Key, bpmnErr)
	}

	if sendErr != nil {
		h.logger.Error("could not report job failure", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

// Normalize returns the StandardError inside err, or wraps err as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// remainingRetries caps the broker's count at budget and never raises it.
func remainingRetries(job entities.Job, budget int) int32 {
	if int(job.Retries) < budget {
		return job.Retries - 1
	}
	return int32(budget)
}

func (h *ErrorHandler) fail(ctx context.Context, client worker.JobClient, key int64, retries int32, bpmnErr *BPMNError) error {
	cmd := client.NewFailJobCommand().JobKey(key).Retries(retries).ErrorMessage(bpmnErr.Message)
	if withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables()); err == nil {
		_, err = withVars.Send(ctx)
		return err
	}
	_, err := cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, key int64, bpmnErr *BPMNError) error {
	cmd := client.NewThrowErrorCommand().JobKey(key).ErrorCode(bpmnErr.Code).ErrorMessage(bpmnErr.Message)
	if withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables()); err == nil {
		_, err = withVars.Send(ctx)
		return err
	}
	_, err := cmd.Send(ctx)
	return err
}
