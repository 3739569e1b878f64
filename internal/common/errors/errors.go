// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInterviewNotFound   ErrorCode = "INTERVIEW_NOT_FOUND"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeJobNotFound         ErrorCode = "JOB_NOT_FOUND"
	ErrCodeResultNotFound      ErrorCode = "RESULT_NOT_FOUND"
	ErrCodeInvalidHRDecision   ErrorCode = "INVALID_HR_DECISION"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"

	ErrCodeResumeExtractionFailed ErrorCode = "RESUME_EXTRACTION_FAILED"
	ErrCodeMediaProcessingFailed  ErrorCode = "MEDIA_PROCESSING_FAILED"
	ErrCodeStorageFetchFailed     ErrorCode = "STORAGE_FETCH_FAILED"

	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchIndexFailed ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeReportExportFailed     ErrorCode = "REPORT_EXPORT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeTemplateNotFound       ErrorCode = "TEMPLATE_NOT_FOUND"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInterviewNotFoundError(interviewID int64) *StandardError {
	return newError(ErrCodeInterviewNotFound, "Interview not found", fmt.Sprintf("interviewId: %d", interviewID), false)
}

func NewApplicationNotFoundError(applicationID int64) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", fmt.Sprintf("applicationId: %d", applicationID), false)
}

func NewJobNotFoundError(jobID int64) *StandardError {
	return newError(ErrCodeJobNotFound, "Job posting not found", fmt.Sprintf("jobId: %d", jobID), false)
}

func NewResultNotFoundError(details string) *StandardError {
	return newError(ErrCodeResultNotFound, "Candidate result not found", details, false)
}

func NewInvalidHRDecisionError(decision string) *StandardError {
	return newError(ErrCodeInvalidHRDecision, "Invalid HR decision", fmt.Sprintf("decision: %q", decision), false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job variables failed validation", details, false)
}

// NewResumeExtractionFailedError is not retryable: the same file fails the same way.
func NewResumeExtractionFailedError(path string, err error) *StandardError {
	return newError(ErrCodeResumeExtractionFailed, "Resume text extraction failed",
		fmt.Sprintf("path: %s, error: %s", path, err.Error()), false)
}

func NewMediaProcessingFailedError(stage string, err error) *StandardError {
	return newError(ErrCodeMediaProcessingFailed, "Media processing failed",
		fmt.Sprintf("stage: %s, error: %s", stage, err.Error()), true)
}

func NewStorageFetchFailedError(location string, err error) *StandardError {
	return newError(ErrCodeStorageFetchFailed, "Object storage fetch failed",
		fmt.Sprintf("location: %s, error: %s", location, err.Error()), true)
}

func NewLLMRequestFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "LLM request failed",
		fmt.Sprintf("provider: %s, error: %s", provider, err.Error()), true)
}

func NewLLMTimeoutError(provider string) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timeout", fmt.Sprintf("provider: %s", provider), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError reports QUERY_TIMEOUT instead when err is a
// context deadline.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewQueryTimeoutError(queryName)
	}
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", queryName, err.Error()), true)
}

func NewQueryTimeoutError(queryName string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", queryName), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewSearchIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Elasticsearch indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewReportExportFailedError(err error) *StandardError {
	return newError(ErrCodeReportExportFailed, "Ranking report export failed", err.Error(), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewTemplateNotFoundError(templateID string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "Notification template not found", fmt.Sprintf("templateId: %s", templateID), false)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events in the candidate-evaluation process. Codes map to themselves unless
// the process groups them.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInterviewNotFound:        "INTERVIEW_NOT_FOUND",
	ErrCodeApplicationNotFound:      "APPLICATION_NOT_FOUND",
	ErrCodeJobNotFound:              "APPLICATION_NOT_FOUND",
	ErrCodeResultNotFound:           "RESULT_NOT_FOUND",
	ErrCodeInvalidHRDecision:        "INVALID_HR_DECISION",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeResumeExtractionFailed:   "RESUME_EXTRACTION_FAILED",
	ErrCodeMediaProcessingFailed:    "MEDIA_PROCESSING_FAILED",
	ErrCodeStorageFetchFailed:       "MEDIA_PROCESSING_FAILED",
	ErrCodeLLMRequestFailed:         "LLM_REQUEST_FAILED",
	ErrCodeLLMTimeout:               "LLM_REQUEST_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeSearchIndexFailed:        "SEARCH_INDEX_FAILED",
	ErrCodeReportExportFailed:       "REPORT_EXPORT_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
}

// GetRetryCount returns the retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeStorageFetchFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeReportExportFailed,
		ErrCodeLLMRequestFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeMediaProcessingFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err wraps a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "MEDIA") || strings.Contains(codeStr, "RESUME") || strings.Contains(codeStr, "STORAGE"):
		return "MEDIA"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "TEMPLATE"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
