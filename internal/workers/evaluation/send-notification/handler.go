// internal/workers/evaluation/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/store"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

type Repository interface {
	GetCandidateContact(ctx context.Context, appID int64) (*models.CandidateContact, error)
	LogActivity(ctx context.Context, entry models.ActivityLog) error
}

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	repo         Repository
	email        EmailSender
	sms          SMSSender
	templates    map[string]models.NotificationTemplate
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

// NewHandler returns a Handler. email and sms may be nil, which disables
// the channel regardless of config.
func NewHandler(config *Config, repo Repository, email EmailSender, sms SMSSender, templates map[string]models.NotificationTemplate, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Handler{
		config:       config,
		repo:         repo,
		email:        email,
		sms:          sms,
		templates:    templates,
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
		// On the last attempt a failed send completes with status "failed" so
		// the hiring process is not blocked by a notification.
		if output == nil || job.Retries > 1 {
			h.fail(client, job, err)
			return
		}
		h.logger.Warn("notification failed on last attempt", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"error":         err.Error(),
		})
	}

	h.completeJob(client, job, output)
}

// execute returns a non-nil output alongside a NOTIFICATION_SEND_FAILED error.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID <= 0 {
		return nil, errors.NewInvalidInputError("applicationId is required")
	}
	tmpl, ok := h.templates[input.Template]
	if !ok {
		return nil, errors.NewTemplateNotFoundError(input.Template)
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		Template:       tmpl.ID,
		Status:         StatusDisabled,
		SentAt:         h.now().Format(time.RFC3339),
	}

	contact, err := h.repo.GetCandidateContact(ctx, input.ApplicationID)
	if err != nil {
		if !stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewQueryExecutionFailedError("get_candidate_contact", err)
		}
		h.logger.Warn("recipient not found", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return out, nil
	}

	data := map[string]interface{}{
		"applicationId": input.ApplicationID,
		"candidateName": contact.FullName,
		"email":         contact.Email,
	}
	for k, v := range input.Data {
		data[k] = v
	}

	if h.config.EmailEnabled && h.email != nil && contact.Email != "" {
		id, err := h.email.SendEmail(ctx, contact.Email, renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data))
		if err != nil {
			out.Status = StatusFailed
			return out, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailMessageID = id
		out.Status = StatusSent
	}

	if tmpl.SMS != "" && h.config.SMSEnabled && h.sms != nil && contact.Phone != "" {
		id, err := h.sms.SendSMS(ctx, contact.Phone, renderTemplate(tmpl.SMS, data))
		switch {
		case err != nil && out.Status == StatusSent:
			// retrying would send the e-mail twice
			h.logger.Warn("sms send failed after e-mail", map[string]interface{}{
				"applicationId": input.ApplicationID,
				"error":         err.Error(),
			})
		case err != nil:
			out.Status = StatusFailed
			return out, errors.NewNotificationSendFailedError("sms", err)
		}
		out.SMSMessageID = id
		out.Status = StatusSent
	}

	if out.Status == StatusSent {
		if err := h.repo.LogActivity(ctx, models.ActivityLog{
			Action:     "Notification Sent",
			EntityType: "Application",
			EntityID:   input.ApplicationID,
			Details:    tmpl.ID,
			CreatedAt:  h.now(),
		}); err != nil {
			h.logger.Warn("activity log failed", map[string]interface{}{"error": err.Error()})
		}
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"template":       tmpl.ID,
		"status":         out.Status,
		"notificationId": out.NotificationID,
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
