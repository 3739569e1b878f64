// internal/models/notification.go
package models

// Notification templates.
const (
	TemplateInterviewInvite    = "interview_invite"
	TemplateEvaluationComplete = "evaluation_complete"
	TemplateDecisionSelected   = "decision_selected"
	TemplateDecisionRejected   = "decision_rejected"
)

type NotificationTemplate struct {
	ID      string `json:"id" yaml:"id" mapstructure:"id"`
	Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`
	Body    string `json:"body" yaml:"body" mapstructure:"body"`
	// SMS is optional; without it only e-mail is sent.
	SMS string `json:"sms,omitempty" yaml:"sms" mapstructure:"sms"`
}
