// internal/workers/evaluation/send-notification/models.go
package sendnotification

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Input struct {
	ApplicationID int64                  `json:"applicationId"`
	Template      string                 `json:"template"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Template       string `json:"template"`
	Status         string `json:"status"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
	SentAt         string `json:"sentAt"`
}
