// internal/workers/evaluation/record-hr-decision/models.go
package recordhrdecision

type Input struct {
	InterviewID int64  `json:"interviewId"`
	Decision    string `json:"decision"`
	Notes       string `json:"notes"`
	DecidedBy   string `json:"decidedBy"`
}

type Output struct {
	InterviewID       int64  `json:"interviewId"`
	ApplicationID     int64  `json:"applicationId"`
	JobID             int64  `json:"jobId"`
	HRDecision        string `json:"hrDecision"`
	ApplicationStatus string `json:"applicationStatus,omitempty"`
	DecidedAt         string `json:"decidedAt"`
	// NotificationTemplate is empty when the decision does not notify the candidate.
	NotificationTemplate string `json:"notificationTemplate"`
}
