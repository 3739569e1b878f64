// internal/workers/evaluation/generate-questions/models.go
package generatequestions

type Input struct {
	ApplicationID int64 `json:"applicationId"`
	QuestionCount int   `json:"questionCount,omitempty"`
}

type Output struct {
	ApplicationID int64  `json:"applicationId"`
	InterviewID   int64  `json:"interviewId"`
	InterviewCode string `json:"interviewCode"`
	QuestionCount int    `json:"questionCount"`
	AIGenerated   bool   `json:"aiGenerated"`
	ExpiresAt     string `json:"expiresAt,omitempty"` // RFC 3339
	Existing      bool   `json:"existing"`
}
