// internal/workers/evaluation/evaluate-interview/models.go
package evaluateinterview

type Input struct {
	InterviewID int64 `json:"interviewId"`
}

type Output struct {
	InterviewID        int64             `json:"interviewId"`
	ApplicationID      int64             `json:"applicationId"`
	JobID              int64             `json:"jobId"`
	ResultID           int64             `json:"resultId"`
	ResumeScore        float64           `json:"resumeScore"`
	ConfidenceScore    float64           `json:"confidenceScore"`
	CommunicationScore float64           `json:"communicationScore"`
	KnowledgeScore     float64           `json:"knowledgeScore"`
	OverallScore       float64           `json:"overallScore"`
	Percentile         float64           `json:"percentile"`
	Recommendation     string            `json:"recommendation"`
	PillarErrors       map[string]string `json:"pillarErrors,omitempty"`
}
