// internal/workers/evaluation/analyze-resume/models.go
package analyzeresume

type Input struct {
	ApplicationID int64 `json:"applicationId"`
}

type Output struct {
	ApplicationID int64    `json:"applicationId"`
	JobID         int64    `json:"jobId"`
	ResumeScore   float64  `json:"resumeScore"`
	ResumeStatus  string   `json:"resumeStatus"` // "success" or "error"
	AIPowered     bool     `json:"aiPowered"`
	MatchedSkills []string `json:"matchedSkills"`
	Shortlisted   bool     `json:"shortlisted"`
	Error         string   `json:"resumeError,omitempty"`
}
