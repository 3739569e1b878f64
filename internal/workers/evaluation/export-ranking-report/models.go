// internal/workers/evaluation/export-ranking-report/models.go
package exportrankingreport

type Input struct {
	JobID int64 `json:"jobId"`
}

type Output struct {
	JobID          int64  `json:"jobId"`
	ReportFile     string `json:"reportFile"`
	ReportLocation string `json:"reportLocation"`
	CandidateCount int    `json:"candidateCount"`
}
