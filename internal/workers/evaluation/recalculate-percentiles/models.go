// internal/workers/evaluation/recalculate-percentiles/models.go
package recalculatepercentiles

type Input struct {
	JobID int64 `json:"jobId"`
}

type Output struct {
	JobID       int64 `json:"jobId"`
	ResultCount int   `json:"resultCount"`
	// Percentiles is keyed by result id; zeebe variables need string keys.
	Percentiles map[string]float64 `json:"percentiles"`
}
