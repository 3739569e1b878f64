// Package evaluation holds the types shared by the four pillar analyzers and
// the pipeline that runs them.
package evaluation

import (
	"encoding/json"
	"fmt"

	"candidate-evaluator/internal/textproc"
)

// Pillar names.
const (
	PillarResume        = "resume"
	PillarConfidence    = "confidence"
	PillarCommunication = "communication"
	PillarKnowledge     = "knowledge"
)

// Pillar statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PillarResult is the uniform shape every analyzer returns. A failed pillar
// carries score 0 and an error message; it never aborts the others.
type PillarResult struct {
	Pillar  string                 `json:"pillar"`
	Score   float64                `json:"score"`
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Succeeded returns a success result with the score rounded to two decimals.
func Succeeded(pillar string, score float64, details map[string]interface{}) PillarResult {
	return PillarResult{
		Pillar:  pillar,
		Score:   textproc.Round(textproc.Clamp(score, 0, 100), 2),
		Status:  StatusSuccess,
		Details: details,
	}
}

// Failed returns a zero-score error result.
func Failed(pillar string, format string, args ...interface{}) PillarResult {
	msg := fmt.Sprintf(format, args...)
	return PillarResult{
		Pillar:  pillar,
		Score:   0,
		Status:  StatusError,
		Details: map[string]interface{}{"error": msg},
		Error:   msg,
	}
}

// OK reports whether the pillar succeeded.
func (r PillarResult) OK() bool {
	return r.Status == StatusSuccess
}

// DetailJSON encodes the details blob stored alongside the score.
func (r PillarResult) DetailJSON() json.RawMessage {
	payload := r.Details
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if r.Error != "" {
		payload["error"] = r.Error
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return data
}
