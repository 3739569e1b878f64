// internal/workers/evaluation/evaluate-interview/config.go
package evaluateinterview

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

// Transcription and frame analysis of a long recording dominate the timeout.
type Config struct {
	Timeout     time.Duration
	InputSchema *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Minute,
	}
}
