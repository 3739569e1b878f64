// internal/workers/evaluation/analyze-resume/config.go
package analyzeresume

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

type Config struct {
	Timeout            time.Duration
	ShortlistThreshold float64
	InputSchema        *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            2 * time.Minute,
		ShortlistThreshold: 70,
	}
}
