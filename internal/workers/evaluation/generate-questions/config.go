// internal/workers/evaluation/generate-questions/config.go
package generatequestions

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

type Config struct {
	Timeout          time.Duration
	QuestionCount    int
	TimeLimitSeconds int
	Validity         time.Duration
	InputSchema      *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          2 * time.Minute,
		QuestionCount:    10,
		TimeLimitSeconds: 120,
		Validity:         7 * 24 * time.Hour,
	}
}
