// internal/workers/evaluation/record-hr-decision/config.go
package recordhrdecision

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

type Config struct {
	Timeout     time.Duration
	InputSchema *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
