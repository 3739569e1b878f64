// internal/workers/evaluation/export-ranking-report/config.go
package exportrankingreport

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
		Timeout: 2 * time.Minute,
	}
}
