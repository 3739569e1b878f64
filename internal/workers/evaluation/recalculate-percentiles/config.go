// internal/workers/evaluation/recalculate-percentiles/config.go
package recalculatepercentiles

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
		Timeout: time.Minute,
	}
}
