// internal/workers/evaluation/send-notification/config.go
package sendnotification

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	InputSchema  *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
	}
}
