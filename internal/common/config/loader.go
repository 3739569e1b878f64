// internal/common/config/loader.go
package config

import (
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides. LLM_API_KEY overrides llm.api_key and so
// on for every key.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return decode(v)
}

// LoadFromFile reads exactly one YAML file plus environment overrides.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	loadEnvFile()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	fillDerived(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided through
// plain environment variables.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.LLM.APIKey, "LLM_API_KEY", "GEMINI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY")
	setIfEmpty(&cfg.Media.TranscriptionKey, "TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Queue.URL, "RABBITMQ_URL")
	setIfEmpty(&cfg.Storage.Bucket, "S3_BUCKET")
	setIfEmpty(&cfg.Extraction.UnipdfLicenseKey, "UNIDOC_LICENSE_API_KEY")
}

func setIfEmpty(target *string, envKeys ...string) {
	if *target != "" {
		return
	}
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			*target = val
			return
		}
	}
}

var defaults = map[string]interface{}{
	"app.name":      "candidate-evaluator",
	"app.http_addr": ":8080",

	"camunda.max_jobs_active": 10,
	"camunda.timeout":         30000,
	"camunda.request_timeout": 30000,
	"camunda.process_id":      "candidate-evaluation",

	"database.postgres.port":              5432,
	"database.postgres.max_connections":   25,
	"database.postgres.max_idle":          5,
	"database.postgres.sslmode":           "disable",
	"database.elasticsearch.result_index": "candidate-results",

	"evaluation.shortlist_threshold":       70,
	"evaluation.frame_sample_rate":         30,
	"evaluation.questions_per_interview":   10,
	"evaluation.answer_time_limit_seconds": 120,
	"evaluation.meaningful_speech_chars":   50,
	"evaluation.interview_validity_hours":  7 * 24,

	"llm.provider":    "none",
	"llm.timeout":     60000,
	"llm.temperature": 0.3,

	"media.ffmpeg_path":         "ffmpeg",
	"media.ffprobe_path":        "ffprobe",
	"media.extract_timeout":     300000,
	"media.vision_timeout":      10000,
	"media.transcription_model": "whisper-1",

	"queue.queue_name": "evaluation_queue",
	"queue.prefetch":   5,

	"report.output_dir":           "reports",
	"extraction.max_resume_bytes": 50 * 1024 * 1024,

	"logging.level":  "info",
	"logging.format": "json",
	"logging.output": "stdout",

	"registry_path": "configs/activity-registry.json",
}

func setDefaults(v *viper.Viper) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
}

// defaultWorker applies to task types missing from the workers section and
// fills zero fields of the ones present.
var defaultWorker = WorkerConfig{Enabled: true, MaxJobsActive: 5, Timeout: 30000, MaxRetries: 3}

// fillDerived sets the defaults that depend on other fields.
func fillDerived(cfg *Config) {
	es := &cfg.Database.Elasticsearch
	switch {
	case es.URL == "" && len(es.Addresses) > 0:
		es.URL = es.Addresses[0]
	case len(es.Addresses) == 0 && es.URL != "":
		es.Addresses = []string{es.URL}
	}

	if w := &cfg.Evaluation.Weights; *w == (WeightsConfig{}) {
		*w = WeightsConfig{Resume: 0.25, Confidence: 0.20, Communication: 0.25, Knowledge: 0.30}
	}
	if cfg.Media.WorkDir == "" {
		cfg.Media.WorkDir = os.TempDir()
	}

	for key, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = defaultWorker.MaxJobsActive
		}
		if w.Timeout == 0 {
			w.Timeout = defaultWorker.Timeout
		}
		if w.MaxRetries == 0 {
			w.MaxRetries = defaultWorker.MaxRetries
		}
		cfg.Workers[key] = w
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if err := cfg.Evaluation.Weights.Validate(); err != nil {
		return fmt.Errorf("evaluation.weights: %w", err)
	}

	switch cfg.LLM.Provider {
	case "none":
	case "gemini", "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", cfg.LLM.Provider)
		}
	default:
		return fmt.Errorf("llm.provider %q is not supported", cfg.LLM.Provider)
	}

	if cfg.Queue.Enabled && cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is required when the queue is enabled")
	}

	return nil
}

// Validate checks that the weights are non-negative and sum to one.
func (w WeightsConfig) Validate() error {
	for name, val := range map[string]float64{
		"resume":        w.Resume,
		"confidence":    w.Confidence,
		"communication": w.Communication,
		"knowledge":     w.Knowledge,
	} {
		if val < 0 {
			return fmt.Errorf("%s weight must not be negative", name)
		}
	}
	sum := w.Resume + w.Confidence + w.Communication + w.Knowledge
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the settings for a task type, or the defaults when
// the workers section does not list it.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if w, ok := cfg.Workers[taskType]; ok {
		return w
	}
	return defaultWorker
}

// IsWorkerEnabled reports whether taskType should be registered. Task types
// missing from the workers map run with defaults.
func IsWorkerEnabled(cfg *Config, taskType string) bool {
	w, ok := cfg.Workers[taskType]
	return !ok || w.Enabled
}
