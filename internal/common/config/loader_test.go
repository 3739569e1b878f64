package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: recruiting
    user: evaluator
  redis:
    address: localhost:6379
workers:
  evaluate-interview:
    enabled: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearLLMEnv(t *testing.T) {
	for _, key := range []string{"LLM_API_KEY", "GEMINI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY", "LLM_PROVIDER"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearLLMEnv(t)
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Evaluation.Weights.Resume)
	assert.Equal(t, 0.20, cfg.Evaluation.Weights.Confidence)
	assert.Equal(t, 0.25, cfg.Evaluation.Weights.Communication)
	assert.Equal(t, 0.30, cfg.Evaluation.Weights.Knowledge)
	assert.Equal(t, 70.0, cfg.Evaluation.ShortlistThreshold)
	assert.Equal(t, 30, cfg.Evaluation.FrameSampleRate)
	assert.Equal(t, 10, cfg.Evaluation.QuestionsPerInterview)
	assert.Equal(t, 50, cfg.Evaluation.MeaningfulSpeechChars)
	assert.Equal(t, 168, cfg.Evaluation.InterviewValidityHours)

	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, "candidate-results", cfg.Database.Elasticsearch.ResultIndex)
	assert.Equal(t, "candidate-evaluation", cfg.Camunda.ProcessID)
	assert.Equal(t, "evaluation_queue", cfg.Queue.QueueName)

	worker := cfg.Workers["evaluate-interview"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
llm:
  provider: openai
  base_url: https://api.groq.com/openai/v1
`))
	require.NoError(t, err)
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	clearLLMEnv(t)

	tests := []struct {
		name  string
		extra string
	}{
		{
			name: "weights do not sum to one",
			extra: `
evaluation:
  weights:
    resume: 0.5
    confidence: 0.5
    communication: 0.5
    knowledge: 0.5
`,
		},
		{
			name: "llm provider without key",
			extra: `
llm:
  provider: gemini
`,
		},
		{
			name: "unknown provider",
			extra: `
llm:
  provider: bard
`,
		},
		{
			name: "queue enabled without url",
			extra: `
queue:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RABBITMQ_URL", "")
			_, err := LoadFromFile(writeConfig(t, minimalYAML+tt.extra))
			assert.Error(t, err)
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, WeightsConfig{0.25, 0.20, 0.25, 0.30}.Validate())
	assert.Error(t, WeightsConfig{1.2, -0.2, 0, 0}.Validate())
	assert.Error(t, WeightsConfig{0.3, 0.3, 0.3, 0.3}.Validate())
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"analyze-resume": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "analyze-resume"))
	assert.True(t, IsWorkerEnabled(cfg, "evaluate-interview"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "evaluate-interview").MaxJobsActive)
}
