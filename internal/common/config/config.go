// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Evaluation    EvaluationConfig        `mapstructure:"evaluation"`
	LLM           LLMConfig               `mapstructure:"llm"`
	Media         MediaConfig             `mapstructure:"media"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Queue         QueueConfig             `mapstructure:"queue"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Report        ReportConfig            `mapstructure:"report"`
	Extraction    ExtractionConfig        `mapstructure:"extraction"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	RegistryPath  string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddr    string `mapstructure:"http_addr"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	ProcessID      string `mapstructure:"process_id"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	URL         string   `mapstructure:"url"`
	ResultIndex string   `mapstructure:"result_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Evaluation ---

// WeightsConfig holds the pillar weights used for the overall score.
type WeightsConfig struct {
	Resume        float64 `mapstructure:"resume"`
	Confidence    float64 `mapstructure:"confidence"`
	Communication float64 `mapstructure:"communication"`
	Knowledge     float64 `mapstructure:"knowledge"`
}

type EvaluationConfig struct {
	Weights                WeightsConfig `mapstructure:"weights"`
	ShortlistThreshold     float64       `mapstructure:"shortlist_threshold"`
	FrameSampleRate        int           `mapstructure:"frame_sample_rate"`
	QuestionsPerInterview  int           `mapstructure:"questions_per_interview"`
	AnswerTimeLimitSeconds int           `mapstructure:"answer_time_limit_seconds"`
	MeaningfulSpeechChars  int           `mapstructure:"meaningful_speech_chars"`
	InterviewValidityHours int           `mapstructure:"interview_validity_hours"`
}

// LLMConfig selects and configures the chat-completion backend.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // gemini, openai, none
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"`   // milliseconds
	CacheTTL    int     `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
	Temperature float64 `mapstructure:"temperature"`
}

type MediaConfig struct {
	FFmpegPath         string `mapstructure:"ffmpeg_path"`
	FFprobePath        string `mapstructure:"ffprobe_path"`
	WorkDir            string `mapstructure:"work_dir"`
	KeepAudio          bool   `mapstructure:"keep_audio"`
	ExtractTimeout     int    `mapstructure:"extract_timeout"` // milliseconds
	VisionURL          string `mapstructure:"vision_url"`
	VisionTimeout      int    `mapstructure:"vision_timeout"` // milliseconds
	TranscriptionURL   string `mapstructure:"transcription_url"`
	TranscriptionKey   string `mapstructure:"transcription_key"`
	TranscriptionModel string `mapstructure:"transcription_model"`
}

type StorageConfig struct {
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type QueueConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue_name"`
	Prefetch  int    `mapstructure:"prefetch"`
}

// NotificationConfig holds settings for the send-notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	TemplatePath string `mapstructure:"template_path"`
}

type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
}

type ExtractionConfig struct {
	UnipdfLicenseKey string `mapstructure:"unipdf_license_key"`
	MaxResumeBytes   int64  `mapstructure:"max_resume_bytes"`
	CacheTTL         int    `mapstructure:"cache_ttl"` // seconds, 0 disables the resume text cache
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
