package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voicord service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Directory where per-speaker session recordings are written
	RecordingsDir string `envconfig:"RECORDINGS_DIR" default:"recordings"`

	// Capture format. Fixed for the whole session; packets are raw PCM in
	// exactly this format, never negotiated per packet.
	CaptureSampleRate  int `envconfig:"CAPTURE_SAMPLE_RATE" default:"48000"` // Hz
	CaptureChannels    int `envconfig:"CAPTURE_CHANNELS" default:"2"`        // Stereo
	CaptureSampleWidth int `envconfig:"CAPTURE_SAMPLE_WIDTH" default:"2"`    // 16-bit

	// Recording limits
	MaxRecordingSeconds  int  `envconfig:"MAX_RECORDING_SECONDS" default:"14400"` // 4 hours
	AutoDeleteRecordings bool `envconfig:"AUTO_DELETE_RECORDINGS" default:"true"`

	// Chunking configuration
	TargetChunkMs      int64   `envconfig:"TARGET_CHUNK_MS" default:"300000"`       // 5 minutes
	MinChunkMs         int64   `envconfig:"MIN_CHUNK_MS" default:"30000"`           // 30 seconds
	MaxChunkMs         int64   `envconfig:"MAX_CHUNK_MS" default:"600000"`          // 10 minutes
	SilenceThresholdDB float64 `envconfig:"SILENCE_THRESHOLD_DB" default:"-40"`     // dBFS
	MinSilenceMs       int64   `envconfig:"MIN_SILENCE_MS" default:"500"`           // Minimum silence run to cut at
	MaxChunkSizeMB     float64 `envconfig:"MAX_CHUNK_SIZE_MB" default:"25"`         // Size ceiling per chunk
	LongAudioThreshold float64 `envconfig:"LONG_AUDIO_THRESHOLD_SEC" default:"300"` // Chunking activates above this

	// Transcription backend (Deepgram prerecorded API)
	DeepgramAPIKey  string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel   string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"ja"` // Language code (ja, en, es, etc.)
	MaxConcurrent   int    `envconfig:"MAX_CONCURRENT_TRANSCRIPTIONS" default:"2"`

	// Summarization backend
	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"ollama"` // ollama or openai
	OllamaHost      string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel     string `envconfig:"OLLAMA_MODEL" default:"gpt-oss:20b"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel     string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	SummaryLanguage string `envconfig:"SUMMARY_LANGUAGE" default:"ja"`
	CharBudget      int    `envconfig:"SUMMARY_CHAR_BUDGET" default:"12000"` // Per-call input ceiling in characters
	MaxSummaryDepth int    `envconfig:"MAX_SUMMARY_DEPTH" default:"8"`       // Hierarchical recursion ceiling

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.CaptureSampleRate <= 0 || c.CaptureChannels <= 0 || c.CaptureSampleWidth <= 0 {
		return fmt.Errorf("invalid capture format: %dHz %dch %d-byte",
			c.CaptureSampleRate, c.CaptureChannels, c.CaptureSampleWidth)
	}
	if c.MinChunkMs <= 0 || c.TargetChunkMs < c.MinChunkMs || c.MaxChunkMs < c.TargetChunkMs {
		return fmt.Errorf("invalid chunk durations: min=%d target=%d max=%d",
			c.MinChunkMs, c.TargetChunkMs, c.MaxChunkMs)
	}
	if c.CharBudget <= 0 {
		return fmt.Errorf("SUMMARY_CHAR_BUDGET must be positive, got %d", c.CharBudget)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_TRANSCRIPTIONS must be positive, got %d", c.MaxConcurrent)
	}
	if c.LLMProvider != "ollama" && c.LLMProvider != "openai" {
		return fmt.Errorf("unknown LLM_PROVIDER %q (expected ollama or openai)", c.LLMProvider)
	}
	if c.LLMProvider == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
