package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables. Read once at startup,
// immutable afterwards, passed explicitly to each component.
type Config struct {
	YoutubeAPIKey string `envconfig:"YOUTUBE_API_KEY" required:"true"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	ChannelFile  string `envconfig:"CHANNEL_FILE" default:"channels.txt"`
	PromptFile   string `envconfig:"PROMPT_FILE" default:"prompt.txt"`
	MetadataPath string `envconfig:"METADATA_PATH" default:"metadata.csv"`
	DownloadDir  string `envconfig:"DOWNLOAD_DIR" default:"./downloads"`

	TranscriptLanguage  string `envconfig:"TRANSCRIPT_LANGUAGE" default:"en-US"`
	MaxVideosPerChannel int    `envconfig:"MAX_VIDEOS_PER_CHANNEL" default:"50"`
	DownloadFormat      string `envconfig:"DOWNLOAD_FORMAT" default:"best"`

	MaxParallel    int           `envconfig:"MAX_PARALLEL" default:"3"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"5"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"5s"`
	RetryFactor    float64       `envconfig:"RETRY_FACTOR" default:"2.0"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	SubtitleTimeout time.Duration `envconfig:"SUBTITLE_TIMEOUT" default:"2m"`
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"30m"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	TelemetryEnabled  bool   `envconfig:"TELEMETRY_ENABLED" default:"true"`

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9190"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
