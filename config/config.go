package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir  string `json:"log_dir"`
	TempDir string `json:"temp_dir"`

	// CORS Configuration
	CORS CORSConfig `json:"cors"`

	// Rate Limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// OpenAI settings
	OpenAI OpenAIConfig `json:"openai"`

	// Transcript archive (optional)
	Spaces SpacesConfig `json:"spaces"`

	// Application version
	Version string `json:"version"`

	// Shutdown timeout
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type PipelineConfig struct {
	Workers        int           `json:"workers"`
	QueueSize      int           `json:"queue_size"`
	ProcessTimeout time.Duration `json:"process_timeout"`
	MaxFileSize    int64         `json:"max_file_size"`
	YTDLPPath      string        `json:"ytdlp_path"`
	FFmpegPath     string        `json:"ffmpeg_path"`
	AudioFormat    string        `json:"audio_format"`
}

type OpenAIConfig struct {
	APIKey            string `json:"-"`
	WhisperModel      string `json:"whisper_model"`
	ChatModel         string `json:"chat_model"`
	RequestsPerMinute int    `json:"requests_per_minute"`
}

type SpacesConfig struct {
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

// Enabled reports whether the config carries enough to build a client.
func (c SpacesConfig) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers"`
	MaxAge         int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:  getEnv("LOG_DIR", "./logs"),
		TempDir: getEnv("TEMP_DIR", "/tmp/yt-chat"),

		Version: getEnv("VERSION", "1.0.0"),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders: getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			MaxAge:         getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/yt-chat.db"),
		},

		Pipeline: PipelineConfig{
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 2),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 32),
			ProcessTimeout: getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 30*time.Minute),
			MaxFileSize:    getEnvAsInt64("PIPELINE_MAX_FILE_SIZE", 25*1024*1024),
			YTDLPPath:      getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
			AudioFormat:    getEnv("AUDIO_FORMAT", "mp3"),
		},

		OpenAI: OpenAIConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			WhisperModel:      getEnv("WHISPER_MODEL", "whisper-1"),
			ChatModel:         getEnv("CHAT_MODEL", "gpt-4o-mini"),
			RequestsPerMinute: getEnvAsInt("OPENAI_RPM", 50),
		},

		Spaces: SpacesConfig{
			AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: getEnv("SPACES_SECRET_KEY", ""),
			Region:    getEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}

	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		return errors.New("pipeline workers must be positive")
	}
	if c.Pipeline.MaxFileSize <= 0 {
		return errors.New("pipeline max file size must be positive")
	}

	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.TempDir, "temp directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to create %s", p.name))
		}
	}

	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
