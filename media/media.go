package media

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the configuration for the yt-dlp client
type Config struct {
	YTDLPPath     string
	FFmpegPath    string
	TempDir       string
	Timeout       time.Duration
	AudioFormat   string
	DownloadRetry int
}

// Client wraps the yt-dlp binary for metadata lookup and audio download.
type Client struct {
	config Config
	logger *logrus.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.YTDLPPath == "" {
		cfg.YTDLPPath = "yt-dlp"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = defaultFFmpegPath
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	if cfg.DownloadRetry <= 0 {
		cfg.DownloadRetry = 3
	}
	if cfg.TempDir == "" {
		return nil, fmt.Errorf("temp directory is required")
	}

	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", cfg.TempDir, err)
	}

	return &Client{
		config: cfg,
		logger: logrus.StandardLogger(),
	}, nil
}
