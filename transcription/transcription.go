package transcription

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"yt-chat/models"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// MaxFileSize is the provider's upload ceiling. Files over it must be
// compressed before submission.
const MaxFileSize = 25 << 20 // 25 MiB

// allowedExtensions is the provider's accepted upload formats.
var allowedExtensions = map[string]struct{}{
	".mp3":  {},
	".mp4":  {},
	".mpeg": {},
	".mpga": {},
	".m4a":  {},
	".wav":  {},
	".webm": {},
	".ogg":  {},
	".flac": {},
}

type Config struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
}

type Result struct {
	Text     string
	Segments []models.Segment
	Language string
	Duration float64
}

// Service submits audio files to the Whisper API and returns time-aligned
// transcripts. Outbound calls are throttled so bursts of concurrent runs
// stay under the account's rate limit.
type Service struct {
	client  *openai.Client
	config  Config
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewService(cfg Config, logger zerolog.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return &Service{
		client:  client,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
		logger:  logger,
	}
}

// Transcribe runs preflight checks and submits the file at audioPath.
// Failures come back as *Error with a classification code.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	logger := s.logger.With().Str("path", audioPath).Logger()

	if err := s.preflight(audioPath); err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, newError(CodeAPIError, err, "rate limiter wait aborted")
	}

	logger.Info().Str("model", s.config.Model).Msg("Submitting audio for transcription")

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.config.Model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	segments := make([]models.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, models.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	logger.Info().
		Int("segments", len(segments)).
		Str("language", resp.Language).
		Float64("duration", resp.Duration).
		Msg("Transcription completed")

	return &Result{
		Text:     resp.Text,
		Segments: segments,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

func (s *Service) preflight(audioPath string) error {
	if s.client == nil || s.config.APIKey == "" {
		return newError(CodeAuthentication, nil, "transcription API key is not configured")
	}

	if _, err := os.Stat(audioPath); err != nil {
		return newError(CodeFileNotFound, err, "audio file does not exist: "+audioPath)
	}

	ext := strings.ToLower(filepath.Ext(audioPath))
	if _, ok := allowedExtensions[ext]; !ok {
		return newError(CodeInvalidAudioFormat, nil, "unsupported audio format: "+ext)
	}

	return nil
}

func classifyAPIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return newError(CodeRateLimit, err, "transcription API rate limit exceeded")
		case http.StatusUnauthorized:
			return newError(CodeAuthentication, err, "transcription API rejected credentials")
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return newError(CodeRateLimit, err, "transcription API rate limit exceeded")
		case http.StatusUnauthorized:
			return newError(CodeAuthentication, err, "transcription API rejected credentials")
		}
	}

	return newError(CodeAPIError, err, "transcription request failed")
}
