package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

func writeTempAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestPreflightMissingAPIKey(t *testing.T) {
	svc := NewService(Config{}, zerolog.Nop())

	_, err := svc.Transcribe(context.Background(), writeTempAudio(t, "a.mp3"))

	var terr *Error
	if !errors.As(err, &terr) || terr.Code != CodeAuthentication {
		t.Errorf("expected %s, got %v", CodeAuthentication, err)
	}
}

func TestPreflightMissingFile(t *testing.T) {
	svc := NewService(Config{APIKey: "test-key"}, zerolog.Nop())

	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))

	var terr *Error
	if !errors.As(err, &terr) || terr.Code != CodeFileNotFound {
		t.Errorf("expected %s, got %v", CodeFileNotFound, err)
	}
}

func TestPreflightInvalidFormat(t *testing.T) {
	svc := NewService(Config{APIKey: "test-key"}, zerolog.Nop())

	_, err := svc.Transcribe(context.Background(), writeTempAudio(t, "notes.txt"))

	var terr *Error
	if !errors.As(err, &terr) || terr.Code != CodeInvalidAudioFormat {
		t.Errorf("expected %s, got %v", CodeInvalidAudioFormat, err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "rate limited",
			err:      &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			expected: CodeRateLimit,
		},
		{
			name:     "unauthorized",
			err:      &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			expected: CodeAuthentication,
		},
		{
			name:     "server error",
			err:      &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			expected: CodeAPIError,
		},
		{
			name:     "request error unauthorized",
			err:      &openai.RequestError{HTTPStatusCode: http.StatusUnauthorized},
			expected: CodeAuthentication,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("connection refused"),
			expected: CodeAPIError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyAPIError(tt.err)
			if classified.Code != tt.expected {
				t.Errorf("got code %s, want %s", classified.Code, tt.expected)
			}
		})
	}
}

func TestErrorMessageIncludesCode(t *testing.T) {
	err := newError(CodeRateLimit, fmt.Errorf("429"), "too many requests")

	got := err.Error()
	if got != "RATE_LIMIT: too many requests: 429" {
		t.Errorf("unexpected error string: %s", got)
	}
}
