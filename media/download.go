package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Download extracts the audio track of the video at url into the client's
// temp directory and returns the local file path. The caller owns the file
// and is responsible for deleting it.
func (c *Client) Download(ctx context.Context, url string) (string, error) {
	logger := c.logger.WithField("url", url)
	logger.Info("Starting audio download")

	path, err := c.downloadWithRetry(ctx, url)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded file missing: %w", err)
	}

	logger.WithField("path", path).Info("Audio download completed")
	return path, nil
}

func (c *Client) downloadWithRetry(ctx context.Context, url string) (string, error) {
	const (
		initialBackoff = 2 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
	)

	var (
		path    string
		lastErr error
	)

	for attempt := 1; attempt <= c.config.DownloadRetry; attempt++ {
		path, lastErr = c.runDownload(ctx, url)
		if lastErr == nil {
			return path, nil
		}

		c.logger.WithFields(logrus.Fields{
			"attempt":    attempt,
			"maxRetries": c.config.DownloadRetry,
			"url":        url,
			"error":      lastErr,
		}).Error("Audio download failed")

		if attempt == c.config.DownloadRetry {
			break
		}

		backoff := time.Duration(float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt-1)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		select {
		case <-time.After(backoff + time.Duration(rand.Int63n(int64(backoff/2)))):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("download failed after %d attempts: %w", c.config.DownloadRetry, lastErr)
}

func (c *Client) runDownload(ctx context.Context, url string) (string, error) {
	// Unique name per invocation so concurrent runs never share files.
	template := filepath.Join(c.config.TempDir, "audio-"+uuid.New().String()+".%(ext)s")

	args := []string{
		"-x",
		"--audio-format", c.config.AudioFormat,
		"--no-playlist",
		"-o", template,
		"--print", "after_move:filepath",
		"--no-simulate",
		url,
	}

	cmd := exec.CommandContext(ctx, c.config.YTDLPPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %v (stderr: %s)", err, stderr.String())
	}

	path := lastLine(stdout.String())
	if path == "" {
		return "", fmt.Errorf("yt-dlp reported no output file")
	}

	return path, nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
