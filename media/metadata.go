package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"yt-chat/models"

	"github.com/sirupsen/logrus"
)

type videoInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// FetchMetadata asks yt-dlp for the video's title, duration and thumbnail
// without downloading anything.
func (c *Client) FetchMetadata(ctx context.Context, url string) (models.Metadata, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"url": url,
	})
	logger.Info("Fetching video metadata")

	info, err := c.fetchInfo(ctx, url)
	if err != nil {
		logger.WithError(err).Error("Metadata fetch failed")
		return models.Metadata{}, err
	}

	logger.WithFields(logrus.Fields{
		"title":    info.Title,
		"duration": info.Duration,
	}).Info("Metadata fetched")

	return models.Metadata{
		Title:        info.Title,
		Duration:     info.Duration,
		ThumbnailURL: info.Thumbnail,
	}, nil
}

// ExtractExternalID parses the provider-side video id from a URL via yt-dlp.
func (c *Client) ExtractExternalID(ctx context.Context, url string) (string, error) {
	info, err := c.fetchInfo(ctx, url)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *Client) fetchInfo(ctx context.Context, url string) (videoInfo, error) {
	args := []string{"--dump-json", "--skip-download", "--no-playlist", url}
	cmd := exec.CommandContext(ctx, c.config.YTDLPPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return videoInfo{}, fmt.Errorf("yt-dlp failed: %v (stderr: %s)", err, stderr.String())
	}

	var info videoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return videoInfo{}, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return info, nil
}
