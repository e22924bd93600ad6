package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultFFmpegPath = "ffmpeg"

// Compress transcodes src into a mono 16 kHz 64 kbps mp3 in the temp
// directory and returns the new path. Used to bring oversized audio under
// the transcription provider's upload ceiling. The caller owns the returned
// file and must delete it.
func (c *Client) Compress(ctx context.Context, src string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(c.config.TempDir, base+"-compressed.mp3")

	logger := c.logger.WithFields(logrus.Fields{
		"src": src,
		"dst": dst,
	})
	logger.Info("Compressing audio for upload")

	args := []string{
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "64k",
		dst,
	}

	cmd := exec.CommandContext(ctx, c.config.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderr.String(),
		}).Error("Audio compression failed")
		return "", fmt.Errorf("ffmpeg failed: %v (stderr: %s)", err, stderr.String())
	}

	logger.Info("Audio compression completed")
	return dst, nil
}
