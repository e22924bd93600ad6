package video

import (
	"context"

	"yt-chat/models"
)

type Service interface {
	// Submit registers a URL for transcription and dispatches a pipeline
	// run. Idempotent for URLs that already completed.
	Submit(ctx context.Context, url string) (*models.Video, error)

	// Get returns the current record for a video id.
	Get(ctx context.Context, id int64) (*models.Video, error)

	// GetTranscript returns the stored transcript for a completed video.
	GetTranscript(ctx context.Context, id int64) (*models.Transcript, error)

	// Retry resets a failed video to pending and re-dispatches it.
	Retry(ctx context.Context, id int64) (*models.Video, error)
}
