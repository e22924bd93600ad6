package repository

import (
	"context"

	"yt-chat/models"
)

// VideoRepository owns all video and transcript persistence. The pipeline
// never touches storage directly; every mutation goes through here.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	Find(ctx context.Context, id int64) (*models.Video, error)
	FindByURL(ctx context.Context, url string) (*models.Video, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status, errMsg string) error
	UpdateMetadata(ctx context.Context, id int64, md models.Metadata) error
	SaveTranscript(ctx context.Context, transcript *models.Transcript) error
	FindTranscript(ctx context.Context, videoID int64) (*models.Transcript, error)
}
