package video

import (
	"context"
	"time"

	"yt-chat/errors"
	"yt-chat/models"
	"yt-chat/repository"
	"yt-chat/validation"

	"github.com/rs/zerolog"
)

type Repository = repository.VideoRepository

// Dispatcher hands a video id to the background pipeline.
type Dispatcher interface {
	Dispatch(videoID int64) error
}

type Config struct {
	// ProcessTimeout decides when a record stuck in processing counts as
	// stale and may be resubmitted.
	ProcessTimeout time.Duration
}

type service struct {
	repo       Repository
	dispatcher Dispatcher
	validator  *validation.Validator
	config     Config
	logger     zerolog.Logger
}

func NewService(
	repo Repository,
	dispatcher Dispatcher,
	validator *validation.Validator,
	config Config,
	logger zerolog.Logger,
) Service {
	return &service{
		repo:       repo,
		dispatcher: dispatcher,
		validator:  validator,
		config:     config,
		logger:     logger,
	}
}

func (s *service) Submit(ctx context.Context, url string) (*models.Video, error) {
	const op = "VideoService.Submit"
	logger := s.logger.With().
		Str("operation", op).
		Str("url", url).
		Logger()
	logger.Info().Msg("Received transcription request")

	if err := s.validator.ValidateURL(url); err != nil {
		logger.Info().Err(err).Msg("URL validation failed")
		return nil, err
	}

	// Reuse an existing record when possible
	video, err := s.repo.FindByURL(ctx, url)
	if err == nil {
		if !shouldResubmit(video, s.config.ProcessTimeout) {
			return video, nil
		}
		return s.resubmit(ctx, logger, video)
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	video = &models.Video{
		URL:        url,
		ExternalID: validation.ExtractVideoID(url),
		Status:     models.StatusPending,
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, err
	}

	return s.dispatch(logger, video)
}

func shouldResubmit(video *models.Video, timeout time.Duration) bool {
	switch video.Status {
	case models.StatusCompleted:
		return false
	case models.StatusProcessing:
		return video.IsStale(timeout)
	default:
		return true
	}
}

func (s *service) resubmit(ctx context.Context, logger zerolog.Logger, video *models.Video) (*models.Video, error) {
	if err := s.repo.UpdateStatus(ctx, video.ID, models.StatusPending, ""); err != nil {
		return nil, err
	}
	video.Status = models.StatusPending
	video.Error = ""
	return s.dispatch(logger, video)
}

func (s *service) dispatch(logger zerolog.Logger, video *models.Video) (*models.Video, error) {
	const op = "VideoService.dispatch"

	if err := s.dispatcher.Dispatch(video.ID); err != nil {
		logger.Error().Err(err).Int64("video_id", video.ID).Msg("Failed to dispatch pipeline run")
		return nil, errors.Internal(op, err, "Processing queue is full, try again later")
	}

	logger.Info().Int64("video_id", video.ID).Msg("Pipeline run dispatched")
	return video, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Video, error) {
	const op = "VideoService.Get"

	if id <= 0 {
		return nil, errors.InvalidInput(op, nil, "A valid video id is required")
	}

	return s.repo.Find(ctx, id)
}

func (s *service) GetTranscript(ctx context.Context, id int64) (*models.Transcript, error) {
	const op = "VideoService.GetTranscript"

	video, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.Status != models.StatusCompleted {
		return nil, errors.Conflict(op, nil, "Video has not finished processing")
	}

	return s.repo.FindTranscript(ctx, id)
}

func (s *service) Retry(ctx context.Context, id int64) (*models.Video, error) {
	const op = "VideoService.Retry"

	video, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.Status != models.StatusFailed {
		return nil, errors.Conflict(op, nil, "Only failed videos can be retried")
	}

	logger := s.logger.With().
		Str("operation", op).
		Int64("video_id", id).
		Logger()

	return s.resubmit(ctx, logger, video)
}
