package pipeline

import (
	"context"
	"fmt"
	"os"

	"yt-chat/events"
	"yt-chat/models"
	"yt-chat/repository"
	"yt-chat/transcription"

	"github.com/rs/zerolog"
)

// MetadataProvider fetches title/duration/thumbnail for a video URL.
// Failures are non-fatal to a run.
type MetadataProvider interface {
	FetchMetadata(ctx context.Context, url string) (models.Metadata, error)
}

// MediaFetcher downloads a video's audio track to a local file and can
// transcode it under the transcription provider's upload ceiling.
type MediaFetcher interface {
	Download(ctx context.Context, url string) (string, error)
	Compress(ctx context.Context, path string) (string, error)
}

// TranscriptionProvider turns a local audio file into a transcript.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, audioPath string) (*transcription.Result, error)
}

// Archiver receives completed transcripts for long-term storage.
// Strictly best-effort: an archiver failure never changes a run's outcome.
type Archiver interface {
	SaveTranscript(ctx context.Context, video *models.Video, transcript *models.Transcript) error
}

type Config struct {
	// MaxFileSize is the audio size above which the file is compressed
	// before submission. Defaults to the provider's 25 MiB ceiling.
	MaxFileSize int64
}

// Pipeline drives a video from pending to a terminal state: fetch metadata,
// download audio, transcribe, persist, and broadcast progress at every
// transition. Temporary files created on the way are removed on every exit
// path.
type Pipeline struct {
	store       repository.VideoRepository
	metadata    MetadataProvider
	fetcher     MediaFetcher
	transcriber TranscriptionProvider
	bus         *events.Bus
	archiver    Archiver
	config      Config
	locks       videoLocks
	logger      zerolog.Logger
}

func New(
	store repository.VideoRepository,
	metadata MetadataProvider,
	fetcher MediaFetcher,
	transcriber TranscriptionProvider,
	bus *events.Bus,
	config Config,
	logger zerolog.Logger,
) *Pipeline {
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = transcription.MaxFileSize
	}
	return &Pipeline{
		store:       store,
		metadata:    metadata,
		fetcher:     fetcher,
		transcriber: transcriber,
		bus:         bus,
		config:      config,
		logger:      logger,
	}
}

// SetArchiver wires an optional transcript archive. Safe to skip entirely.
func (p *Pipeline) SetArchiver(a Archiver) {
	p.archiver = a
}

// run tracks the temp files a single invocation has created so they can be
// removed on every exit path. Files belong exclusively to this run.
type run struct {
	video     *models.Video
	tempFiles []string
}

func (r *run) track(path string) {
	r.tempFiles = append(r.tempFiles, path)
}

// cleanup removes every tracked temp file. Removal failures (including a
// file already gone) are logged and never escalated; calling cleanup twice
// is harmless.
func (r *run) cleanup(logger zerolog.Logger) {
	for _, path := range r.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temp file")
		}
	}
	r.tempFiles = nil
}

// ProcessVideo drives the video with the given id to completed or failed.
// The returned error is always a *Error; callers in the fire-and-forget
// path only log it, since the outcome is also visible through the store and
// the progress bus.
func (p *Pipeline) ProcessVideo(ctx context.Context, videoID int64) error {
	lock := p.locks.get(videoID)
	lock.Lock()
	defer lock.Unlock()

	logger := p.logger.With().Int64("video_id", videoID).Logger()
	logger.Info().Msg("Starting pipeline run")

	// Step 1: the record must exist. No status mutation or event is
	// possible without it.
	video, err := p.store.Find(ctx, videoID)
	if err != nil {
		logger.Error().Err(err).Msg("Video lookup failed")
		return newError(KindVideoNotFound, err, fmt.Sprintf("video %d not found", videoID))
	}

	r := &run{video: video}

	if err := p.execute(ctx, logger, r); err != nil {
		return p.fail(ctx, logger, r, classify(err))
	}

	logger.Info().Msg("Pipeline run completed")
	return nil
}

// execute performs steps 2-6. A panic anywhere inside is converted to an
// unclassified error so the caller's failure handling still runs.
func (p *Pipeline) execute(ctx context.Context, logger zerolog.Logger, r *run) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("Pipeline run panicked")
			err = fmt.Errorf("pipeline panic: %v", rec)
		}
	}()

	video := r.video

	// Step 2: claim the record. The broadcast stage is "downloading"
	// because that is the first sub-stage clients can see.
	if err := p.store.UpdateStatus(ctx, video.ID, models.StatusProcessing, ""); err != nil {
		return newError(KindDatabaseError, err, "failed to mark video as processing")
	}
	p.publishStage(video.ID, events.StageDownloading, "Downloading audio")

	// Step 3: metadata enrichment, best-effort.
	p.enrichMetadata(ctx, logger, video)

	// Step 4: download.
	audioPath, err := p.fetcher.Download(ctx, video.URL)
	if err != nil {
		return newError(KindDownloadFailed, err, "audio download failed")
	}
	r.track(audioPath)

	// Step 5: transcribe, compressing first when the file is oversized.
	uploadPath := audioPath
	if oversized(audioPath, p.config.MaxFileSize) {
		p.publishStage(video.ID, events.StageExtracting, "Compressing audio")
		compressed, err := p.fetcher.Compress(ctx, audioPath)
		if err != nil {
			cerr := &transcription.Error{Code: transcription.CodeCompressionFailed, Message: "audio compression failed", Err: err}
			return newError(KindTranscriptionFailed, cerr, "transcription preprocessing failed")
		}
		r.track(compressed)
		uploadPath = compressed
	}

	p.publishStage(video.ID, events.StageTranscribing, "Transcribing audio")
	result, err := p.transcriber.Transcribe(ctx, uploadPath)
	if err != nil {
		return newError(KindTranscriptionFailed, err, "transcription failed")
	}

	// Step 6: persist and finish.
	transcript := &models.Transcript{
		VideoID:  video.ID,
		Content:  result.Text,
		Segments: result.Segments,
		Language: result.Language,
	}
	if err := p.store.SaveTranscript(ctx, transcript); err != nil {
		return newError(KindDatabaseError, err, "failed to save transcript")
	}
	if err := p.store.UpdateStatus(ctx, video.ID, models.StatusCompleted, ""); err != nil {
		return newError(KindDatabaseError, err, "failed to mark video as completed")
	}

	p.publishStage(video.ID, events.StageComplete, "Transcription complete")
	r.cleanup(logger)

	p.archive(ctx, logger, video, transcript)

	return nil
}

// fail is the single failure path: mark the record failed (best-effort),
// delete any temp files, broadcast a terminal error event, and hand the
// classified error back to the caller.
func (p *Pipeline) fail(ctx context.Context, logger zerolog.Logger, r *run, cause *Error) error {
	logger.Error().Err(cause).Str("kind", string(cause.Kind)).Msg("Pipeline run failed")

	if err := p.store.UpdateStatus(ctx, r.video.ID, models.StatusFailed, cause.Error()); err != nil {
		// The record may have vanished mid-run; the run is already lost.
		logger.Warn().Err(err).Msg("Failed to mark video as failed")
	}

	r.cleanup(logger)

	event := events.NewProgressEvent(r.video.ID, events.StageError)
	event.Error = cause.Error()
	p.bus.Publish(event)

	return cause
}

func (p *Pipeline) enrichMetadata(ctx context.Context, logger zerolog.Logger, video *models.Video) {
	if video.HasMetadata() {
		return
	}

	md, err := p.metadata.FetchMetadata(ctx, video.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("Metadata fetch failed, continuing without it")
		return
	}

	if err := p.store.UpdateMetadata(ctx, video.ID, md); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist metadata, continuing without it")
		return
	}

	video.Title = md.Title
	video.Duration = md.Duration
	video.ThumbnailURL = md.ThumbnailURL
}

func (p *Pipeline) archive(ctx context.Context, logger zerolog.Logger, video *models.Video, transcript *models.Transcript) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.SaveTranscript(ctx, video, transcript); err != nil {
		logger.Warn().Err(err).Msg("Transcript archive upload failed")
	}
}

func (p *Pipeline) publishStage(videoID int64, stage events.Stage, message string) {
	event := events.NewProgressEvent(videoID, stage)
	event.Message = message
	p.bus.Publish(event)
}

func oversized(path string, limit int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Let the transcriber's preflight report the missing file.
		return false
	}
	return info.Size() > limit
}
