package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"yt-chat/errors"
	"yt-chat/models"
)

type Repository struct {
	db    *sql.DB
	stmts preparedStatements
}

func NewRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.stmts.Prepare(context.Background(), db); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Close() error {
	return r.stmts.Close()
}

func (r *Repository) Create(ctx context.Context, video *models.Video) error {
	const op = "SQLiteRepository.Create"

	now := time.Now()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now
	if video.Status == "" {
		video.Status = models.StatusPending
	}

	result, err := r.stmts.insertVideo.ExecContext(ctx,
		video.URL,
		video.ExternalID,
		nullString(video.Title),
		nullFloat(video.Duration),
		nullString(video.ThumbnailURL),
		string(video.Status),
		video.Error,
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		return errors.Internal(op, err, "Failed to create video")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "Failed to read new video id")
	}
	video.ID = id

	return nil
}

func (r *Repository) Find(ctx context.Context, id int64) (*models.Video, error) {
	const op = "SQLiteRepository.Find"
	return r.scanVideo(op, r.stmts.getVideo.QueryRowContext(ctx, id))
}

func (r *Repository) FindByURL(ctx context.Context, url string) (*models.Video, error) {
	const op = "SQLiteRepository.FindByURL"
	return r.scanVideo(op, r.stmts.getVideoByURL.QueryRowContext(ctx, url))
}

func (r *Repository) scanVideo(op string, row *sql.Row) (*models.Video, error) {
	video := &models.Video{}
	var (
		status    string
		title     sql.NullString
		duration  sql.NullFloat64
		thumbnail sql.NullString
	)

	err := row.Scan(
		&video.ID,
		&video.URL,
		&video.ExternalID,
		&title,
		&duration,
		&thumbnail,
		&status,
		&video.Error,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Video not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query video")
	}

	video.Status = models.Status(status)
	video.Title = title.String
	video.Duration = duration.Float64
	video.ThumbnailURL = thumbnail.String
	return video, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status models.Status, errMsg string) error {
	const op = "SQLiteRepository.UpdateStatus"

	for i := 0; i < 3; i++ { // Simple retry logic
		result, err := r.stmts.updateStatus.ExecContext(ctx, string(status), errMsg, time.Now(), id)
		if err == nil {
			affected, err := result.RowsAffected()
			if err != nil {
				return errors.Internal(op, err, "Failed to read affected rows")
			}
			if affected == 0 {
				return errors.NotFound(op, nil, "Video not found")
			}
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to update status")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "Failed after retries")
}

func (r *Repository) UpdateMetadata(ctx context.Context, id int64, md models.Metadata) error {
	const op = "SQLiteRepository.UpdateMetadata"

	result, err := r.stmts.updateMetadata.ExecContext(ctx,
		nullString(md.Title),
		nullFloat(md.Duration),
		nullString(md.ThumbnailURL),
		time.Now(),
		id,
	)
	if err != nil {
		return errors.Internal(op, err, "Failed to update metadata")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Internal(op, err, "Failed to read affected rows")
	}
	if affected == 0 {
		return errors.NotFound(op, nil, "Video not found")
	}
	return nil
}

func (r *Repository) SaveTranscript(ctx context.Context, transcript *models.Transcript) error {
	const op = "SQLiteRepository.SaveTranscript"

	segments, err := json.Marshal(transcript.Segments)
	if err != nil {
		return errors.Internal(op, err, "Failed to encode segments")
	}

	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = time.Now()
	}

	result, err := r.stmts.insertTranscript.ExecContext(ctx,
		transcript.VideoID,
		transcript.Content,
		string(segments),
		transcript.Language,
		transcript.CreatedAt,
	)
	if err != nil {
		return errors.Internal(op, err, "Failed to save transcript")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "Failed to read new transcript id")
	}
	transcript.ID = id

	return nil
}

func (r *Repository) FindTranscript(ctx context.Context, videoID int64) (*models.Transcript, error) {
	const op = "SQLiteRepository.FindTranscript"

	transcript := &models.Transcript{}
	var segments string

	err := r.stmts.getTranscript.QueryRowContext(ctx, videoID).Scan(
		&transcript.ID,
		&transcript.VideoID,
		&transcript.Content,
		&segments,
		&transcript.Language,
		&transcript.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Transcript not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query transcript")
	}

	if err := json.Unmarshal([]byte(segments), &transcript.Segments); err != nil {
		return nil, errors.Internal(op, err, "Failed to decode segments")
	}

	return transcript, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
