package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"yt-chat/errors"
)

const (
	insertVideoQuery = `
        INSERT INTO videos (
            url, external_id, title, duration, thumbnail_url,
            status, error, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	getVideoQuery = `
        SELECT id, url, external_id, title, duration, thumbnail_url,
               status, error, created_at, updated_at
        FROM videos WHERE id = ?
    `

	getVideoByURLQuery = `
        SELECT id, url, external_id, title, duration, thumbnail_url,
               status, error, created_at, updated_at
        FROM videos WHERE url = ?
    `

	updateStatusQuery = `
        UPDATE videos SET status = ?, error = ?, updated_at = ?
        WHERE id = ?
    `

	updateMetadataQuery = `
        UPDATE videos SET title = ?, duration = ?, thumbnail_url = ?, updated_at = ?
        WHERE id = ?
    `

	insertTranscriptQuery = `
        INSERT INTO transcripts (video_id, content, segments, language, created_at)
        VALUES (?, ?, ?, ?, ?)
    `

	getTranscriptQuery = `
        SELECT id, video_id, content, segments, language, created_at
        FROM transcripts WHERE video_id = ?
        ORDER BY id DESC LIMIT 1
    `
)

type preparedStatements struct {
	insertVideo      *sql.Stmt
	getVideo         *sql.Stmt
	getVideoByURL    *sql.Stmt
	updateStatus     *sql.Stmt
	updateMetadata   *sql.Stmt
	insertTranscript *sql.Stmt
	getTranscript    *sql.Stmt
}

func (stmts *preparedStatements) Prepare(ctx context.Context, db *sql.DB) error {
	const op = "preparedStatements.Prepare"

	var err error

	if stmts.insertVideo, err = db.PrepareContext(ctx, insertVideoQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare insertVideo statement")
	}

	if stmts.getVideo, err = db.PrepareContext(ctx, getVideoQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare getVideo statement")
	}

	if stmts.getVideoByURL, err = db.PrepareContext(ctx, getVideoByURLQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare getVideoByURL statement")
	}

	if stmts.updateStatus, err = db.PrepareContext(ctx, updateStatusQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare updateStatus statement")
	}

	if stmts.updateMetadata, err = db.PrepareContext(ctx, updateMetadataQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare updateMetadata statement")
	}

	if stmts.insertTranscript, err = db.PrepareContext(ctx, insertTranscriptQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare insertTranscript statement")
	}

	if stmts.getTranscript, err = db.PrepareContext(ctx, getTranscriptQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare getTranscript statement")
	}

	return nil
}

func (stmts *preparedStatements) Close() error {
	var errs []error

	statements := [...]*sql.Stmt{
		stmts.insertVideo,
		stmts.getVideo,
		stmts.getVideoByURL,
		stmts.updateStatus,
		stmts.updateMetadata,
		stmts.insertTranscript,
		stmts.getTranscript,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close prepared statements: %v", errs)
	}

	return nil
}
