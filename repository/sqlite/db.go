package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yt-chat/errors"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    external_id TEXT NOT NULL DEFAULT '',
    title TEXT,
    duration REAL,
    thumbnail_url TEXT,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS transcripts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id INTEGER NOT NULL REFERENCES videos(id),
    content TEXT NOT NULL,
    segments TEXT NOT NULL DEFAULT '[]',
    language TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_videos_url ON videos(url);
CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status);
CREATE INDEX IF NOT EXISTS idx_transcripts_video_id ON transcripts(video_id);
`

func InitDB(dbPath string) (*sql.DB, error) {
	const op = "sqlite.InitDB"

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Internal(op, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to open database")
	}

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func configurePragmas(db *sql.DB) error {
	const op = "sqlite.configurePragmas"

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -2000", // Use up to 2MB of memory for cache
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}

	return nil
}

func execSchema(db *sql.DB) error {
	const op = "sqlite.execSchema"

	statements := strings.Split(schema, ";")

	tx, err := db.Begin()
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := tx.Exec(stmt); err != nil {
			return errors.Internal(
				op,
				err,
				fmt.Sprintf("failed to execute schema statement: %s", stmt),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit schema transaction")
	}

	return nil
}
