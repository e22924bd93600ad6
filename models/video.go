package models

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Video struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	ExternalID   string    `json:"external_id"`
	Title        string    `json:"title,omitempty"`
	Duration     float64   `json:"duration,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Status check methods
func (v *Video) IsPending() bool    { return v.Status == StatusPending }
func (v *Video) IsProcessing() bool { return v.Status == StatusProcessing }
func (v *Video) IsCompleted() bool  { return v.Status == StatusCompleted }
func (v *Video) IsFailed() bool     { return v.Status == StatusFailed }

// HasMetadata reports whether the enrichment step already ran for this record.
func (v *Video) HasMetadata() bool {
	return v.Title != "" && v.Duration > 0
}

// IsStale checks if the record has been stuck in processing for too long
func (v *Video) IsStale(timeout time.Duration) bool {
	if v.Status != StatusProcessing {
		return false
	}
	return time.Since(v.UpdatedAt) > timeout
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"video_id"`
	Content   string    `json:"content"`
	Segments  []Segment `json:"segments"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata holds the fields the enrichment step is allowed to update.
type Metadata struct {
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

// VideoResponse represents the API response
type VideoResponse struct {
	ID           int64   `json:"id"`
	URL          string  `json:"url"`
	Status       Status  `json:"status"`
	Title        string  `json:"title,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// NewVideoResponse creates a response from a video model
func NewVideoResponse(v *Video) *VideoResponse {
	return &VideoResponse{
		ID:           v.ID,
		URL:          v.URL,
		Status:       v.Status,
		Title:        v.Title,
		Duration:     v.Duration,
		ThumbnailURL: v.ThumbnailURL,
		Error:        v.Error,
	}
}
