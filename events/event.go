package events

import "time"

// Stage labels the processing lifecycle for live subscribers. It is distinct
// from the persisted video status: the first visible stage after a record is
// claimed is "downloading".
type Stage string

const (
	StagePending      Stage = "pending"
	StageDownloading  Stage = "downloading"
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// Terminal reports whether no further events follow for the run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// ProgressEvent is the wire shape streamed to SSE clients, one JSON object
// per data: line. Events are ephemeral and never persisted.
type ProgressEvent struct {
	VideoID   int64     `json:"videoId"`
	Stage     Stage     `json:"stage"`
	Progress  int       `json:"progress,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProgressEvent(videoID int64, stage Stage) ProgressEvent {
	return ProgressEvent{
		VideoID:   videoID,
		Stage:     stage,
		Timestamp: time.Now().UTC(),
	}
}
