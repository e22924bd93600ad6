package pipeline

import (
	"errors"
	"fmt"
)

// Kind is the failure domain of a pipeline run. Every run that does not
// complete ends in exactly one of these.
type Kind string

const (
	KindVideoNotFound       Kind = "VIDEO_NOT_FOUND"
	KindDownloadFailed      Kind = "DOWNLOAD_FAILED"
	KindTranscriptionFailed Kind = "TRANSCRIPTION_FAILED"
	KindDatabaseError       Kind = "DATABASE_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// classify maps an arbitrary failure to a pipeline error. Errors raised by
// the pipeline itself pass through untouched; anything unclassified becomes
// a DATABASE_ERROR with the original message preserved.
func classify(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return newError(KindDatabaseError, err, "unexpected pipeline failure")
}

// IsKind reports whether err is a pipeline error of the given kind.
func IsKind(err error, kind Kind) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}
