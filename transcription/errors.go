package transcription

import "fmt"

// Code classifies transcription failures. All of them fold into a single
// pipeline-level failure kind; the code survives in the message.
type Code string

const (
	CodeFileNotFound       Code = "FILE_NOT_FOUND"
	CodeInvalidAudioFormat Code = "INVALID_AUDIO_FORMAT"
	CodeAuthentication     Code = "AUTHENTICATION_ERROR"
	CodeRateLimit          Code = "RATE_LIMIT"
	CodeAPIError           Code = "API_ERROR"
	CodeCompressionFailed  Code = "COMPRESSION_FAILED"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
