package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Sentinel errors for expected failure modes
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptedFile     = errors.New("file corrupted or unreadable")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrUnknownFormat     = errors.New("unknown export format")
	ErrSessionNotFound   = errors.New("session not found")

	// Export pipeline
	ErrElementNotFound = errors.New("element not found")
	ErrRasterization   = errors.New("rasterization failed")
	ErrSerialization   = errors.New("serialization failed")
	ErrExportFailed    = errors.New("export failed")

	// Transcription service
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrMidiDownloadFailed  = errors.New("MIDI download failed")
	ErrAnalysisFetchFailed = errors.New("analysis fetch failed")
)

// HTTPError represents a non-success response from the transcription service
type HTTPError struct {
	Op         string // "Transcription", "MIDI download", "Analysis fetch"
	StatusCode int
	StatusText string
	Kind       error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.StatusText)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// NewHTTPError builds an HTTPError from a response status line such as
// "500 Internal Server Error".
func NewHTTPError(op string, kind error, statusCode int, status string) *HTTPError {
	return &HTTPError{
		Op:         op,
		StatusCode: statusCode,
		StatusText: StatusText(statusCode, status),
		Kind:       kind,
	}
}

// StatusText strips the numeric code from a status line. Falls back to the
// canonical text when the server sent a bare code.
func StatusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}
