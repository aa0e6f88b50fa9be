package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

const (
	MaxFileSize = 100 * 1024 * 1024 // 100MB
)

// Format represents an audio file format
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = "unknown"
)

// ContentType is the media type the transcription service accepts for the format
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	}
	return "application/octet-stream"
}

// ValidateInput checks if the input file is valid for upload
func ValidateInput(path string) (Format, error) {
	// Check file exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FormatUnknown, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return FormatUnknown, fmt.Errorf("stat file: %w", err)
	}

	// Check file size
	if info.Size() > MaxFileSize {
		return FormatUnknown, fmt.Errorf("%w: maximum size is 100MB", apperrors.ErrFileTooLarge)
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	defer f.Close()

	return DetectFormat(f, path)
}

// DetectFormat sniffs magic bytes, falling back to the file extension
func DetectFormat(r io.Reader, name string) (Format, error) {
	// Read first 12 bytes for magic detection
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatUnknown, fmt.Errorf("%w: could not read file header", apperrors.ErrCorruptedFile)
	}
	if n < 4 {
		return FormatUnknown, fmt.Errorf("%w: could not read file header", apperrors.ErrCorruptedFile)
	}

	format := sniff(header[:n])
	if format == FormatUnknown {
		// Fallback: check extension
		switch strings.ToLower(filepath.Ext(name)) {
		case ".wav":
			format = FormatWAV
		case ".mp3":
			format = FormatMP3
		}
	}

	if format == FormatUnknown {
		return FormatUnknown, fmt.Errorf("%w: please provide a WAV or MP3 file", apperrors.ErrUnsupportedFormat)
	}
	return format, nil
}

func sniff(header []byte) Format {
	// RIFF....WAVE
	if string(header[:4]) == "RIFF" && len(header) >= 12 && string(header[8:12]) == "WAVE" {
		return FormatWAV
	}

	// MP3 with ID3 tag
	if string(header[:3]) == "ID3" {
		return FormatMP3
	}

	// MP3 frame sync
	if header[0] == 0xFF && (header[1]&0xE0) == 0xE0 {
		return FormatMP3
	}

	return FormatUnknown
}
