package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

// Workspace manages temporary files for a single session
type Workspace struct {
	Dir       string
	CreatedAt time.Time
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "transcription-studio-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
	}, nil
}

// Path helpers for workspace files
func (w *Workspace) Audio(name string) string { return filepath.Join(w.Dir, "audio", filepath.Base(name)) }
func (w *Workspace) AnalysisJSON() string     { return filepath.Join(w.Dir, "analysis.json") }

// Cleanup removes the workspace directory and all contents
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}

// SaveAudio stores an uploaded audio stream under its base name. Streams
// longer than limit bytes are rejected and nothing is kept.
func (w *Workspace) SaveAudio(name string, r io.Reader, limit int64) (string, error) {
	dst := w.Audio(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if n > limit {
		os.Remove(dst)
		return "", fmt.Errorf("%w: maximum size is %d bytes", apperrors.ErrFileTooLarge, limit)
	}
	return dst, nil
}

// WriteFile stores data at a workspace path
func (w *Workspace) WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
