// Package export turns song metadata and rendered views into downloadable
// documents: PDF, structured note JSON, MusicXML and Standard MIDI Files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sink receives a finished export
type Sink interface {
	Deliver(data []byte, filename, mimeType string) error
}

// DirSink writes exports into a directory. Files are written to a temp
// name and renamed, so a failed export leaves nothing behind.
type DirSink struct {
	Dir string
}

// Deliver implements Sink
func (s DirSink) Deliver(data []byte, filename, mimeType string) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	name := SafeFilename(filename)
	if name == "" {
		return fmt.Errorf("invalid export filename %q", filename)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Path returns where a delivered file ends up
func (s DirSink) Path(filename string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, SafeFilename(filename))
}

// SafeFilename keeps a title-derived name inside one directory. Path
// separators become underscores and leading dots are dropped, the way a
// browser names a download.
func SafeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return strings.TrimLeft(strings.TrimSpace(name), ".")
}

// File is a delivered export held in memory
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// MemorySink keeps deliveries in memory
type MemorySink struct {
	mu    sync.Mutex
	files []File
}

// Deliver implements Sink
func (s *MemorySink) Deliver(data []byte, filename, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, File{
		Name:     filename,
		MimeType: mimeType,
		Data:     append([]byte(nil), data...),
	})
	return nil
}

// Files returns every delivery in order
func (s *MemorySink) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]File(nil), s.files...)
}

// Last returns the most recent delivery
func (s *MemorySink) Last() (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 {
		return File{}, false
	}
	return s.files[len(s.files)-1], true
}
