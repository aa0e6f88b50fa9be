package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mjibson/go-dsp/wav"
)

// Metadata describes an audio file without decoding its signal
type Metadata struct {
	Format   Format  `json:"format"`
	Title    string  `json:"title,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	Duration float64 `json:"duration"` // seconds, 0 when unknown
}

// Probe validates the file and reads its tags and duration. Tag and
// duration failures are not fatal.
func Probe(path string) (*Metadata, error) {
	format, err := ValidateInput(path)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{Format: format}
	switch format {
	case FormatMP3:
		meta.Title, meta.Artist = readID3(path)
		meta.Duration, _ = mp3Duration(path)
	case FormatWAV:
		meta.Duration, _ = wavDuration(path)
	}
	return meta, nil
}

func readID3(path string) (title, artist string) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", ""
	}
	defer tag.Close()
	return strings.TrimSpace(tag.Title()), strings.TrimSpace(tag.Artist())
}

func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	if d.Length() <= 0 || d.SampleRate() <= 0 {
		return 0, errors.New("mp3 length unknown")
	}
	// decoder output is 16-bit stereo: 4 bytes per frame
	return float64(d.Length()) / 4 / float64(d.SampleRate()), nil
}

// maxFmtChunk bounds the fmt chunk handed to the header decoder. PCM and
// extensible headers are at most 40 bytes.
const maxFmtChunk = 1 << 10

func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := checkFmtChunk(f); err != nil {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return decodeWAVHeader(f)
}

// decodeWAVHeader reads the header only; a zeroed fmt chunk makes the
// decoder divide by zero, which is reported as an error.
func decodeWAVHeader(r io.Reader) (seconds float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("read wav header: %v", p)
		}
	}()

	w, err := wav.New(r)
	if err != nil {
		return 0, fmt.Errorf("read wav header: %w", err)
	}
	return w.Duration.Seconds(), nil
}

// checkFmtChunk walks the chunk headers up to the data chunk without
// reading chunk bodies and rejects an oversized fmt chunk.
func checkFmtChunk(r io.ReadSeeker) error {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return err
	}

	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return errors.New("wav data chunk not found")
		}
		size := int64(binary.LittleEndian.Uint32(header[4:]))

		switch string(header[:4]) {
		case "fmt ":
			if size > maxFmtChunk {
				return fmt.Errorf("wav fmt chunk too large: %d bytes", size)
			}
		case "data":
			return nil
		}
		if _, err := r.Seek(size, io.SeekCurrent); err != nil {
			return err
		}
	}
}
