// Package studio is the application shell. It owns the transcription
// client, records what the user uploaded and dispatches exports.
package studio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dygy/transcription-studio/internal/analysis"
	apperrors "github.com/dygy/transcription-studio/internal/errors"
	"github.com/dygy/transcription-studio/internal/export"
	"github.com/dygy/transcription-studio/internal/midi"
	"github.com/dygy/transcription-studio/internal/render"
	"github.com/dygy/transcription-studio/internal/song"
)

// Transcriber is the subset of the transcription client the shell uses
type Transcriber interface {
	TranscribeAudio(ctx context.Context, filename string, r io.Reader) (*analysis.TranscriptionResponse, error)
	DownloadMIDI(ctx context.Context, fileID string) ([]byte, error)
}

// Format is an export format
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMIDI     Format = "midi"
	FormatMusicXML Format = "musicxml"
	FormatSMF      Format = "smf"
)

// Formats lists every export format
var Formats = []Format{FormatPDF, FormatMIDI, FormatMusicXML, FormatSMF}

// ParseFormat validates an export format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatPDF, FormatMIDI, FormatMusicXML, FormatSMF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownFormat, name)
}

// State is everything the shell knows about the current song
type State struct {
	AudioName     string
	AudioPath     string
	Transcription *analysis.TranscriptionResponse // nil when none or failed
	Err           error                           // last transcription error
	View          render.View

	// Song overrides the metadata derived from the upload
	Song *song.Info
}

// Analysis returns the service analysis, or nil
func (s *State) Analysis() *analysis.Analysis {
	if s.Transcription == nil {
		return nil
	}
	return &s.Transcription.Analysis
}

// SongInfo returns the metadata exports are built from
func (s *State) SongInfo() song.Info {
	if s.Song != nil {
		return *s.Song
	}
	return song.FromUpload(s.AudioName, s.Analysis())
}

// ActiveView returns the selected view, defaulting to piano
func (s *State) ActiveView() render.View {
	if s.View == "" {
		return render.ViewPiano
	}
	return s.View
}

// Regions renders every view for the current state
func (s *State) Regions() render.Set {
	return render.Build(s.SongInfo(), s.Analysis())
}

// Shell coordinates uploads and exports
type Shell struct {
	client Transcriber
	logger *slog.Logger
}

// New creates a shell. A nil logger uses slog's default.
func New(client Transcriber, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{client: client, logger: logger}
}

// Upload records the audio and sends it for transcription. On failure the
// error is kept in the state and returned; the demo views stay usable.
func (sh *Shell) Upload(ctx context.Context, st *State, name string, r io.Reader) error {
	st.AudioName = filepath.Base(name)
	st.Transcription = nil
	st.Err = nil

	log := sh.logger.With(slog.String("file", st.AudioName))
	log.InfoContext(ctx, "transcription started")

	resp, err := sh.client.TranscribeAudio(ctx, st.AudioName, r)
	if err != nil {
		st.Err = err
		log.ErrorContext(ctx, "transcription failed", slog.Any("error", err))
		return err
	}

	st.Transcription = resp
	log.InfoContext(ctx, "transcription complete",
		slog.String("file_id", resp.FileID),
		slog.String("key", resp.Analysis.Key),
		slog.Float64("tempo", resp.Analysis.Tempo),
		slog.Int("notes", len(resp.Analysis.Notes)),
	)
	return nil
}

// UploadFile uploads a file from disk
func (sh *Shell) UploadFile(ctx context.Context, st *State, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	defer f.Close()

	st.AudioPath = path
	return sh.Upload(ctx, st, path, f)
}

// PDFFilename is the base name of a view's PDF export
func PDFFilename(title string, view render.View) string {
	return fmt.Sprintf("%s_%s_transcription", title, view)
}

// Export produces one format from a snapshot of the state
func (sh *Shell) Export(ctx context.Context, st State, format Format, sink export.Sink) error {
	info := st.SongInfo()
	log := sh.logger.With(slog.String("format", string(format)), slog.String("title", info.Title))

	var err error
	switch format {
	case FormatPDF:
		view := st.ActiveView()
		if !export.ExportPDF(ctx, st.Regions(), view.RegionID(), PDFFilename(info.Title, view), sink) {
			err = fmt.Errorf("%w: could not export the %s view to PDF", apperrors.ErrExportFailed, view)
		}
	case FormatMIDI:
		err = sh.exportMIDI(ctx, st, info, sink)
	case FormatMusicXML:
		err = export.ExportMusicXML(info, sink)
	case FormatSMF:
		var notes []midi.Note
		if a := st.Analysis(); a != nil {
			notes = midi.FromAnalysis(a.PianoNotes())
		}
		err = export.ExportSMF(info, notes, sink)
	default:
		err = fmt.Errorf("%w: %q", apperrors.ErrUnknownFormat, format)
	}

	if err != nil {
		log.ErrorContext(ctx, "export failed", slog.Any("error", err))
		return err
	}
	log.InfoContext(ctx, "export complete")
	return nil
}

// exportMIDI downloads the service's MIDI when there is a transcription and
// falls back to the structured note document otherwise.
func (sh *Shell) exportMIDI(ctx context.Context, st State, info song.Info, sink export.Sink) error {
	if st.Transcription == nil || st.Transcription.FileID == "" {
		return export.ExportMidiData(info, sink)
	}

	data, err := sh.client.DownloadMIDI(ctx, st.Transcription.FileID)
	if err != nil {
		return err
	}
	return sink.Deliver(data, info.Title+".mid", "audio/midi")
}
