package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dygy/transcription-studio/internal/audio"
	"github.com/dygy/transcription-studio/internal/cache"
	"github.com/dygy/transcription-studio/internal/export"
	"github.com/dygy/transcription-studio/internal/progress"
	"github.com/dygy/transcription-studio/internal/render"
	"github.com/dygy/transcription-studio/internal/studio"
)

// transcribeJob is one run of the transcribe command
type transcribeJob struct {
	shell     *studio.Shell
	reporter  *progress.Reporter
	sink      export.Sink
	responses *cache.ResponseCache // nil disables the cache

	view          render.View
	formats       []studio.Format
	titleFromTags bool
	saveAnalysis  bool
}

// run validates the audio, transcribes it (or reuses a cached response) and
// exports every requested format. A failed transcription is not an error:
// the exports fall back to the demo views.
func (j transcribeJob) run(ctx context.Context, path string) (studio.State, error) {
	st := studio.State{View: j.view}

	// Stage 1: Validate
	j.reporter.StartStage(progress.StageValidate)
	meta, err := audio.Probe(path)
	if err != nil {
		j.reporter.Error(err)
		return st, err
	}
	j.reporter.StageComplete("Valid %s file (%.1fs)", meta.Format, meta.Duration)
	if meta.Title != "" || meta.Artist != "" {
		j.reporter.Update("Tags: %s / %s", meta.Title, meta.Artist)
	}

	// Stage 2: Transcribe
	j.reporter.StartStage(progress.StageTranscribe)
	if err := j.transcribe(ctx, &st, path); err != nil {
		return st, err
	}
	if st.Transcription != nil {
		a := st.Analysis()
		j.reporter.StageComplete("Key: %s, Tempo: %.0f BPM, Time: %s", a.Key, a.Tempo, a.TimeSignature)
		j.reporter.Update("%d notes, chords: %s", len(a.Notes), strings.Join(a.ChordProgression, " "))
	}

	if j.titleFromTags && meta.Title != "" {
		info := st.SongInfo()
		info.Title = meta.Title
		st.Song = &info
	}

	// Stage 3: Export
	j.reporter.StartStage(progress.StageExport)
	if j.saveAnalysis && st.Transcription != nil {
		name := st.SongInfo().Title + "_analysis.json"
		if err := j.sink.Deliver(indentJSON(st.Transcription.Raw), name, "application/json"); err != nil {
			j.reporter.Warning("could not save analysis: %v", err)
		}
	}

	var failed int
	for _, f := range j.formats {
		if err := j.shell.Export(ctx, st, f, j.sink); err != nil {
			j.reporter.Error(fmt.Errorf("%s: %w", f, err))
			failed++
		}
	}
	if failed > 0 {
		return st, fmt.Errorf("%d of %d exports failed", failed, len(j.formats))
	}
	return st, nil
}

// transcribe fills st from the cache or the service. Only cancellation is
// returned as an error.
func (j transcribeJob) transcribe(ctx context.Context, st *studio.State, path string) error {
	var key string
	if j.responses != nil {
		var err error
		if key, err = cache.KeyForFile(path); err != nil {
			j.reporter.Update("Cache key: %v", err)
		} else if cached, ok := j.responses.Get(key); ok {
			st.AudioName = filepath.Base(path)
			st.AudioPath = path
			st.Transcription = cached.Response
			j.reporter.Update("Using cached response from %s", cached.CachedAt.Format("2006-01-02 15:04"))
			return nil
		}
	}

	if err := j.shell.UploadFile(ctx, st, path); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.reporter.Warning("%v; exporting demo views", err)
		return nil
	}

	if j.responses != nil && key != "" {
		if err := j.responses.Put(key, st.Transcription); err != nil {
			j.reporter.Update("Could not cache response: %v", err)
		}
	}
	return nil
}

func parseFormats(names []string) ([]studio.Format, error) {
	formats := make([]studio.Format, 0, len(names))
	for _, name := range names {
		f, err := studio.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}
