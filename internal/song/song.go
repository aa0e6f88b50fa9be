package song

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/dygy/transcription-studio/internal/midi"
)

const (
	DefaultTitle         = "Untitled Song"
	DefaultKey           = "C Major"
	DefaultTempo         = 120
	DefaultTimeSignature = "4/4"
)

var extension = regexp.MustCompile(`\.[^/.]+$`)

// Info is the song metadata handed to exporters and views
type Info struct {
	Title         string `json:"title"`
	Key           string `json:"key"`
	Tempo         int    `json:"tempo"`
	TimeSignature string `json:"timeSignature"`
}

// NoteEvent is one entry of the structured note export
type NoteEvent struct {
	Note     string  `json:"note"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
}

// Default returns the metadata used before anything is uploaded
func Default() Info {
	return Info{
		Title:         DefaultTitle,
		Key:           DefaultKey,
		Tempo:         DefaultTempo,
		TimeSignature: DefaultTimeSignature,
	}
}

// TitleFromFilename strips the last extension. An empty result falls back
// to the default title.
func TitleFromFilename(name string) string {
	title := extension.ReplaceAllString(name, "")
	if title == "" {
		return DefaultTitle
	}
	return title
}

// FromUpload derives song metadata from the uploaded filename and, when
// present, the service analysis. Zero values fall back to defaults.
func FromUpload(filename string, a *analysis.Analysis) Info {
	info := Default()
	if filename != "" {
		info.Title = TitleFromFilename(filename)
	}
	if a == nil {
		return info
	}
	if a.Key != "" {
		info.Key = a.Key
	}
	if tempo := int(math.Round(a.Tempo)); tempo > 0 {
		info.Tempo = tempo
	}
	if a.TimeSignature != "" {
		info.TimeSignature = a.TimeSignature
	}
	return info
}

// ParseTimeSignature splits an "N/M" signature
func ParseTimeSignature(sig string) (beats, beatType int, err error) {
	num, den, ok := strings.Cut(strings.TrimSpace(sig), "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time signature %q", sig)
	}
	beats, err = strconv.Atoi(strings.TrimSpace(num))
	if err != nil || beats <= 0 {
		return 0, 0, fmt.Errorf("invalid time signature %q", sig)
	}
	beatType, err = strconv.Atoi(strings.TrimSpace(den))
	if err != nil || beatType <= 0 || beatType&(beatType-1) != 0 {
		return 0, 0, fmt.Errorf("invalid time signature %q", sig)
	}
	return beats, beatType, nil
}

// PlaceholderNotes is the fixed illustrative sequence used when no real
// transcription backs an export: four quarter notes C4-F4, 0.5s apart.
func PlaceholderNotes() []NoteEvent {
	return []NoteEvent{
		{Note: "C4", Time: 0, Duration: 0.5},
		{Note: "D4", Time: 0.5, Duration: 0.5},
		{Note: "E4", Time: 1, Duration: 0.5},
		{Note: "F4", Time: 1.5, Duration: 0.5},
	}
}

// ToMIDI converts note events into MIDI notes
func ToMIDI(events []NoteEvent) ([]midi.Note, error) {
	out := make([]midi.Note, 0, len(events))
	for _, ev := range events {
		pitch, err := midi.ParseNoteName(ev.Note)
		if err != nil {
			return nil, err
		}
		out = append(out, midi.Note{Pitch: pitch, Start: ev.Time, Duration: ev.Duration, Velocity: 90})
	}
	return out, nil
}
