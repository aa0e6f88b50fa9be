package export

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
	"github.com/dygy/transcription-studio/internal/midi"
	"github.com/dygy/transcription-studio/internal/song"
)

// MidiData is the structured note document
type MidiData struct {
	Title         string  `json:"title"`
	Tempo         int     `json:"tempo"`
	TimeSignature string  `json:"timeSignature"`
	Key           string  `json:"key"`
	Tracks        []Track `json:"tracks"`
}

type Track struct {
	Name  string           `json:"name"`
	Notes []song.NoteEvent `json:"notes"`
}

// NewMidiData builds the note document for a song. The single piano track
// holds the illustrative placeholder sequence.
func NewMidiData(info song.Info) MidiData {
	return MidiData{
		Title:         info.Title,
		Tempo:         info.Tempo,
		TimeSignature: info.TimeSignature,
		Key:           info.Key,
		Tracks:        []Track{{Name: "Piano", Notes: song.PlaceholderNotes()}},
	}
}

// ExportMidiData delivers the note document as "<title>_midi_data.json"
func ExportMidiData(info song.Info, sink Sink) error {
	data, err := json.MarshalIndent(NewMidiData(info), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}
	return sink.Deliver(data, info.Title+"_midi_data.json", "application/json")
}

// ExportSMF encodes notes as a Standard MIDI File and delivers it as
// "<title>.mid". With no notes the placeholder sequence is written.
func ExportSMF(info song.Info, notes []midi.Note, sink Sink) error {
	if len(notes) == 0 {
		var err error
		notes, err = song.ToMIDI(song.PlaceholderNotes())
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
		}
	}

	beats, beatType, err := song.ParseTimeSignature(info.TimeSignature)
	if err != nil {
		beats, beatType = 4, 4
	}

	data, err := midi.Encode(notes, midi.EncodeOptions{
		TrackName: "Piano",
		BPM:       float64(info.Tempo),
		Beats:     uint8(beats),
		BeatType:  uint8(beatType),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}
	return sink.Deliver(data, info.Title+".mid", "audio/midi")
}
