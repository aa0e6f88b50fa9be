package analysis

import (
	"encoding/json"
	"fmt"
	"os"
)

// TranscriptionResponse is the body returned by POST /transcribe/
type TranscriptionResponse struct {
	FileID   string   `json:"file_id"`
	Filename string   `json:"filename"`
	MidiURL  string   `json:"midi_url"`
	Analysis Analysis `json:"analysis"`

	// Raw holds the body exactly as received
	Raw json.RawMessage `json:"-"`
}

// Analysis contains the service's musical analysis of the upload
type Analysis struct {
	Tempo               float64     `json:"tempo"`
	Key                 string      `json:"key"`
	TimeSignature       string      `json:"time_signature"`
	Duration            float64     `json:"duration"`
	Notes               []Note      `json:"notes"`
	ChordProgression    []string    `json:"chord_progression"`
	Instruments         Instruments `json:"instruments"`
	TranscriptionMethod string      `json:"transcription_method,omitempty"`
	ModelConfidence     float64     `json:"model_confidence,omitempty"`
	Error               string      `json:"error,omitempty"`
}

// Note is a single detected note. Pitch is a MIDI note number; the service
// serialises it as a float.
type Note struct {
	Pitch      float64 `json:"pitch"`
	Time       float64 `json:"time"`
	Duration   float64 `json:"duration"`
	Velocity   int     `json:"velocity"`
	Instrument *int    `json:"instrument,omitempty"`
}

// Instruments groups per-instrument detection results
type Instruments struct {
	Piano  Piano  `json:"piano"`
	Guitar Guitar `json:"guitar"`
	Drums  Drums  `json:"drums"`
}

type Piano struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Notes      []Note  `json:"notes"`
}

type Guitar struct {
	Detected   bool     `json:"detected"`
	Confidence float64  `json:"confidence"`
	Chords     []string `json:"chords"`
}

type Drums struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern"`
}

// Parse decodes a transcription response and keeps the raw body
func Parse(data []byte) (*TranscriptionResponse, error) {
	var resp TranscriptionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}
	resp.Raw = append(json.RawMessage(nil), data...)
	return &resp, nil
}

// Load reads a saved transcription response from disk
func Load(path string) (*TranscriptionResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}
	return Parse(data)
}

// PianoNotes returns the notes attributed to the piano, falling back to
// every detected note.
func (a *Analysis) PianoNotes() []Note {
	if len(a.Instruments.Piano.Notes) > 0 {
		return a.Instruments.Piano.Notes
	}
	return a.Notes
}

// GuitarChords returns the guitar chords, falling back to the overall
// chord progression.
func (a *Analysis) GuitarChords() []string {
	if len(a.Instruments.Guitar.Chords) > 0 {
		return a.Instruments.Guitar.Chords
	}
	return a.ChordProgression
}
