package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "file_id": "3f2a",
  "filename": "song.mp3",
  "midi_url": "/download/midi/3f2a",
  "analysis": {
    "tempo": 117.45,
    "key": "G Major",
    "time_signature": "4/4",
    "duration": 12.5,
    "notes": [{"pitch": 60.0, "time": 0.1, "duration": 0.4, "velocity": 90, "instrument": 0}],
    "chord_progression": ["G", "C", "D", "G"],
    "instruments": {
      "piano": {"detected": true, "confidence": 0.8, "notes": []},
      "guitar": {"detected": false, "confidence": 0.1, "chords": []},
      "drums": {"detected": true, "confidence": 0.6, "pattern": "Rock"}
    },
    "transcription_method": "basic-pitch AI",
    "model_confidence": 0.72
  }
}`

func TestParse(t *testing.T) {
	resp, err := Parse([]byte(sampleResponse))
	require.NoError(t, err)

	assert.Equal(t, "3f2a", resp.FileID)
	assert.Equal(t, "/download/midi/3f2a", resp.MidiURL)
	assert.Equal(t, 117.45, resp.Analysis.Tempo)
	assert.Equal(t, "G Major", resp.Analysis.Key)
	require.Len(t, resp.Analysis.Notes, 1)
	assert.Equal(t, 60.0, resp.Analysis.Notes[0].Pitch)
	require.NotNil(t, resp.Analysis.Notes[0].Instrument)
	assert.Equal(t, "Rock", resp.Analysis.Instruments.Drums.Pattern)
	assert.JSONEq(t, sampleResponse, string(resp.Raw))
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"file_id": 12`))
	assert.Error(t, err)
}

func TestFallbacks(t *testing.T) {
	resp, err := Parse([]byte(sampleResponse))
	require.NoError(t, err)

	// empty piano notes fall back to all notes
	assert.Len(t, resp.Analysis.PianoNotes(), 1)
	// empty guitar chords fall back to the progression
	assert.Equal(t, []string{"G", "C", "D", "G"}, resp.Analysis.GuitarChords())

	resp.Analysis.Instruments.Guitar.Chords = []string{"Em"}
	assert.Equal(t, []string{"Em"}, resp.Analysis.GuitarChords())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleResponse), 0644))

	resp, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "song.mp3", resp.Filename)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
