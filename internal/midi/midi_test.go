package midi

import (
	"bytes"
	"testing"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		pitch int
		want  string
	}{
		{60, "C4"},
		{62, "D4"},
		{61, "C#4"},
		{69, "A4"},
		{21, "A0"},
		{0, "C-1"},
		{127, "G9"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NoteName(tt.pitch))
		})
	}
}

func TestParseNoteName(t *testing.T) {
	for _, name := range []string{"C4", "F#3", "A0", "G9"} {
		pitch, err := ParseNoteName(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, NoteName(pitch))
	}

	pitch, err := ParseNoteName("Bb2")
	require.NoError(t, err)
	assert.Equal(t, 46, pitch)

	for _, bad := range []string{"", "H4", "C", "Cx", "G10"} {
		_, err := ParseNoteName(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromAnalysis(t *testing.T) {
	notes := FromAnalysis([]analysis.Note{
		{Pitch: 60.2, Time: 0.5, Duration: 0.25, Velocity: 100},
		{Pitch: 64, Time: 1, Duration: 0.5, Velocity: 0},
		{Pitch: 200, Time: 1, Duration: 0.5, Velocity: 80},
		{Pitch: 65, Time: 2, Duration: 0, Velocity: 80},
	})

	require.Len(t, notes, 2)
	assert.Equal(t, Note{Pitch: 60, Start: 0.5, Duration: 0.25, Velocity: 100}, notes[0])
	assert.Equal(t, defaultVelocity, notes[1].Velocity)
}

func TestEncodeDecode(t *testing.T) {
	notes := []Note{
		{Pitch: 60, Start: 0, Duration: 0.5, Velocity: 90},
		{Pitch: 62, Start: 0.5, Duration: 0.5, Velocity: 90},
		{Pitch: 64, Start: 1, Duration: 0.5, Velocity: 90},
		{Pitch: 65, Start: 1.5, Duration: 0.5, Velocity: 90},
	}

	data, err := Encode(notes, EncodeOptions{TrackName: "Piano", BPM: 120, Beats: 3, BeatType: 4})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("MThd")), "expected SMF header chunk")

	seq, err := Decode(data)
	require.NoError(t, err)

	assert.InDelta(t, 120, seq.BPM, 0.01)
	assert.Contains(t, seq.TrackNames, "Piano")
	require.Len(t, seq.Notes, len(notes))
	for i, n := range seq.Notes {
		assert.Equal(t, notes[i].Pitch, n.Pitch)
		assert.InDelta(t, notes[i].Start, n.Start, 0.01)
		assert.InDelta(t, notes[i].Duration, n.Duration, 0.01)
	}
	assert.InDelta(t, 2.0, seq.Duration, 0.01)
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	_, err := Encode([]Note{{Pitch: 128, Duration: 1}}, EncodeOptions{})
	assert.Error(t, err)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not a midi file"))
	assert.Error(t, err)
}
