package midi

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dygy/transcription-studio/internal/analysis"
)

// Note represents a single MIDI note
type Note struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
}

const defaultVelocity = 90

var pitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns scientific pitch notation for a MIDI note number (60 = C4)
func NoteName(pitch int) string {
	octave := pitch/12 - 1
	class := pitch % 12
	if class < 0 {
		class += 12
		octave--
	}
	return pitchClasses[class] + strconv.Itoa(octave)
}

// ParseNoteName converts names like "C4", "F#3" or "Bb2" to a MIDI note number
func ParseNoteName(name string) (int, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note name %q", name)
	}

	step := strings.ToUpper(name[:1])
	class := -1
	for i, pc := range pitchClasses {
		if pc == step {
			class = i
			break
		}
	}
	if class < 0 {
		return 0, fmt.Errorf("invalid note name %q", name)
	}

	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q", name)
	}

	pitch := (octave+1)*12 + class
	if pitch < 0 || pitch > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", name)
	}
	return pitch, nil
}

// FromAnalysis converts service notes into MIDI notes, dropping pitches
// outside the MIDI range.
func FromAnalysis(notes []analysis.Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		pitch := int(math.Round(n.Pitch))
		if pitch < 0 || pitch > 127 || n.Duration <= 0 {
			continue
		}
		vel := n.Velocity
		if vel <= 0 || vel > 127 {
			vel = defaultVelocity
		}
		out = append(out, Note{
			Pitch:    pitch,
			Start:    n.Time,
			Duration: n.Duration,
			Velocity: vel,
		})
	}
	return out
}
