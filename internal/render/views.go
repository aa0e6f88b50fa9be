package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/dygy/transcription-studio/internal/midi"
	"github.com/dygy/transcription-studio/internal/song"
)

// View names an instrument view
type View string

const (
	ViewPiano  View = "piano"
	ViewGuitar View = "guitar"
	ViewDrums  View = "drums"
)

// Views lists every view in display order
var Views = []View{ViewPiano, ViewGuitar, ViewDrums}

// ParseView validates a view name
func ParseView(name string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(name))); v {
	case ViewPiano, ViewGuitar, ViewDrums:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q (want piano, guitar or drums)", name)
}

// RegionID is the export id of a view
func (v View) RegionID() string {
	return string(v) + "-transcription"
}

// maxNoteRows bounds the piano note listing
const maxNoteRows = 400

// Fingerings for common open chords, low E to high E
var fingerings = map[string]string{
	"C":  "x32010",
	"D":  "xx0232",
	"Dm": "xx0231",
	"E":  "022100",
	"Em": "022000",
	"F":  "133211",
	"G":  "320003",
	"A":  "x02220",
	"Am": "x02210",
	"B7": "x21202",
}

var demoChords = []string{"C", "D", "Em", "G"}

var demoTab = []string{
	"E|--0--2--3--2--0--2--3--5--|",
	"B|--1--3--0--3--1--3--0--3--|",
	"G|--0--2--0--2--0--2--0--4--|",
	"D|--2--0--2--0--2--0--2--5--|",
	"A|--3--x--3--x--3--x--3--3--|",
	"E|--x--x--x--x--x--x--x--x--|",
	"   C  D  Em D  C  D  Em G",
}

var demoGroove = []string{
	"HH |x-x-x-x-x-x-x-x-|x-x-x-x-x-x-x-x-|",
	"SD |----o-------o---|----o-------o---|",
	"BD |o-------o-------|o-------o-------|",
	"   |1 e + a 2 e + a |3 e + a 4 e + a |",
}

var drumKit = []struct{ symbol, name, sound string }{
	{"HH", "Hi-Hat", "Closed/Open hi-hat"},
	{"SD", "Snare", "Snare drum"},
	{"BD", "Bass Drum", "Kick drum"},
	{"CC", "Crash", "Crash cymbal"},
	{"RD", "Ride", "Ride cymbal"},
	{"TT", "Tom", "Tom-tom"},
}

var demoProgressions = []string{
	"C Major - F Major - G Major - C Major",
	"Am - F - C - G",
	"Dm - G - Em - Am",
}

// Build returns the regions for every view. a may be nil, in which case
// the views show demo content.
func Build(info song.Info, a *analysis.Analysis) Set {
	set := Set{}
	for _, v := range Views {
		set.Add(BuildView(v, info, a))
	}
	return set
}

// BuildView renders a single view as a panel
func BuildView(v View, info song.Info, a *analysis.Analysis) *Panel {
	switch v {
	case ViewGuitar:
		return guitarPanel(info, a)
	case ViewDrums:
		return drumPanel(info, a)
	default:
		return pianoPanel(info, a)
	}
}

func header(info song.Info) string {
	return fmt.Sprintf("Key: %s   Tempo: %d BPM   Time: %s", info.Key, info.Tempo, info.TimeSignature)
}

func pianoPanel(info song.Info, a *analysis.Analysis) *Panel {
	lines := []string{header(info), ""}

	var notes []analysis.Note
	if a != nil {
		notes = a.PianoNotes()
	}

	if len(notes) == 0 {
		lines = append(lines, "Chord progressions:")
		for _, p := range demoProgressions {
			lines = append(lines, "  "+p)
		}
		lines = append(lines, "", "Demo transcription. Upload audio to see detected notes.")
		return NewPanel(ViewPiano.RegionID(), info.Title+" - Piano", lines)
	}

	if a.Instruments.Piano.Detected {
		lines = append(lines, fmt.Sprintf("Piano detected (confidence %.0f%%)", a.Instruments.Piano.Confidence*100))
	}
	lines = append(lines, fmt.Sprintf("%-6s %9s %9s %4s", "Note", "Time", "Length", "Vel"))
	for i, n := range notes {
		if i == maxNoteRows {
			lines = append(lines, fmt.Sprintf("... %d more notes", len(notes)-maxNoteRows))
			break
		}
		name := midi.NoteName(int(math.Round(n.Pitch)))
		lines = append(lines, fmt.Sprintf("%-6s %8.2fs %8.2fs %4d", name, n.Time, n.Duration, n.Velocity))
	}
	return NewPanel(ViewPiano.RegionID(), info.Title+" - Piano", lines)
}

func guitarPanel(info song.Info, a *analysis.Analysis) *Panel {
	lines := []string{header(info), ""}

	var chords []string
	if a != nil {
		chords = a.GuitarChords()
	}
	demo := len(chords) == 0
	if demo {
		chords = demoChords
	} else if a.Instruments.Guitar.Detected {
		lines = append(lines, fmt.Sprintf("Guitar detected (confidence %.0f%%)", a.Instruments.Guitar.Confidence*100))
	}

	lines = append(lines, "Chord chart:")
	for _, c := range chords {
		frets, ok := fingerings[c]
		if !ok {
			frets = "?"
		}
		lines = append(lines, fmt.Sprintf("  %-6s %s", c, frets))
	}
	lines = append(lines, "", "Progression: "+strings.Join(chords, " - "))

	if demo {
		lines = append(lines, "", "Tablature:")
		lines = append(lines, demoTab...)
		lines = append(lines, "", "Demo transcription. Upload audio to see detected chords.")
	}
	return NewPanel(ViewGuitar.RegionID(), info.Title+" - Guitar", lines)
}

func drumPanel(info song.Info, a *analysis.Analysis) *Panel {
	lines := []string{header(info), ""}

	if a != nil && a.Instruments.Drums.Detected {
		lines = append(lines,
			fmt.Sprintf("Drums detected (confidence %.0f%%)", a.Instruments.Drums.Confidence*100),
			"Pattern: "+a.Instruments.Drums.Pattern,
			"",
		)
	} else if a != nil {
		lines = append(lines, "No drums detected.", "")
	}

	lines = append(lines, "Groove:")
	lines = append(lines, demoGroove...)
	lines = append(lines, "", "Kit:")
	for _, k := range drumKit {
		lines = append(lines, fmt.Sprintf("  %-3s %-10s %s", k.symbol, k.name, k.sound))
	}
	lines = append(lines, "", "x = hit   o = accent/open   - = rest")
	return NewPanel(ViewDrums.RegionID(), info.Title+" - Drums", lines)
}
