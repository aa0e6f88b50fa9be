package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the resolution of files written by Encode
const TicksPerQuarter = 480

const defaultBPM = 120.0

// EncodeOptions describes the header of an encoded track
type EncodeOptions struct {
	TrackName string
	BPM       float64
	Beats     uint8
	BeatType  uint8
	Channel   uint8
}

// Sequence is the decoded content of a Standard MIDI File
type Sequence struct {
	Notes      []Note
	BPM        float64 // first tempo in the file
	TrackNames []string
	Duration   float64 // end of the last note, in seconds
}

type timedMessage struct {
	tick uint32
	msg  []byte
	off  bool
}

// Encode writes notes as a single-track Standard MIDI File
func Encode(notes []Note, opts EncodeOptions) ([]byte, error) {
	bpm := opts.BPM
	if bpm <= 0 {
		bpm = defaultBPM
	}
	beats, beatType := opts.Beats, opts.BeatType
	if beats == 0 || beatType == 0 {
		beats, beatType = 4, 4
	}

	toTicks := func(seconds float64) uint32 {
		if seconds <= 0 {
			return 0
		}
		return uint32(math.Round(seconds * bpm / 60 * TicksPerQuarter))
	}

	events := make([]timedMessage, 0, len(notes)*2)
	for _, n := range notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, fmt.Errorf("note pitch %d out of range", n.Pitch)
		}
		vel := n.Velocity
		if vel <= 0 || vel > 127 {
			vel = defaultVelocity
		}
		on := toTicks(n.Start)
		off := toTicks(n.Start + n.Duration)
		if off <= on {
			off = on + 1
		}
		events = append(events,
			timedMessage{tick: on, msg: gomidi.NoteOn(opts.Channel, uint8(n.Pitch), uint8(vel))},
			timedMessage{tick: off, msg: gomidi.NoteOff(opts.Channel, uint8(n.Pitch)), off: true},
		)
	}

	// note-offs sort ahead of note-ons on the same tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var track smf.Track
	if opts.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(opts.TrackName))
	}
	track.Add(0, smf.MetaTempo(bpm))
	track.Add(0, smf.MetaMeter(beats, beatType))

	var last uint32
	for _, ev := range events {
		track.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write smf: %w", err)
	}
	return buf.Bytes(), nil
}

type tempoChange struct {
	tick uint64
	bpm  float64
}

// Decode parses a Standard MIDI File into absolute-time notes
func Decode(data []byte) (seq *Sequence, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			seq = nil
			err = fmt.Errorf("parse midi file: %v", r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse midi file: %w", err)
	}

	tf, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || tf == 0 {
		return nil, errors.New("parse midi file: only metric time formats are supported")
	}
	ppq := float64(tf)

	// tempo map across all tracks
	var tempos []tempoChange
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tempos = append(tempos, tempoChange{tick: abs, bpm: bpm})
			}
		}
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })

	seconds := func(tick uint64) float64 {
		bpm := defaultBPM
		var lastTick uint64
		var elapsed float64
		for _, tc := range tempos {
			if tc.tick >= tick {
				break
			}
			elapsed += float64(tc.tick-lastTick) / ppq * 60 / bpm
			lastTick = tc.tick
			bpm = tc.bpm
		}
		return elapsed + float64(tick-lastTick)/ppq*60/bpm
	}

	seq = &Sequence{BPM: defaultBPM}
	if len(tempos) > 0 {
		seq.BPM = tempos[0].bpm
	}

	for _, track := range s.Tracks {
		var abs uint64
		open := make(map[uint16][]Note)
		for _, ev := range track {
			abs += uint64(ev.Delta)

			var name string
			if ev.Message.GetMetaTrackName(&name) && name != "" {
				seq.TrackNames = append(seq.TrackNames, name)
				continue
			}

			msg := gomidi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				id := uint16(ch)<<8 | uint16(key)
				open[id] = append(open[id], Note{Pitch: int(key), Start: seconds(abs), Velocity: int(vel)})
			case msg.GetNoteEnd(&ch, &key):
				id := uint16(ch)<<8 | uint16(key)
				pending := open[id]
				if len(pending) == 0 {
					continue
				}
				n := pending[0]
				open[id] = pending[1:]
				n.Duration = seconds(abs) - n.Start
				seq.Notes = append(seq.Notes, n)
			}
		}
	}

	sort.SliceStable(seq.Notes, func(i, j int) bool { return seq.Notes[i].Start < seq.Notes[j].Start })
	for _, n := range seq.Notes {
		if end := n.Start + n.Duration; end > seq.Duration {
			seq.Duration = end
		}
	}
	return seq, nil
}
