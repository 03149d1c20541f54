package project

import "seqcore/routing"

// ClockSetup is the persisted subset of clock.Clock's configuration
// (spec.md §4.8): mode, master BPM/swing are carried on Project directly
// since spec.md §3 lists tempo/swing as project-level fields; this struct
// holds the per-slave divisor/enabled configuration and output shaping
// that clock.Clock itself doesn't own persistently.
type ClockSetup struct {
	ClockMode          int // mirrors clock.Mode; kept as int to avoid a project->clock dependency cycle in the data model
	SlaveDivisor       [SlaveCount]int
	SlaveEnabled       [SlaveCount]bool
	OutputDivisor      int
	OutputPulseWidthUs int
}

func NewClockSetup() ClockSetup {
	cs := ClockSetup{
		OutputDivisor:      OutputDivisorDefault,
		OutputPulseWidthUs: OutputPulseWidthUsDef,
	}
	for i := range cs.SlaveDivisor {
		cs.SlaveDivisor[i] = 24
	}
	return cs
}

// MidiOutputMap assigns each track a destination MIDI port name and
// channel (spec.md §4.8 "MIDI-output map").
type MidiOutputMap struct {
	Port    [TrackCount]string
	Channel [TrackCount]int
}

func NewMidiOutputMap() MidiOutputMap {
	m := MidiOutputMap{}
	for i := range m.Channel {
		m.Channel[i] = i % 16
	}
	return m
}

// Project owns everything, per spec.md §3: one per live editing session,
// created empty on cold boot, destroyed on project switch, persisted as a
// single versioned stream (spec.md §4.8). Children hold no back-pointers;
// context is passed explicitly on each evaluation (spec.md §3's lifecycle
// note).
type Project struct {
	Name  string // <= 8 chars
	Tempo float64
	Swing int // percent, 50-75

	SlotIndex int // -1 if not assigned to a hardware slot

	Routing     routing.Table
	ClockSetup  ClockSetup
	MidiOutputs MidiOutputMap
	UserScales  [UserScaleCount]Scale

	Song      *Song
	PlayState *PlayState

	Tracks [TrackCount]*Track
}

// NewProject returns an empty project: eight Note tracks, idle play state,
// an empty song, default clock setup (spec.md §3's "created empty on cold
// boot").
func NewProject() *Project {
	p := &Project{
		Tempo:       120,
		Swing:       50,
		SlotIndex:   -1,
		ClockSetup:  NewClockSetup(),
		MidiOutputs: NewMidiOutputMap(),
		Song:        NewSong(),
		PlayState:   NewPlayState(),
	}
	for i := 0; i < UserScaleCount; i++ {
		p.UserScales[i] = Scale{Name: "User", Degrees: []int{0, 2, 4, 5, 7, 9, 11}}
	}
	for i := range p.Tracks {
		p.Tracks[i] = NewTrack(i, VariantNote)
	}
	return p
}

// SetName clamps to spec.md §3's 8-character limit.
func (p *Project) SetName(name string) {
	if len(name) > 8 {
		name = name[:8]
	}
	p.Name = name
}

// SetTempo clamps to spec.md §3's [1,1000] BPM.
func (p *Project) SetTempo(bpm float64) { p.Tempo = clampFloat(bpm, 1, 1000) }

// SetSwing clamps to spec.md §3's [50,75] percent.
func (p *Project) SetSwing(pct int) { p.Swing = clampInt(pct, 50, 75) }

// MidiChannel returns the MIDI channel configured for track i's output
// (spec.md §4.8's MIDI-output map).
func (p *Project) MidiChannel(i int) int {
	if i < 0 || i >= TrackCount {
		return 0
	}
	return p.MidiOutputs.Channel[i]
}

// Scale resolves a sequence's ScaleIndex: indices below UserScaleCount
// select a user scale, the rest fall through to the builtin table
// (spec.md §3: "U user-scales" alongside the builtin set implied by
// "scale index" on every Sequence).
func (p *Project) Scale(index int) Scale {
	if index >= 0 && index < UserScaleCount {
		return p.UserScales[index]
	}
	return ScaleByIndex(index - UserScaleCount)
}
