package serialize

import (
	"io"

	"seqcore/project"
	"seqcore/routing"
)

// Magic identifies a seqcore project stream; CurrentVersion is the version
// this build always writes (spec.md §6's "writers always emit current
// version"). A reader refuses any version greater than CurrentVersion.
const (
	magic          = "SQC1"
	CurrentVersion = 1
)

// WriteProject writes p to w in spec.md §4.8's fixed field order: header,
// project globals, clock-setup, routing, MIDI-output map, user scales,
// song, play-state, tracks, trailer checksum.
func WriteProject(w io.Writer, p *project.Project) error {
	sw := newWriter(w)

	sw.write([]byte(magic))
	sw.u16(CurrentVersion)
	sw.u16(0) // reserved

	writeGlobals(sw, p)
	writeClockSetup(sw, &p.ClockSetup)
	writeRouting(sw, &p.Routing)
	writeMidiMap(sw, &p.MidiOutputs)
	for i := range p.UserScales {
		writeScale(sw, &p.UserScales[i])
	}
	writeSong(sw, p.Song)
	writePlayState(sw, p.PlayState)
	for i := range p.Tracks {
		writeTrack(sw, p.Tracks[i])
	}

	if sw.err != nil {
		return sw.err
	}
	return sw.trailer()
}

// ReadProject parses a stream written by WriteProject. On any ProtocolError
// the caller's existing project is left untouched, per spec.md §7's
// "recovered by refusing the load" policy — this function never mutates
// its argument in place; it always returns a freshly built *project.Project.
func ReadProject(r io.Reader) (*project.Project, error) {
	sr := newReader(r)

	var magicBuf [4]byte
	sr.read(magicBuf[:])
	if sr.err != nil {
		return nil, &ProtocolError{Reason: "truncated header"}
	}
	if string(magicBuf[:]) != magic {
		return nil, &ProtocolError{Reason: "bad magic"}
	}

	version := sr.u16()
	sr.u16() // reserved
	if version > CurrentVersion {
		return nil, &ProtocolError{Reason: "unsupported version"}
	}
	sr.version = version

	p := project.NewProject()

	readGlobals(sr, p)
	readClockSetup(sr, &p.ClockSetup)
	readRouting(sr, &p.Routing)
	readMidiMap(sr, &p.MidiOutputs)
	for i := range p.UserScales {
		p.UserScales[i] = readScale(sr)
	}
	readSong(sr, p.Song)
	readPlayState(sr, p.PlayState)
	for i := range p.Tracks {
		p.Tracks[i] = readTrack(sr)
	}

	if sr.err != nil {
		return nil, &ProtocolError{Reason: "truncated body"}
	}
	if err := sr.checkTrailer(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeGlobals(w *writer, p *project.Project) {
	w.str(p.Name)
	w.f64(p.Tempo)
	w.u8(uint8(p.Swing))
	w.i16(int16(p.SlotIndex))
}

func readGlobals(r *reader, p *project.Project) {
	p.Name = r.str()
	p.Tempo = r.f64()
	p.Swing = int(r.u8())
	p.SlotIndex = int(r.i16())
}

func writeClockSetup(w *writer, cs *project.ClockSetup) {
	w.i8(int8(cs.ClockMode))
	for i := range cs.SlaveDivisor {
		w.u8(uint8(cs.SlaveDivisor[i]))
		w.bool(cs.SlaveEnabled[i])
	}
	w.u16(uint16(cs.OutputDivisor))
	w.u16(uint16(cs.OutputPulseWidthUs))
}

func readClockSetup(r *reader, cs *project.ClockSetup) {
	cs.ClockMode = int(r.i8())
	for i := range cs.SlaveDivisor {
		cs.SlaveDivisor[i] = int(r.u8())
		cs.SlaveEnabled[i] = r.bool()
	}
	cs.OutputDivisor = int(r.u16())
	cs.OutputPulseWidthUs = int(r.u16())
}

func writeMidiMap(w *writer, m *project.MidiOutputMap) {
	for i := range m.Port {
		w.str(m.Port[i])
		w.u8(uint8(m.Channel[i]))
	}
}

func readMidiMap(r *reader, m *project.MidiOutputMap) {
	for i := range m.Port {
		m.Port[i] = r.str()
		m.Channel[i] = int(r.u8())
	}
}

func writeScale(w *writer, s *project.Scale) {
	w.str(s.Name)
	w.u8(uint8(len(s.Degrees)))
	for _, d := range s.Degrees {
		w.i8(int8(d))
	}
}

func readScale(r *reader) project.Scale {
	name := r.str()
	n := r.u8()
	degrees := make([]int, n)
	for i := range degrees {
		degrees[i] = int(r.i8())
	}
	return project.Scale{Name: name, Degrees: degrees}
}

func writeSong(w *writer, s *project.Song) {
	w.bool(s.Active)
	w.i16(int16(s.CurrentSlot))
	w.i16(int16(s.RepeatsLeft))
	w.u16(uint16(len(s.Slots)))
	for _, slot := range s.Slots {
		for _, p := range slot.Patterns {
			w.u8(uint8(p))
		}
		w.u16(uint16(slot.Repeats))
	}
}

func readSong(r *reader, s *project.Song) {
	s.Active = r.bool()
	s.CurrentSlot = int(r.i16())
	s.RepeatsLeft = int(r.i16())
	n := r.u16()
	s.Slots = make([]project.SongSlot, n)
	for i := range s.Slots {
		var slot project.SongSlot
		for t := range slot.Patterns {
			slot.Patterns[t] = int(r.u8())
		}
		slot.Repeats = int(r.u16())
		s.Slots[i] = slot
	}
}

func writePlayState(w *writer, ps *project.PlayState) {
	w.bool(ps.Running)
	w.i32(int32(ps.Measure))
	w.i32(int32(ps.TickInMeasure))
	w.bool(ps.FillLatched)
	w.u8(uint8(ps.FillAmount))
	w.bool(ps.FollowPattern)
	w.bool(ps.FollowPage)
	w.bool(ps.FollowTrack)

	for i := range ps.Tracks {
		t := &ps.Tracks[i]
		w.bool(t.Mute)
		w.bool(t.Solo)
		w.bool(t.Fill)
		w.u8(uint8(t.Pattern))
		w.i16(int16(t.PendingPattern))
		w.i8(int8(t.PendingMute))
		w.i8(int8(t.PendingSolo))
	}

	w.u16(uint16(len(ps.Scheduled)))
	for _, a := range ps.Scheduled {
		w.i32(int32(a.WhenMeasure))
		w.u8(uint8(a.Track))
		w.u8(uint8(a.Op))
		w.i32(int32(a.Value))
	}
	w.i32(int32(ps.OverflowCount))
}

func readPlayState(r *reader, ps *project.PlayState) {
	ps.Running = r.bool()
	ps.Measure = int(r.i32())
	ps.TickInMeasure = int(r.i32())
	ps.FillLatched = r.bool()
	ps.FillAmount = int(r.u8())
	ps.FollowPattern = r.bool()
	ps.FollowPage = r.bool()
	ps.FollowTrack = r.bool()

	for i := range ps.Tracks {
		t := &ps.Tracks[i]
		t.Mute = r.bool()
		t.Solo = r.bool()
		t.Fill = r.bool()
		t.Pattern = int(r.u8())
		t.PendingPattern = int(r.i16())
		t.PendingMute = int(r.i8())
		t.PendingSolo = int(r.i8())
	}

	n := r.u16()
	ps.Scheduled = make([]project.ScheduledAction, n)
	for i := range ps.Scheduled {
		ps.Scheduled[i] = project.ScheduledAction{
			WhenMeasure: int(r.i32()),
			Track:       int(r.u8()),
			Op:          project.ScheduleOp(r.u8()),
			Value:       int(r.i32()),
		}
	}
	ps.OverflowCount = int(r.i32())
}

func writeRoutable(w *writer, local, override float64, routed bool) {
	w.f64(local)
	w.f64(override)
	w.bool(routed)
}

func readRoutable(r *reader) (local, override float64, routed bool) {
	return r.f64(), r.f64(), r.bool()
}

func writeTrack(w *writer, t *project.Track) {
	w.u8(uint8(t.Variant))
	w.u8(uint8(t.Index))
	w.str(t.Name)
	w.u8(uint8(t.PlayMode))
	w.u8(uint8(t.FillMode))
	w.u8(uint8(t.CvUpdateMode))

	writeRoutable(w, t.SlideTime.Local, t.SlideTime.Override, t.SlideTime.Routed)
	writeRoutable(w, float64(t.Octave.Local), float64(t.Octave.Override), t.Octave.Routed)
	writeRoutable(w, float64(t.Transpose.Local), float64(t.Transpose.Override), t.Transpose.Routed)
	writeRoutable(w, float64(t.Rotate.Local), float64(t.Rotate.Override), t.Rotate.Routed)

	w.i16(int16(t.GateProbabilityBias))
	w.i16(int16(t.RetriggerProbabilityBias))
	w.i16(int16(t.LengthBias))
	w.i16(int16(t.NoteProbabilityBias))

	for i := range t.Sequences {
		writeSequence(w, t.Variant, &t.Sequences[i])
	}
}

func readTrack(r *reader) *project.Track {
	variant := project.Variant(r.u8())
	t := project.NewTrack(0, variant)
	t.Index = int(r.u8())
	t.Name = r.str()
	t.PlayMode = project.PlayMode(r.u8())
	t.FillMode = project.FillMode(r.u8())
	t.CvUpdateMode = project.CvUpdateMode(r.u8())

	local, override, routed := readRoutable(r)
	t.SlideTime.Local, t.SlideTime.Override, t.SlideTime.Routed = local, override, routed
	local, override, routed = readRoutable(r)
	t.Octave.Local, t.Octave.Override, t.Octave.Routed = int(local), int(override), routed
	local, override, routed = readRoutable(r)
	t.Transpose.Local, t.Transpose.Override, t.Transpose.Routed = int(local), int(override), routed
	local, override, routed = readRoutable(r)
	t.Rotate.Local, t.Rotate.Override, t.Rotate.Routed = int(local), int(override), routed

	t.GateProbabilityBias = int(r.i16())
	t.RetriggerProbabilityBias = int(r.i16())
	t.LengthBias = int(r.i16())
	t.NoteProbabilityBias = int(r.i16())

	for i := range t.Sequences {
		t.Sequences[i] = readSequence(r, variant)
	}
	return t
}

func writeSequence(w *writer, variant project.Variant, s *project.Sequence) {
	w.i16(int16(s.ScaleIndex))
	w.u8(uint8(s.RootNote))
	w.u16(uint16(s.ClockDivisor))
	w.u8(uint8(s.RunMode))
	w.u8(uint8(s.FirstStep))
	w.u8(uint8(s.LastStep))
	w.u16(uint16(s.ResetMeasure))

	// Bit-packed step records are emitted verbatim (spec.md §9): Curve and
	// MidiCv use the narrower 32-bit layout, every other variant the wide
	// 64-bit-plus-logic-byte layout (spec.md §3).
	if variant == project.VariantCurve || variant == project.VariantMidiCv {
		for i := range s.CurveSteps {
			w.u32(s.CurveSteps[i].Raw())
		}
	} else {
		for i := range s.Steps {
			bits, logic := s.Steps[i].Raw()
			w.u64(bits)
			w.u8(logic)
		}
	}

	switch variant {
	case project.VariantStochastic:
		e := s.Stochastic
		w.u8(uint8(e.RestProbability2))
		w.u8(uint8(e.RestProbability4))
		w.u8(uint8(e.RestProbability8))
		w.u8(uint8(e.RestProbability15))
		w.u8(uint8(e.LoopFirst))
		w.u8(uint8(e.LoopLast))
		w.i8(int8(e.OctaveRangeLow))
		w.i8(int8(e.OctaveRangeHigh))
		w.u32(e.Seed)
	case project.VariantLogic:
		e := s.Logic
		w.i8(int8(e.InputA))
		w.i8(int8(e.InputB))
	case project.VariantArp:
		e := s.Arp
		w.u8(uint8(e.Mode))
		w.u8(uint8(e.OctaveRange))
		w.u8(uint8(e.Divisions))
		w.bool(e.MidiKeyboard)
	case project.VariantCurve:
		e := s.Curve
		w.f64(e.Min)
		w.f64(e.Max)
		w.f64(e.Offset)
		w.u8(uint8(e.Shape))
		w.u8(uint8(e.NoteFilterMin))
		w.u8(uint8(e.NoteFilterMax))
		w.i8(int8(e.NoteFilterTrack))
	}
}

func readSequence(r *reader, variant project.Variant) project.Sequence {
	s := project.NewSequence(variant)
	s.ScaleIndex = int(r.i16())
	s.RootNote = int(r.u8())
	s.ClockDivisor = int(r.u16())
	s.RunMode = project.RunMode(r.u8())
	s.FirstStep = int(r.u8())
	s.LastStep = int(r.u8())
	s.ResetMeasure = int(r.u16())

	if variant == project.VariantCurve || variant == project.VariantMidiCv {
		for i := range s.CurveSteps {
			s.CurveSteps[i] = project.CurveStepFromRaw(r.u32())
		}
	} else {
		for i := range s.Steps {
			bits := r.u64()
			logic := r.u8()
			s.Steps[i] = project.StepFromRaw(bits, logic)
		}
	}

	switch variant {
	case project.VariantStochastic:
		e := s.Stochastic
		e.RestProbability2 = int(r.u8())
		e.RestProbability4 = int(r.u8())
		e.RestProbability8 = int(r.u8())
		e.RestProbability15 = int(r.u8())
		e.LoopFirst = int(r.u8())
		e.LoopLast = int(r.u8())
		e.OctaveRangeLow = int(r.i8())
		e.OctaveRangeHigh = int(r.i8())
		e.Seed = r.u32()
	case project.VariantLogic:
		e := s.Logic
		e.InputA = int(r.i8())
		e.InputB = int(r.i8())
	case project.VariantArp:
		e := s.Arp
		e.Mode = project.ArpMode(r.u8())
		e.OctaveRange = int(r.u8())
		e.Divisions = int(r.u8())
		e.MidiKeyboard = r.bool()
	case project.VariantCurve:
		e := s.Curve
		e.Min = r.f64()
		e.Max = r.f64()
		e.Offset = r.f64()
		e.Shape = project.CurveShape(r.u8())
		e.NoteFilterMin = int(r.u8())
		e.NoteFilterMax = int(r.u8())
		e.NoteFilterTrack = int(r.i8())
	}
	return s
}

func writeRouting(w *writer, t *routing.Table) {
	w.u16(uint16(len(t.Entries)))
	for _, e := range t.Entries {
		w.u8(uint8(e.Source.Type))
		w.i16(int16(e.Source.Channel))
		w.i16(int16(e.Source.Controller))
		w.i16(int16(e.Source.TrackIndex))
		w.f64(e.Source.Constant)
		w.i16(int16(e.Target.TrackIndex))
		w.u8(uint8(e.Target.Kind))
		w.f64(e.Min)
		w.f64(e.Max)
	}
}

func readRouting(r *reader, t *routing.Table) {
	n := r.u16()
	t.Entries = make([]routing.Entry, n)
	for i := range t.Entries {
		var e routing.Entry
		e.Source.Type = routing.SourceType(r.u8())
		e.Source.Channel = int(r.i16())
		e.Source.Controller = int(r.i16())
		e.Source.TrackIndex = int(r.i16())
		e.Source.Constant = r.f64()
		e.Target.TrackIndex = int(r.i16())
		e.Target.Kind = routing.TargetKind(r.u8())
		e.Min = r.f64()
		e.Max = r.f64()
		t.Entries[i] = e
	}
}
