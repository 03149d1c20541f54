package engine

import (
	"seqcore/project"
	"seqcore/routing"
)

// evalMidiCv implements spec.md §4.5's MidiCv track. It schedules gate
// on/off edges the same way evalStep does, but MidiCv steps use the narrow
// CurveStep layout (spec.md §3), the same one Curve tracks use — no
// per-step note, retrigger, or variation fields. Every fired step plays the
// sequence's root note transposed by the track's octave/transpose.
func (e *Engine) evalMidiCv(tr *project.Track, seq *project.Sequence, st *trackState, snapshot routing.Snapshot, out *TrackOutput) {
	if !st.startedFresh {
		st.cursor = seq.FirstStep
		st.startedFresh = true
	}

	transpose := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackTranspose}, tr.Transpose.Get())
	octave := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackOctave}, tr.Octave.Get())

	if st.tickInStp == 0 {
		e.beginMidiCvStep(tr, seq, st, transpose, octave)
	}

	due := st.drainDueEvents(e.tick)
	for _, ev := range due {
		out.GateEdge = true
		out.Gate = ev.on
		st.gateLevel = ev.on
		if ev.on {
			st.currentNote = ev.note
			out.MIDI = append(out.MIDI, noteOnMessage(e.Proj, tr.Index, ev.note, ev.velocity))
		} else {
			out.MIDI = append(out.MIDI, noteOffMessage(e.Proj, tr.Index, ev.note))
		}
	}
	if !out.GateEdge {
		out.Gate = st.gateLevel
	}

	out.CV = VoltsPerSemitone * float64(st.currentNote-60)

	e.advanceStepCursor(seq, st)
}

// beginMidiCvStep draws the step's gate-probability trial and schedules its
// on/off edges, reading seq.CurveSteps (spec.md §3's narrow layout) rather
// than the wide Steps array evalStep uses.
func (e *Engine) beginMidiCvStep(tr *project.Track, seq *project.Sequence, st *trackState, transpose, octave int) {
	step := &seq.CurveSteps[st.cursor]
	ps := e.Proj.PlayState

	occurrence := st.occurrence[st.cursor]
	cond := step.ConditionValue()
	fired := evaluateCondition(cond, occurrence, ps.Tracks[tr.Index].Fill || ps.FillLatched, st.prevFired[st.cursor])
	st.prevFired[st.cursor] = fired
	st.occurrence[st.cursor] = occurrence + 1

	if !fired || !step.Gate() {
		st.scheduleStepStart(nil)
		return
	}

	gateProbBias := effectiveBias(tr.GateProbabilityBias, step.GateProbability())
	if !st.rng.bernoulli(gateProbBias, 8) {
		st.scheduleStepStart(nil)
		return
	}

	scale := e.Proj.Scale(seq.ScaleIndex)
	semitone := scale.DegreeToSemitone(seq.RootNote)
	note := clampNote(semitone + 12*octave + transpose)

	lengthBias := effectiveBias(tr.LengthBias, step.Length())
	if lengthBias < 0 {
		lengthBias = 0
	}
	if lengthBias > 15 {
		lengthBias = 15
	}

	stepTicks := uint64(seq.ClockDivisor)
	durationTicks := stepTicks * uint64(lengthBias) / 16
	if durationTicks == 0 {
		durationTicks = 1
	}
	onTick := e.tick
	offTick := onTick + durationTicks
	if durationTicks > 1 {
		offTick--
	}

	st.scheduleStepStart([]gateEvent{
		{tick: onTick, on: true, note: note, velocity: 100},
		{tick: offTick, on: false, note: note},
	})
}
