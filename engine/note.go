package engine

import (
	"seqcore/midi"
	"seqcore/project"
	"seqcore/routing"
)

func effectiveBias(trackBias, stepValue int) int {
	if trackBias == -1 {
		return stepValue
	}
	return trackBias
}

func routedInt(snapshot routing.Snapshot, target routing.Target, fallback int) int {
	if v, ok := snapshot.Value(target); ok {
		return int(v)
	}
	return fallback
}

// evalStep implements spec.md §4.5's common per-tick algorithm shared by
// Note and Stochastic tracks, which both use the wide Step layout
// (Stochastic layers its rest probability on top via restProbability).
// MidiCv shares the same step-scheduling shape but reads the narrower
// CurveStep layout instead — see evalMidiCv.
func (e *Engine) evalStep(tr *project.Track, seq *project.Sequence, st *trackState, snapshot routing.Snapshot, out *TrackOutput) {
	if !st.startedFresh {
		st.cursor = seq.FirstStep
		st.startedFresh = true
	}

	transpose := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackTranspose}, tr.Transpose.Get())
	octave := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackOctave}, tr.Octave.Get())

	if st.tickInStp == 0 {
		e.beginStep(tr, seq, st, transpose, octave)
	}

	// Drained after this tick's beginStep has had a chance to schedule, so
	// an onset with a zero gate-offset is due in the same tick it starts
	// rather than one tick late.
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

// beginStep draws the per-step Bernoulli trials and schedules this step's
// gate on/off (and retrigger) events, per spec.md §4.5 points 3-6.
func (e *Engine) beginStep(tr *project.Track, seq *project.Sequence, st *trackState, transpose, octave int) {
	step := &seq.Steps[st.cursor]
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

	if restsByStochasticProbability(tr, seq, st) {
		st.scheduleStepStart(nil)
		return
	}

	noteVarProbBias := effectiveBias(tr.NoteProbabilityBias, step.NoteVariationProbability())
	noteOffset := 0
	if st.rng.bernoulli(noteVarProbBias, 8) {
		rng := step.NoteVariationRange()
		if rng != 0 {
			span := rng
			if span < 0 {
				span = -span
			}
			noteOffset = int(st.rng.float01()*float64(2*span+1)) - span
		}
	}

	scale := e.Proj.Scale(seq.ScaleIndex)
	semitone := scale.DegreeToSemitone(seq.RootNote + step.Note() + noteOffset)
	note := semitone + 12*octave + transpose
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}

	lengthBias := effectiveBias(tr.LengthBias, step.Length())
	length := lengthBias
	// -1 always defers to the step's own probability: spec.md §4.5 point 4
	// calls for four independent Bernoulli trials (gate, retrigger, length-
	// variation, note-variation), and no bias field is named for this one.
	lenVarProbBias := effectiveBias(-1, step.LengthVariationProbability())
	if st.rng.bernoulli(lenVarProbBias, 8) {
		length += step.LengthVariationRange()
	}
	if length < 0 {
		length = 0
	}
	if length > 15 {
		length = 15
	}

	divisor := seq.ClockDivisor
	onOffset := clampTickOffset(step.GateOffset(), divisor)
	onTick := e.tick + uint64(onOffset)
	stepTicks := uint64(divisor)
	durationTicks := stepTicks * uint64(length) / 16
	if durationTicks == 0 {
		durationTicks = 1
	}

	retrig := step.Retrigger()
	retrigBias := effectiveBias(tr.RetriggerProbabilityBias, step.RetriggerProbability())
	var evs []gateEvent
	subCount := retrig + 1
	subDuration := durationTicks / uint64(subCount)
	if subDuration == 0 {
		subDuration = 1
	}
	for i := 0; i < subCount; i++ {
		if i > 0 && !st.rng.bernoulli(retrigBias, 8) {
			continue
		}
		subOn := onTick + uint64(i)*subDuration
		subOff := subOn + subDuration
		if subDuration > 1 {
			subOff = subOn + subDuration - 1
		}
		evs = append(evs, gateEvent{tick: subOn, on: true, note: note, velocity: 100})
		evs = append(evs, gateEvent{tick: subOff, on: false, note: note})
	}
	st.scheduleStepStart(evs)
}

// clampTickOffset clamps a step's GateOffset into [0, divisor). spec.md §3
// describes GateOffset as a signed field spanning roughly ±half a step, but
// this engine only schedules forward from the step boundary, so a negative
// ("early") offset floors to 0 rather than moving the onset into the
// previous step; only the late half of the range is actually reachable.
func clampTickOffset(offset, divisor int) int {
	if offset < 0 {
		offset = 0
	}
	if offset >= divisor {
		offset = divisor - 1
	}
	return offset
}

// restsByStochasticProbability applies spec.md §4.5's Stochastic
// rest-probability-at-intervals rule; tracks of any other variant never
// rest this way.
func restsByStochasticProbability(tr *project.Track, seq *project.Sequence, st *trackState) bool {
	if tr.Variant != project.VariantStochastic || seq.Stochastic == nil {
		return false
	}
	n := st.occurrence[st.cursor] + 1
	check := func(interval, pct int) bool {
		return interval > 0 && n%interval == 0 && st.rng.bernoulli(pct, 100)
	}
	if check(2, seq.Stochastic.RestProbability2) {
		return true
	}
	if check(4, seq.Stochastic.RestProbability4) {
		return true
	}
	if check(8, seq.Stochastic.RestProbability8) {
		return true
	}
	if check(15, seq.Stochastic.RestProbability15) {
		return true
	}
	return false
}

func (e *Engine) advanceStepCursor(seq *project.Sequence, st *trackState) {
	st.tickInStp++
	if st.tickInStp < seq.ClockDivisor {
		return
	}
	st.tickInStp = 0
	st.cursor, st.dir = seq.NextStepIndex(st.cursor, st.dir, st.rng.float01)
}

func noteOnMessage(p *project.Project, track, note int, velocity uint8) midi.Message {
	return midi.NoteOn(uint8(p.MidiChannel(track)), uint8(note), velocity)
}

func noteOffMessage(p *project.Project, track, note int) midi.Message {
	return midi.NoteOff(uint8(p.MidiChannel(track)), uint8(note), 0)
}
