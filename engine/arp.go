package engine

import (
	"seqcore/project"
	"seqcore/routing"
)

// NoteOn/NoteOff feed the MIDI-keyboard input into an Arp track's held-note
// set when MidiKeyboard is enabled (spec.md §4.5 Arp track); a UI/MIDI
// collaborator calls these as inbound NoteOn/NoteOff arrive on the track's
// configured input port.
func (e *Engine) NoteOn(track, note int) {
	if track < 0 || track >= project.TrackCount {
		return
	}
	e.tracks[track].arp.noteOn(note)
}

func (e *Engine) NoteOff(track, note int) {
	if track < 0 || track >= project.TrackCount {
		return
	}
	e.tracks[track].arp.noteOff(note)
}

// evalArp implements spec.md §4.5's Arp track: at the start of each arp
// step (Divisions × ClockDivisor ticks) a gated step emits the next note
// from the held-note traversal, with gate-probability and length
// still drawn from the sequence's own Steps (spec.md: "Sequence data still
// supplies gate-probability and length").
func (e *Engine) evalArp(tr *project.Track, seq *project.Sequence, st *trackState, snapshot routing.Snapshot, out *TrackOutput) {
	if seq.Arp == nil {
		return
	}
	if !st.startedFresh {
		st.cursor = seq.FirstStep
		st.startedFresh = true
	}

	if !seq.Arp.MidiKeyboard {
		// Source held notes from the sequence's own steps: any step with
		// gate on contributes its note while this pattern plays.
		st.arp.held = st.arp.held[:0]
		for i := seq.FirstStep; i <= seq.LastStep; i++ {
			s := seq.Steps[i]
			if s.Gate() {
				st.arp.noteOn(60 + s.Note())
			}
		}
	}

	divisor := seq.Arp.Divisions
	if divisor < 1 {
		divisor = 1
	}

	if st.tickInStp == 0 {
		step := &seq.Steps[st.cursor]
		if step.Gate() && st.rng.bernoulli(step.GateProbability(), 8) {
			note, ok := st.arp.next(seq.Arp.Mode, seq.Arp.OctaveRange, st.rng)
			if ok {
				transpose := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackTranspose}, tr.Transpose.Get())
				octave := routedInt(snapshot, routing.Target{TrackIndex: tr.Index, Kind: routing.TargetTrackOctave}, tr.Octave.Get())
				note = clampNote(note + transpose + 12*octave)
				length := step.Length()
				durationTicks := uint64(divisor*seq.ClockDivisor) * uint64(length) / 16
				if durationTicks == 0 {
					durationTicks = 1
				}
				st.scheduleStepStart([]gateEvent{
					{tick: e.tick, on: true, note: note, velocity: 100},
					{tick: e.tick + durationTicks, on: false, note: note},
				})
			}
		}
	}

	// Drained after the block above so an onset scheduled this tick is
	// seen this tick rather than one tick late.
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

	st.tickInStp++
	if st.tickInStp >= divisor*seq.ClockDivisor {
		st.tickInStp = 0
		st.cursor, st.dir = seq.NextStepIndex(st.cursor, st.dir, st.rng.float01)
	}
}
