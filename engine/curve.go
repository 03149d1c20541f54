package engine

import (
	"math"

	"seqcore/project"
	"seqcore/routing"
)

// shapeValue evaluates a Curve sequence's shape at phase in [0,1],
// producing a value in [0,1] (spec.md §4.5 Curve track).
func shapeValue(shape project.CurveShape, phase float64, rngSample float64) float64 {
	switch shape {
	case project.CurveRampDown:
		return 1 - phase
	case project.CurveTriangle:
		if phase < 0.5 {
			return phase * 2
		}
		return 2 - phase*2
	case project.CurveSine:
		return (1 - math.Cos(phase*2*math.Pi)) / 2
	case project.CurveHold:
		return 0
	case project.CurveRandomStep:
		return rngSample
	default: // CurveRamp
		return phase
	}
}

func notePassesFilter(min, max, note int) bool {
	return note >= min && note <= max
}

// evalCurve implements spec.md §4.5's Curve track: CV = interpolate(shape,
// progress)*(max-min)+min+offset, with min/max/offset routable and the
// trigger shape gating the curve from the step's own gate edge
// (SPEC_FULL.md §4.11).
func (e *Engine) evalCurve(tr *project.Track, seq *project.Sequence, st *trackState, snapshot routing.Snapshot, out *TrackOutput) {
	if seq.Curve == nil {
		return
	}
	if !st.startedFresh {
		st.cursor = seq.FirstStep
		st.startedFresh = true
	}

	min := seq.Curve.Min
	if v, ok := snapshot.Value(routing.Target{TrackIndex: tr.Index, Kind: routing.TargetCurveMin}); ok {
		min = v
	}
	max := seq.Curve.Max
	if v, ok := snapshot.Value(routing.Target{TrackIndex: tr.Index, Kind: routing.TargetCurveMax}); ok {
		max = v
	}
	offset := seq.Curve.Offset
	if v, ok := snapshot.Value(routing.Target{TrackIndex: tr.Index, Kind: routing.TargetCurveOffset}); ok {
		offset = v
	}

	if st.tickInStp == 0 {
		step := &seq.CurveSteps[st.cursor]
		gateOk := step.Gate() && st.rng.bernoulli(step.GateProbability(), 8)
		if seq.Curve.NoteFilterTrack >= 0 && seq.Curve.NoteFilterTrack < project.TrackCount {
			gateOk = gateOk && notePassesFilter(seq.Curve.NoteFilterMin, seq.Curve.NoteFilterMax, e.PrevNote(seq.Curve.NoteFilterTrack))
		}
		wasOn := st.gateLevel
		rising := gateOk && !wasOn
		falling := !gateOk && wasOn
		st.gateLevel = gateOk
		if rising || falling {
			out.GateEdge = true
		}

		// Rise/Fall/Both retrigger the curve's phase from this tick, per
		// SPEC_FULL.md §4.11 (original_source/.../CurveSequence_trigger_shapes.h);
		// Gate has no phase to retrigger, it just follows the level below.
		switch step.TriggerShape() {
		case project.TriggerRise:
			if rising {
				st.curveTriggered = true
				st.curveTriggerTick = e.tick
			}
		case project.TriggerFall:
			if falling {
				st.curveTriggered = true
				st.curveTriggerTick = e.tick
			}
		case project.TriggerBoth:
			if rising || falling {
				st.curveTriggered = true
				st.curveTriggerTick = e.tick
			}
		}
	}

	shape := seq.Curve.Shape

	switch seq.CurveSteps[st.cursor].TriggerShape() {
	case project.TriggerGate:
		// follows the raw gate level for the whole step, no ramp
		if st.gateLevel {
			out.CV = max + offset
		} else {
			out.CV = min + offset
		}
		out.Gate = st.gateLevel
		e.advanceStepCursor(seq, st)
		return
	default: // Rise, Fall, Both: ramp from the tick the relevant edge fired
		span := uint64(seq.ClockDivisor)
		if span == 0 {
			span = 1
		}
		elapsed := e.tick - st.curveTriggerTick
		active := st.curveTriggered && elapsed < span
		v := 0.0
		if active {
			progress := float64(elapsed) / float64(span)
			v = shapeValue(shape, progress, st.rng.float01())
		}
		out.CV = v*(max-min) + min + offset
		out.Gate = active
		e.advanceStepCursor(seq, st)
		return
	}
}
