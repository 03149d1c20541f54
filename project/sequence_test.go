package project

import "testing"

func TestSequenceFirstLastStepInvariant(t *testing.T) {
	seq := NewSequence(VariantNote)
	seq.SetLastStep(10)
	seq.SetFirstStep(20)
	if seq.FirstStep > seq.LastStep {
		t.Fatalf("firstStep %d > lastStep %d", seq.FirstStep, seq.LastStep)
	}
	if seq.FirstStep != 20 || seq.LastStep != 20 {
		t.Fatalf("expected dragging lastStep to 20, got first=%d last=%d", seq.FirstStep, seq.LastStep)
	}
}

func TestCurveMinMaxDrag(t *testing.T) {
	seq := NewSequence(VariantCurve)
	seq.SetCurveMax(2)
	seq.SetCurveMin(5)
	if seq.Curve.Min > seq.Curve.Max {
		t.Fatalf("min %v > max %v", seq.Curve.Min, seq.Curve.Max)
	}
	if seq.Curve.Min != 5 || seq.Curve.Max != 5 {
		t.Fatalf("expected max dragged to 5, got min=%v max=%v", seq.Curve.Min, seq.Curve.Max)
	}
}

func TestLoopBoundsInvariant(t *testing.T) {
	seq := NewSequence(VariantStochastic)
	seq.SetLoopLast(3)
	seq.SetLoopFirst(10)
	if seq.Stochastic.LoopFirst > seq.Stochastic.LoopLast {
		t.Fatalf("loopFirst %d > loopLast %d", seq.Stochastic.LoopFirst, seq.Stochastic.LoopLast)
	}
}

func TestNextStepIndexForward(t *testing.T) {
	seq := NewSequence(VariantNote)
	seq.SetFirstStep(0)
	seq.SetLastStep(3)
	seq.RunMode = RunForward
	cur := 0
	for i := 0; i < 5; i++ {
		cur, _ = seq.NextStepIndex(cur, 1, nil)
	}
	if cur < 0 || cur > 3 {
		t.Fatalf("forward cursor escaped bounds: %d", cur)
	}
}

func TestNextStepIndexPingPongStaysInBounds(t *testing.T) {
	seq := NewSequence(VariantNote)
	seq.SetFirstStep(2)
	seq.SetLastStep(5)
	seq.RunMode = RunPingPong
	cur, dir := 2, 1
	for i := 0; i < 50; i++ {
		cur, dir = seq.NextStepIndex(cur, dir, nil)
		if cur < 2 || cur > 5 {
			t.Fatalf("ping-pong cursor escaped bounds at step %d: %d", i, cur)
		}
	}
}

func TestNextStepIndexRandomWalkStaysInBounds(t *testing.T) {
	seq := NewSequence(VariantNote)
	seq.SetFirstStep(0)
	seq.SetLastStep(7)
	seq.RunMode = RunRandomWalk
	toggle := false
	rnd := func() float64 {
		toggle = !toggle
		if toggle {
			return 0.1
		}
		return 0.9
	}
	cur := 4
	for i := 0; i < 100; i++ {
		cur, _ = seq.NextStepIndex(cur, 0, rnd)
		if cur < 0 || cur > 7 {
			t.Fatalf("random-walk cursor escaped bounds at step %d: %d", i, cur)
		}
	}
}
