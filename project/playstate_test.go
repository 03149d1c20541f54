package project

import "testing"

func TestScheduleDropsOldestOnOverflow(t *testing.T) {
	ps := NewPlayState()
	for i := 0; i < MaxScheduled; i++ {
		ps.Schedule(ScheduledAction{WhenMeasure: i, Track: 0, Op: ScheduleSetPattern, Value: i})
	}
	if ps.OverflowCount != 0 {
		t.Fatalf("OverflowCount = %d, want 0 before overflow", ps.OverflowCount)
	}

	ps.Schedule(ScheduledAction{WhenMeasure: MaxScheduled, Track: 0, Op: ScheduleSetPattern, Value: MaxScheduled})
	if ps.OverflowCount != 1 {
		t.Fatalf("OverflowCount = %d, want 1", ps.OverflowCount)
	}
	if len(ps.Scheduled) != MaxScheduled {
		t.Fatalf("len(Scheduled) = %d, want %d", len(ps.Scheduled), MaxScheduled)
	}
	if ps.Scheduled[0].WhenMeasure != 1 {
		t.Fatalf("expected oldest entry (WhenMeasure=0) dropped, got %d as oldest", ps.Scheduled[0].WhenMeasure)
	}
}

func TestDrainAtBarLineAppliesDueActionsInOrder(t *testing.T) {
	ps := NewPlayState()
	ps.Schedule(ScheduledAction{WhenMeasure: 4, Track: 0, Op: ScheduleSetPattern, Value: 2})
	ps.Schedule(ScheduledAction{WhenMeasure: 4, Track: 1, Op: ScheduleSetMute, Value: 1})
	ps.Schedule(ScheduledAction{WhenMeasure: 8, Track: 0, Op: ScheduleSetSolo, Value: 1})

	ps.DrainAtBarLine(4)

	if ps.Tracks[0].Pattern != 2 {
		t.Fatalf("Tracks[0].Pattern = %d, want 2", ps.Tracks[0].Pattern)
	}
	if !ps.Tracks[1].Mute {
		t.Fatal("Tracks[1].Mute should be set")
	}
	if len(ps.Scheduled) != 1 {
		t.Fatalf("len(Scheduled) = %d, want 1 (future action retained)", len(ps.Scheduled))
	}
	if ps.Scheduled[0].WhenMeasure != 8 {
		t.Fatalf("remaining action WhenMeasure = %d, want 8", ps.Scheduled[0].WhenMeasure)
	}

	ps.DrainAtBarLine(8)
	if !ps.Tracks[0].Solo {
		t.Fatal("Tracks[0].Solo should be set after the second bar line")
	}
	if len(ps.Scheduled) != 0 {
		t.Fatalf("len(Scheduled) = %d, want 0", len(ps.Scheduled))
	}
}

func TestCancelPendingClearsQueueAndPendingFields(t *testing.T) {
	ps := NewPlayState()
	ps.Schedule(ScheduledAction{WhenMeasure: 10, Track: 0, Op: ScheduleSetPattern, Value: 1})
	ps.Tracks[0].PendingPattern = 1
	ps.Tracks[0].PendingMute = 1
	ps.Tracks[0].PendingSolo = 0

	ps.CancelPending()

	if len(ps.Scheduled) != 0 {
		t.Fatalf("len(Scheduled) = %d, want 0", len(ps.Scheduled))
	}
	if ps.Tracks[0].PendingPattern != -1 || ps.Tracks[0].PendingMute != -1 || ps.Tracks[0].PendingSolo != -1 {
		t.Fatalf("expected every pending field reset to -1, got %+v", ps.Tracks[0])
	}
}

func TestSetFillAmountClamps(t *testing.T) {
	ps := NewPlayState()
	ps.SetFillAmount(150)
	if ps.FillAmount != 100 {
		t.Fatalf("FillAmount = %d, want 100", ps.FillAmount)
	}
	ps.SetFillAmount(-10)
	if ps.FillAmount != 0 {
		t.Fatalf("FillAmount = %d, want 0", ps.FillAmount)
	}
}
