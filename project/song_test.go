package project

import "testing"

func TestSongAdvanceAppliesPatternsOnRepeatExhaustion(t *testing.T) {
	s := NewSong()
	s.Active = true
	s.AppendSlot(SongSlot{Patterns: [TrackCount]int{0: 2}, Repeats: 2})
	s.AppendSlot(SongSlot{Patterns: [TrackCount]int{0: 3}, Repeats: 1})
	ps := NewPlayState()

	// First slot has Repeats=2: advancing once just decrements, no slot change.
	s.CurrentSlot = 0
	s.RepeatsLeft = 2
	if changed := s.Advance(ps); changed {
		t.Fatal("expected no slot change while repeats remain")
	}
	if s.RepeatsLeft != 1 {
		t.Fatalf("RepeatsLeft = %d, want 1", s.RepeatsLeft)
	}

	if changed := s.Advance(ps); !changed {
		t.Fatal("expected slot change once repeats exhausted")
	}
	if s.CurrentSlot != 1 {
		t.Fatalf("CurrentSlot = %d, want 1", s.CurrentSlot)
	}
	if ps.Tracks[0].Pattern != 3 {
		t.Fatalf("Tracks[0].Pattern = %d, want 3", ps.Tracks[0].Pattern)
	}
}

func TestSongAdvanceInactiveOrEmptyIsNoop(t *testing.T) {
	s := NewSong()
	ps := NewPlayState()
	if s.Advance(ps) {
		t.Fatal("inactive song must never report a slot change")
	}
	s.Active = true
	if s.Advance(ps) {
		t.Fatal("song with no slots must never report a slot change")
	}
}

func TestSongResetReturnsToFirstSlot(t *testing.T) {
	s := NewSong()
	s.AppendSlot(SongSlot{Patterns: [TrackCount]int{0: 1}, Repeats: 3})
	s.CurrentSlot = 0

	ps := NewPlayState()
	s.Reset(ps)
	if s.CurrentSlot != 0 {
		t.Fatalf("CurrentSlot = %d, want 0", s.CurrentSlot)
	}
	if s.RepeatsLeft != 3 {
		t.Fatalf("RepeatsLeft = %d, want 3", s.RepeatsLeft)
	}
	if ps.Tracks[0].Pattern != 1 {
		t.Fatalf("Tracks[0].Pattern = %d, want 1", ps.Tracks[0].Pattern)
	}
}

func TestAppendSlotBoundedByMaxSongSlots(t *testing.T) {
	s := NewSong()
	for i := 0; i < MaxSongSlots; i++ {
		if !s.AppendSlot(NewSongSlot()) {
			t.Fatalf("AppendSlot %d should have succeeded", i)
		}
	}
	if s.AppendSlot(NewSongSlot()) {
		t.Fatal("AppendSlot beyond MaxSongSlots should fail")
	}
}

func TestSetRepeatsClampsToAtLeastOne(t *testing.T) {
	var slot SongSlot
	slot.SetRepeats(0)
	if slot.Repeats != 1 {
		t.Fatalf("Repeats = %d, want 1", slot.Repeats)
	}
	slot.SetRepeats(-5)
	if slot.Repeats != 1 {
		t.Fatalf("Repeats = %d, want 1", slot.Repeats)
	}
}
