package handmouse

import "testing"

func TestPresenceTracker_TracksPresenceAcrossFrames(t *testing.T) {
	p := NewPresenceTracker()
	if p.Present(Left) {
		t.Fatal("no hand should be present before any Update")
	}
	if _, ok := p.LastSeenMS(Left); ok {
		t.Fatal("LastSeenMS should report false before any sighting")
	}

	p.Update(Frame{TimestampMS: 100, Hands: []HandObservation{straightHand(Left, 0.4, 0.6)}})
	if !p.Present(Left) {
		t.Error("expected left hand present after a frame containing it")
	}
	if p.Present(Right) {
		t.Error("right hand should remain absent")
	}

	p.Update(Frame{TimestampMS: 200, Hands: nil})
	if p.Present(Left) {
		t.Error("expected left hand absent after a frame without it")
	}
	ts, ok := p.LastSeenMS(Left)
	if !ok || ts != 100 {
		t.Errorf("expected last-seen timestamp to stick at 100, got %v (ok=%v)", ts, ok)
	}
}

func TestPresenceTracker_LastPalmRetainsMostRecentSighting(t *testing.T) {
	p := NewPresenceTracker()
	p.Update(Frame{TimestampMS: 0, Hands: []HandObservation{straightHand(Right, 0.3, 0.3)}})
	pt, ok := p.LastPalm(Right)
	if !ok {
		t.Fatal("expected a palm reading after a sighting")
	}
	if pt.X == 0 && pt.Y == 0 {
		t.Error("expected a non-zero palm center for the constructed hand")
	}

	p.Update(Frame{TimestampMS: 10, Hands: nil})
	// Palm should still report the last sighting even though the hand
	// is no longer present this frame.
	if _, ok := p.LastPalm(Right); !ok {
		t.Error("LastPalm must still report the last-known value after the hand leaves")
	}
}

func TestPresenceTracker_DuplicateHandednessKeepsFirstSighting(t *testing.T) {
	p := NewPresenceTracker()
	first := straightHand(Left, 0.1, 0.1)
	second := straightHand(Left, 0.9, 0.9)
	p.Update(Frame{TimestampMS: 0, Hands: []HandObservation{first, second}})

	got, _ := p.LastPalm(Left)
	want := palmCenter(first)
	if got != want {
		t.Errorf("expected presence tracking to use the first duplicate observation, got %+v want %+v", got, want)
	}
}
