package handmouse

import (
	"math"
	"testing"
)

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {0.5, 0.5}, {1, 1}, {2, 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAngleBetween(t *testing.T) {
	same := angleBetween(Landmark{X: 1}, Landmark{X: 2})
	if math.Abs(same) > 1e-9 {
		t.Errorf("parallel vectors should have angle 0, got %v", same)
	}

	perp := angleBetween(Landmark{X: 1}, Landmark{Y: 1})
	if math.Abs(perp-math.Pi/2) > 1e-9 {
		t.Errorf("perpendicular vectors should have angle pi/2, got %v", perp)
	}

	opposite := angleBetween(Landmark{X: 1}, Landmark{X: -1})
	if math.Abs(opposite-math.Pi) > 1e-9 {
		t.Errorf("opposite vectors should have angle pi, got %v", opposite)
	}

	if got := angleBetween(Landmark{}, Landmark{X: 1}); got != 0 {
		t.Errorf("a zero vector should report angle 0, got %v", got)
	}
}

func TestNormalizeDuplicateHandedness(t *testing.T) {
	first := straightHand(Left, 0.1, 0.1)
	second := straightHand(Left, 0.9, 0.9)
	right := straightHand(Right, 0.5, 0.5)

	out := normalizeDuplicateHandedness(Frame{Hands: []HandObservation{first, second, right}})
	if len(out.Hands) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 hands, got %d", len(out.Hands))
	}
	if out.Hands[0].Landmarks[LandmarkWrist] != first.Landmarks[LandmarkWrist] {
		t.Error("expected the first left-hand observation to be kept")
	}
}

func TestFindHand(t *testing.T) {
	left := straightHand(Left, 0.3, 0.3)
	frame := Frame{Hands: []HandObservation{left}}

	got, ok := findHand(frame, Left)
	if !ok || got.Landmarks[LandmarkWrist] != left.Landmarks[LandmarkWrist] {
		t.Error("expected to find the left hand")
	}
	if _, ok := findHand(frame, Right); ok {
		t.Error("expected no right hand present")
	}
}

func TestPalmCenterAndWidth(t *testing.T) {
	obs := straightHand(Left, 0.5, 0.5)
	pc := palmCenter(obs)
	if pc.X <= 0 || pc.X >= 1 || pc.Y <= 0 || pc.Y >= 1 {
		t.Errorf("expected a plausible in-frame palm center, got %+v", pc)
	}
	if w := palmWidth(obs); w <= 0 {
		t.Errorf("expected a positive palm width, got %v", w)
	}
}

func TestHandedness_String(t *testing.T) {
	if Left.String() != "left_hand" {
		t.Errorf("got %q", Left.String())
	}
	if Right.String() != "right_hand" {
		t.Errorf("got %q", Right.String())
	}
}
