package handmouse

import (
	"math"
	"testing"
)

func TestNewPositionCalibration_MapsQuadCornersToUnitSquare(t *testing.T) {
	// Invariant 6: the homography exactly maps TL/TR/BR/BL to the unit
	// square's four corners.
	quad := PositionQuad{
		TL: Point2{X: 0.2, Y: 0.1},
		TR: Point2{X: 0.8, Y: 0.15},
		BR: Point2{X: 0.75, Y: 0.9},
		BL: Point2{X: 0.15, Y: 0.85},
	}
	fc, err := NewPositionCalibration(quad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	check := func(p Point2, wantX, wantY float64) {
		got := applyHomography(fc.Homography, p)
		if math.Abs(got.X-wantX) > 1e-6 || math.Abs(got.Y-wantY) > 1e-6 {
			t.Errorf("point %+v: got %+v, want (%v,%v)", p, got, wantX, wantY)
		}
	}
	check(quad.TL, 0, 0)
	check(quad.TR, 1, 0)
	check(quad.BR, 1, 1)
	check(quad.BL, 0, 1)
}

func TestNewPositionCalibration_InteriorPointMapsInsideUnitSquare(t *testing.T) {
	quad := PositionQuad{
		TL: Point2{X: 0, Y: 0}, TR: Point2{X: 1, Y: 0},
		BR: Point2{X: 1, Y: 1}, BL: Point2{X: 0, Y: 1},
	}
	fc, err := NewPositionCalibration(quad)
	if err != nil {
		t.Fatal(err)
	}
	got := applyHomography(fc.Homography, Point2{X: 0.5, Y: 0.5})
	if math.Abs(got.X-0.5) > 1e-6 || math.Abs(got.Y-0.5) > 1e-6 {
		t.Errorf("identity-ish quad center should map near (0.5,0.5), got %+v", got)
	}
}

func TestApplyHomography_ClampsOutOfBoundsOutput(t *testing.T) {
	quad := PositionQuad{
		TL: Point2{X: 0.3, Y: 0.3}, TR: Point2{X: 0.7, Y: 0.3},
		BR: Point2{X: 0.7, Y: 0.7}, BL: Point2{X: 0.3, Y: 0.7},
	}
	fc, err := NewPositionCalibration(quad)
	if err != nil {
		t.Fatal(err)
	}
	got := applyHomography(fc.Homography, Point2{X: 0, Y: 0})
	if got.X < 0 || got.X > 1 || got.Y < 0 || got.Y > 1 {
		t.Errorf("expected clamp into [0,1]^2, got %+v", got)
	}
}

func TestMotionAxis_ProjectDegenerateRangeIsZero(t *testing.T) {
	a := MotionAxis{AxisX: 1, AxisY: 0, RangeNorm: 0}
	if v := a.project(Point2{X: 5, Y: 5}); v != 0 {
		t.Errorf("degenerate range should project to 0, got %v", v)
	}
}
