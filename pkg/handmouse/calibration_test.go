package handmouse

import (
	"math"
	"testing"
)

func TestFitMotionAxis_VerticalSweep(t *testing.T) {
	// S5: samples along y from 0.2 to 0.8, x held at 0.5. Expect axis
	// pointing "up" (negative y, since increasing y is downward) with
	// range_norm == 0.6.
	var samples []Point2
	for y := 0.2; y <= 0.8+1e-9; y += 0.05 {
		samples = append(samples, Point2{X: 0.5, Y: y})
	}

	axis, err := fitMotionAxis(samples, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if axis.AxisY >= 0 {
		t.Errorf("expected a negative-Y (upward) axis, got %+v", axis)
	}
	if math.Abs(axis.AxisX) > 1e-6 {
		t.Errorf("expected a near-vertical axis, got %+v", axis)
	}
	if math.Abs(axis.RangeNorm-0.6) > 1e-6 {
		t.Errorf("expected range_norm ~0.6, got %v", axis.RangeNorm)
	}
}

func TestFitMotionAxis_OrthogonalizesAgainstVertical(t *testing.T) {
	vertical := &MotionAxis{AxisX: 0, AxisY: -1, RangeNorm: 0.6}
	samples := []Point2{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}}

	axis, err := fitMotionAxis(samples, vertical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dot := axis.AxisX*vertical.AxisX + axis.AxisY*vertical.AxisY
	if math.Abs(dot) > 1e-9 {
		t.Errorf("horizontal axis must be perpendicular to vertical, dot=%v", dot)
	}
}

func TestFitMotionAxis_TooFewSamples(t *testing.T) {
	if _, err := fitMotionAxis([]Point2{{X: 0, Y: 0}}, nil); err == nil {
		t.Error("expected an error with fewer than 2 samples")
	}
}

func TestFitMotionAxis_DegenerateRange(t *testing.T) {
	samples := []Point2{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}
	if _, err := fitMotionAxis(samples, nil); err == nil {
		t.Error("expected an error when all samples coincide")
	}
}

func TestRangeOf(t *testing.T) {
	mm, err := rangeOf([]float64{0.3, 0.9, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if mm.Min != 0.3 || mm.Max != 0.9 {
		t.Errorf("got %+v", mm)
	}
}

func TestCalibrator_CancelRestoresSnapshot(t *testing.T) {
	base := CalibrationSet{
		"left_hand.motion.up": {MotionAxis: &MotionAxis{AxisX: 0, AxisY: -1, RangeNorm: 0.2}},
	}
	c := NewCalibrator(Left)
	c.Begin(base)

	for y := 0.2; y <= 0.8+1e-9; y += 0.1 {
		c.Observe(Frame{Hands: []HandObservation{{Handedness: Left, Landmarks: palmOnlyLandmarks(0.5, y)}}})
	}
	if err := c.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The working set now differs from base's original axis (it was
	// refit); cancel should restore the original.
	c.Cancel()
	result := c.Result()
	got := result["left_hand.motion.up"].MotionAxis
	if got == nil || *got != *base["left_hand.motion.up"].MotionAxis {
		t.Errorf("expected cancel to restore the snapshot exactly, got %+v", got)
	}
	if c.Active() {
		t.Error("cancel must end the active session")
	}
}

func TestCalibrator_FullSessionAdvancesThroughAllSteps(t *testing.T) {
	c := NewCalibrator(Right)
	c.Begin(CalibrationSet{})

	feed := func(samples []Point2) {
		for _, p := range samples {
			c.Observe(Frame{Hands: []HandObservation{{Handedness: Right, Landmarks: palmOnlyLandmarks(p.X, p.Y)}}})
		}
	}

	feed([]Point2{{X: 0.5, Y: 0.2}, {X: 0.5, Y: 0.8}})
	if err := c.Advance(); err != nil {
		t.Fatalf("vertical axis step: %v", err)
	}
	if c.Step() != StepHorizontalAxis {
		t.Fatalf("expected to advance to horizontal axis step, got %v", c.Step())
	}

	feed([]Point2{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}})
	if err := c.Advance(); err != nil {
		t.Fatalf("horizontal axis step: %v", err)
	}

	for _, v := range []float64{0.1, 0.9} {
		c.rawSamples = append(c.rawSamples, v)
	}
	if err := c.Advance(); err != nil {
		t.Fatalf("closed-hand range step: %v", err)
	}

	for _, v := range []float64{-0.2, 0.5} {
		c.rawSamples = append(c.rawSamples, v)
	}
	if err := c.Advance(); err != nil {
		t.Fatalf("left-click range step: %v", err)
	}

	for _, v := range []float64{-0.3, 0.4} {
		c.rawSamples = append(c.rawSamples, v)
	}
	if err := c.Advance(); err != nil {
		t.Fatalf("right-click range step: %v", err)
	}

	if c.Active() {
		t.Error("session should be complete after the fifth step")
	}
	result := c.Result()
	for _, name := range []string{
		"right_hand.motion.up", "right_hand.motion.left",
		"right_hand.gesture.closed",
		"right_hand.curv.diff.index_minus_middle",
		"right_hand.curv.diff.middle_minus_avg_index_ring",
	} {
		if _, ok := result[name]; !ok {
			t.Errorf("expected result to contain %q", name)
		}
	}
}

// palmOnlyLandmarks builds a minimal hand whose palm center is exactly
// (x, y); finger joints are left at their zero value since these tests only
// exercise palm-center-driven calibration steps.
func palmOnlyLandmarks(x, y float64) [NumLandmarks]Landmark {
	var lm [NumLandmarks]Landmark
	for _, i := range []int{LandmarkWrist, LandmarkIndexMCP, LandmarkMiddleMCP, LandmarkRingMCP, LandmarkPinkyMCP} {
		lm[i] = Landmark{X: x, Y: y}
	}
	return lm
}
