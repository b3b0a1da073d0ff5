package handmouse

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CalibrationStep names one of the five ordered acquisition steps (spec
// §4.5).
type CalibrationStep int

const (
	StepVerticalAxis CalibrationStep = iota
	StepHorizontalAxis
	StepClosedHandRange
	StepLeftClickRange
	StepRightClickRange
	stepDone
)

func (s CalibrationStep) String() string {
	switch s {
	case StepVerticalAxis:
		return "vertical_motion_axis"
	case StepHorizontalAxis:
		return "horizontal_motion_axis"
	case StepClosedHandRange:
		return "closed_hand_range"
	case StepLeftClickRange:
		return "left_click_range"
	case StepRightClickRange:
		return "right_click_range"
	default:
		return "done"
	}
}

// featureName returns the calibration-map key this step writes on Advance.
func (s CalibrationStep) featureName(side Handedness) string {
	prefix := side.String()
	switch s {
	case StepVerticalAxis:
		return prefix + ".motion.up"
	case StepHorizontalAxis:
		return prefix + ".motion.left"
	case StepClosedHandRange:
		return prefix + ".gesture.closed"
	case StepLeftClickRange:
		return prefix + ".curv.diff.index_minus_middle"
	case StepRightClickRange:
		return prefix + ".curv.diff.middle_minus_avg_index_ring"
	default:
		return ""
	}
}

// Calibrator drives the five-step guided acquisition state machine for one
// target hand. It accumulates raw samples for the active step and, on
// Advance, reduces them to calibration parameters written into its working
// CalibrationSet. Cancel discards the whole session and restores the
// snapshot taken at Begin (spec §4.5 "keeping prior calibration").
type Calibrator struct {
	side     Handedness
	step     CalibrationStep
	working  CalibrationSet
	snapshot CalibrationSet

	rawSamples   []float64 // scalar-sample steps (3, 4, 5)
	ptSamples    []Point2  // point-sample steps (1, 2)
	active       bool
	verticalAxis *MotionAxis // set after step 1, consumed by step 2's orthogonalization
}

// NewCalibrator creates a calibrator for the given hand, taking no snapshot
// yet; call Begin to start a session against a live calibration set.
func NewCalibrator(side Handedness) *Calibrator {
	return &Calibrator{side: side, step: stepDone}
}

// Begin starts a new acquisition session against base, snapshotting it so
// Cancel can restore it verbatim.
func (c *Calibrator) Begin(base CalibrationSet) {
	c.snapshot = cloneCalibrationSet(base)
	c.working = cloneCalibrationSet(base)
	c.step = StepVerticalAxis
	c.active = true
	c.resetSamples()
}

// Active reports whether a calibration session is in progress.
func (c *Calibrator) Active() bool { return c.active }

// Step returns the step currently collecting samples.
func (c *Calibrator) Step() CalibrationStep { return c.step }

// SampleCount returns how many samples the active step has accumulated so
// far, for progress reporting during guided acquisition.
func (c *Calibrator) SampleCount() int {
	switch c.step {
	case StepVerticalAxis, StepHorizontalAxis:
		return len(c.ptSamples)
	default:
		return len(c.rawSamples)
	}
}

// Observe feeds one frame's worth of raw input into the active step. Frames
// where the target hand is absent are ignored.
func (c *Calibrator) Observe(frame Frame) {
	if !c.active {
		return
	}
	obs, ok := findHand(normalizeDuplicateHandedness(frame), c.side)
	if !ok {
		return
	}

	switch c.step {
	case StepVerticalAxis, StepHorizontalAxis:
		c.ptSamples = append(c.ptSamples, palmCenter(obs))
	case StepClosedHandRange:
		curl := fingerCurls(obs)
		c.rawSamples = append(c.rawSamples, (curl.index+curl.middle+curl.ring+curl.pinky)/4)
	case StepLeftClickRange:
		curl := fingerCurls(obs)
		c.rawSamples = append(c.rawSamples, curl.index-curl.middle)
	case StepRightClickRange:
		curl := fingerCurls(obs)
		c.rawSamples = append(c.rawSamples, curl.middle-(curl.index+curl.ring)/2)
	}
}

// Advance reduces the current step's samples into calibration parameters,
// writes them into the working set, and moves to the next step. It returns
// an error (leaving the step unchanged) if too few samples were collected.
func (c *Calibrator) Advance() error {
	if !c.active {
		return fmt.Errorf("calibration: no session in progress")
	}

	switch c.step {
	case StepVerticalAxis:
		axis, err := fitMotionAxis(c.ptSamples, nil)
		if err != nil {
			return err
		}
		c.working[c.step.featureName(c.side)] = FeatureCalibration{MotionAxis: &axis}
		c.verticalAxis = &axis
	case StepHorizontalAxis:
		axis, err := fitMotionAxis(c.ptSamples, c.verticalAxis)
		if err != nil {
			return err
		}
		c.working[c.step.featureName(c.side)] = FeatureCalibration{MotionAxis: &axis}
	case StepClosedHandRange, StepLeftClickRange, StepRightClickRange:
		mm, err := rangeOf(c.rawSamples)
		if err != nil {
			return err
		}
		c.working[c.step.featureName(c.side)] = FeatureCalibration{Range: &mm}
	default:
		return fmt.Errorf("calibration: already done")
	}

	c.step++
	c.resetSamples()
	if c.step == stepDone {
		c.active = false
	}
	return nil
}

// Cancel discards the session, restoring the snapshot taken at Begin.
func (c *Calibrator) Cancel() {
	c.working = c.snapshot
	c.active = false
	c.step = stepDone
	c.resetSamples()
}

// Result returns the working calibration set. Valid whether or not the
// session has completed: mid-session it holds every step finished so far
// plus everything from the base set; after Cancel it equals the snapshot.
func (c *Calibrator) Result() CalibrationSet {
	return c.working
}

func (c *Calibrator) resetSamples() {
	c.rawSamples = nil
	c.ptSamples = nil
}

func cloneCalibrationSet(base CalibrationSet) CalibrationSet {
	out := make(CalibrationSet, len(base))
	for k, v := range base {
		out[k] = v
	}
	return out
}

// fitMotionAxis fits the dominant variance direction of samples via 2-D
// PCA (largest eigenvector of the sample covariance matrix). If orthoTo is
// non-nil, the axis is instead fixed perpendicular to it (spec §4.5 step 2:
// "orthogonalize against step 1's axis"), and only the projected range is
// refit from samples.
func fitMotionAxis(samples []Point2, orthoTo *MotionAxis) (MotionAxis, error) {
	if len(samples) < 2 {
		return MotionAxis{}, fmt.Errorf("calibration: need at least 2 samples, got %d", len(samples))
	}

	var meanX, meanY float64
	for _, p := range samples {
		meanX += p.X
		meanY += p.Y
	}
	n := float64(len(samples))
	meanX /= n
	meanY /= n

	var axisX, axisY float64
	if orthoTo != nil {
		axisX, axisY = -orthoTo.AxisY, orthoTo.AxisX
	} else {
		var cxx, cxy, cyy float64
		for _, p := range samples {
			dx, dy := p.X-meanX, p.Y-meanY
			cxx += dx * dx
			cxy += dx * dy
			cyy += dy * dy
		}
		cxx /= n
		cxy /= n
		cyy /= n

		cov := mat.NewSymDense(2, []float64{cxx, cxy, cxy, cyy})
		var eig mat.EigenSym
		if ok := eig.Factorize(cov, true); !ok {
			return MotionAxis{}, fmt.Errorf("calibration: eigendecomposition failed")
		}
		values := eig.Values(nil)
		var vectors mat.Dense
		eig.VectorsTo(&vectors)

		// Largest eigenvalue's column is the dominant variance direction.
		best := 0
		for i := 1; i < len(values); i++ {
			if values[i] > values[best] {
				best = i
			}
		}
		axisX, axisY = vectors.At(0, best), vectors.At(1, best)
	}

	axisLen := math.Hypot(axisX, axisY)
	if axisLen == 0 {
		return MotionAxis{}, fmt.Errorf("calibration: degenerate axis")
	}
	axisX, axisY = axisX/axisLen, axisY/axisLen

	// Sign convention: moving upward in frame (decreasing Y, since the
	// landmark origin is top-left) must yield a positive projection.
	if axisY > 0 {
		axisX, axisY = -axisX, -axisY
	}

	var minProj, maxProj float64
	for i, p := range samples {
		proj := p.X*axisX + p.Y*axisY
		if i == 0 || proj < minProj {
			minProj = proj
		}
		if i == 0 || proj > maxProj {
			maxProj = proj
		}
	}
	rangeNorm := maxProj - minProj
	if rangeNorm <= 0 {
		return MotionAxis{}, fmt.Errorf("calibration: degenerate range (all samples at one point)")
	}

	return MotionAxis{AxisX: axisX, AxisY: axisY, RangeNorm: rangeNorm}, nil
}

func rangeOf(samples []float64) (MinMax, error) {
	if len(samples) < 2 {
		return MinMax{}, fmt.Errorf("calibration: need at least 2 samples, got %d", len(samples))
	}
	mn, mx := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return MinMax{Min: mn, Max: mx}, nil
}
