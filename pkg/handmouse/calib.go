package handmouse

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MotionAxis is a learned projection axis with its full-sweep scale.
// AxisX/AxisY form a unit 2-vector; RangeNorm is the projected sweep width
// recorded during calibration and must be > 0.
type MotionAxis struct {
	AxisX, AxisY float64
	RangeNorm    float64
}

// project maps a palm-center point onto the axis, normalized by RangeNorm
// and clamped to [0,1].
func (a MotionAxis) project(p Point2) float64 {
	if a.RangeNorm <= 0 {
		return 0
	}
	raw := (p.X*a.AxisX + p.Y*a.AxisY) / a.RangeNorm
	return clamp01(raw)
}

// PositionQuad is four camera-normalized points, in order TL, TR, BR, BL,
// defining the homography onto the unit square.
type PositionQuad struct {
	TL, TR, BR, BL Point2
}

// MinMax is an affine-normalization range: Min maps to 0, Max maps to 1.
type MinMax struct {
	Min, Max float64
}

// normalize affine-maps v into [0,1], clamped. The second return is false
// when Min == Max, per spec §3 ("a feature's validity bit is false ... when
// min == max in calibration").
func (mm MinMax) normalize(v float64) (float64, bool) {
	if mm.Max == mm.Min {
		return 0, false
	}
	return clamp01((v - mm.Min) / (mm.Max - mm.Min)), true
}

// FeatureCalibration holds the calibration parameters for one named
// feature. Only the field relevant to that feature's formula is populated.
type FeatureCalibration struct {
	MotionAxis *MotionAxis
	Homography *mat.Dense // precomputed 3x3 homography, for pos.x/pos.y
	Range      *MinMax
}

// CalibrationSet maps a feature name to its calibration parameters.
type CalibrationSet map[string]FeatureCalibration

// NewPositionCalibration solves the homography sending quad's four corners
// (TL, TR, BR, BL) to the unit square (0,0),(1,0),(1,1),(0,1) and returns a
// FeatureCalibration carrying the result. The solve happens once here, not
// per frame: §9 requires no runtime recomputation in the hot loop.
func NewPositionCalibration(quad PositionQuad) (FeatureCalibration, error) {
	h, err := solveHomography(
		[4]Point2{quad.TL, quad.TR, quad.BR, quad.BL},
		[4]Point2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
	)
	if err != nil {
		return FeatureCalibration{}, err
	}
	return FeatureCalibration{Homography: h}, nil
}

// solveHomography computes the 3x3 homography (bottom-right entry fixed at
// 1) mapping src points to dst points via the standard 8-parameter linear
// system for four point correspondences.
func solveHomography(src, dst [4]Point2) (*mat.Dense, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(2*i, u)
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("solving quad homography: %w", err)
	}

	return mat.NewDense(3, 3, []float64{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}), nil
}

// applyHomography maps p through h and clamps both output coordinates to
// [0,1].
func applyHomography(h *mat.Dense, p Point2) Point2 {
	x, y := p.X, p.Y
	w := h.At(2, 0)*x + h.At(2, 1)*y + h.At(2, 2)
	if w == 0 {
		return Point2{}
	}
	u := (h.At(0, 0)*x + h.At(0, 1)*y + h.At(0, 2)) / w
	v := (h.At(1, 0)*x + h.At(1, 1)*y + h.At(1, 2)) / w
	return Point2{X: clamp01(u), Y: clamp01(v)}
}
