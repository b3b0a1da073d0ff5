package handmouse

import "math"

// FeatureValue is one computed feature: a normalized scalar plus a validity
// bit, false when the required hand(s) are absent or the calibration range
// is degenerate (min == max).
type FeatureValue struct {
	Value float64
	Valid bool
}

// FeatureSet maps feature name to its computed value for one frame.
type FeatureSet map[string]FeatureValue

var handFeatureSuffixes = []string{
	".motion.up",
	".motion.left",
	".pos.x",
	".pos.y",
	".gesture.closed",
	".curv.diff.index_minus_middle",
	".curv.diff.middle_minus_avg_index_ring",
}

// ExtractFeatures computes the fixed named feature set for one frame, per
// spec §4.1. Duplicate handedness is resolved before extraction.
func ExtractFeatures(frame Frame, calib CalibrationSet) FeatureSet {
	frame = normalizeDuplicateHandedness(frame)

	fs := make(FeatureSet, 16)
	left, leftOK := findHand(frame, Left)
	right, rightOK := findHand(frame, Right)

	extractHand(fs, Left.String(), left, leftOK, calib)
	extractHand(fs, Right.String(), right, rightOK, calib)

	const distName = "hands.distance"
	if leftOK && rightOK {
		d := distance(palmCenter(left), palmCenter(right))
		meanWidth := (palmWidth(left) + palmWidth(right)) / 2
		raw := 0.0
		if meanWidth > 0 {
			raw = d / meanWidth
		}
		fs[distName] = normalizeWithRange(distName, raw, calib)
	} else {
		fs[distName] = FeatureValue{Valid: false}
	}

	return fs
}

func extractHand(fs FeatureSet, prefix string, obs HandObservation, ok bool, calib CalibrationSet) {
	if !ok {
		for _, suffix := range handFeatureSuffixes {
			fs[prefix+suffix] = FeatureValue{Valid: false}
		}
		return
	}

	pc := palmCenter(obs)

	fs[prefix+".motion.up"] = projectMotion(prefix+".motion.up", pc, calib)
	fs[prefix+".motion.left"] = projectMotion(prefix+".motion.left", pc, calib)

	pos, posOK := applyQuad(prefix, pc, calib)
	fs[prefix+".pos.x"] = FeatureValue{Value: pos.X, Valid: posOK}
	fs[prefix+".pos.y"] = FeatureValue{Value: pos.Y, Valid: posOK}

	curl := fingerCurls(obs)
	meanCurl := (curl.index + curl.middle + curl.ring + curl.pinky) / 4
	fs[prefix+".gesture.closed"] = normalizeWithRange(prefix+".gesture.closed", meanCurl, calib)

	diffIM := curl.index - curl.middle
	fs[prefix+".curv.diff.index_minus_middle"] = normalizeWithRange(prefix+".curv.diff.index_minus_middle", diffIM, calib)

	diffMAvg := curl.middle - (curl.index+curl.ring)/2
	fs[prefix+".curv.diff.middle_minus_avg_index_ring"] = normalizeWithRange(prefix+".curv.diff.middle_minus_avg_index_ring", diffMAvg, calib)
}

func projectMotion(name string, pc Point2, calib CalibrationSet) FeatureValue {
	c, ok := calib[name]
	if !ok || c.MotionAxis == nil {
		return FeatureValue{Valid: false}
	}
	return FeatureValue{Value: c.MotionAxis.project(pc), Valid: true}
}

func applyQuad(prefix string, pc Point2, calib CalibrationSet) (Point2, bool) {
	cx, okX := calib[prefix+".pos.x"]
	cy, okY := calib[prefix+".pos.y"]
	if !okX || !okY || cx.Homography == nil || cy.Homography == nil {
		return Point2{}, false
	}
	// Both entries carry the same homography (computed from one quad); pos.x
	// and pos.y are a single two-output feature split across two names.
	return applyHomography(cx.Homography, pc), true
}

func normalizeWithRange(name string, raw float64, calib CalibrationSet) FeatureValue {
	c, ok := calib[name]
	if !ok || c.Range == nil {
		return FeatureValue{Valid: false}
	}
	v, ok := c.Range.normalize(raw)
	return FeatureValue{Value: v, Valid: ok}
}

// fingerCurl holds the four per-finger curl scalars used by gesture.closed
// and the curvature-difference features.
type fingerCurl struct {
	index, middle, ring, pinky float64
}

func fingerCurls(obs HandObservation) fingerCurl {
	return fingerCurl{
		index:  curlOf(obs, LandmarkWrist, LandmarkIndexMCP, LandmarkIndexPIP, LandmarkIndexDIP, LandmarkIndexTip),
		middle: curlOf(obs, LandmarkWrist, LandmarkMiddleMCP, LandmarkMiddlePIP, LandmarkMiddleDIP, LandmarkMiddleTip),
		ring:   curlOf(obs, LandmarkWrist, LandmarkRingMCP, LandmarkRingPIP, LandmarkRingDIP, LandmarkRingTip),
		pinky:  curlOf(obs, LandmarkWrist, LandmarkPinkyMCP, LandmarkPinkyPIP, LandmarkPinkyDIP, LandmarkPinkyTip),
	}
}

// curlOf computes a [0,1] curl scalar for one finger from its three bend
// angles (root flexion at the MCP, then PIP, then DIP): 0 for a straight
// finger, 1 for fully curled. mean(1-cos theta_j)/2 across the three joints,
// clamped; monotone in each angle.
func curlOf(obs HandObservation, wrist, mcp, pip, dip, tip int) float64 {
	w := obs.Landmarks[wrist]
	a := obs.Landmarks[mcp]
	b := obs.Landmarks[pip]
	c := obs.Landmarks[dip]
	d := obs.Landmarks[tip]

	theta1 := angleBetween(sub(a, w), sub(b, a))
	theta2 := angleBetween(sub(b, a), sub(c, b))
	theta3 := angleBetween(sub(c, b), sub(d, c))

	curl := ((1 - math.Cos(theta1)) + (1 - math.Cos(theta2)) + (1 - math.Cos(theta3))) / 6
	return clamp01(curl)
}
