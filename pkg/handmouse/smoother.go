package handmouse

import (
	"math"
	"strings"
	"sync"
)

// Category buckets a feature name for time-constant selection (spec §4.2:
// "the smoother is per feature, not per category; the category only
// selects tau").
type Category int

const (
	CategoryPosition Category = iota
	CategoryMovement
	CategoryCurvature
	CategoryGesture
)

// SmoothingConfig holds the four category time constants, in milliseconds.
type SmoothingConfig struct {
	PositionMS  float64
	MovementMS  float64
	CurvatureMS float64
	GestureMS   float64
}

func (c SmoothingConfig) tau(cat Category) float64 {
	switch cat {
	case CategoryPosition:
		return c.PositionMS
	case CategoryMovement:
		return c.MovementMS
	case CategoryCurvature:
		return c.CurvatureMS
	default:
		return c.GestureMS
	}
}

// categoryOf maps a feature name to its smoothing category from the fixed
// name shapes produced by ExtractFeatures. hands.distance and
// gesture.closed are both gesture-category: they describe a hand
// configuration rather than a position or a raw bend angle, an Open
// Question resolved in DESIGN.md.
func categoryOf(name string) Category {
	switch {
	case strings.Contains(name, ".pos."):
		return CategoryPosition
	case strings.Contains(name, ".motion."):
		return CategoryMovement
	case strings.Contains(name, ".curv."):
		return CategoryCurvature
	default:
		return CategoryGesture
	}
}

type smootherState struct {
	value float64
	tsMS  int64
	has   bool
}

// Smoother applies one time-based exponential moving average per feature,
// keyed by the feature's category, using frame timestamps.
type Smoother struct {
	mu     sync.Mutex
	cfg    SmoothingConfig
	states map[string]*smootherState
}

// NewSmoother creates a smoother with the given per-category time constants.
func NewSmoother(cfg SmoothingConfig) *Smoother {
	return &Smoother{
		cfg:    cfg,
		states: make(map[string]*smootherState),
	}
}

// Smooth applies the EMA to one feature sample and returns the smoothed
// value. The first sample for a feature, or a non-advancing timestamp,
// passes through unsmoothed.
func (s *Smoother) Smooth(name string, v float64, tMS int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[name]
	if !ok {
		st = &smootherState{}
		s.states[name] = st
	}

	if !st.has || tMS <= st.tsMS {
		st.value, st.tsMS, st.has = v, tMS, true
		return v
	}

	tau := s.cfg.tau(categoryOf(name))
	if tau == 0 {
		st.value, st.tsMS = v, tMS
		return v
	}

	alpha := 1 - math.Exp(-float64(tMS-st.tsMS)/tau)
	st.value = st.value + alpha*(v-st.value)
	st.tsMS = tMS
	return st.value
}

// Reset clears all per-feature smoothing state.
func (s *Smoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]*smootherState)
}
