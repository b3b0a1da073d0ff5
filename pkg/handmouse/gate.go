package handmouse

import "fmt"

// CompareOp selects which side of a threshold triggers a gate or stateful
// binding.
type CompareOp int

const (
	OpGreater CompareOp = iota
	OpLess
)

// ParseCompareOp parses the config-file op string (">" or "<").
func ParseCompareOp(s string) (CompareOp, error) {
	switch s {
	case ">":
		return OpGreater, nil
	case "<":
		return OpLess, nil
	default:
		return 0, fmt.Errorf("unknown comparison op %q", s)
	}
}

// LostHandPolicy selects gate/stateful-binding behavior when the input
// feature is invalid because the required hand is absent.
type LostHandPolicy int

const (
	PolicyRelease LostHandPolicy = iota
	PolicyHold
	PolicyTrue
	PolicyToggle
)

// ParseLostHandPolicy parses the config-file policy string.
func ParseLostHandPolicy(s string) (LostHandPolicy, error) {
	switch s {
	case "release":
		return PolicyRelease, nil
	case "hold":
		return PolicyHold, nil
	case "true":
		return PolicyTrue, nil
	case "toggle":
		return PolicyToggle, nil
	default:
		return 0, fmt.Errorf("unknown lost_hand_policy %q", s)
	}
}

// GateConfig is the static configuration of one gate.
type GateConfig struct {
	Name           string
	InputName      string
	Op             CompareOp
	TriggerPct     float64
	ReleasePct     float64
	RefractoryMS   int64
	LostHandPolicy LostHandPolicy
}

// Validate checks the hysteresis inequality required by the configured op
// (spec §3 invariants).
func (c GateConfig) Validate() error {
	switch c.Op {
	case OpGreater:
		if !(c.TriggerPct > c.ReleasePct) {
			return fmt.Errorf("gate %q: op \">\" requires trigger_pct > release_pct, got %v <= %v", c.Name, c.TriggerPct, c.ReleasePct)
		}
	case OpLess:
		if !(c.TriggerPct < c.ReleasePct) {
			return fmt.Errorf("gate %q: op \"<\" requires trigger_pct < release_pct, got %v >= %v", c.Name, c.TriggerPct, c.ReleasePct)
		}
	default:
		return fmt.Errorf("gate %q: unknown op", c.Name)
	}
	return nil
}

// gateState is the mutable hysteresis/refractory state for one gate.
type gateState struct {
	on               bool
	lastTransitionMS int64
	hasTransitioned  bool
	wasLost          bool
}

// Gate evaluates one GateConfig against a stream of (value, valid, t).
type Gate struct {
	cfg   GateConfig
	state gateState
}

// NewGate constructs a gate, initially off (spec §4.3).
func NewGate(cfg GateConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Eval advances the gate by one frame and returns its boolean output.
func (g *Gate) Eval(value float64, valid bool, tMS int64) bool {
	if !valid {
		return g.applyLostPolicy(tMS)
	}
	g.state.wasLost = false
	g.transition(value, tMS)
	return g.state.on
}

func (g *Gate) applyLostPolicy(tMS int64) bool {
	switch g.cfg.LostHandPolicy {
	case PolicyRelease:
		g.state.on = false
		g.state.wasLost = true
		return false
	case PolicyHold:
		g.state.wasLost = true
		return g.state.on
	case PolicyTrue:
		g.state.on = true
		g.state.wasLost = true
		return true
	case PolicyToggle:
		if !g.state.wasLost {
			g.state.on = !g.state.on
			g.state.wasLost = true
		}
		return g.state.on
	default:
		return g.state.on
	}
}

func (g *Gate) transition(v float64, tMS int64) {
	if g.state.hasTransitioned && tMS-g.state.lastTransitionMS < g.cfg.RefractoryMS {
		return
	}
	switch g.cfg.Op {
	case OpGreater:
		if !g.state.on && v > g.cfg.TriggerPct {
			g.setOn(true, tMS)
		} else if g.state.on && v <= g.cfg.ReleasePct {
			g.setOn(false, tMS)
		}
	case OpLess:
		if !g.state.on && v < g.cfg.TriggerPct {
			g.setOn(true, tMS)
		} else if g.state.on && v >= g.cfg.ReleasePct {
			g.setOn(false, tMS)
		}
	}
}

func (g *Gate) setOn(on bool, tMS int64) {
	g.state.on = on
	g.state.lastTransitionMS = tMS
	g.state.hasTransitioned = true
}

// On returns the gate's current boolean state without advancing it.
func (g *Gate) On() bool { return g.state.on }

// resolveGateAll is the logical AND of named gates' current outputs; an
// empty name list means "no gate attached", which is always true.
func resolveGateAll(names []string, gateOn map[string]bool) bool {
	for _, n := range names {
		if !gateOn[n] {
			return false
		}
	}
	return true
}
