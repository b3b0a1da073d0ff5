package handmouse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Axis selects which cursor/scroll axis a binding drives.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// DeltaTarget selects which sink method a delta-axis binding drives.
type DeltaTarget int

const (
	TargetMove DeltaTarget = iota
	TargetScroll
)

// sensitivitySymbol names a screen-dimension-relative sensitivity.
type sensitivitySymbol int

const (
	symbolNone sensitivitySymbol = iota
	symbolScreenWidth
	symbolScreenHeight
	symbolNegScreenWidth
	symbolNegScreenHeight
)

// Sensitivity is a delta-axis scale factor: either a plain number or one of
// the symbolic screen-dimension forms from spec §6.
type Sensitivity struct {
	literal float64
	symbol  sensitivitySymbol
}

// NewLiteralSensitivity builds a numeric sensitivity.
func NewLiteralSensitivity(v float64) Sensitivity {
	return Sensitivity{literal: v}
}

// ParseSensitivity parses "screen.width", "-screen.width", "screen.height",
// "-screen.height", or a plain float.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.TrimSpace(s) {
	case "screen.width":
		return Sensitivity{symbol: symbolScreenWidth}, nil
	case "-screen.width":
		return Sensitivity{symbol: symbolNegScreenWidth}, nil
	case "screen.height":
		return Sensitivity{symbol: symbolScreenHeight}, nil
	case "-screen.height":
		return Sensitivity{symbol: symbolNegScreenHeight}, nil
	default:
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Sensitivity{}, fmt.Errorf("unparsable sensitivity %q: %w", s, err)
		}
		return Sensitivity{literal: v}, nil
	}
}

// Resolve substitutes the current screen dimension for symbolic forms.
func (s Sensitivity) Resolve(screenW, screenH int) float64 {
	switch s.symbol {
	case symbolScreenWidth:
		return float64(screenW)
	case symbolNegScreenWidth:
		return -float64(screenW)
	case symbolScreenHeight:
		return float64(screenH)
	case symbolNegScreenHeight:
		return -float64(screenH)
	default:
		return s.literal
	}
}

// AxisLostKind selects how a delta or absolute axis treats its input value
// while the owning hand is lost.
type AxisLostKind int

const (
	AxisLostZero AxisLostKind = iota
	AxisLostMin
	AxisLostMax
	AxisLostCenter
	AxisLostHold
	AxisLostNumeric
)

// AxisLostPolicy is a hand-lost policy for delta/absolute axes.
type AxisLostPolicy struct {
	Kind  AxisLostKind
	Value float64 // used when Kind == AxisLostNumeric
}

// ParseAxisLostPolicy parses the config-file policy string for a delta or
// absolute axis. A numeric string is accepted as AxisLostNumeric.
func ParseAxisLostPolicy(s string) (AxisLostPolicy, error) {
	switch s {
	case "zero":
		return AxisLostPolicy{Kind: AxisLostZero}, nil
	case "min":
		return AxisLostPolicy{Kind: AxisLostMin}, nil
	case "max":
		return AxisLostPolicy{Kind: AxisLostMax}, nil
	case "center":
		return AxisLostPolicy{Kind: AxisLostCenter}, nil
	case "hold":
		return AxisLostPolicy{Kind: AxisLostHold}, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return AxisLostPolicy{}, fmt.Errorf("unknown lost_hand_policy %q", s)
		}
		return AxisLostPolicy{Kind: AxisLostNumeric, Value: v}, nil
	}
}

func (p AxisLostPolicy) substitute(heldValue float64) (float64, bool) {
	switch p.Kind {
	case AxisLostZero, AxisLostMin:
		return 0, true
	case AxisLostMax:
		return 1, true
	case AxisLostCenter:
		return 0.5, true
	case AxisLostNumeric:
		return p.Value, true
	case AxisLostHold:
		return heldValue, false // false: no fresh value, caller should skip
	default:
		return heldValue, false
	}
}

// --- Delta axis -------------------------------------------------------

type deltaState struct {
	hasPrev  bool
	prev     float64
	residual float64
}

// DeltaAxis is a delta-kind output binding (mouse.move.*, mouse.scroll.*).
type DeltaAxis struct {
	ID          string
	InputName   string
	GateNames   []string
	Sensitivity Sensitivity
	LostPolicy  AxisLostPolicy
	Target      DeltaTarget
	Axis        Axis

	state deltaState
}

// Step evaluates one frame for this binding and emits to sink if a whole
// pixel has accumulated.
func (b *DeltaAxis) Step(fv FeatureValue, gateOn bool, screenW, screenH int, sink Sink) {
	value := fv.Value
	valid := fv.Valid

	if !gateOn {
		// Do not emit, but keep v_prev current so re-engaging doesn't jump.
		if valid {
			b.state.prev = value
			b.state.hasPrev = true
		}
		return
	}

	if !valid {
		switch b.LostPolicy.Kind {
		case AxisLostZero:
			b.state.hasPrev = false
			b.state.residual = 0
			return
		case AxisLostHold:
			return
		default:
			substituted, _ := b.LostPolicy.substitute(b.state.prev)
			value, valid = substituted, true
		}
	}

	if !b.state.hasPrev {
		b.state.prev = value
		b.state.hasPrev = true
		return
	}

	deltaV := value - b.state.prev
	b.state.prev = value

	s := b.Sensitivity.Resolve(screenW, screenH)
	b.state.residual += s * deltaV
	whole := int(math.Trunc(b.state.residual))
	if whole == 0 {
		return
	}
	b.state.residual -= float64(whole)

	b.emit(whole, sink)
}

func (b *DeltaAxis) emit(pixels int, sink Sink) {
	switch b.Target {
	case TargetMove:
		if b.Axis == AxisX {
			sink.MoveRelative(pixels, 0)
		} else {
			sink.MoveRelative(0, pixels)
		}
	case TargetScroll:
		if b.Axis == AxisX {
			sink.Scroll(pixels, 0)
		} else {
			sink.Scroll(0, pixels)
		}
	}
}

// --- Absolute axis ------------------------------------------------------

// AbsoluteAxis is an absolute-kind output binding (mouse.pos.*).
type AbsoluteAxis struct {
	ID         string
	InputName  string
	GateNames  []string
	Min, Max   float64
	LostPolicy AxisLostPolicy // config autofill sets hold; the zero value is AxisLostZero
	Axis       Axis
}

// eval returns the pixel value for this axis this frame, and whether a
// fresh value is available to emit (false means: gate false, or hand lost
// under the Hold policy, i.e. "emit nothing").
func (b *AbsoluteAxis) eval(fv FeatureValue, gateOn bool) (int, bool) {
	if !gateOn {
		return 0, false
	}

	value := fv.Value
	if !fv.Valid {
		substituted, fresh := b.LostPolicy.substitute(0.5)
		if !fresh {
			return 0, false
		}
		value = substituted
	}

	value = clamp01(value)
	pos := b.Min + value*(b.Max-b.Min)
	return int(math.Round(pos)), true
}

// --- Stateful edge --------------------------------------------------------

// StatefulAction produces the sink call for a press or release edge.
type StatefulAction interface {
	Press(sink Sink)
	Release(sink Sink)
}

// ButtonAction emits a single button/key ID with down=true on press and
// down=false on release (the default mouse.click.*/key.* form).
type ButtonAction struct {
	Button ButtonID
}

func (a ButtonAction) Press(sink Sink)   { sink.Button(a.Button, true) }
func (a ButtonAction) Release(sink Sink) { sink.Button(a.Button, false) }

// EdgeAction emits a distinct button/key ID (always down=true) for press
// and release respectively, for the explicit "{trigger: X.down, release:
// X.up}" binding form (spec §4.4).
type EdgeAction struct {
	TriggerButton ButtonID
	ReleaseButton ButtonID
}

func (a EdgeAction) Press(sink Sink)   { sink.Button(a.TriggerButton, true) }
func (a EdgeAction) Release(sink Sink) { sink.Button(a.ReleaseButton, true) }

type statefulState struct {
	pressed          bool
	lastTransitionMS int64
	hasTransitioned  bool
	wasLost          bool
}

// StatefulEdge is a stateful-kind output binding (mouse.click.*, key.*).
type StatefulEdge struct {
	ID             string
	InputName      string
	GateNames      []string
	Op             CompareOp
	TriggerPct     float64
	ReleasePct     float64
	RefractoryMS   int64
	LostHandPolicy LostHandPolicy
	Action         StatefulAction

	state statefulState
}

// Validate checks the hysteresis inequality required by the configured op.
func (b *StatefulEdge) Validate() error {
	switch b.Op {
	case OpGreater:
		if !(b.TriggerPct > b.ReleasePct) {
			return fmt.Errorf("output %q: op \">\" requires trigger_pct > release_pct", b.ID)
		}
	case OpLess:
		if !(b.TriggerPct < b.ReleasePct) {
			return fmt.Errorf("output %q: op \"<\" requires trigger_pct < release_pct", b.ID)
		}
	default:
		return fmt.Errorf("output %q: unknown op", b.ID)
	}
	return nil
}

// Pressed reports whether the binding currently considers itself pressed.
func (b *StatefulEdge) Pressed() bool { return b.state.pressed }

// Step evaluates one frame for this binding, emitting press/release edges
// to sink as needed.
func (b *StatefulEdge) Step(fv FeatureValue, gateOn bool, tMS int64, sink Sink) {
	if !gateOn {
		// Gate-false semantics: force an immediate release, bypassing
		// refractory, and suppress further press edges while false.
		if b.state.pressed {
			b.setPressed(false, tMS)
			b.Action.Release(sink)
		}
		return
	}

	if !fv.Valid {
		b.applyLostPolicy(tMS, sink)
		return
	}
	b.state.wasLost = false

	if b.state.hasTransitioned && tMS-b.state.lastTransitionMS < b.RefractoryMS {
		return
	}

	switch b.Op {
	case OpGreater:
		if !b.state.pressed && fv.Value > b.TriggerPct {
			b.setPressed(true, tMS)
			b.Action.Press(sink)
		} else if b.state.pressed && fv.Value <= b.ReleasePct {
			b.setPressed(false, tMS)
			b.Action.Release(sink)
		}
	case OpLess:
		if !b.state.pressed && fv.Value < b.TriggerPct {
			b.setPressed(true, tMS)
			b.Action.Press(sink)
		} else if b.state.pressed && fv.Value >= b.ReleasePct {
			b.setPressed(false, tMS)
			b.Action.Release(sink)
		}
	}
}

func (b *StatefulEdge) applyLostPolicy(tMS int64, sink Sink) {
	switch b.LostHandPolicy {
	case PolicyRelease:
		if b.state.pressed {
			b.setPressed(false, tMS)
			b.Action.Release(sink)
		}
		b.state.wasLost = true
	case PolicyHold:
		b.state.wasLost = true
	case PolicyTrue:
		if !b.state.pressed {
			b.setPressed(true, tMS)
			b.Action.Press(sink)
		}
		b.state.wasLost = true
	case PolicyToggle:
		if !b.state.wasLost {
			if b.state.pressed {
				b.setPressed(false, tMS)
				b.Action.Release(sink)
			} else {
				b.setPressed(true, tMS)
				b.Action.Press(sink)
			}
			b.state.wasLost = true
		}
	}
}

func (b *StatefulEdge) setPressed(pressed bool, tMS int64) {
	b.state.pressed = pressed
	b.state.lastTransitionMS = tMS
	b.state.hasTransitioned = true
}

// ForceRelease immediately releases a pressed binding, ignoring refractory
// and gate state. Used on engine shutdown (spec §5, §7).
func (b *StatefulEdge) ForceRelease(tMS int64, sink Sink) {
	if !b.state.pressed {
		return
	}
	b.setPressed(false, tMS)
	b.Action.Release(sink)
}
