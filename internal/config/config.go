// Package config provides TOML configuration loading for handmouse.
//
// The configuration file is keyed by version, last_camera, camera,
// smoothing, calibration (map of feature name to calibration block), gates,
// and outputs (lists of binding blocks):
//
//	version = 1
//	last_camera = 0
//
//	[camera]
//	device_id = 0
//	width = 1280
//	height = 720
//	fps = 30
//
//	[smoothing]
//	position_ms = 120
//	movement_ms = 120
//	curvature_ms = 80
//	gesture_ms = 80
//
//	[calibration."right_hand.pos.x"]
//	kind = "quad"
//	quad = [[0,0],[1,0],[1,1],[0,1]]
//
//	[[gates]]
//	name = "left_pinch"
//	input = "left_hand.gesture.closed"
//	op = ">"
//	trigger_pct = 0.80
//	release_pct = 0.60
//
//	[[outputs]]
//	id = "left_click"
//	kind = "mouse.click.left"
//	input = "left_hand.curv.diff.index_minus_middle"
//	gate = ["left_pinch"]
//
// Missing fields are autofilled with the defaults documented on each type
// below; Load runs autofill after decode and before Validate.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/handmouse/handmouse/pkg/handmouse"
)

// Config is the top-level persisted shape.
type Config struct {
	Version     int                          `toml:"version"`
	LastCamera  int                          `toml:"last_camera"`
	Camera      CameraConfig                 `toml:"camera"`
	Smoothing   SmoothingConfig              `toml:"smoothing"`
	Calibration map[string]CalibrationEntry  `toml:"calibration"`
	Gates       []GateEntry                  `toml:"gates"`
	Outputs     []OutputEntry                `toml:"outputs"`
}

// CameraConfig holds webcam capture settings.
type CameraConfig struct {
	DeviceID int `toml:"device_id"`
	Width    int `toml:"width"`
	Height   int `toml:"height"`
	FPS      int `toml:"fps"`
}

// SmoothingConfig holds the four per-category EMA time constants, in
// milliseconds.
type SmoothingConfig struct {
	PositionMS  float64 `toml:"position_ms"`
	MovementMS  float64 `toml:"movement_ms"`
	CurvatureMS float64 `toml:"curvature_ms"`
	GestureMS   float64 `toml:"gesture_ms"`
}

// CalibrationEntry is the persisted form of one feature's calibration
// parameters. Kind selects which of the other fields are populated:
// "motion" (Axis, RangeNorm), "quad" (Quad), or "range" (Min, Max). The
// persisted file preserves whichever fields the user authored; autofill
// only fills entries that are entirely absent from the file.
type CalibrationEntry struct {
	Kind      string        `toml:"kind"`
	Axis      [2]float64    `toml:"axis"`
	RangeNorm float64       `toml:"range_norm"`
	Quad      [4][2]float64 `toml:"quad"`
	Min       float64       `toml:"min"`
	Max       float64       `toml:"max"`
}

// GateEntry is the persisted form of one gate.
type GateEntry struct {
	Name           string  `toml:"name"`
	Input          string  `toml:"input"`
	Op             string  `toml:"op"`
	TriggerPct     float64 `toml:"trigger_pct"`
	ReleasePct     float64 `toml:"release_pct"`
	RefractoryMS   int64   `toml:"refractory_ms"`
	LostHandPolicy string  `toml:"lost_hand_policy"`
}

// OutputEntry is the persisted form of one output binding. Kind determines
// which kind-specific fields apply: delta axes (mouse.move.*,
// mouse.scroll.*) use Sensitivity; absolute axes (mouse.pos.*) use Min/Max;
// stateful edges (mouse.click.*, key.*) use Op/TriggerPct/ReleasePct/
// RefractoryMS, with an optional explicit {Trigger,Release} edge pair.
type OutputEntry struct {
	ID             string   `toml:"id"`
	Kind           string   `toml:"kind"`
	Input          string   `toml:"input"`
	Gate           []string `toml:"gate"`
	LostHandPolicy string   `toml:"lost_hand_policy"`

	Sensitivity string `toml:"sensitivity"`

	Min float64 `toml:"min"`
	Max float64 `toml:"max"`

	Op           string  `toml:"op"`
	TriggerPct   float64 `toml:"trigger_pct"`
	ReleasePct   float64 `toml:"release_pct"`
	RefractoryMS int64   `toml:"refractory_ms"`

	Trigger string `toml:"trigger"`
	Release string `toml:"release"`
}

// Default returns the minimal default configuration: a default camera and
// smoothing block, no calibration, gates, or outputs. Load's autofill adds
// calibration/output defaults only for names actually referenced by the
// file, so an empty config is deliberately inert rather than pre-wired.
func Default() *Config {
	return &Config{
		Version:    1,
		LastCamera: 0,
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    1280,
			Height:   720,
			FPS:      30,
		},
		Smoothing: SmoothingConfig{
			PositionMS:  120,
			MovementMS:  120,
			CurvatureMS: 80,
			GestureMS:   80,
		},
		Calibration: map[string]CalibrationEntry{},
	}
}

// Load reads and parses a TOML configuration file, autofills missing
// values, and validates the result. If path does not exist, it returns the
// default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.autofill()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// autofill fills defaulted smoothing values and, for every feature name
// actually referenced by a gate or output, a default calibration block if
// none was authored. It also fills kind-specific output defaults (spec §6
// "Autofill rules").
func (c *Config) autofill() {
	if c.Smoothing.PositionMS == 0 {
		c.Smoothing.PositionMS = 120
	}
	if c.Smoothing.MovementMS == 0 {
		c.Smoothing.MovementMS = 120
	}
	if c.Smoothing.CurvatureMS == 0 {
		c.Smoothing.CurvatureMS = 80
	}
	if c.Smoothing.GestureMS == 0 {
		c.Smoothing.GestureMS = 80
	}

	if c.Calibration == nil {
		c.Calibration = map[string]CalibrationEntry{}
	}

	referenced := map[string]bool{}
	for i, g := range c.Gates {
		referenced[g.Input] = true
		if g.Op == "" {
			c.Gates[i].Op = ">"
		}
		if g.LostHandPolicy == "" {
			c.Gates[i].LostHandPolicy = "release"
		}
	}
	for i := range c.Outputs {
		referenced[c.Outputs[i].Input] = true
		c.autofillOutput(&c.Outputs[i])
	}

	for name := range referenced {
		if _, ok := c.Calibration[name]; ok {
			continue
		}
		c.Calibration[name] = defaultCalibrationFor(name)
	}
}

func (c *Config) autofillOutput(o *OutputEntry) {
	switch outputFamily(o.Kind) {
	case familyDelta:
		if o.Sensitivity == "" {
			switch {
			case isScrollKind(o.Kind):
				o.Sensitivity = "120"
			case isVerticalAxisKind(o.Kind):
				o.Sensitivity = "screen.height"
			default:
				o.Sensitivity = "screen.width"
			}
		}
		if o.LostHandPolicy == "" {
			o.LostHandPolicy = "zero"
		}
	case familyAbsolute:
		if o.Max == 0 {
			if isVerticalAxisKind(o.Kind) {
				o.Max = float64(c.Camera.Height)
			} else {
				o.Max = float64(c.Camera.Width)
			}
		}
		if o.LostHandPolicy == "" {
			o.LostHandPolicy = "hold"
		}
	case familyStateful:
		if o.Op == "" {
			o.Op = ">"
		}
		if o.TriggerPct == 0 {
			o.TriggerPct = 0.80
		}
		if o.ReleasePct == 0 {
			o.ReleasePct = 0.60
		}
		if o.RefractoryMS == 0 {
			o.RefractoryMS = 250
		}
		if o.LostHandPolicy == "" {
			o.LostHandPolicy = "release"
		}
	}
}

// defaultCalibrationFor returns the default calibration block for a
// referenced feature name, per spec §6's autofill table.
func defaultCalibrationFor(name string) CalibrationEntry {
	switch {
	case hasSuffix(name, ".motion.up"):
		return CalibrationEntry{Kind: "motion", Axis: [2]float64{0, -1}, RangeNorm: 0.20}
	case hasSuffix(name, ".motion.left"):
		return CalibrationEntry{Kind: "motion", Axis: [2]float64{1, 0}, RangeNorm: 0.20}
	case hasSuffix(name, ".pos.x"), hasSuffix(name, ".pos.y"):
		return CalibrationEntry{Kind: "quad", Quad: [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	case hasSuffix(name, ".gesture.closed"):
		return CalibrationEntry{Kind: "range", Min: 0.30, Max: 0.95}
	case hasSuffix(name, ".curv.diff.index_minus_middle"), hasSuffix(name, ".curv.diff.middle_minus_avg_index_ring"):
		return CalibrationEntry{Kind: "range", Min: -0.20, Max: 0.50}
	case name == "hands.distance":
		return CalibrationEntry{Kind: "range", Min: 0.10, Max: 0.80}
	default:
		return CalibrationEntry{Kind: "range", Min: 0, Max: 1}
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

type outputFamily int

const (
	familyUnknown outputFamily = iota
	familyDelta
	familyAbsolute
	familyStateful
)

func outputFamily(kind string) outputFamily {
	switch {
	case hasPrefix(kind, "mouse.move.") || hasPrefix(kind, "mouse.scroll."):
		return familyDelta
	case hasPrefix(kind, "mouse.pos."):
		return familyAbsolute
	case hasPrefix(kind, "mouse.click.") || hasPrefix(kind, "key."):
		return familyStateful
	default:
		return familyUnknown
	}
}

func isScrollKind(kind string) bool       { return hasPrefix(kind, "mouse.scroll.") }
func isVerticalAxisKind(kind string) bool { return len(kind) > 0 && kind[len(kind)-1] == 'y' }

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Validate checks the configuration for structural and semantic errors
// that autofill does not resolve on its own: unknown calibration kinds and
// comparison ops, impossible dimensions, and the hysteresis inequality
// required by every stateful threshold (spec §3 invariants). Output kinds,
// lost_hand_policy strings and sensitivities are checked later, by
// BuildEngineConfig. Per-feature calibration coverage is re-checked by
// handmouse.NewEngine once the config is converted.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 {
		return fmt.Errorf("camera width must be positive, got %d", c.Camera.Width)
	}
	if c.Camera.Height <= 0 {
		return fmt.Errorf("camera height must be positive, got %d", c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera FPS must be positive, got %d", c.Camera.FPS)
	}
	for name, entry := range c.Calibration {
		switch entry.Kind {
		case "motion", "quad", "range":
		default:
			return fmt.Errorf("calibration %q: unknown kind %q", name, entry.Kind)
		}
		if entry.Kind == "range" && entry.Max <= entry.Min {
			return fmt.Errorf("calibration %q: max must be > min, got %v <= %v", name, entry.Max, entry.Min)
		}
	}
	for _, g := range c.Gates {
		if g.Name == "" {
			return fmt.Errorf("gate: name is required")
		}
		if err := validateHysteresis(g.Op, g.TriggerPct, g.ReleasePct, "gate "+g.Name); err != nil {
			return err
		}
	}
	for _, o := range c.Outputs {
		if o.ID == "" {
			return fmt.Errorf("output: id is required")
		}
		if outputFamily(o.Kind) == familyStateful {
			if err := validateHysteresis(o.Op, o.TriggerPct, o.ReleasePct, "output "+o.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateHysteresis(op string, trigger, release float64, label string) error {
	switch op {
	case ">":
		if !(trigger > release) {
			return fmt.Errorf("%s: op \">\" requires trigger_pct > release_pct, got %v <= %v", label, trigger, release)
		}
	case "<":
		if !(trigger < release) {
			return fmt.Errorf("%s: op \"<\" requires trigger_pct < release_pct, got %v >= %v", label, trigger, release)
		}
	default:
		return fmt.Errorf("%s: unknown op %q", label, op)
	}
	return nil
}

// BuildEngineConfig converts the validated, autofilled TOML shape into the
// engine's runtime configuration types.
func (c *Config) BuildEngineConfig() (handmouse.EngineConfig, error) {
	calib, err := c.buildCalibration()
	if err != nil {
		return handmouse.EngineConfig{}, err
	}

	gates := make([]handmouse.GateConfig, 0, len(c.Gates))
	for _, g := range c.Gates {
		op, err := handmouse.ParseCompareOp(g.Op)
		if err != nil {
			return handmouse.EngineConfig{}, fmt.Errorf("gate %q: %w", g.Name, err)
		}
		policy, err := handmouse.ParseLostHandPolicy(g.LostHandPolicy)
		if err != nil {
			return handmouse.EngineConfig{}, fmt.Errorf("gate %q: %w", g.Name, err)
		}
		gates = append(gates, handmouse.GateConfig{
			Name:           g.Name,
			InputName:      g.Input,
			Op:             op,
			TriggerPct:     g.TriggerPct,
			ReleasePct:     g.ReleasePct,
			RefractoryMS:   g.RefractoryMS,
			LostHandPolicy: policy,
		})
	}

	outputs, err := c.buildOutputs()
	if err != nil {
		return handmouse.EngineConfig{}, err
	}

	return handmouse.EngineConfig{
		Calibration: calib,
		Smoothing: handmouse.SmoothingConfig{
			PositionMS:  c.Smoothing.PositionMS,
			MovementMS:  c.Smoothing.MovementMS,
			CurvatureMS: c.Smoothing.CurvatureMS,
			GestureMS:   c.Smoothing.GestureMS,
		},
		Gates:        gates,
		Outputs:      outputs,
		ScreenWidth:  c.Camera.Width,
		ScreenHeight: c.Camera.Height,
	}, nil
}

func (c *Config) buildCalibration() (handmouse.CalibrationSet, error) {
	out := make(handmouse.CalibrationSet, len(c.Calibration))
	for name, entry := range c.Calibration {
		switch entry.Kind {
		case "motion":
			axis := handmouse.MotionAxis{AxisX: entry.Axis[0], AxisY: entry.Axis[1], RangeNorm: entry.RangeNorm}
			out[name] = handmouse.FeatureCalibration{MotionAxis: &axis}
		case "quad":
			quad := handmouse.PositionQuad{
				TL: handmouse.Point2{X: entry.Quad[0][0], Y: entry.Quad[0][1]},
				TR: handmouse.Point2{X: entry.Quad[1][0], Y: entry.Quad[1][1]},
				BR: handmouse.Point2{X: entry.Quad[2][0], Y: entry.Quad[2][1]},
				BL: handmouse.Point2{X: entry.Quad[3][0], Y: entry.Quad[3][1]},
			}
			fc, err := handmouse.NewPositionCalibration(quad)
			if err != nil {
				return nil, fmt.Errorf("calibration %q: %w", name, err)
			}
			out[name] = fc
		case "range":
			mm := handmouse.MinMax{Min: entry.Min, Max: entry.Max}
			out[name] = handmouse.FeatureCalibration{Range: &mm}
		}
	}
	return out, nil
}

func (c *Config) buildOutputs() ([]handmouse.EngineOutput, error) {
	outputs := make([]handmouse.EngineOutput, 0, len(c.Outputs))
	for _, o := range c.Outputs {
		binding, err := c.buildOutput(o)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, binding)
	}
	return outputs, nil
}

func (c *Config) buildOutput(o OutputEntry) (handmouse.EngineOutput, error) {
	switch outputFamily(o.Kind) {
	case familyDelta:
		sens, err := handmouse.ParseSensitivity(o.Sensitivity)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		policy, err := handmouse.ParseAxisLostPolicy(o.LostHandPolicy)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		target := handmouse.TargetMove
		if isScrollKind(o.Kind) {
			target = handmouse.TargetScroll
		}
		axis := handmouse.AxisX
		if isVerticalAxisKind(o.Kind) {
			axis = handmouse.AxisY
		}
		return &handmouse.DeltaAxis{
			ID: o.ID, InputName: o.Input, GateNames: o.Gate,
			Sensitivity: sens, LostPolicy: policy, Target: target, Axis: axis,
		}, nil

	case familyAbsolute:
		policy, err := handmouse.ParseAxisLostPolicy(o.LostHandPolicy)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		axis := handmouse.AxisX
		if isVerticalAxisKind(o.Kind) {
			axis = handmouse.AxisY
		}
		return &handmouse.AbsoluteAxis{
			ID: o.ID, InputName: o.Input, GateNames: o.Gate,
			Min: o.Min, Max: o.Max, LostPolicy: policy, Axis: axis,
		}, nil

	case familyStateful:
		op, err := handmouse.ParseCompareOp(o.Op)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		policy, err := handmouse.ParseLostHandPolicy(o.LostHandPolicy)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		action, err := buildAction(o)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		edge := &handmouse.StatefulEdge{
			ID: o.ID, InputName: o.Input, GateNames: o.Gate,
			Op: op, TriggerPct: o.TriggerPct, ReleasePct: o.ReleasePct,
			RefractoryMS: o.RefractoryMS, LostHandPolicy: policy, Action: action,
		}
		return edge, edge.Validate()

	default:
		return nil, fmt.Errorf("output %q: unknown kind %q", o.ID, o.Kind)
	}
}

// buildAction resolves a stateful output's button/key target. The explicit
// edge form (Trigger and Release both set) produces an EdgeAction;
// otherwise the kind string itself names the paired button or key.
func buildAction(o OutputEntry) (handmouse.StatefulAction, error) {
	if o.Trigger != "" || o.Release != "" {
		if o.Trigger == "" || o.Release == "" {
			return nil, fmt.Errorf("explicit edge form requires both trigger and release")
		}
		return handmouse.EdgeAction{
			TriggerButton: resolveButtonName(o.Trigger),
			ReleaseButton: resolveButtonName(o.Release),
		}, nil
	}

	switch o.Kind {
	case "mouse.click.left":
		return handmouse.ButtonAction{Button: handmouse.ButtonMouseLeft}, nil
	case "mouse.click.right":
		return handmouse.ButtonAction{Button: handmouse.ButtonMouseRight}, nil
	case "mouse.click.middle":
		return handmouse.ButtonAction{Button: handmouse.ButtonMouseMiddle}, nil
	default:
		if hasPrefix(o.Kind, "key.") {
			return handmouse.ButtonAction{Button: handmouse.KeyButton(o.Kind[len("key."):])}, nil
		}
		return nil, fmt.Errorf("unknown stateful kind %q", o.Kind)
	}
}

// resolveButtonName resolves an explicit edge-form trigger/release name
// (spec §4.4: `{trigger: X.down, release: X.up}`) to the sink identifier it
// emits. Trigger and release must stay distinct identities even when X
// names a physical mouse button: the edge form emits X.down and X.up as
// their own named events rather than a paired press/release of one button,
// so "mouse_left.down" and "mouse_left.up" pass through unchanged instead
// of collapsing onto the single ButtonMouseLeft identity.
func resolveButtonName(name string) handmouse.ButtonID {
	return handmouse.ButtonID(name)
}
