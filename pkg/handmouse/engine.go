package handmouse

import "fmt"

// EngineOutput is implemented by *DeltaAxis, *AbsoluteAxis, and
// *StatefulEdge. Engine.Step dispatches on the concrete type (spec §9's
// tagged-variant design note) rather than giving the three kinds a shared
// Step signature, since their evaluation shapes genuinely differ (delta
// emits immediately, absolute contributes to a shared cursor position,
// stateful owns press/release edges).
type EngineOutput interface {
	bindingID() string
	gateNames() []string
	inputName() string
}

func (b *DeltaAxis) bindingID() string      { return b.ID }
func (b *DeltaAxis) gateNames() []string    { return b.GateNames }
func (b *DeltaAxis) inputName() string      { return b.InputName }
func (b *AbsoluteAxis) bindingID() string   { return b.ID }
func (b *AbsoluteAxis) gateNames() []string { return b.GateNames }
func (b *AbsoluteAxis) inputName() string   { return b.InputName }
func (b *StatefulEdge) bindingID() string   { return b.ID }
func (b *StatefulEdge) gateNames() []string { return b.GateNames }
func (b *StatefulEdge) inputName() string   { return b.InputName }

// EngineConfig is the fully-resolved, already-autofilled configuration an
// Engine is built from (internal/config produces one of these from TOML).
type EngineConfig struct {
	Calibration               CalibrationSet
	Smoothing                 SmoothingConfig
	Gates                     []GateConfig
	Outputs                   []EngineOutput // config order, preserved
	ScreenWidth, ScreenHeight int
}

// Engine is the per-tick runtime evaluation pipeline: feature extraction,
// smoothing, gate evaluation, and output dispatch, in that fixed order
// (spec §5 "Ordering guarantees"). It holds all mutable per-tick state and
// is not safe for concurrent Step calls; the caller's single-threaded
// cooperative loop (cmd/handmouse) owns it exclusively.
type Engine struct {
	calib    CalibrationSet
	smoother *Smoother
	gates    []*Gate
	outputs  []EngineOutput
	sink     Sink
	presence *PresenceTracker

	screenW, screenH int

	cursorX, cursorY int
}

// NewEngine validates cfg and constructs an Engine around sink. It enforces
// two invariants from spec §3: every gate- and output-referenced feature
// must have a calibration entry, and every hysteresis pair must satisfy its
// operator's trigger/release inequality (already checked per-binding by
// Validate, re-checked here so a caller building bindings by hand still
// gets the guarantee).
func NewEngine(cfg EngineConfig, sink Sink) (*Engine, error) {
	if sink == nil {
		return nil, fmt.Errorf("engine: sink must not be nil")
	}

	referenced := map[string]bool{}
	for _, g := range cfg.Gates {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		referenced[g.InputName] = true
	}
	for _, o := range cfg.Outputs {
		referenced[o.inputName()] = true
		if se, ok := o.(*StatefulEdge); ok {
			if err := se.Validate(); err != nil {
				return nil, err
			}
		}
	}
	for name := range referenced {
		if _, ok := cfg.Calibration[name]; !ok {
			return nil, fmt.Errorf("engine: feature %q has no calibration entry", name)
		}
	}

	gates := make([]*Gate, len(cfg.Gates))
	for i, g := range cfg.Gates {
		gates[i] = NewGate(g)
	}

	return &Engine{
		calib:    cfg.Calibration,
		smoother: NewSmoother(cfg.Smoothing),
		gates:    gates,
		outputs:  cfg.Outputs,
		sink:     sink,
		presence: NewPresenceTracker(),
		screenW:  cfg.ScreenWidth,
		screenH:  cfg.ScreenHeight,
		cursorX:  cfg.ScreenWidth / 2,
		cursorY:  cfg.ScreenHeight / 2,
	}, nil
}

// Step advances the engine by one frame: extract -> smooth -> gates ->
// outputs, emitting to the sink as bindings fire.
func (e *Engine) Step(frame Frame) {
	e.presence.Update(frame)

	raw := ExtractFeatures(frame, e.calib)
	smoothed := e.smoothFeatures(raw, frame.TimestampMS)

	gateOn := make(map[string]bool, len(e.gates))
	for _, g := range e.gates {
		fv := smoothed[g.cfg.InputName]
		gateOn[g.cfg.Name] = g.Eval(fv.Value, fv.Valid, frame.TimestampMS)
	}

	cursorDirty := false
	for _, o := range e.outputs {
		on := resolveGateAll(o.gateNames(), gateOn)
		fv := smoothed[o.inputName()]

		switch b := o.(type) {
		case *DeltaAxis:
			b.Step(fv, on, e.screenW, e.screenH, e.sink)
		case *AbsoluteAxis:
			px, fresh := b.eval(fv, on)
			if !fresh {
				continue
			}
			if b.Axis == AxisX {
				e.cursorX = px
			} else {
				e.cursorY = px
			}
			cursorDirty = true
		case *StatefulEdge:
			b.Step(fv, on, frame.TimestampMS, e.sink)
		}
	}

	if cursorDirty {
		e.sink.SetPosition(e.cursorX, e.cursorY)
	}
}

// smoothFeatures applies the configured EMA to every feature in raw, using
// frame t as the timestamp. Invalid features pass through without
// advancing their smoother state, so smoothing resumes cleanly once the
// owning hand reappears.
func (e *Engine) smoothFeatures(raw FeatureSet, tMS int64) FeatureSet {
	out := make(FeatureSet, len(raw))
	for name, fv := range raw {
		if !fv.Valid {
			out[name] = fv
			continue
		}
		out[name] = FeatureValue{Value: e.smoother.Smooth(name, fv.Value, tMS), Valid: true}
	}
	return out
}

// Presence exposes the per-hand presence tracker, for the overlay.
func (e *Engine) Presence() *PresenceTracker { return e.presence }

// Shutdown releases every stateful output binding still pressed. Called
// once, after the last Step, before the process exits (spec §5 "shared
// resource ... on shutdown, all pressed bindings must emit release edges").
func (e *Engine) Shutdown(tMS int64) {
	for _, o := range e.outputs {
		if se, ok := o.(*StatefulEdge); ok {
			se.ForceRelease(tMS, e.sink)
		}
	}
}

// GateStates returns the current on/off state of every gate, keyed by
// name, for the overlay.
func (e *Engine) GateStates() map[string]bool {
	out := make(map[string]bool, len(e.gates))
	for _, g := range e.gates {
		out[g.cfg.Name] = g.On()
	}
	return out
}
