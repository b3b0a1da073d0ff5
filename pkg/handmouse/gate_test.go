package handmouse

import "testing"

func TestGate_HysteresisOscillation(t *testing.T) {
	// S6: input sequence 0.5, 0.85, 0.75, 0.65, 0.55, 0.7, op=">", trigger=0.8,
	// release=0.6, refractory=0. Expected press at sample 2, release at sample
	// 5 only.
	g := NewGate(GateConfig{
		Name: "g", InputName: "x", Op: OpGreater,
		TriggerPct: 0.8, ReleasePct: 0.6, RefractoryMS: 0,
		LostHandPolicy: PolicyHold,
	})

	values := []float64{0.5, 0.85, 0.75, 0.65, 0.55, 0.7}
	want := []bool{false, true, true, true, false, false}

	for i, v := range values {
		got := g.Eval(v, true, int64(i))
		if got != want[i] {
			t.Errorf("sample %d (v=%v): got on=%v, want %v", i, v, got, want[i])
		}
	}
}

func TestGate_Refractory(t *testing.T) {
	g := NewGate(GateConfig{
		Name: "g", InputName: "x", Op: OpGreater,
		TriggerPct: 0.8, ReleasePct: 0.6, RefractoryMS: 250,
		LostHandPolicy: PolicyHold,
	})

	if on := g.Eval(0.9, true, 0); !on {
		t.Fatal("expected press at t=0")
	}
	// Drops below release within the refractory window: must not release.
	if on := g.Eval(0.3, true, 100); !on {
		t.Fatal("transition within refractory window must be suppressed")
	}
	if on := g.Eval(0.3, true, 300); on {
		t.Fatal("expected release once refractory has elapsed")
	}
}

func TestGate_LostHandPolicies(t *testing.T) {
	cfg := GateConfig{Name: "g", InputName: "x", Op: OpGreater, TriggerPct: 0.8, ReleasePct: 0.6}

	t.Run("release", func(t *testing.T) {
		cfg := cfg
		cfg.LostHandPolicy = PolicyRelease
		g := NewGate(cfg)
		g.Eval(0.9, true, 0)
		if on := g.Eval(0, false, 10); on {
			t.Fatal("policy release must force off on hand loss")
		}
	})

	t.Run("hold", func(t *testing.T) {
		cfg := cfg
		cfg.LostHandPolicy = PolicyHold
		g := NewGate(cfg)
		g.Eval(0.9, true, 0)
		if on := g.Eval(0, false, 10); !on {
			t.Fatal("policy hold must retain prior state")
		}
	})

	t.Run("true", func(t *testing.T) {
		cfg := cfg
		cfg.LostHandPolicy = PolicyTrue
		g := NewGate(cfg)
		if on := g.Eval(0, false, 10); !on {
			t.Fatal("policy true must force on")
		}
	})

	t.Run("toggle", func(t *testing.T) {
		cfg := cfg
		cfg.LostHandPolicy = PolicyToggle
		g := NewGate(cfg)
		g.Eval(0.9, true, 0) // on = true
		if on := g.Eval(0, false, 10); on {
			t.Fatal("toggle should flip once on entry into lost state")
		}
		if on := g.Eval(0, false, 20); on {
			t.Fatal("toggle must not flip again while still lost")
		}
		if on := g.Eval(0.9, true, 30); !on {
			t.Fatal("expected gate back on once hand returns and re-triggers")
		}
	})
}

func TestGateConfig_ValidateHysteresisInequality(t *testing.T) {
	bad := GateConfig{Name: "g", Op: OpGreater, TriggerPct: 0.5, ReleasePct: 0.6}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error: trigger must be > release for op \">\"")
	}

	good := GateConfig{Name: "g", Op: OpGreater, TriggerPct: 0.8, ReleasePct: 0.6}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badLess := GateConfig{Name: "g", Op: OpLess, TriggerPct: 0.6, ReleasePct: 0.5}
	if err := badLess.Validate(); err == nil {
		t.Fatal("expected error: trigger must be < release for op \"<\"")
	}
}

func TestResolveGateAll(t *testing.T) {
	on := map[string]bool{"a": true, "b": false}

	if !resolveGateAll(nil, on) {
		t.Error("no gates attached must resolve true")
	}
	if resolveGateAll([]string{"a", "b"}, on) {
		t.Error("composite must be false if any component is false")
	}
	if !resolveGateAll([]string{"a"}, on) {
		t.Error("composite of a single true gate must be true")
	}
}
