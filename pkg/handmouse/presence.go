package handmouse

// presenceState tracks one hand side's last-seen frame for overlay and
// lost-hand bookkeeping that spans more than a single Step call.
type presenceState struct {
	everSeen      bool
	present       bool
	lastSeenMS    int64
	lastPalm      Point2
	lastPalmValid bool
}

// PresenceTracker records, per hand side, whether it is currently visible
// and when it was last seen. It does not affect feature validity (that is
// decided per-frame by ExtractFeatures); it exists for the overlay and for
// diagnostics that need "how long has this hand been gone".
type PresenceTracker struct {
	states map[Handedness]*presenceState
}

// NewPresenceTracker creates a tracker with both hands initially absent.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		states: map[Handedness]*presenceState{
			Left:  {},
			Right: {},
		},
	}
}

// Update folds one frame's observations into the tracker.
func (p *PresenceTracker) Update(frame Frame) {
	frame = normalizeDuplicateHandedness(frame)
	seen := map[Handedness]bool{}
	for _, h := range frame.Hands {
		seen[h.Handedness] = true
		st := p.states[h.Handedness]
		st.present = true
		st.everSeen = true
		st.lastSeenMS = frame.TimestampMS
		st.lastPalm = palmCenter(h)
		st.lastPalmValid = true
	}
	for side, st := range p.states {
		if !seen[side] {
			st.present = false
		}
	}
}

// Present reports whether the given hand is visible in the most recent
// frame.
func (p *PresenceTracker) Present(side Handedness) bool {
	return p.states[side].present
}

// LastSeenMS returns the timestamp of the side's last sighting, and false
// if it has never been seen.
func (p *PresenceTracker) LastSeenMS(side Handedness) (int64, bool) {
	st := p.states[side]
	return st.lastSeenMS, st.everSeen
}

// LastPalm returns the side's last known palm-center position, and false
// if it has never been seen.
func (p *PresenceTracker) LastPalm(side Handedness) (Point2, bool) {
	st := p.states[side]
	return st.lastPalm, st.lastPalmValid
}
