package handmouse

import "sync"

// ButtonID names a synthetic button or key target. Mouse buttons use the
// fixed IDs below; keyboard keys use "key:<NAME>".
type ButtonID string

const (
	ButtonMouseLeft   ButtonID = "mouse_left"
	ButtonMouseRight  ButtonID = "mouse_right"
	ButtonMouseMiddle ButtonID = "mouse_middle"
)

// KeyButton builds the ButtonID for a named keyboard key.
func KeyButton(name string) ButtonID {
	return ButtonID("key:" + name)
}

// Sink is the OS input injector the engine emits primitives to. It is the
// sole writer of synthetic input (spec §5 "Shared resource"); on shutdown,
// all pressed bindings must emit a release through it.
type Sink interface {
	// MoveRelative nudges the cursor by an integer pixel delta.
	MoveRelative(dx, dy int)
	// SetPosition places the cursor at an absolute pixel position.
	SetPosition(x, y int)
	// Scroll emits a platform-defined scroll delta.
	Scroll(dx, dy int)
	// Button presses or releases a mouse button or key.
	Button(id ButtonID, down bool)
}

// SinkCall records one emitted primitive, for test assertions.
type SinkCall struct {
	Kind   string // "move_relative", "set_position", "scroll", "button"
	DX, DY int
	X, Y   int
	Button ButtonID
	Down   bool
}

// RecordingSink is a Sink test double that appends every call to a log,
// grounded on miface's mock test doubles (pkg/miface/tracker_test.go).
type RecordingSink struct {
	mu    sync.Mutex
	Calls []SinkCall
}

// NewRecordingSink creates an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (r *RecordingSink) MoveRelative(dx, dy int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, SinkCall{Kind: "move_relative", DX: dx, DY: dy})
}

func (r *RecordingSink) SetPosition(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, SinkCall{Kind: "set_position", X: x, Y: y})
}

func (r *RecordingSink) Scroll(dx, dy int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, SinkCall{Kind: "scroll", DX: dx, DY: dy})
}

func (r *RecordingSink) Button(id ButtonID, down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, SinkCall{Kind: "button", Button: id, Down: down})
}

// PressedButtons reports which buttons are currently down, replaying the
// call log. Used by release-completeness tests.
func (r *RecordingSink) PressedButtons() map[ButtonID]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pressed := make(map[ButtonID]bool)
	for _, c := range r.Calls {
		if c.Kind != "button" {
			continue
		}
		if c.Down {
			pressed[c.Button] = true
		} else {
			delete(pressed, c.Button)
		}
	}
	return pressed
}

// Reset clears the call log.
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}
