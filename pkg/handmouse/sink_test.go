package handmouse

import "testing"

func TestRecordingSink_PressedButtonsReplaysCallLog(t *testing.T) {
	s := NewRecordingSink()
	s.Button(ButtonMouseLeft, true)
	s.Button(ButtonMouseRight, true)
	s.Button(ButtonMouseLeft, false)

	pressed := s.PressedButtons()
	if pressed[ButtonMouseLeft] {
		t.Error("left button should show released after its down=false call")
	}
	if !pressed[ButtonMouseRight] {
		t.Error("right button should still show pressed")
	}
}

func TestRecordingSink_ReplaysAllPrimitiveKinds(t *testing.T) {
	s := NewRecordingSink()
	s.MoveRelative(3, -2)
	s.SetPosition(100, 200)
	s.Scroll(0, 5)
	s.Button(KeyButton("space"), true)

	if len(s.Calls) != 4 {
		t.Fatalf("expected 4 recorded calls, got %d", len(s.Calls))
	}
	kinds := []string{"move_relative", "set_position", "scroll", "button"}
	for i, want := range kinds {
		if s.Calls[i].Kind != want {
			t.Errorf("call %d: got kind %q, want %q", i, s.Calls[i].Kind, want)
		}
	}
}

func TestRecordingSink_Reset(t *testing.T) {
	s := NewRecordingSink()
	s.MoveRelative(1, 1)
	s.Reset()
	if len(s.Calls) != 0 {
		t.Error("expected empty call log after Reset")
	}
}

func TestKeyButton_PrefixesKeyNames(t *testing.T) {
	if got := KeyButton("enter"); got != "key:enter" {
		t.Errorf("got %q, want %q", got, "key:enter")
	}
}
