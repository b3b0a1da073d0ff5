// Package hotkey reads single keystrokes from stdin without waiting for
// Enter, for the calibration/camera/quit controls documented in spec §6.
// It puts the terminal into raw mode with golang.org/x/term the same way
// nmichlo-norfair-go uses that package for terminal size detection
// (pkg/hotkey adds the raw-mode half that package doesn't need).
package hotkey

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Key names the hotkey actions the engine loop reacts to.
type Key int

const (
	KeyNone Key = iota
	KeyAdvanceCalibration
	KeyCancelCalibration
	KeyBeginCalibrationLeft
	KeyBeginCalibrationRight
	KeyNextCamera
	KeyPrevCamera
	KeyRescanCameras
	KeyTogglePreview
	KeyQuit
)

var keyBindings = map[byte]Key{
	' ':  KeyAdvanceCalibration,
	27:   KeyCancelCalibration, // Esc
	'l':  KeyBeginCalibrationLeft,
	'r':  KeyBeginCalibrationRight,
	']':  KeyNextCamera,
	'[':  KeyPrevCamera,
	's':  KeyRescanCameras,
	'p':  KeyTogglePreview,
	'q':  KeyQuit,
	3:    KeyQuit, // Ctrl-C, in case raw mode swallows the signal
}

// Dispatcher reads keystrokes from stdin in raw mode and translates them to
// Key values on a channel. Must run on a goroutine separate from the
// engine's tick loop; the loop polls the channel non-blockingly each tick.
type Dispatcher struct {
	fd       int
	oldState *term.State
	keys     chan Key
	stopCh   chan struct{}
}

// NewDispatcher puts fd (typically os.Stdin.Fd()) into raw mode and starts
// reading keystrokes in the background.
func NewDispatcher(fd int) (*Dispatcher, error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("hotkey: fd %d is not a terminal", fd)
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("hotkey: entering raw mode: %w", err)
	}

	d := &Dispatcher{
		fd:       fd,
		oldState: oldState,
		keys:     make(chan Key, 8),
		stopCh:   make(chan struct{}),
	}
	go d.readLoop()
	return d, nil
}

func (d *Dispatcher) readLoop() {
	r := bufio.NewReaderSize(os.Stdin, 1)
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}
		b, err := r.ReadByte()
		if err != nil {
			close(d.keys)
			return
		}
		if key, ok := keyBindings[b]; ok {
			select {
			case d.keys <- key:
			default: // drop if the consumer is behind; keys are not queued commands
			}
		}
	}
}

// Poll returns the next pending key, or KeyNone if none is waiting. Safe to
// call once per tick from the main loop.
func (d *Dispatcher) Poll() Key {
	select {
	case k, ok := <-d.keys:
		if !ok {
			return KeyNone
		}
		return k
	default:
		return KeyNone
	}
}

// Close restores the terminal to its original mode.
func (d *Dispatcher) Close() error {
	close(d.stopCh)
	return term.Restore(d.fd, d.oldState)
}

// TerminalWidth returns the current terminal column count, or fallback if
// it cannot be determined (e.g. stdout is redirected).
func TerminalWidth(fallback int) int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return fallback
}
