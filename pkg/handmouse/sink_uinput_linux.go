//go:build linux

package handmouse

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"
)

// Linux input-event and uinput ioctl constants, grounded on the
// touchpad2mouse-driver virtual-device construction.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0x00

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112

	uinputMaxNameSize = 80

	uiSetEVBit  = 0x40045564
	uiSetKeyBit = 0x40045565
	uiSetRelBit = 0x40045566
	uiDevCreate = 0x5501
)

// keyCodes maps the named keys this sink accepts via KeyButton to their
// Linux input-event codes. Only the keys a config can plausibly bind are
// registered with the virtual device at construction time.
var keyCodes = map[string]uint16{
	"leftctrl":  29,
	"leftshift": 42,
	"leftalt":   56,
	"leftmeta":  125,
	"space":     57,
	"tab":       15,
	"enter":     28,
	"esc":       1,
}

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name       [uinputMaxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [64]int32
	Absmin     [64]int32
	Absfuzz    [64]int32
	Absflat    [64]int32
}

// UinputSink is the real OS-injection Sink, backed by a synthetic
// /dev/uinput mouse+keyboard device. It is the production implementation
// of Sink on Linux; tests use RecordingSink instead.
type UinputSink struct {
	fd *os.File
}

// NewUinputSink creates and registers a virtual input device named name.
// Requires write access to /dev/uinput (typically root, or membership in
// the "input" group with a udev rule).
func NewUinputSink(name string) (*UinputSink, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}

	fd := f.Fd()

	for _, ev := range []int{evKey, evRel, evSyn} {
		if err := ioctlInt(fd, uiSetEVBit, ev); err != nil {
			f.Close()
			return nil, fmt.Errorf("set evbit %d: %w", ev, err)
		}
	}

	for _, rel := range []int{relX, relY, relWheel, relHWheel} {
		if err := ioctlInt(fd, uiSetRelBit, rel); err != nil {
			f.Close()
			return nil, fmt.Errorf("set relbit %d: %w", rel, err)
		}
	}

	keys := []int{btnLeft, btnRight, btnMiddle}
	for _, code := range keyCodes {
		keys = append(keys, int(code))
	}
	for _, key := range keys {
		if err := ioctlInt(fd, uiSetKeyBit, key); err != nil {
			f.Close()
			return nil, fmt.Errorf("set keybit %d: %w", key, err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], name)
	dev.ID = inputID{Bustype: 0x03, Vendor: 0x4853, Product: 0x4d4f, Version: 1}

	buf := (*[4096]byte)(unsafe.Pointer(&dev))[:unsafe.Sizeof(dev)]
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write uinput device info: %w", err)
	}

	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	// The kernel needs a moment to register the device with the input
	// subsystem before it will accept events.
	time.Sleep(200 * time.Millisecond)

	return &UinputSink{fd: f}, nil
}

func ioctl(fd uintptr, request uintptr, val uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, request, val)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlInt(fd uintptr, request uintptr, val int) error {
	return ioctl(fd, request, uintptr(val))
}

func (s *UinputSink) writeEvent(typ, code uint16, value int32) {
	var tv syscall.Timeval
	syscall.Gettimeofday(&tv)
	binary.Write(s.fd, binary.LittleEndian, inputEvent{Time: tv, Type: typ, Code: code, Value: value})
}

func (s *UinputSink) syn() {
	s.writeEvent(evSyn, synReport, 0)
}

// MoveRelative implements Sink.
func (s *UinputSink) MoveRelative(dx, dy int) {
	if dx != 0 {
		s.writeEvent(evRel, relX, int32(dx))
	}
	if dy != 0 {
		s.writeEvent(evRel, relY, int32(dy))
	}
	s.syn()
}

// SetPosition implements Sink. Synthetic relative devices have no absolute
// positioning primitive, so this sink approximates it: jump by a delta
// large enough to clear the screen, then land at (0,0) plus the target
// offset. Absolute output bindings on Linux should prefer a compositor
// that clamps cursor position at the screen edge.
func (s *UinputSink) SetPosition(x, y int) {
	const clearDelta = 1 << 15
	s.writeEvent(evRel, relX, -clearDelta)
	s.writeEvent(evRel, relY, -clearDelta)
	s.syn()
	s.writeEvent(evRel, relX, int32(x))
	s.writeEvent(evRel, relY, int32(y))
	s.syn()
}

// Scroll implements Sink.
func (s *UinputSink) Scroll(dx, dy int) {
	if dy != 0 {
		s.writeEvent(evRel, relWheel, int32(dy))
	}
	if dx != 0 {
		s.writeEvent(evRel, relHWheel, int32(dx))
	}
	s.syn()
}

// Button implements Sink.
func (s *UinputSink) Button(id ButtonID, down bool) {
	code, ok := s.resolveButton(id)
	if !ok {
		return
	}
	value := int32(0)
	if down {
		value = 1
	}
	s.writeEvent(evKey, code, value)
	s.syn()
}

func (s *UinputSink) resolveButton(id ButtonID) (uint16, bool) {
	switch id {
	case ButtonMouseLeft:
		return btnLeft, true
	case ButtonMouseRight:
		return btnRight, true
	case ButtonMouseMiddle:
		return btnMiddle, true
	}
	if name, ok := trimKeyPrefix(id); ok {
		code, ok := keyCodes[name]
		return code, ok
	}
	return 0, false
}

func trimKeyPrefix(id ButtonID) (string, bool) {
	const prefix = "key:"
	s := string(id)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

// Close releases the virtual device.
func (s *UinputSink) Close() error {
	return s.fd.Close()
}
