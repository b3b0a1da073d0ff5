package hotkey

import (
	"fmt"

	evdev "github.com/gvalkov/golang-evdev"
)

// InputDeviceSummary is one line of /proc/bus/input/devices-equivalent
// information, used to warn an operator when another absolute-pointer
// device (a touchscreen, tablet, or a second handmouse instance) is
// already grabbing the system, which can make clicks land in the wrong
// place. Grounded on touchpad2mouse-driver's evdev.ListInputDevices/Open
// enumeration, used here for diagnostics rather than event capture.
type InputDeviceSummary struct {
	Path string
	Name string
}

// ListPointerDevices enumerates existing evdev input devices and returns
// those that advertise relative or absolute pointer axes. Errors opening
// an individual device are skipped rather than failing the whole scan,
// since /dev/input entries frequently require elevated permissions the
// current user may not have for devices handmouse does not itself own.
func ListPointerDevices() ([]InputDeviceSummary, error) {
	paths, err := evdev.ListInputDevices()
	if err != nil {
		return nil, fmt.Errorf("hotkey: listing input devices: %w", err)
	}

	var out []InputDeviceSummary
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if hasPointerCapability(dev) {
			out = append(out, InputDeviceSummary{Path: path, Name: dev.Name})
		}
		dev.File.Close()
	}
	return out, nil
}

func hasPointerCapability(dev *evdev.InputDevice) bool {
	for capType := range dev.Capabilities {
		if capType.Type == evdev.EV_REL || capType.Type == evdev.EV_ABS {
			return true
		}
	}
	return false
}
