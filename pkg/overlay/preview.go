//go:build cgo
// +build cgo

package overlay

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// frameRequest pairs a camera frame with the gate/binding status lines to
// burn into it before display.
type frameRequest struct {
	frame  gocv.Mat
	status []string
}

// Window provides a debug preview of the camera feed annotated with gate
// and output binding state, so an operator can see why a click did or did
// not fire without instrumenting the engine itself.
// All OpenCV UI calls run on one goroutine locked to its OS thread (see
// previewLoop).
type Window struct {
	window   *gocv.Window
	reqCh    chan frameRequest
	closeCh  chan struct{}
	doneCh   chan struct{}
	once     sync.Once
	initDone chan struct{}
}

// New creates a new preview window with the given title. It blocks until
// the preview goroutine has created the window.
func New(title string) *Window {
	w := &Window{
		reqCh:    make(chan frameRequest, 1),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
		initDone: make(chan struct{}),
	}

	// Start the preview loop in a goroutine locked to OS thread
	go w.previewLoop(title)

	// Wait for initialization to complete
	<-w.initDone

	return w
}

// previewLoop runs the OpenCV UI loop on a dedicated OS thread.
// This is required on Linux/X11 systems.
func (w *Window) previewLoop(title string) {
	// Lock this goroutine to an OS thread for OpenCV UI calls
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Create window on this thread
	w.window = gocv.NewWindow(title)
	close(w.initDone)

	for {
		select {
		case req := <-w.reqCh:
			for i, line := range req.status {
				pos := image.Pt(10, 24+i*22)
				gocv.PutText(&req.frame, line, pos, gocv.FontHersheyPlain, 1.3, color.RGBA{0, 255, 0, 0}, 2)
			}
			w.window.IMShow(req.frame)
			w.window.WaitKey(1)
			req.frame.Close() // Close the frame after displaying

		case <-w.closeCh:
			if w.window != nil {
				w.window.Close()
			}
			close(w.doneCh)
			return
		}
	}
}

// Show displays a frame in the preview window with no status overlay.
// The frame is cloned internally, so the caller can close the original.
func (w *Window) Show(frame gocv.Mat) {
	w.ShowWithStatus(frame, nil)
}

// ShowWithStatus displays a frame annotated with one text line per status
// entry (e.g. "left_click: pressed", "clutch: on"). The frame is cloned
// internally, so the caller can close the original.
func (w *Window) ShowWithStatus(frame gocv.Mat, status []string) {
	if frame.Empty() {
		return
	}

	cloned := frame.Clone()

	select {
	case w.reqCh <- frameRequest{frame: cloned, status: status}:
	default:
		cloned.Close() // Drop frame if preview is slow
	}
}

// GateLine formats a gate or binding state line for ShowWithStatus.
func GateLine(name string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s: %s", name, state)
}

// Close closes the preview window and releases resources.
func (w *Window) Close() error {
	w.once.Do(func() {
		close(w.closeCh)
		<-w.doneCh
	})
	return nil
}
