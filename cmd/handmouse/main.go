// Package main provides the CLI wrapper for handmouse.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handmouse/handmouse/internal/config"
	"github.com/handmouse/handmouse/pkg/capture"
	"github.com/handmouse/handmouse/pkg/handmouse"
	"github.com/handmouse/handmouse/pkg/hotkey"
	"github.com/handmouse/handmouse/pkg/overlay"
	"github.com/schollz/progressbar/v3"
)

// calibrationSampleTarget is the sample count a guided-calibration
// progress bar fills up to; Advance works with however many samples
// actually arrived, this is purely a feedback cue for the operator.
const calibrationSampleTarget = 60

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	cameraID := flag.Int("camera", -1, "Camera device ID (overrides config)")
	noMirror := flag.Bool("no-mirror", false, "Disable horizontal flip (mirror mode)")
	preview := flag.Bool("preview", false, "Show camera preview window (debug mode)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "handmouse - hand-tracking mouse and keyboard control\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run with default settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config config.toml      # Run with custom config\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -preview                 # Show camera preview window\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("handmouse version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *cameraID >= 0 {
		cfg.Camera.DeviceID = *cameraID
	} else {
		cfg.Camera.DeviceID = cfg.LastCamera
	}

	if *verbose {
		log.Printf("Configuration:")
		log.Printf("  Camera: device=%d, %dx%d@%dfps",
			cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
		log.Printf("  Smoothing: position=%.0fms movement=%.0fms curvature=%.0fms gesture=%.0fms",
			cfg.Smoothing.PositionMS, cfg.Smoothing.MovementMS, cfg.Smoothing.CurvatureMS, cfg.Smoothing.GestureMS)
		log.Printf("  Gates: %d, Outputs: %d", len(cfg.Gates), len(cfg.Outputs))

		if devices, err := hotkey.ListPointerDevices(); err != nil {
			log.Printf("  Pointer devices: scan failed: %v", err)
		} else if len(devices) == 0 {
			log.Printf("  Pointer devices: none already present")
		} else {
			log.Printf("  Pointer devices already present (may fight for cursor ownership):")
			for _, d := range devices {
				log.Printf("    %s (%s)", d.Name, d.Path)
			}
		}
	}

	engineCfg, err := cfg.BuildEngineConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sink, err := handmouse.NewUinputSink("handmouse Virtual Pointer")
	if err != nil {
		log.Fatalf("Failed to create input sink: %v", err)
	}
	defer sink.Close()

	engine, err := handmouse.NewEngine(engineCfg, sink)
	if err != nil {
		log.Fatalf("Failed to construct engine: %v", err)
	}

	mirror := !*noMirror
	camera := capture.NewOpenCVCamera(mirror)
	if err := camera.Open(cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS); err != nil {
		log.Fatalf("Failed to open camera: %v", err)
	}
	defer camera.Close()

	actualWidth, actualHeight := camera.GetActualResolution()
	actualFPS := camera.GetActualFPS()
	if *verbose {
		log.Printf("Camera opened: device=%d, resolution=%dx%d, fps=%d, mirror=%v",
			cfg.Camera.DeviceID, actualWidth, actualHeight, actualFPS, mirror)
	} else {
		log.Printf("Camera opened: %dx%d@%dfps", actualWidth, actualHeight, actualFPS)
	}

	var previewWindow *overlay.Window
	if *preview {
		previewWindow = overlay.New("handmouse Preview")
		log.Println("Preview window enabled")
	}

	detector := handmouse.NewNoopDetector()
	defer detector.Close()

	knownCameras := capture.EnumerateCameras(10)
	if len(knownCameras) == 0 {
		knownCameras = []int{cfg.Camera.DeviceID}
	}

	dispatcher, err := hotkey.NewDispatcher(int(os.Stdin.Fd()))
	if err != nil {
		log.Printf("Hotkeys unavailable: %v (stdin is not a terminal)", err)
	} else {
		defer dispatcher.Close()
		log.Println("Hotkeys: [l/r] begin calibration, [space] advance step, [esc] cancel, []/[ camera, [s] rescan, [p] preview, [q] quit")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Println("Tracking started. Press Ctrl+C (or 'q') to stop.")

	var calibrator *handmouse.Calibrator
	var calibBar *progressbar.ProgressBar
	frameCount := uint64(0)

runLoop:
	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down...", sig)
			break runLoop
		default:
		}

		if dispatcher != nil {
			switch dispatcher.Poll() {
			case hotkey.KeyQuit:
				log.Println("Quit requested, shutting down...")
				break runLoop
			case hotkey.KeyBeginCalibrationLeft:
				calibrator = handmouse.NewCalibrator(handmouse.Left)
				calibrator.Begin(engineCfg.Calibration)
				calibBar = newCalibrationBar(calibrator.Step())
				log.Println("Calibration started for left hand")
			case hotkey.KeyBeginCalibrationRight:
				calibrator = handmouse.NewCalibrator(handmouse.Right)
				calibrator.Begin(engineCfg.Calibration)
				calibBar = newCalibrationBar(calibrator.Step())
				log.Println("Calibration started for right hand")
			case hotkey.KeyAdvanceCalibration:
				if calibrator != nil && calibrator.Active() {
					step := calibrator.Step()
					if err := calibrator.Advance(); err != nil {
						log.Printf("Calibration step %s failed: %v", step, err)
					} else {
						log.Printf("Calibration step %s complete", step)
						engineCfg.Calibration = calibrator.Result()
					}
					if calibrator.Active() {
						calibBar = newCalibrationBar(calibrator.Step())
					} else {
						calibBar = nil
					}
				}
			case hotkey.KeyCancelCalibration:
				if calibrator != nil && calibrator.Active() {
					calibrator.Cancel()
					engineCfg.Calibration = calibrator.Result()
					log.Println("Calibration cancelled, prior calibration restored")
					calibrator = nil
					calibBar = nil
				}
			case hotkey.KeyNextCamera:
				switchCamera(camera, cfg, &knownCameras, 1)
			case hotkey.KeyPrevCamera:
				switchCamera(camera, cfg, &knownCameras, -1)
			case hotkey.KeyRescanCameras:
				knownCameras = capture.EnumerateCameras(10)
				if len(knownCameras) == 0 {
					knownCameras = []int{camera.DeviceID()}
				}
				log.Printf("Rescanned cameras: %v", knownCameras)
			case hotkey.KeyTogglePreview:
				if previewWindow != nil {
					previewWindow.Close()
					previewWindow = nil
					log.Println("Preview window disabled")
				} else {
					previewWindow = overlay.New("handmouse Preview")
					log.Println("Preview window enabled")
				}
			}
		}

		rgb, width, height, err := camera.Read()
		if err != nil {
			log.Printf("Frame read error: %v", err)
			continue
		}

		timestampMS := time.Now().UnixMilli()
		hands, err := detector.Detect(rgb, width, height, timestampMS)
		if err != nil {
			log.Printf("Detection error: %v", err)
			hands = nil
		}
		frame := handmouse.Frame{TimestampMS: timestampMS, Hands: hands}

		if calibrator != nil && calibrator.Active() {
			calibrator.Observe(frame)
			if calibBar != nil {
				calibBar.Set(calibrator.SampleCount())
			}
		}

		engine.Step(frame)

		if previewWindow != nil {
			mat, err := camera.ReadMat()
			if err == nil {
				status := make([]string, 0, len(engine.GateStates()))
				for name, on := range engine.GateStates() {
					status = append(status, overlay.GateLine(name, on))
				}
				previewWindow.ShowWithStatus(mat, status)
				mat.Close()
			}
		}

		frameCount++
		if *verbose && frameCount%30 == 0 {
			log.Printf("Frame %d", frameCount)
		}
	}

	if previewWindow != nil {
		previewWindow.Close()
	}

	engine.Shutdown(time.Now().UnixMilli())
}

// switchCamera reopens camera against the device that is delta positions
// away from its current device in knownCameras, wrapping around the list.
// Failures are logged and the camera is reopened on its prior device,
// since Reopen closes the existing capture before opening the new one.
func switchCamera(camera *capture.OpenCVCamera, cfg *config.Config, knownCameras *[]int, delta int) {
	devices := *knownCameras
	if len(devices) == 0 {
		log.Println("No known cameras to switch to")
		return
	}

	current := camera.DeviceID()
	idx := 0
	for i, id := range devices {
		if id == current {
			idx = i
			break
		}
	}

	next := devices[(idx+delta+len(devices))%len(devices)]
	if next == current {
		return
	}

	if err := camera.Reopen(next, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS); err != nil {
		log.Printf("Failed to switch to camera %d: %v", next, err)
		if err := camera.Reopen(current, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS); err != nil {
			log.Printf("Failed to reopen camera %d: %v", current, err)
		}
		return
	}

	cfg.LastCamera = next
	width, height := camera.GetActualResolution()
	log.Printf("Switched to camera %d (%dx%d)", next, width, height)
}

// newCalibrationBar builds a terminal progress bar tracking sample
// collection for one guided-calibration step.
func newCalibrationBar(step handmouse.CalibrationStep) *progressbar.ProgressBar {
	return progressbar.NewOptions(calibrationSampleTarget,
		progressbar.OptionSetDescription(fmt.Sprintf("calibrating %s", step)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
}
