// Package audio defines the CaptureDevice contract (spec.md §4.A) and
// provides two implementations: PulseCapture, a real PulseAudio-backed
// device, and SyntheticCapture, a deterministic in-memory producer used by
// tests and the demo entry point.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// DeviceInfo describes one capturable input source.
type DeviceInfo struct {
	ID          string
	Description string
	Available   bool
	Muted       bool
	Default     bool
}

// Failure modes a CaptureDevice may report from StartCapture, per §4.A.
var (
	ErrDeviceUnavailable  = errors.New("audio: capture device unavailable")
	ErrUnsupportedFormat  = errors.New("audio: unsupported sample rate or channel count")
	ErrPermissionDenied   = errors.New("audio: permission denied")
)

// CaptureError is surfaced for callback-side failures that must not cross
// the capture thread boundary as a panic/exception (spec.md §4.A).
type CaptureError struct {
	DeviceID string
	Err      error
}

func (e *CaptureError) Error() string { return "audio: capture error on " + e.DeviceID + ": " + e.Err.Error() }
func (e *CaptureError) Unwrap() error { return e.Err }

// CaptureDevice is the contract every audio source implements. The callback
// passed to StartCapture runs on a dedicated capture thread owned by the
// implementation and must never block the caller longer than chunk_ms/2;
// implementations push Frames into the pipeline's input queue without doing
// heavy work on that thread.
type CaptureDevice interface {
	ListDevices(ctx context.Context) ([]DeviceInfo, error)
	StartCapture(ctx context.Context, deviceID string, isLoopback bool, callback func(frame.Frame)) error
	StopCapture() error
}

// ErrorSink receives CaptureError events raised from the callback thread.
type ErrorSink func(*CaptureError)
