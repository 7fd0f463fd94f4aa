package audio

import (
	"context"
	"sync"
	"time"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// SyntheticCapture is a deterministic in-memory CaptureDevice: it replays a
// pre-built sequence of frames at a configurable real-time multiple. Used by
// tests, the demo cmd/voicecore entry point, and anywhere a real microphone
// is unavailable or undesired.
type SyntheticCapture struct {
	Frames []frame.Frame
	Speed  float64 // 1.0 = real-time, 2.0 = twice real-time, 0 = as-fast-as-possible

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
	done    chan struct{}
}

// NewSyntheticCapture constructs a SyntheticCapture over a fixed frame set.
func NewSyntheticCapture(frames []frame.Frame, speed float64) *SyntheticCapture {
	return &SyntheticCapture{Frames: frames, Speed: speed}
}

func (s *SyntheticCapture) ListDevices(_ context.Context) ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "synthetic", Description: "synthetic capture", Available: true, Default: true}}, nil
}

func (s *SyntheticCapture) StartCapture(ctx context.Context, _ string, _ bool, callback func(frame.Frame)) error {
	s.mu.Lock()
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.stopped = false
	stopCh := s.stopCh
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		var prevTS time.Time
		for i, f := range s.Frames {
			if i > 0 && s.Speed > 0 {
				gap := f.CaptureTS.Sub(prevTS)
				if gap > 0 {
					select {
					case <-time.After(time.Duration(float64(gap) / s.Speed)):
					case <-stopCh:
						return
					case <-ctx.Done():
						return
					}
				}
			}
			prevTS = f.CaptureTS
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			callback(f)
		}
	}()
	return nil
}

func (s *SyntheticCapture) StopCapture() error {
	s.mu.Lock()
	if s.stopped || s.stopCh == nil {
		s.stopped = true
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}
