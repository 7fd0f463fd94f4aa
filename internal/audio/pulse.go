package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// PulseCapture implements CaptureDevice against a live PulseAudio server,
// adapted from the teacher's dictation-daemon capture stream: a
// pulse.RecordStream feeding a writer callback, chunked to a fixed frame
// size and stamped with wall-clock capture timestamps for the VAD/segmenter
// pipeline downstream.
type PulseCapture struct {
	chunkSamples int
	appName      string
	onError      ErrorSink

	mu      sync.Mutex
	client  *pulse.Client
	stream  *pulse.RecordStream
	stopped bool
	pending []int16
}

// NewPulseCapture constructs a PulseCapture producing frames of chunkSamples
// mono s16 samples each.
func NewPulseCapture(chunkSamples int, onError ErrorSink) *PulseCapture {
	if chunkSamples <= 0 {
		chunkSamples = 320 // 20ms @ 16kHz
	}
	return &PulseCapture{chunkSamples: chunkSamples, appName: "voicecore", onError: onError}
}

// ListDevices returns available Pulse input sources.
func (p *PulseCapture) ListDevices(_ context.Context) ([]DeviceInfo, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(p.appName))
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var list pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &list); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(list))
	for _, src := range list {
		if src == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			ID:          src.SourceName,
			Description: src.Device,
			Available:   sourceAvailable(src),
			Muted:       src.Mute,
			Default:     src.SourceName == defaultID,
		})
	}
	return devices, nil
}

// StartCapture opens a 16kHz mono s16 record stream and delivers fixed-size
// Frames to callback on a dedicated goroutine until StopCapture is called.
func (p *PulseCapture) StartCapture(ctx context.Context, deviceID string, isLoopback bool, callback func(frame.Frame)) error {
	client, err := pulse.NewClient(pulse.ClientApplicationName(p.appName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	var source *pulse.Source
	if strings.TrimSpace(deviceID) == "" || deviceID == "default" {
		source, err = client.DefaultSource()
	} else {
		source, err = client.SourceByID(deviceID)
	}
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: resolve source %q: %v", ErrDeviceUnavailable, deviceID, err)
	}

	p.mu.Lock()
	p.client = client
	p.stopped = false
	p.mu.Unlock()

	recordOpts := []pulse.RecordOption{
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(16000),
		pulse.RecordMediaName("voicecore capture"),
	}
	if isLoopback {
		recordOpts = append(recordOpts, pulse.RecordMediaName("voicecore loopback"))
	}

	writer := pulse.NewWriter(writerFunc(func(b []byte) (int, error) {
		return p.onPCM(b, callback)
	}), pulseproto.FormatInt16LE)

	stream, err := client.NewRecord(writer, recordOpts...)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: open record stream: %v", ErrDeviceUnavailable, err)
	}

	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()

	stream.Start()

	go func() {
		<-ctx.Done()
		_ = p.StopCapture()
	}()

	return nil
}

// StopCapture halts the stream; idempotent and guarantees no further
// callback invocations after it returns.
func (p *PulseCapture) StopCapture() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	stream := p.stream
	client := p.client
	p.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
	return nil
}

// onPCM is invoked on the Pulse callback thread; it must never block longer
// than chunk_ms/2 and never panic across the boundary (spec.md §4.A) -- any
// framing error is reported via onError instead of propagating.
func (p *PulseCapture) onPCM(buf []byte, callback func(frame.Frame)) (int, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return 0, nil
	}
	p.mu.Unlock()

	samples := bytesToInt16LE(buf)

	p.mu.Lock()
	p.pending = append(p.pending, samples...)
	var chunks [][]int16
	for len(p.pending) >= p.chunkSamples {
		chunk := make([]int16, p.chunkSamples)
		copy(chunk, p.pending[:p.chunkSamples])
		p.pending = p.pending[p.chunkSamples:]
		chunks = append(chunks, chunk)
	}
	p.mu.Unlock()

	now := time.Now()
	frameDur := time.Duration(p.chunkSamples) * time.Second / 16000
	for i, c := range chunks {
		callback(frame.Frame{
			Samples:    c,
			SampleRate: 16000,
			CaptureTS:  now.Add(time.Duration(i) * frameDur),
		})
	}
	return len(buf), nil
}

func bytesToInt16LE(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return out
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		return port.Available == 0 || port.Available == 2
	}
	return true
}
