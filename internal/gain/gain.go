// Package gain implements digital gain application with soft-clip limiting,
// noise-floor-aware gain capping, and the per-device state table described
// in spec.md §4.B.
package gain

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// Mode identifies which gain path a device is operating under.
type Mode string

const (
	ModeUnknown  Mode = "unknown"
	ModeDigital  Mode = "digital"
	ModeHardware Mode = "hardware"
)

// ErrLatencyBudgetExceeded is a soft error: the caller should log/count it
// but must not fail the item (spec.md §7).
var ErrLatencyBudgetExceeded = errors.New("gain: latency budget exceeded")

// HardwareController is the out-of-scope collaborator for platform-specific
// hardware gain control. Implementations must round-trip verify (spec.md §9
// open question 3): after Set, Get must reflect the change before Hardware
// mode is trusted.
type HardwareController interface {
	Set(deviceID string, db float32) error
	Get(deviceID string) (db float32, err error)
}

// deviceState is the per-device table entry (spec.md §4.B).
type deviceState struct {
	gainDB       float32
	multiplier   float32
	noiseFloorDB float32
	mode         Mode
	lastUsedTS   time.Time
	accessCount  uint64

	hasRequest     bool
	lastTargetDB   float32
	lastNoiseFloor float32
	lastHasNoise   bool
	lastWarning    string
}

// Processor applies per-device digital gain and soft clipping, coordinating
// hardware gain when a HardwareController is wired. One Processor instance
// serves every device the pipeline sees.
type Processor struct {
	mu      sync.Mutex
	devices map[string]*deviceState
	hw      HardwareController

	latencyBudget time.Duration
	now           func() time.Time
}

// Option configures a Processor at construction.
type Option func(*Processor)

// WithHardwareController wires a platform gain controller.
func WithHardwareController(hw HardwareController) Option {
	return func(p *Processor) { p.hw = hw }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor constructs a Processor with a 5ms latency budget per spec.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		devices:       make(map[string]*deviceState),
		latencyBudget: 5 * time.Millisecond,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) stateFor(deviceID string) *deviceState {
	ds, ok := p.devices[deviceID]
	if !ok {
		ds = &deviceState{mode: ModeUnknown}
		p.devices[deviceID] = ds
	}
	return ds
}

// SetGain applies a requested target gain, capping per noise-floor rules,
// and returns the actual applied gain in dB. Calling SetGain twice with the
// same (device, target, noiseFloor) leaves device state unchanged
// (idempotence, spec.md §8 invariant 5).
func (p *Processor) SetGain(deviceID string, targetDB float32, noiseFloorDB *float32) (actualDB float32, warning string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.stateFor(deviceID)

	hasNoise := noiseFloorDB != nil
	var noise float32
	if hasNoise {
		noise = *noiseFloorDB
	}
	if ds.mode != ModeUnknown && ds.hasRequest && ds.lastTargetDB == targetDB &&
		ds.lastHasNoise == hasNoise && ds.lastNoiseFloor == noise {
		return ds.gainDB, ds.lastWarning, nil
	}

	if hasNoise {
		ds.noiseFloorDB = noise
	}

	applied := targetDB
	if ds.noiseFloorDB > -40 && applied > 10 {
		applied = 10
	}
	if ds.noiseFloorDB > -50 && targetDB > 0 {
		warning = "NoiseAmplification"
	}

	ds.hasRequest = true
	ds.lastTargetDB = targetDB
	ds.lastHasNoise = hasNoise
	ds.lastNoiseFloor = noise
	ds.lastWarning = warning

	if p.hw != nil {
		if hwErr := p.hw.Set(deviceID, applied); hwErr == nil {
			got, getErr := p.hw.Get(deviceID)
			if getErr == nil && math.Abs(float64(got-applied)) < 0.5 {
				ds.mode = ModeHardware
				ds.gainDB = got
				ds.multiplier = dbToMultiplier(got)
				ds.lastUsedTS = p.now()
				ds.accessCount++
				return got, warning, nil
			}
		}
	}

	ds.mode = ModeDigital
	ds.gainDB = applied
	ds.multiplier = dbToMultiplier(applied)
	ds.lastUsedTS = p.now()
	ds.accessCount++
	return applied, warning, nil
}

// dbToMultiplier converts a decibel gain to a linear multiplier.
func dbToMultiplier(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// Process applies the device's current gain to a frame, soft-limiting any
// sample that would exceed 0.95 full scale post-multiplication and
// hard-clamping the final output to [-1,1] full scale regardless of the
// requested gain (spec.md §8 invariant 6).
func (p *Processor) Process(deviceID string, f frame.Frame) (frame.Frame, error) {
	start := p.now()

	p.mu.Lock()
	ds := p.stateFor(deviceID)
	multiplier := ds.multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	ds.lastUsedTS = start
	ds.accessCount++
	p.mu.Unlock()

	out := f.Clone()
	for i, s := range out.Samples {
		v := float64(s) / 32768.0 * float64(multiplier)
		if math.Abs(v) > 0.95 {
			v = softLimit(v)
		}
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		out.Samples[i] = int16(v * 32767)
	}

	if p.now().Sub(start) > p.latencyBudget {
		return out, ErrLatencyBudgetExceeded
	}
	return out, nil
}

// softLimit applies a monotonic, odd, saturating soft limiter above 0.95
// full scale (tanh-shaped), approaching but never reaching +-1.0.
func softLimit(v float64) float64 {
	sign := 1.0
	if v < 0 {
		sign = -1.0
		v = -v
	}
	const knee = 0.95
	over := v - knee
	limited := knee + (1-knee)*math.Tanh(over/(1-knee))
	return sign * limited
}

// State returns a snapshot of one device's gain state for diagnostics.
func (p *Processor) State(deviceID string) (gainDB float32, mode Mode, accessCount uint64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ds, exists := p.devices[deviceID]
	if !exists {
		return 0, ModeUnknown, 0, false
	}
	return ds.gainDB, ds.mode, ds.accessCount, true
}

// Sweep evicts device entries unused for 24h or longer as of now.
func (p *Processor) Sweep(now time.Time) (evicted []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ds := range p.devices {
		if now.Sub(ds.lastUsedTS) >= 24*time.Hour {
			delete(p.devices, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
