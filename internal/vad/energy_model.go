package vad

import (
	"math"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// EnergyModel is a deterministic fallback ProbabilityModel used when no
// neural VAD backend is wired (tests, demos, degraded-mode operation). It
// scores frames by normalized RMS energy against a floor/ceiling, the same
// spirit as the stub engines in the retrieval pack's VAD adapters.
type EnergyModel struct {
	FloorDB   float64 // RMS at/below this maps to probability 0
	CeilingDB float64 // RMS at/above this maps to probability 1
}

// NewEnergyModel returns an EnergyModel with sensible speech-band defaults.
func NewEnergyModel() *EnergyModel {
	return &EnergyModel{FloorDB: -55, CeilingDB: -20}
}

func (m *EnergyModel) Score(f frame.Frame) (float32, error) {
	if len(f.Samples) == 0 {
		return 0, nil
	}
	rmsDB := RMSdB(f.Samples)
	floor, ceiling := m.FloorDB, m.CeilingDB
	if ceiling <= floor {
		ceiling = floor + 1
	}
	norm := (rmsDB - floor) / (ceiling - floor)
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return float32(norm), nil
}

// RMSdB computes the RMS level of a PCM16 buffer in dBFS (full scale 32768).
func RMSdB(samples []int16) float64 {
	if len(samples) == 0 {
		return -120
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	if rms <= 0 {
		return -120
	}
	return 20 * math.Log10(rms)
}

// PeakDB computes the peak absolute level of a PCM16 buffer in dBFS.
func PeakDB(samples []int16) float64 {
	var peak float64
	for _, s := range samples {
		v := math.Abs(float64(s)) / 32768.0
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return -120
	}
	return 20 * math.Log10(peak)
}
