// Package autotune implements the AutoTuner iterative gain convergence loop
// (spec.md §4.J), reusing internal/vad's RMS/peak energy helpers and
// internal/gain's Processor to converge capture level onto a target window.
package autotune

import (
	"context"
	"time"

	"github.com/voicetranslate/streamcore/internal/gain"
	"github.com/voicetranslate/streamcore/internal/vad"
)

// Status reports how the tuning loop ended.
type Status string

const (
	Converged      Status = "converged"
	DidNotConverge Status = "did_not_converge"
)

// Measurement is one capture buffer's computed levels.
type Measurement struct {
	PeakDB       float64
	RMSDB        float64
	NoiseFloorDB float64
}

// Config controls convergence targets and loop shape.
type Config struct {
	TargetPeakDB  float64
	TargetRMSDB   float64
	ToleranceDB   float64 // 3dB per spec.md §4.J step 3
	SettleTime    time.Duration
	MaxIterations int
	DeviceID      string
}

// Measurer captures a fixed-duration buffer and reports its PCM.
type Measurer func(ctx context.Context) ([]int16, error)

// Sleeper pauses for d, honoring ctx cancellation; injected so tests don't
// block on a real clock.
type Sleeper func(ctx context.Context, d time.Duration) error

// Result is the outcome of one Run call.
type Result struct {
	Status     Status
	Iterations int
	Last       Measurement
}

// Run executes the iterative measure/apply/verify loop (spec.md §4.J).
func Run(ctx context.Context, cfg Config, processor *gain.Processor, measure Measurer, sleep Sleeper) (Result, error) {
	if cfg.ToleranceDB <= 0 {
		cfg.ToleranceDB = 3
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 8
	}

	var last Measurement
	for i := 1; i <= cfg.MaxIterations; i++ {
		pcm, err := measure(ctx)
		if err != nil {
			return Result{}, err
		}

		last = Measurement{
			PeakDB:       vad.PeakDB(pcm),
			RMSDB:        vad.RMSdB(pcm),
			NoiseFloorDB: percentile10FrameEnergyDB(pcm),
		}

		if absDiff(last.PeakDB, cfg.TargetPeakDB) < cfg.ToleranceDB && absDiff(last.RMSDB, cfg.TargetRMSDB) < cfg.ToleranceDB {
			return Result{Status: Converged, Iterations: i, Last: last}, nil
		}

		deltaDB := cfg.TargetRMSDB - last.RMSDB
		if last.PeakDB > -3 {
			deltaDB = cfg.TargetPeakDB - last.PeakDB
		}

		noiseFloor := float32(last.NoiseFloorDB)
		current := currentGainDB(processor, cfg.DeviceID)
		targetGain := current + float32(deltaDB)
		if _, _, err := processor.SetGain(cfg.DeviceID, targetGain, &noiseFloor); err != nil {
			return Result{}, err
		}

		if err := sleep(ctx, cfg.SettleTime); err != nil {
			return Result{}, err
		}
	}

	return Result{Status: DidNotConverge, Iterations: cfg.MaxIterations, Last: last}, nil
}

func currentGainDB(processor *gain.Processor, deviceID string) float32 {
	gainDB, _, _, ok := processor.State(deviceID)
	if !ok {
		return 0
	}
	return gainDB
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// percentile10FrameEnergyDB computes the 10th percentile of per-10ms frame
// RMS energy in dB, used as a noise-floor estimate (spec.md §4.J step 2).
// Assumes 16kHz mono s16 PCM (160 samples per 10ms frame), matching the
// pipeline's fixed capture rate.
func percentile10FrameEnergyDB(pcm []int16) float64 {
	const frameSamples = 160
	if len(pcm) < frameSamples {
		return vad.RMSdB(pcm)
	}

	var energies []float64
	for start := 0; start+frameSamples <= len(pcm); start += frameSamples {
		energies = append(energies, vad.RMSdB(pcm[start:start+frameSamples]))
	}
	if len(energies) == 0 {
		return vad.RMSdB(pcm)
	}

	sortFloat64s(energies)
	idx := (len(energies) * 10) / 100
	if idx >= len(energies) {
		idx = len(energies) - 1
	}
	return energies[idx]
}

func sortFloat64s(vals []float64) {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
}
