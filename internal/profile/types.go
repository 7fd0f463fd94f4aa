// Package profile persists per-device gain-tuning results (GainProfile,
// spec.md §6) keyed by device_id under the user's config directory,
// following the same XDG-path and JSONC-free conventions as internal/config.
package profile

import "time"

// CurrentVersion is the profile_version written by this build. Loaders
// backfill missing fields for profiles written by older versions.
const CurrentVersion = 1

// GainProfile is one device's last-converged tuning result.
type GainProfile struct {
	DeviceID          string    `json:"device_id"`
	DeviceName        string    `json:"device_name"`
	Mode              string    `json:"mode"` // Hardware|Digital|Unknown
	GainDB            float32   `json:"gain_db"`
	DigitalMultiplier float32   `json:"digital_multiplier"`
	NoiseFloorDB      float32   `json:"noise_floor_db"`
	PeakDB            float32   `json:"peak_db"`
	RMSDB             float32   `json:"rms_db"`
	SNRDB             float32   `json:"snr_db"`
	SampleRate        uint32    `json:"sample_rate"`
	CapturedAt        time.Time `json:"captured_at"`
	Confidence        float32   `json:"confidence"`
	Version           int       `json:"profile_version"`
}

// backfill applies documented defaults to fields absent from an
// older-version payload (spec.md §6 migration note).
func backfill(p GainProfile) GainProfile {
	if p.Version == 0 {
		// Pre-versioning payloads predate SNR tracking and hardware mode
		// detection; assume the conservative defaults.
		if p.Mode == "" {
			p.Mode = "Unknown"
		}
		if p.SampleRate == 0 {
			p.SampleRate = 16000
		}
		if p.Confidence == 0 {
			p.Confidence = 0.5
		}
	}
	p.Version = CurrentVersion
	return p
}
