// Package frame holds the value types shared across every pipeline stage:
// the fixed-size PCM frame, VAD decisions, and language codes.
package frame

import "time"

// LanguageCode is a BCP-47-ish language tag, e.g. "en-US", "ja".
type LanguageCode string

// Frame is an immutable fixed-size PCM buffer produced by a CaptureDevice.
// N (len(Samples)) is SampleRate * chunk_ms / 1000. Ownership moves to the
// next stage on send; a Frame must not be mutated after it is handed off.
type Frame struct {
	Samples    []int16
	SampleRate uint32
	CaptureTS  time.Time
}

// Duration reports the wall-clock length this frame represents.
func (f Frame) Duration() time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// Clone returns a deep copy so a caller can retain a frame beyond the
// single-owner contract (used by the Segmenter's pre-roll ring buffer).
func (f Frame) Clone() Frame {
	out := Frame{SampleRate: f.SampleRate, CaptureTS: f.CaptureTS}
	out.Samples = make([]int16, len(f.Samples))
	copy(out.Samples, f.Samples)
	return out
}

// SpeechProbability is one frame's VAD output. IsSpeech is the hysteretic
// decision from the VadEngine state machine, not a bare prob > threshold.
type SpeechProbability struct {
	Prob     float32
	IsSpeech bool
}

// VadDecision is the VadEngine's state-machine state for one stream.
type VadDecision string

const (
	VadSilence  VadDecision = "silence"
	VadStarting VadDecision = "starting"
	VadSpeech   VadDecision = "speech"
	VadEnding   VadDecision = "ending"
)

// VadEvent drives VadDecision transitions.
type VadEvent string

const (
	VadEventSpeechFrame  VadEvent = "speech_frame"
	VadEventSilenceFrame VadEvent = "silence_frame"
	VadEventPromoted     VadEvent = "promoted"
	VadEventCommitted    VadEvent = "committed"
)
