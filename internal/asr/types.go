// Package asr implements the AsrWorker (spec.md §4.F): transcribing
// completed speech segments into draft/final transcripts against a pluggable
// AsrBackend collaborator.
package asr

import (
	"context"

	"github.com/google/uuid"

	"github.com/voicetranslate/streamcore/internal/frame"
	"github.com/voicetranslate/streamcore/internal/segment"
)

// Transcript is one draft or final ASR result for a segment (spec.md §3).
type Transcript struct {
	SegmentID  uuid.UUID
	Text       string
	Language   frame.LanguageCode
	Confidence float32
	IsFinal    bool
	Sequence   uint64
}

// Backend selects which concrete ASR backend family to use.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendOpenVINO Backend = "openvino"
	BackendCoreML   Backend = "coreml"
	BackendFallback Backend = "fallback"
)

// ComputePrecision controls inference numeric precision.
type ComputePrecision string

const (
	PrecisionInt8         ComputePrecision = "int8"
	PrecisionInt8Float16  ComputePrecision = "int8_float16"
	PrecisionFloat16      ComputePrecision = "float16"
	PrecisionFloat32      ComputePrecision = "float32"
)

// BackendConfig configures an AsrBackend at Initialize time.
type BackendConfig struct {
	ForcedLanguage frame.LanguageCode // empty means auto-detect
	FinalPrecision ComputePrecision
	DraftPrecision ComputePrecision
	BeamSize       int
	DraftBeamSize  int
}

// AsrBackend is the out-of-scope collaborator interface (spec.md §6): the
// concrete neural ASR model sits behind this contract.
type AsrBackend interface {
	Initialize(cfg BackendConfig) error
	Transcribe(ctx context.Context, seg segment.SpeechSegment, precision ComputePrecision, isDraft bool) (text string, confidence float32, language frame.LanguageCode, err error)
	SupportedLanguages() []frame.LanguageCode
	Shutdown() error
}
