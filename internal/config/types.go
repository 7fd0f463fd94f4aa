// Package config resolves, parses, validates, and defaults voicecore
// runtime configuration, adapted from the teacher's config package: a
// single validated struct, an XDG-aware resolved path, and VOICETRANSLATE_*
// environment overrides (spec.md §6).
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Audio       AudioConfig
	Segment     SegmentConfig
	ASR         ASRConfig
	Translation TranslationConfig
	Adaptive    AdaptiveConfig
	Privacy     PrivacyConfig
	Resilience  ResilienceConfig
}

// AudioConfig controls capture frame shape and VAD working parameters.
type AudioConfig struct {
	SampleRate   uint32
	ChunkMS      int
	VADThreshold float32
}

// SegmentConfig controls speech segmentation padding/duration/merge.
type SegmentConfig struct {
	MinSpeechDurationMS  int
	MinSilenceDurationMS int
	PaddingBeforeS        float64
	PaddingAfterS         float64
	MinSegmentDurationS   float64
	MaxSegmentDurationS   float64
	MergeGapThresholdS    float64
}

// ASRConfig controls ASR backend selection and precision.
type ASRConfig struct {
	Backend            string // auto, openvino, coreml, fallback
	ComputeType        string
	DraftComputeType   string
	BeamSize           int
	DraftBeamSize      int
	DraftIntervalMS    int
}

// TranslationConfig controls MT backend tier and SOV gating.
type TranslationConfig struct {
	Tier               string // fast, balanced, accurate
	TargetLanguage     string
	SOVLanguages       []string
	RequireVerbsSVO    bool
	MinDraftLength     int
	StabilityThreshold float32
	MaxHistorySegments int
}

// AdaptiveConfig controls queue-depth-driven scheduling hints.
type AdaptiveConfig struct {
	MaxQueueDepth          int
	PauseSkipThresholdMS   int
	TargetTTFTMS           int
	TargetMeaningLatencyMS int
	TargetEarVoiceLagMS    int
	DropOnOverflow         bool
	MinDraftIntervalMS     int
	MaxDraftIntervalMS     int
}

// PrivacyConfig controls audio retention and local-only enforcement.
type PrivacyConfig struct {
	EnableAudioLogging bool
	AudioRetention     time.Duration
	LocalOnly          bool
}

// ResilienceConfig controls circuit breaker and retry defaults.
type ResilienceConfig struct {
	BreakerFailureThreshold int
	BreakerRecoveryTimeoutS float64
	BreakerHalfOpenMaxCalls int
	RetryMaxAttempts        int
	RetryBaseDelayMS        int
	RetryMaxDelayMS         int
	RetryExpBase            float64
	HealthCheckIntervalS    float64
}
