package config

import "fmt"

// Warning is a non-fatal validation message.
type Warning struct {
	Message string
}

// Validate enforces config invariants and returns non-fatal warnings.
// Construction-time invalidity is a fatal ConfigInvalid error (spec.md §7).
func Validate(cfg Config) ([]Warning, error) {
	var warnings []Warning

	if cfg.Audio.SampleRate == 0 {
		return nil, fmt.Errorf("config invalid: sample_rate must be > 0")
	}
	switch cfg.Audio.ChunkMS {
	case 10, 20, 30:
	default:
		return nil, fmt.Errorf("config invalid: chunk_ms must be one of 10, 20, 30, got %d", cfg.Audio.ChunkMS)
	}
	if cfg.Audio.VADThreshold < 0 || cfg.Audio.VADThreshold > 1 {
		return nil, fmt.Errorf("config invalid: vad_threshold must be in [0,1], got %f", cfg.Audio.VADThreshold)
	}

	if cfg.Segment.MinSegmentDurationS <= 0 {
		return nil, fmt.Errorf("config invalid: min_segment_duration_s must be > 0")
	}
	if cfg.Segment.MaxSegmentDurationS < cfg.Segment.MinSegmentDurationS {
		return nil, fmt.Errorf("config invalid: max_segment_duration_s must be >= min_segment_duration_s")
	}
	if cfg.Segment.MergeGapThresholdS < 0 {
		return nil, fmt.Errorf("config invalid: merge_gap_threshold_s must be >= 0")
	}

	switch cfg.ASR.Backend {
	case "auto", "openvino", "coreml", "fallback":
	default:
		return nil, fmt.Errorf("config invalid: asr_backend must be one of auto, openvino, coreml, fallback, got %q", cfg.ASR.Backend)
	}
	if cfg.ASR.BeamSize <= 0 {
		return nil, fmt.Errorf("config invalid: asr_beam_size must be > 0")
	}

	switch cfg.Translation.Tier {
	case "fast", "balanced", "accurate":
	default:
		return nil, fmt.Errorf("config invalid: translation_tier must be one of fast, balanced, accurate, got %q", cfg.Translation.Tier)
	}
	if cfg.Translation.MinDraftLength < 0 {
		return nil, fmt.Errorf("config invalid: min_draft_length must be >= 0")
	}
	if len(cfg.Translation.SOVLanguages) == 0 {
		warnings = append(warnings, Warning{Message: "translation.sov_languages is empty (the translation worker's clause gating uses its own fixed SOV set and does not read this field)"})
	}

	if cfg.Adaptive.MaxQueueDepth <= 0 {
		return nil, fmt.Errorf("config invalid: max_queue_depth must be > 0")
	}
	if cfg.Adaptive.MinDraftIntervalMS > cfg.Adaptive.MaxDraftIntervalMS {
		return nil, fmt.Errorf("config invalid: min_draft_interval_ms must be <= max_draft_interval_ms")
	}

	if cfg.Resilience.BreakerFailureThreshold <= 0 {
		return nil, fmt.Errorf("config invalid: breaker_failure_threshold must be > 0")
	}
	if cfg.Resilience.RetryMaxAttempts <= 0 {
		return nil, fmt.Errorf("config invalid: retry_max_attempts must be > 0")
	}
	if cfg.Resilience.RetryExpBase <= 1 {
		warnings = append(warnings, Warning{Message: "resilience.retry_exp_base <= 1 disables exponential backoff growth"})
	}

	return warnings, nil
}
