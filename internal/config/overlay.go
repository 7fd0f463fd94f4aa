package config

import "encoding/json"

// overlay mirrors Config with pointer/optional fields so a JSONC file only
// needs to specify the fields it wants to change, the rest falling through
// to Default() -- adapted from the teacher's jsoncConfig partial-overlay
// idiom in parser_jsonc.go.
type overlay struct {
	Audio       *overlayAudio       `json:"audio"`
	Segment     *overlaySegment     `json:"segment"`
	ASR         *overlayASR         `json:"asr"`
	Translation *overlayTranslation `json:"translation"`
	Adaptive    *overlayAdaptive    `json:"adaptive"`
	Privacy     *overlayPrivacy     `json:"privacy"`
	Resilience  *overlayResilience  `json:"resilience"`
}

type overlayAudio struct {
	SampleRate   *uint32  `json:"sample_rate"`
	ChunkMS      *int     `json:"chunk_ms"`
	VADThreshold *float32 `json:"vad_threshold"`
}

type overlaySegment struct {
	MinSpeechDurationMS  *int     `json:"min_speech_duration_ms"`
	MinSilenceDurationMS *int     `json:"min_silence_duration_ms"`
	PaddingBeforeS       *float64 `json:"padding_before_s"`
	PaddingAfterS        *float64 `json:"padding_after_s"`
	MinSegmentDurationS  *float64 `json:"min_segment_duration_s"`
	MaxSegmentDurationS  *float64 `json:"max_segment_duration_s"`
	MergeGapThresholdS   *float64 `json:"merge_gap_threshold_s"`
}

type overlayASR struct {
	Backend          *string `json:"backend"`
	ComputeType      *string `json:"compute_type"`
	DraftComputeType *string `json:"draft_compute_type"`
	BeamSize         *int    `json:"beam_size"`
	DraftBeamSize    *int    `json:"draft_beam_size"`
	DraftIntervalMS  *int    `json:"draft_interval_ms"`
}

type overlayTranslation struct {
	Tier               *string  `json:"tier"`
	SOVLanguages       []string `json:"sov_languages"`
	RequireVerbsSVO    *bool    `json:"require_verbs_svo"`
	MinDraftLength     *int     `json:"min_draft_length"`
	StabilityThreshold *float32 `json:"stability_threshold"`
	MaxHistorySegments *int     `json:"max_history_segments"`
}

type overlayAdaptive struct {
	MaxQueueDepth          *int  `json:"max_queue_depth"`
	PauseSkipThresholdMS   *int  `json:"pause_skip_threshold_ms"`
	TargetTTFTMS           *int  `json:"target_ttft_ms"`
	TargetMeaningLatencyMS *int  `json:"target_meaning_latency_ms"`
	TargetEarVoiceLagMS    *int  `json:"target_ear_voice_lag_ms"`
	DropOnOverflow         *bool `json:"drop_on_overflow"`
	MinDraftIntervalMS     *int  `json:"min_draft_interval_ms"`
	MaxDraftIntervalMS     *int  `json:"max_draft_interval_ms"`
}

type overlayPrivacy struct {
	EnableAudioLogging *bool `json:"enable_audio_logging"`
	AudioRetentionH    *int  `json:"audio_retention_hours"`
	LocalOnly          *bool `json:"local_only"`
}

type overlayResilience struct {
	BreakerFailureThreshold *int     `json:"breaker_failure_threshold"`
	BreakerRecoveryTimeoutS *float64 `json:"breaker_recovery_timeout_s"`
	BreakerHalfOpenMaxCalls *int     `json:"breaker_half_open_max_calls"`
	RetryMaxAttempts        *int     `json:"retry_max_attempts"`
	RetryBaseDelayMS        *int     `json:"retry_base_delay_ms"`
	RetryMaxDelayMS         *int     `json:"retry_max_delay_ms"`
	RetryExpBase            *float64 `json:"retry_exp_base"`
	HealthCheckIntervalS    *float64 `json:"health_check_interval_s"`
}

// ApplyOverlay parses JSONC content (comments stripped) and merges present
// fields onto base, returning the resulting Config.
func ApplyOverlay(content string, base Config) (Config, error) {
	var ov overlay
	stripped := stripJSONComments(content)
	if err := json.Unmarshal([]byte(stripped), &ov); err != nil {
		return Config{}, err
	}

	cfg := base
	if a := ov.Audio; a != nil {
		if a.SampleRate != nil {
			cfg.Audio.SampleRate = *a.SampleRate
		}
		if a.ChunkMS != nil {
			cfg.Audio.ChunkMS = *a.ChunkMS
		}
		if a.VADThreshold != nil {
			cfg.Audio.VADThreshold = *a.VADThreshold
		}
	}
	if s := ov.Segment; s != nil {
		if s.MinSpeechDurationMS != nil {
			cfg.Segment.MinSpeechDurationMS = *s.MinSpeechDurationMS
		}
		if s.MinSilenceDurationMS != nil {
			cfg.Segment.MinSilenceDurationMS = *s.MinSilenceDurationMS
		}
		if s.PaddingBeforeS != nil {
			cfg.Segment.PaddingBeforeS = *s.PaddingBeforeS
		}
		if s.PaddingAfterS != nil {
			cfg.Segment.PaddingAfterS = *s.PaddingAfterS
		}
		if s.MinSegmentDurationS != nil {
			cfg.Segment.MinSegmentDurationS = *s.MinSegmentDurationS
		}
		if s.MaxSegmentDurationS != nil {
			cfg.Segment.MaxSegmentDurationS = *s.MaxSegmentDurationS
		}
		if s.MergeGapThresholdS != nil {
			cfg.Segment.MergeGapThresholdS = *s.MergeGapThresholdS
		}
	}
	if a := ov.ASR; a != nil {
		if a.Backend != nil {
			cfg.ASR.Backend = *a.Backend
		}
		if a.ComputeType != nil {
			cfg.ASR.ComputeType = *a.ComputeType
		}
		if a.DraftComputeType != nil {
			cfg.ASR.DraftComputeType = *a.DraftComputeType
		}
		if a.BeamSize != nil {
			cfg.ASR.BeamSize = *a.BeamSize
		}
		if a.DraftBeamSize != nil {
			cfg.ASR.DraftBeamSize = *a.DraftBeamSize
		}
		if a.DraftIntervalMS != nil {
			cfg.ASR.DraftIntervalMS = *a.DraftIntervalMS
		}
	}
	if tr := ov.Translation; tr != nil {
		if tr.Tier != nil {
			cfg.Translation.Tier = *tr.Tier
		}
		if tr.SOVLanguages != nil {
			cfg.Translation.SOVLanguages = tr.SOVLanguages
		}
		if tr.RequireVerbsSVO != nil {
			cfg.Translation.RequireVerbsSVO = *tr.RequireVerbsSVO
		}
		if tr.MinDraftLength != nil {
			cfg.Translation.MinDraftLength = *tr.MinDraftLength
		}
		if tr.StabilityThreshold != nil {
			cfg.Translation.StabilityThreshold = *tr.StabilityThreshold
		}
		if tr.MaxHistorySegments != nil {
			cfg.Translation.MaxHistorySegments = *tr.MaxHistorySegments
		}
	}
	if ad := ov.Adaptive; ad != nil {
		if ad.MaxQueueDepth != nil {
			cfg.Adaptive.MaxQueueDepth = *ad.MaxQueueDepth
		}
		if ad.PauseSkipThresholdMS != nil {
			cfg.Adaptive.PauseSkipThresholdMS = *ad.PauseSkipThresholdMS
		}
		if ad.TargetTTFTMS != nil {
			cfg.Adaptive.TargetTTFTMS = *ad.TargetTTFTMS
		}
		if ad.TargetMeaningLatencyMS != nil {
			cfg.Adaptive.TargetMeaningLatencyMS = *ad.TargetMeaningLatencyMS
		}
		if ad.TargetEarVoiceLagMS != nil {
			cfg.Adaptive.TargetEarVoiceLagMS = *ad.TargetEarVoiceLagMS
		}
		if ad.DropOnOverflow != nil {
			cfg.Adaptive.DropOnOverflow = *ad.DropOnOverflow
		}
		if ad.MinDraftIntervalMS != nil {
			cfg.Adaptive.MinDraftIntervalMS = *ad.MinDraftIntervalMS
		}
		if ad.MaxDraftIntervalMS != nil {
			cfg.Adaptive.MaxDraftIntervalMS = *ad.MaxDraftIntervalMS
		}
	}
	if p := ov.Privacy; p != nil {
		if p.EnableAudioLogging != nil {
			cfg.Privacy.EnableAudioLogging = *p.EnableAudioLogging
		}
		if p.AudioRetentionH != nil {
			cfg.Privacy.AudioRetention = hoursToDuration(*p.AudioRetentionH)
		}
		if p.LocalOnly != nil {
			cfg.Privacy.LocalOnly = *p.LocalOnly
		}
	}
	if r := ov.Resilience; r != nil {
		if r.BreakerFailureThreshold != nil {
			cfg.Resilience.BreakerFailureThreshold = *r.BreakerFailureThreshold
		}
		if r.BreakerRecoveryTimeoutS != nil {
			cfg.Resilience.BreakerRecoveryTimeoutS = *r.BreakerRecoveryTimeoutS
		}
		if r.BreakerHalfOpenMaxCalls != nil {
			cfg.Resilience.BreakerHalfOpenMaxCalls = *r.BreakerHalfOpenMaxCalls
		}
		if r.RetryMaxAttempts != nil {
			cfg.Resilience.RetryMaxAttempts = *r.RetryMaxAttempts
		}
		if r.RetryBaseDelayMS != nil {
			cfg.Resilience.RetryBaseDelayMS = *r.RetryBaseDelayMS
		}
		if r.RetryMaxDelayMS != nil {
			cfg.Resilience.RetryMaxDelayMS = *r.RetryMaxDelayMS
		}
		if r.RetryExpBase != nil {
			cfg.Resilience.RetryExpBase = *r.RetryExpBase
		}
		if r.HealthCheckIntervalS != nil {
			cfg.Resilience.HealthCheckIntervalS = *r.HealthCheckIntervalS
		}
	}

	return cfg, nil
}
