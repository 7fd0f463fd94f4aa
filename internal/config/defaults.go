package config

import "time"

// Default returns the canonical runtime configuration used when no file or
// environment override is present.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:   16000,
			ChunkMS:      20,
			VADThreshold: 0.5,
		},
		Segment: SegmentConfig{
			MinSpeechDurationMS:  90,
			MinSilenceDurationMS: 200,
			PaddingBeforeS:       0.2,
			PaddingAfterS:        0.3,
			MinSegmentDurationS:  0.25,
			MaxSegmentDurationS:  18,
			MergeGapThresholdS:   0.35,
		},
		ASR: ASRConfig{
			Backend:          "auto",
			ComputeType:      "int8_float16",
			DraftComputeType: "int8",
			BeamSize:         5,
			DraftBeamSize:    1,
			DraftIntervalMS:  300,
		},
		Translation: TranslationConfig{
			Tier:               "balanced",
			TargetLanguage:     "en",
			SOVLanguages:       []string{"ja", "ko", "de", "tr", "hi", "fa"},
			RequireVerbsSVO:    false,
			MinDraftLength:     2,
			StabilityThreshold: 0.4,
			MaxHistorySegments: 32,
		},
		Adaptive: AdaptiveConfig{
			MaxQueueDepth:          32,
			PauseSkipThresholdMS:   800,
			TargetTTFTMS:           450,
			TargetMeaningLatencyMS: 900,
			TargetEarVoiceLagMS:    1500,
			DropOnOverflow:         true,
			MinDraftIntervalMS:     150,
			MaxDraftIntervalMS:     1200,
		},
		Privacy: PrivacyConfig{
			EnableAudioLogging: false,
			AudioRetention:     24 * time.Hour,
			LocalOnly:          true,
		},
		Resilience: ResilienceConfig{
			BreakerFailureThreshold: 5,
			BreakerRecoveryTimeoutS: 30,
			BreakerHalfOpenMaxCalls: 2,
			RetryMaxAttempts:        3,
			RetryBaseDelayMS:        200,
			RetryMaxDelayMS:         5000,
			RetryExpBase:            2.0,
			HealthCheckIntervalS:    5,
		},
	}
}
