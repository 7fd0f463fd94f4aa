package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "VOICETRANSLATE_"

func hoursToDuration(h int) time.Duration {
	return time.Duration(h) * time.Hour
}

// ApplyEnv overlays VOICETRANSLATE_* environment variables onto cfg
// (spec.md §6). Unset variables leave the corresponding field untouched;
// malformed numeric/bool values are ignored rather than failing load, the
// same leniency the teacher's Parse gives malformed legacy keys.
func ApplyEnv(cfg Config) Config {
	if v, ok := envUint(envPrefix + "SAMPLE_RATE"); ok {
		cfg.Audio.SampleRate = v
	}
	if v, ok := envInt(envPrefix + "CHUNK_MS"); ok {
		cfg.Audio.ChunkMS = v
	}
	if v, ok := envFloat32(envPrefix + "VAD_THRESHOLD"); ok {
		cfg.Audio.VADThreshold = v
	}

	if v, ok := envFloat64(envPrefix + "MIN_SEGMENT_DURATION_S"); ok {
		cfg.Segment.MinSegmentDurationS = v
	}
	if v, ok := envFloat64(envPrefix + "MAX_SEGMENT_DURATION_S"); ok {
		cfg.Segment.MaxSegmentDurationS = v
	}
	if v, ok := envFloat64(envPrefix + "MERGE_GAP_THRESHOLD_S"); ok {
		cfg.Segment.MergeGapThresholdS = v
	}

	if v, ok := os.LookupEnv(envPrefix + "ASR_BACKEND"); ok {
		cfg.ASR.Backend = strings.TrimSpace(v)
	}
	if v, ok := envInt(envPrefix + "ASR_BEAM_SIZE"); ok {
		cfg.ASR.BeamSize = v
	}

	if v, ok := os.LookupEnv(envPrefix + "TRANSLATION_TIER"); ok {
		cfg.Translation.Tier = strings.TrimSpace(v)
	}

	if v, ok := envInt(envPrefix + "MAX_QUEUE_DEPTH"); ok {
		cfg.Adaptive.MaxQueueDepth = v
	}
	if v, ok := envBool(envPrefix + "DROP_ON_OVERFLOW"); ok {
		cfg.Adaptive.DropOnOverflow = v
	}

	if v, ok := envBool(envPrefix + "ENABLE_AUDIO_LOGGING"); ok {
		cfg.Privacy.EnableAudioLogging = v
	}
	if v, ok := envBool(envPrefix + "LOCAL_ONLY"); ok {
		cfg.Privacy.LocalOnly = v
	}

	return cfg
}

func envInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func envUint(key string) (uint32, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func envFloat32(key string) (float32, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func envFloat64(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}
