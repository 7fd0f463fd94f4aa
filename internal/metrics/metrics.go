// Package metrics exposes Prometheus collectors for the streaming pipeline,
// grounded in the same promauto registration style used across the
// retrieval pack's gateway service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicecore_pipeline_stage_duration_seconds",
		Help:    "Per-stage process() latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1.0},
	}, []string{"stage"})

	PipelineDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_pipeline_dropped_total",
		Help: "Items dropped by stage feed discipline",
	}, []string{"stage", "reason"})

	PipelineErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_pipeline_errors_total",
		Help: "process() errors by stage",
	}, []string{"stage", "error_type"})

	VADSpeechSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecore_vad_speech_segments_total",
		Help: "Speech segments finalized by the segmenter",
	})

	VADDroppedShortSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecore_vad_short_segments_dropped_total",
		Help: "Segments dropped for falling below min_segment_duration",
	})

	ASRDraftsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecore_asr_drafts_emitted_total",
		Help: "Draft transcripts emitted",
	})

	ASRFinalsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecore_asr_finals_emitted_total",
		Help: "Final transcripts emitted",
	})

	TranslationSequenceGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecore_translation_sequence_gap_total",
		Help: "Emission gate force-released a gap after timeout",
	})

	GainAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecore_gain_adjustments_total",
		Help: "Gain control adjustments by mode",
	}, []string{"mode"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voicecore_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed,1=half_open,2=open)",
	}, []string{"breaker"})

	DegradationLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicecore_degradation_level",
		Help: "Current graceful degradation strategy index, 0 = nominal",
	})

	TTFTSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicecore_ttft_seconds",
		Help:    "Time to first transcript/translation token from segment finalize",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 1.5, 2.0},
	})
)
