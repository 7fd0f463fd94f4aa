// Package app assembles the full capture -> gain -> VAD -> segment -> ASR ->
// translate -> emission pipeline into a single runnable unit, the way the
// teacher's apps/sotto/internal/app package wires its own capture-to-output
// chain from the same collaborator set.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voicetranslate/streamcore/internal/adaptive"
	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/audio"
	"github.com/voicetranslate/streamcore/internal/config"
	"github.com/voicetranslate/streamcore/internal/frame"
	"github.com/voicetranslate/streamcore/internal/gain"
	"github.com/voicetranslate/streamcore/internal/metrics"
	"github.com/voicetranslate/streamcore/internal/pipeline"
	"github.com/voicetranslate/streamcore/internal/profile"
	"github.com/voicetranslate/streamcore/internal/resilience"
	"github.com/voicetranslate/streamcore/internal/segment"
	"github.com/voicetranslate/streamcore/internal/translate"
	"github.com/voicetranslate/streamcore/internal/vad"
)

// Result is one emission-ready translation delivered to the host via
// OnResult, released from the sequence-ordering gate in order.
type Result struct {
	Translation translate.Translation
}

// Deps bundles every collaborator App orchestrates. Each is a stable
// interface (spec.md §6's "multiple inheritance / abstract bases" guidance)
// so a host can substitute test doubles or platform-specific
// implementations without touching App itself.
type Deps struct {
	Capture      audio.CaptureDevice
	ASRBackend   asr.AsrBackend
	ASRProbes    []asr.BackendProbe
	Translator   translate.TranslatorBackend
	ProfileStore profile.Store
	Logger       *slog.Logger
	HardwareGain gain.HardwareController // optional
}

// App wires one end-to-end capture-to-translation pipeline for a single
// device. It is not safe for concurrent Start calls; Stop then Start again
// to restart with a different device.
type App struct {
	cfg    config.Config
	deps   Deps
	logger *slog.Logger

	gainProc   *gain.Processor
	vadEngine  *vad.Engine
	segmenter  *segment.Segmenter
	asrWorker  *asr.AsrWorker
	translator *translate.Worker
	adaptiveC  *adaptive.Controller
	breaker    *resilience.CircuitBreaker
	health     *resilience.HealthMonitor

	asrStage       *pipeline.Stage[segment.SpeechSegment, asr.Transcript]
	translateStage *pipeline.Stage[asr.Transcript, translate.Translation]
	gate           *translate.Gate[translate.Translation]

	baseMaxSegmentDur  time.Duration
	minSegmentDur      time.Duration
	finalizationPushed bool

	mu          sync.Mutex
	onResult    func(Result)
	deviceID    string
	started     bool
	lastDraftAt time.Time
}

// New constructs an App from cfg and deps. It does not start capture; call
// Start for that.
func New(cfg config.Config, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var gainOpts []gain.Option
	if deps.HardwareGain != nil {
		gainOpts = append(gainOpts, gain.WithHardwareController(deps.HardwareGain))
	}
	gainProc := gain.NewProcessor(gainOpts...)

	vadEngine := vad.NewEngine(vad.Config{
		Threshold:        cfg.Audio.VADThreshold,
		MinSpeechFrames:  msToFrames(cfg.Segment.MinSpeechDurationMS, cfg.Audio.ChunkMS),
		MinSilenceFrames: msToFrames(cfg.Segment.MinSilenceDurationMS, cfg.Audio.ChunkMS),
	}, vad.NewEnergyModel())

	segmenter := segment.NewSegmenter(segment.Config{
		PaddingBefore:     durS(cfg.Segment.PaddingBeforeS),
		PaddingAfter:      durS(cfg.Segment.PaddingAfterS),
		MinSegmentDur:     durS(cfg.Segment.MinSegmentDurationS),
		MaxSegmentDur:     durS(cfg.Segment.MaxSegmentDurationS),
		MergeGapThreshold: durS(cfg.Segment.MergeGapThresholdS),
	}, time.Now())

	probes := deps.ASRProbes
	if deps.ASRBackend != nil {
		probes = append([]asr.BackendProbe{{
			Name:    asr.Backend(cfg.ASR.Backend),
			Factory: func() asr.AsrBackend { return deps.ASRBackend },
		}}, probes...)
	}
	asrWorker, err := asr.NewAsrWorker(asr.Config{
		Requested: asr.Backend(cfg.ASR.Backend),
		BackendConfig: asr.BackendConfig{
			FinalPrecision: asr.ComputePrecision(cfg.ASR.ComputeType),
			DraftPrecision: asr.ComputePrecision(cfg.ASR.DraftComputeType),
			BeamSize:       cfg.ASR.BeamSize,
			DraftBeamSize:  cfg.ASR.DraftBeamSize,
		},
		DraftInterval: time.Duration(cfg.ASR.DraftIntervalMS) * time.Millisecond,
	}, probes)
	if err != nil {
		return nil, fmt.Errorf("app: construct asr worker: %w", err)
	}

	translator, err := translate.NewWorker(translate.Config{
		TargetLang:  frame.LanguageCode(cfg.Translation.TargetLanguage),
		HistorySize: cfg.Translation.MaxHistorySegments,
	}, deps.Translator)
	if err != nil {
		return nil, fmt.Errorf("app: construct translation worker: %w", err)
	}

	adaptiveC := adaptive.NewController(adaptive.Config{
		MinDraftIntervalMS:   cfg.Adaptive.MinDraftIntervalMS,
		MaxDraftIntervalMS:   cfg.Adaptive.MaxDraftIntervalMS,
		MaxQueueDepth:        cfg.Adaptive.MaxQueueDepth,
		StabilityThreshold:   cfg.Translation.StabilityThreshold,
		MinDraftLength:       cfg.Translation.MinDraftLength,
		PauseSkipThresholdMS: cfg.Adaptive.PauseSkipThresholdMS,
	})

	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "asr_backend",
		FailureThreshold: cfg.Resilience.BreakerFailureThreshold,
		RecoveryTimeout:  durS(cfg.Resilience.BreakerRecoveryTimeoutS),
		HalfOpenMaxCalls: cfg.Resilience.BreakerHalfOpenMaxCalls,
	})

	health := resilience.NewHealthMonitor()

	a := &App{
		cfg:               cfg,
		deps:              deps,
		logger:            logger,
		gainProc:          gainProc,
		vadEngine:         vadEngine,
		segmenter:         segmenter,
		asrWorker:         asrWorker,
		translator:        translator,
		adaptiveC:         adaptiveC,
		breaker:           breaker,
		health:            health,
		baseMaxSegmentDur: durS(cfg.Segment.MaxSegmentDurationS),
		minSegmentDur:     durS(cfg.Segment.MinSegmentDurationS),
		gate: translate.NewGate[translate.Translation](1,
			2*time.Duration(cfg.Adaptive.TargetTTFTMS)*time.Millisecond,
			func(t translate.Translation) uint64 { return t.Sequence },
			func(seq uint64) { metrics.TranslationSequenceGaps.Inc() }),
	}

	health.Register("asr_backend", func() resilience.HealthStatus {
		switch a.breaker.State(time.Now()) {
		case resilience.Open:
			return resilience.Unhealthy
		case resilience.HalfOpen:
			return resilience.Degraded
		default:
			return resilience.Healthy
		}
	})

	a.asrStage = pipeline.NewStage(pipeline.Config{
		Name:           "asr_final",
		QueueCapacity:  cfg.Adaptive.MaxQueueDepth,
		DropOnOverflow: cfg.Adaptive.DropOnOverflow,
	}, func(ctx context.Context, seg segment.SpeechSegment) (asr.Transcript, error) {
		var out asr.Transcript
		err := a.breaker.Call(ctx, time.Now(), func(ctx context.Context) error {
			t, callErr := a.asrWorker.Final(ctx, seg)
			if callErr != nil {
				return callErr
			}
			out = t
			return nil
		}, nil)
		return out, err
	}, a.feedTranslation, logger)

	a.translateStage = pipeline.NewStage(pipeline.Config{
		Name:           "translate",
		QueueCapacity:  cfg.Adaptive.MaxQueueDepth,
		DropOnOverflow: cfg.Adaptive.DropOnOverflow,
	}, func(ctx context.Context, t asr.Transcript) (translate.Translation, error) {
		out, ok, err := a.translator.Process(ctx, t)
		if err != nil {
			return translate.Translation{}, err
		}
		if !ok {
			// Chaining dedup suppressed this draft (spec.md §4.G): not an
			// error, just nothing to surface. Sequence 0 never occurs for a
			// real translation (asr sequences start at 1), so emitTranslation
			// uses it as the "nothing to emit" sentinel.
			return translate.Translation{}, nil
		}
		return out, nil
	}, a.emitTranslation, logger)

	return a, nil
}

func msToFrames(ms, chunkMS int) int {
	if chunkMS <= 0 {
		return 1
	}
	frames := ms / chunkMS
	if frames < 1 {
		return 1
	}
	return frames
}

func durS(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// OnResult registers the callback invoked for every emitted translation.
// Per spec.md §6 this dispatch must not block the pipeline: the callback
// runs on its own goroutine per result.
func (a *App) OnResult(fn func(Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

func (a *App) feedTranslation(t asr.Transcript) {
	if t.IsFinal {
		metrics.ASRFinalsEmitted.Inc()
	} else {
		metrics.ASRDraftsEmitted.Inc()
	}
	a.translateStage.Feed(t)
}

func (a *App) emitTranslation(translation translate.Translation) {
	if translation.Sequence == 0 {
		return
	}
	released := a.gate.Push(translation, time.Now())
	for _, r := range released {
		a.dispatch(Result{Translation: r})
	}
}

func (a *App) dispatch(r Result) {
	a.mu.Lock()
	cb := a.onResult
	a.mu.Unlock()
	if cb == nil {
		return
	}
	go cb(r)
}

// Start begins capturing from deviceID and running frames through the full
// pipeline until ctx is canceled or Stop is called.
func (a *App) Start(ctx context.Context, deviceID string, isLoopback bool) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("app: already started")
	}
	a.started = true
	a.deviceID = deviceID
	a.mu.Unlock()

	a.asrStage.Start(ctx)
	a.translateStage.Start(ctx)

	if active, ok := a.activeProfile(deviceID); ok {
		noiseFloor := active.NoiseFloorDB
		if _, _, err := a.gainProc.SetGain(deviceID, active.GainDB, &noiseFloor); err != nil {
			a.logger.Warn("restore gain profile failed", "device", deviceID, "error", err)
		}
	}

	return a.deps.Capture.StartCapture(ctx, deviceID, isLoopback, a.processFrame)
}

func (a *App) activeProfile(deviceID string) (profile.GainProfile, bool) {
	if a.deps.ProfileStore == nil {
		return profile.GainProfile{}, false
	}
	all, err := a.deps.ProfileStore.LoadAll()
	if err != nil {
		return profile.GainProfile{}, false
	}
	for _, p := range all {
		if p.DeviceID == deviceID {
			return p, true
		}
	}
	return profile.GainProfile{}, false
}

// processFrame runs one captured frame through gain, VAD, and segmentation,
// feeding any finalized segments into the ASR stage. Runs on the capture
// callback thread and must stay fast (spec.md §4.A).
func (a *App) processFrame(f frame.Frame) {
	gained, err := a.gainProc.Process(a.deviceID, f)
	if err != nil {
		a.logger.Warn("gain latency budget exceeded", "device", a.deviceID)
	}

	prob, err := a.vadEngine.Process(gained)
	if err != nil {
		a.logger.Error("vad process failed", "error", err)
		return
	}
	decision := a.vadEngine.State()

	segments := a.segmenter.Process(gained, decision, prob)
	a.adaptiveC.ObserveQueueDepth(a.asrStage.Depth())
	a.adaptiveC.ObserveSaturation(f.CaptureTS, a.asrStage.Depth() > a.cfg.Adaptive.MaxQueueDepth)
	a.applyFinalizationPush()

	for _, seg := range segments {
		metrics.VADSpeechSegments.Inc()
		if seg.Duration() < durS(a.cfg.Segment.MinSegmentDurationS) {
			metrics.VADDroppedShortSegments.Inc()
			continue
		}
		a.asrStage.Feed(seg)
	}

	a.maybeEmitDraft(f.CaptureTS)
}

// applyFinalizationPush consults the adaptive controller's sustained-load
// signal and pushes an adjusted MaxSegmentDur to the Segmenter when the
// pushed/unpushed state changes, so sustained downstream saturation yields
// shorter segments and faster finalization (spec.md §4.H).
func (a *App) applyFinalizationPush() {
	pushed := a.adaptiveC.FinalizationPush()
	if pushed == a.finalizationPushed {
		return
	}
	a.finalizationPushed = pushed
	adjusted := adaptive.AdjustedMaxSegmentDuration(
		a.baseMaxSegmentDur.Seconds(), a.minSegmentDur.Seconds(), pushed)
	a.segmenter.SetMaxSegmentDur(durS(adjusted))
}

// maybeEmitDraft runs a draft transcription of the in-progress segment at
// most once per adaptive draft interval (spec.md §4.F, §4.H). Transcription
// itself runs off the capture thread; only the interval/snapshot check
// happens inline.
func (a *App) maybeEmitDraft(now time.Time) {
	snap, ok := a.segmenter.BuildingSnapshot()
	if !ok || len(snap.PCM) == 0 {
		return
	}

	interval := time.Duration(a.adaptiveC.DraftIntervalMS()) * time.Millisecond
	if now.Sub(a.lastDraftAt) < interval {
		return
	}
	a.lastDraftAt = now

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		transcript, err := a.asrWorker.Draft(ctx, snap)
		if err != nil {
			a.logger.Warn("draft transcribe failed", "error", err)
			return
		}
		if !a.adaptiveC.AdmitDraft(adaptive.DraftCandidate{
			Confidence: transcript.Confidence,
			TokenCount: len(strings.Fields(transcript.Text)),
		}) {
			return
		}
		a.feedTranslation(transcript)
	}()
}

// Stop halts capture and drains both pipeline stages within their
// configured grace periods.
func (a *App) Stop() error {
	a.mu.Lock()
	started := a.started
	a.started = false
	a.mu.Unlock()

	if !started {
		return nil
	}

	err := a.deps.Capture.StopCapture()

	for _, seg := range a.segmenter.Flush(time.Now()) {
		a.asrStage.Feed(seg)
	}

	a.asrStage.Stop()
	a.translateStage.Stop()
	if closeErr := a.asrWorker.Shutdown(); closeErr != nil && err == nil {
		err = closeErr
	}
	if closeErr := a.translator.Shutdown(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Health reports the current overall pipeline health.
func (a *App) Health() resilience.HealthStatus {
	return a.health.Poll()
}
