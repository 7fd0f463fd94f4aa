package asr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voicetranslate/streamcore/internal/segment"
)

// BackendProbe reports whether a concrete backend choice can initialize on
// this host. Used by AsrWorker to resolve BackendAuto (spec.md §4.F).
type BackendProbe struct {
	Name    Backend
	Factory func() AsrBackend
}

// Config controls AsrWorker behavior.
type Config struct {
	Requested     Backend
	BackendConfig BackendConfig
	DraftInterval time.Duration // configured draft interval; AsrWorker stores it but does not throttle Draft calls itself
}

// AsrWorker transcribes completed speech segments into draft and final
// transcripts, allocating a strictly increasing sequence number per
// transcript and guaranteeing exactly one final per segment ID (spec.md §3).
type AsrWorker struct {
	cfg     Config
	backend AsrBackend
	chosen  Backend

	mu       sync.Mutex
	seq      uint64
	finalled map[string]bool
}

// NewAsrWorker resolves cfg.Requested against probes (in order, for
// BackendAuto) and initializes the first one that succeeds. BackendFallback
// is always appended as a terminal guaranteed-success probe if not already
// present, so resolution never fails outright.
func NewAsrWorker(cfg Config, probes []BackendProbe) (*AsrWorker, error) {
	ordered := probes
	hasFallback := false
	for _, p := range probes {
		if p.Name == BackendFallback {
			hasFallback = true
		}
	}
	if !hasFallback {
		ordered = append(ordered, BackendProbe{Name: BackendFallback, Factory: func() AsrBackend { return NewFallbackBackend() }})
	}

	w := &AsrWorker{cfg: cfg, finalled: make(map[string]bool)}

	if cfg.Requested != BackendAuto {
		for _, p := range ordered {
			if p.Name != cfg.Requested {
				continue
			}
			backend := p.Factory()
			if err := backend.Initialize(cfg.BackendConfig); err != nil {
				return nil, fmt.Errorf("asr: initialize requested backend %q: %w", cfg.Requested, err)
			}
			w.backend, w.chosen = backend, p.Name
			return w, nil
		}
		return nil, fmt.Errorf("asr: requested backend %q not registered", cfg.Requested)
	}

	var lastErr error
	for _, p := range ordered {
		backend := p.Factory()
		if err := backend.Initialize(cfg.BackendConfig); err != nil {
			lastErr = err
			continue
		}
		w.backend, w.chosen = backend, p.Name
		return w, nil
	}
	return nil, fmt.Errorf("asr: no backend could initialize, last error: %w", lastErr)
}

// ChosenBackend reports which backend resolution settled on.
func (w *AsrWorker) ChosenBackend() Backend { return w.chosen }

// Draft produces a draft transcript for a segment still in progress. Draft
// sequence numbers are allocated from the same monotonic counter as finals,
// per segment ordering is the caller's responsibility (the emission gate).
func (w *AsrWorker) Draft(ctx context.Context, seg segment.SpeechSegment) (Transcript, error) {
	text, conf, lang, err := w.backend.Transcribe(ctx, seg, w.cfg.BackendConfig.DraftPrecision, true)
	if err != nil {
		return Transcript{}, fmt.Errorf("asr: draft transcribe: %w", err)
	}
	return Transcript{
		SegmentID:  seg.ID,
		Text:       text,
		Language:   lang,
		Confidence: conf,
		IsFinal:    false,
		Sequence:   w.nextSeq(),
	}, nil
}

// Final produces the final transcript for a completed segment. Calling Final
// twice for the same segment ID is a programmer error; the second call
// returns an error rather than silently emitting a duplicate.
func (w *AsrWorker) Final(ctx context.Context, seg segment.SpeechSegment) (Transcript, error) {
	key := seg.ID.String()

	w.mu.Lock()
	if w.finalled[key] {
		w.mu.Unlock()
		return Transcript{}, fmt.Errorf("asr: segment %s already finalized", key)
	}
	w.mu.Unlock()

	text, conf, lang, err := w.backend.Transcribe(ctx, seg, w.cfg.BackendConfig.FinalPrecision, false)
	if err != nil {
		return Transcript{}, fmt.Errorf("asr: final transcribe: %w", err)
	}

	w.mu.Lock()
	w.finalled[key] = true
	w.mu.Unlock()

	return Transcript{
		SegmentID:  seg.ID,
		Text:       text,
		Language:   lang,
		Confidence: conf,
		IsFinal:    true,
		Sequence:   w.nextSeq(),
	}, nil
}

func (w *AsrWorker) nextSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.seq
}

// Shutdown releases the underlying backend.
func (w *AsrWorker) Shutdown() error {
	return w.backend.Shutdown()
}
