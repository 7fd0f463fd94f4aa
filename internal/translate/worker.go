package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/frame"
)

// terminalMarkers are clause-terminal punctuation that, per spec.md §4.G,
// lets an SOV target language emit an early final even before the ASR
// transcript itself is marked final.
var terminalMarkers = []string{".", "!", "?", "。", "！", "？"}

func hasTerminalMarker(s string) bool {
	s = strings.TrimSpace(s)
	for _, m := range terminalMarkers {
		if strings.HasSuffix(s, m) {
			return true
		}
	}
	return false
}

// Config controls TranslationWorker behavior.
type Config struct {
	TargetLang  frame.LanguageCode
	HistorySize int // bounded history of last-K finals per stream, 0 uses a sane default
}

type chainState struct {
	lastDraftText string
}

// Worker translates transcripts into Translations, applying SOV clause
// gating and draft suffix-chaining (spec.md §4.G). Sequence numbers are
// carried through unchanged from the source Transcript so the downstream
// emission gate can restore per-stream ordering.
type Worker struct {
	cfg     Config
	backend TranslatorBackend

	mu      sync.Mutex
	chains  map[uuid.UUID]*chainState
	history []Translation // bounded to cfg.HistorySize, most recent last
}

// NewWorker constructs a Worker and initializes backend for cfg.TargetLang.
func NewWorker(cfg Config, backend TranslatorBackend) (*Worker, error) {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 32
	}
	if err := backend.Initialize(cfg.TargetLang); err != nil {
		return nil, fmt.Errorf("translate: initialize backend: %w", err)
	}
	return &Worker{
		cfg:     cfg,
		backend: backend,
		chains:  make(map[uuid.UUID]*chainState),
	}, nil
}

// Process translates one transcript. The returned bool reports whether the
// result should be surfaced to the emission layer at all; a draft that is
// suppressed by chaining logic down to an empty diff is not worth emitting.
func (w *Worker) Process(ctx context.Context, transcript asr.Transcript) (Translation, bool, error) {
	text, err := w.backend.Translate(ctx, transcript, w.cfg.TargetLang)
	if err != nil {
		return Translation{}, false, fmt.Errorf("translate: backend translate: %w", err)
	}

	isFinal := transcript.IsFinal
	if IsSOV(w.cfg.TargetLang) && !isFinal {
		isFinal = hasTerminalMarker(transcript.Text)
	}

	out := Translation{
		SegmentID:  transcript.SegmentID,
		SourceText: transcript.Text,
		Text:       text,
		SourceLang: transcript.Language,
		TargetLang: w.cfg.TargetLang,
		IsFinal:    isFinal,
		Sequence:   transcript.Sequence,
	}

	if isFinal {
		w.recordFinal(out)
		w.mu.Lock()
		delete(w.chains, transcript.SegmentID)
		w.mu.Unlock()
		return out, true, nil
	}

	return w.chainDraft(transcript.SegmentID, out)
}

// chainDraft applies the suffix-extension dedup rule: if the new draft text
// extends the previous draft for this segment, only the appended suffix is
// surfaced; otherwise the full draft re-emits and the chain resets.
func (w *Worker) chainDraft(segID uuid.UUID, out Translation) (Translation, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, ok := w.chains[segID]
	if !ok {
		state = &chainState{}
		w.chains[segID] = state
	}

	prev := state.lastDraftText
	state.lastDraftText = out.Text

	if prev == "" {
		return out, true, nil
	}
	if strings.HasPrefix(out.Text, prev) {
		diff := out.Text[len(prev):]
		if diff == "" {
			return Translation{}, false, nil
		}
		out.Text = diff
		return out, true, nil
	}

	return out, true, nil
}

func (w *Worker) recordFinal(t Translation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, t)
	if len(w.history) > w.cfg.HistorySize {
		w.history = w.history[len(w.history)-w.cfg.HistorySize:]
	}
}

// History returns a copy of the bounded recent-finals history.
func (w *Worker) History() []Translation {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Translation, len(w.history))
	copy(out, w.history)
	return out
}

// Shutdown releases the underlying backend.
func (w *Worker) Shutdown() error {
	return w.backend.Shutdown()
}
