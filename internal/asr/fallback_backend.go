package asr

import (
	"context"
	"fmt"

	"github.com/voicetranslate/streamcore/internal/frame"
	"github.com/voicetranslate/streamcore/internal/segment"
)

// FallbackBackend is a deterministic, model-free AsrBackend. It never fails
// to initialize, which is what makes it the terminal choice in the `auto`
// probe order (spec.md §4.F). It derives a placeholder transcript from the
// segment's ID and duration (confidence from its VAD confidence) so tests and demos get stable, reproducible output instead
// of requiring a real model.
type FallbackBackend struct {
	cfg BackendConfig
}

// NewFallbackBackend constructs an unitialized FallbackBackend.
func NewFallbackBackend() *FallbackBackend {
	return &FallbackBackend{}
}

func (b *FallbackBackend) Initialize(cfg BackendConfig) error {
	b.cfg = cfg
	return nil
}

func (b *FallbackBackend) Transcribe(_ context.Context, seg segment.SpeechSegment, precision ComputePrecision, isDraft bool) (string, float32, frame.LanguageCode, error) {
	lang := b.cfg.ForcedLanguage
	if lang == "" {
		lang = "en-US"
	}

	kind := "final"
	if isDraft {
		kind = "draft"
	}
	text := fmt.Sprintf("[%s segment %s, %.2fs]", kind, seg.ID.String()[:8], seg.Duration())

	confidence := float32(0.5)
	if seg.VADConfidence > 0 {
		confidence = seg.VADConfidence
	}
	if isDraft {
		confidence *= 0.8
	}

	return text, confidence, lang, nil
}

func (b *FallbackBackend) SupportedLanguages() []frame.LanguageCode {
	return []frame.LanguageCode{"en-US"}
}

func (b *FallbackBackend) Shutdown() error { return nil }
