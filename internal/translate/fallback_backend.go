package translate

import (
	"context"
	"fmt"

	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/frame"
)

// FallbackBackend is a deterministic, model-free TranslatorBackend mirroring
// asr.FallbackBackend: it never fails to initialize and produces a stable,
// reproducible placeholder translation so tests and demos do not require a
// real MT model.
type FallbackBackend struct {
	target frame.LanguageCode
}

// NewFallbackBackend constructs an uninitialized FallbackBackend.
func NewFallbackBackend() *FallbackBackend {
	return &FallbackBackend{}
}

func (b *FallbackBackend) Initialize(targetLang frame.LanguageCode) error {
	b.target = targetLang
	return nil
}

func (b *FallbackBackend) Translate(_ context.Context, transcript asr.Transcript, targetLang frame.LanguageCode) (string, error) {
	kind := "final"
	if !transcript.IsFinal {
		kind = "draft"
	}
	return fmt.Sprintf("[%s->%s %s] %s", transcript.Language, targetLang, kind, transcript.Text), nil
}

func (b *FallbackBackend) Shutdown() error { return nil }
