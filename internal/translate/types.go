// Package translate implements the TranslationWorker (spec.md §4.G):
// translating final transcripts (and optionally stable drafts) into a
// target language against a pluggable TranslatorBackend, with SOV-language
// clause gating and a sequence-ordering emission gate.
package translate

import (
	"context"

	"github.com/google/uuid"

	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/frame"
)

// Translation is one draft or final translation result for a segment.
type Translation struct {
	SegmentID  uuid.UUID
	SourceText string
	Text       string
	SourceLang frame.LanguageCode
	TargetLang frame.LanguageCode
	IsFinal    bool
	Sequence   uint64
}

// sovLanguages is the set of subject-object-verb target languages that
// require a terminal clause marker before a final translation may be
// emitted (spec.md §4.G). The set is fixed here; the translation.sov_languages
// config field is not read by this package.
var sovLanguages = map[frame.LanguageCode]bool{
	"ja": true, "ko": true, "de": true, "tr": true, "hi": true, "fa": true,
}

// IsSOV reports whether lang requires clause-terminal gating.
func IsSOV(lang frame.LanguageCode) bool {
	return sovLanguages[lang]
}

// TranslatorBackend is the out-of-scope collaborator interface (spec.md
// §6): the concrete neural MT model sits behind this contract.
type TranslatorBackend interface {
	Initialize(targetLang frame.LanguageCode) error
	Translate(ctx context.Context, transcript asr.Transcript, targetLang frame.LanguageCode) (text string, err error)
	Shutdown() error
}
