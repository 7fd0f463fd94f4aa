package translate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/frame"
)

func TestProcessFinalPassesThrough(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "es"}, NewFallbackBackend())
	require.NoError(t, err)

	segID := uuid.New()
	out, emit, err := w.Process(context.Background(), asr.Transcript{
		SegmentID: segID, Text: "hello", Language: "en-US", IsFinal: true, Sequence: 5,
	})
	require.NoError(t, err)
	require.True(t, emit)
	require.True(t, out.IsFinal)
	require.Equal(t, uint64(5), out.Sequence)
}

func TestProcessNonSOVDraftStaysDraft(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "es"}, NewFallbackBackend())
	require.NoError(t, err)

	out, emit, err := w.Process(context.Background(), asr.Transcript{
		SegmentID: uuid.New(), Text: "hello", Language: "en-US", IsFinal: false, Sequence: 1,
	})
	require.NoError(t, err)
	require.True(t, emit)
	require.False(t, out.IsFinal)
}

func TestProcessSOVDraftWithTerminalPunctuationEmitsEarlyFinal(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "ja"}, NewFallbackBackend())
	require.NoError(t, err)

	out, emit, err := w.Process(context.Background(), asr.Transcript{
		SegmentID: uuid.New(), Text: "hello.", Language: "en-US", IsFinal: false, Sequence: 1,
	})
	require.NoError(t, err)
	require.True(t, emit)
	require.True(t, out.IsFinal, "SOV target with terminal punctuation should emit early final")
}

func TestProcessSOVDraftWithoutTerminalPunctuationStaysDraft(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "de"}, NewFallbackBackend())
	require.NoError(t, err)

	out, emit, err := w.Process(context.Background(), asr.Transcript{
		SegmentID: uuid.New(), Text: "hello", Language: "en-US", IsFinal: false, Sequence: 1,
	})
	require.NoError(t, err)
	require.True(t, emit)
	require.False(t, out.IsFinal)
}

func TestIsSOVMatchesConfiguredSet(t *testing.T) {
	require.True(t, IsSOV("ja"))
	require.True(t, IsSOV("ko"))
	require.True(t, IsSOV("de"))
	require.True(t, IsSOV("tr"))
	require.True(t, IsSOV("hi"))
	require.True(t, IsSOV("fa"))
	require.False(t, IsSOV("es"))
	require.False(t, IsSOV("en-US"))
}

// chainBackend lets tests control the exact translated text returned, since
// FallbackBackend derives text from the source transcript deterministically
// but does not let a test construct a suffix-extension scenario directly.
type chainBackend struct{ next []string }

func (b *chainBackend) Initialize(frame.LanguageCode) error { return nil }
func (b *chainBackend) Translate(_ context.Context, _ asr.Transcript, _ frame.LanguageCode) (string, error) {
	text := b.next[0]
	b.next = b.next[1:]
	return text, nil
}
func (b *chainBackend) Shutdown() error { return nil }

func TestChainDraftSurfacesOnlySuffixExtension(t *testing.T) {
	backend := &chainBackend{next: []string{"hola", "hola amigo"}}
	w, err := NewWorker(Config{TargetLang: "es"}, backend)
	require.NoError(t, err)

	segID := uuid.New()
	ctx := context.Background()

	first, emit, err := w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "hi", IsFinal: false, Sequence: 1})
	require.NoError(t, err)
	require.True(t, emit)
	require.Equal(t, "hola", first.Text)

	second, emit, err := w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "hi friend", IsFinal: false, Sequence: 2})
	require.NoError(t, err)
	require.True(t, emit)
	require.Equal(t, " amigo", second.Text, "only the appended suffix should surface")
}

func TestChainDraftDivergenceReemitsFullText(t *testing.T) {
	backend := &chainBackend{next: []string{"hola", "adios"}}
	w, err := NewWorker(Config{TargetLang: "es"}, backend)
	require.NoError(t, err)

	segID := uuid.New()
	ctx := context.Background()

	_, _, err = w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "hi", IsFinal: false, Sequence: 1})
	require.NoError(t, err)

	second, emit, err := w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "bye", IsFinal: false, Sequence: 2})
	require.NoError(t, err)
	require.True(t, emit)
	require.Equal(t, "adios", second.Text)
}

func TestFinalClearsChainState(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "es"}, NewFallbackBackend())
	require.NoError(t, err)

	segID := uuid.New()
	ctx := context.Background()

	_, _, err = w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "hi", IsFinal: false, Sequence: 1})
	require.NoError(t, err)
	_, _, err = w.Process(ctx, asr.Transcript{SegmentID: segID, Text: "hi there", IsFinal: true, Sequence: 2})
	require.NoError(t, err)

	require.Len(t, w.History(), 1)
}

func TestHistoryBoundedToConfiguredSize(t *testing.T) {
	w, err := NewWorker(Config{TargetLang: "es", HistorySize: 2}, NewFallbackBackend())
	require.NoError(t, err)

	ctx := context.Background()
	for i := uint64(1); i <= 5; i++ {
		_, _, err := w.Process(ctx, asr.Transcript{SegmentID: uuid.New(), Text: "x", IsFinal: true, Sequence: i})
		require.NoError(t, err)
	}
	require.Len(t, w.History(), 2)
}
