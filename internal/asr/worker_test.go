package asr

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voicetranslate/streamcore/internal/segment"
)

func segFixture() segment.SpeechSegment {
	return segment.SpeechSegment{
		ID:            uuid.New(),
		StartTS:       0,
		EndTS:         1.2,
		PCM:           make([]int16, 16000),
		SampleRate:    16000,
		VADConfidence: 0.9,
	}
}

func TestNewAsrWorkerAutoFallsBackWhenNothingElseRegistered(t *testing.T) {
	w, err := NewAsrWorker(Config{Requested: BackendAuto}, nil)
	require.NoError(t, err)
	require.Equal(t, BackendFallback, w.ChosenBackend())
}

func TestNewAsrWorkerAutoPrefersEarlierProbe(t *testing.T) {
	probes := []BackendProbe{
		{Name: BackendOpenVINO, Factory: func() AsrBackend { return NewFallbackBackend() }},
	}
	w, err := NewAsrWorker(Config{Requested: BackendAuto}, probes)
	require.NoError(t, err)
	require.Equal(t, BackendOpenVINO, w.ChosenBackend())
}

func TestNewAsrWorkerRequestedUnregisteredFails(t *testing.T) {
	_, err := NewAsrWorker(Config{Requested: BackendCoreML}, nil)
	require.Error(t, err)
}

func TestFinalSequenceStrictlyIncreasesAndRejectsDuplicate(t *testing.T) {
	w, err := NewAsrWorker(Config{Requested: BackendFallback}, []BackendProbe{
		{Name: BackendFallback, Factory: func() AsrBackend { return NewFallbackBackend() }},
	})
	require.NoError(t, err)

	seg := segFixture()
	ctx := context.Background()

	d1, err := w.Draft(ctx, seg)
	require.NoError(t, err)
	require.False(t, d1.IsFinal)

	f1, err := w.Final(ctx, seg)
	require.NoError(t, err)
	require.True(t, f1.IsFinal)
	require.Greater(t, f1.Sequence, d1.Sequence)

	_, err = w.Final(ctx, seg)
	require.Error(t, err, "a second Final for the same segment must be rejected")
}

func TestDraftConfidenceDiscountedRelativeToFinal(t *testing.T) {
	w, err := NewAsrWorker(Config{Requested: BackendFallback}, []BackendProbe{
		{Name: BackendFallback, Factory: func() AsrBackend { return NewFallbackBackend() }},
	})
	require.NoError(t, err)

	seg := segFixture()
	ctx := context.Background()

	draft, err := w.Draft(ctx, seg)
	require.NoError(t, err)
	final, err := w.Final(ctx, seg)
	require.NoError(t, err)

	require.Less(t, draft.Confidence, final.Confidence)
}

func TestAsrWorkerShutdownPropagatesToBackend(t *testing.T) {
	w, err := NewAsrWorker(Config{Requested: BackendFallback}, []BackendProbe{
		{Name: BackendFallback, Factory: func() AsrBackend { return NewFallbackBackend() }},
	})
	require.NoError(t, err)
	require.NoError(t, w.Shutdown())
}

func TestFallbackBackendUsesForcedLanguage(t *testing.T) {
	b := NewFallbackBackend()
	require.NoError(t, b.Initialize(BackendConfig{ForcedLanguage: "ja-JP"}))

	_, _, lang, err := b.Transcribe(context.Background(), segFixture(), PrecisionInt8, false)
	require.NoError(t, err)
	require.Equal(t, "ja-JP", string(lang))
}

func TestFallbackBackendTranscribeDoesNotBlockUnderShortDeadline(t *testing.T) {
	b := NewFallbackBackend()
	require.NoError(t, b.Initialize(BackendConfig{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, _, err := b.Transcribe(ctx, segFixture(), PrecisionInt8, true)
	require.NoError(t, err)
}
