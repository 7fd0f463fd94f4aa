package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func cfgFixture() Config {
	return Config{
		MinDraftIntervalMS:   150,
		MaxDraftIntervalMS:   1200,
		MaxQueueDepth:        10,
		StabilityThreshold:   0.4,
		MinDraftLength:       2,
		PauseSkipThresholdMS: 800,
		SustainedWindow:      100 * time.Millisecond,
	}
}

func TestDraftIntervalStartsAtMinimum(t *testing.T) {
	c := NewController(cfgFixture())
	require.Equal(t, 150, c.DraftIntervalMS())
}

func TestDraftIntervalIncreasesOnSaturationAndClampsAtMax(t *testing.T) {
	c := NewController(cfgFixture())
	for i := 0; i < 100; i++ {
		c.ObserveQueueDepth(50)
	}
	require.Equal(t, 1200, c.DraftIntervalMS())
}

func TestDraftIntervalDecreasesWhenBelowDepthAndClampsAtMin(t *testing.T) {
	c := NewController(cfgFixture())
	c.ObserveQueueDepth(50)
	c.ObserveQueueDepth(50)
	for i := 0; i < 100; i++ {
		c.ObserveQueueDepth(1)
	}
	require.Equal(t, 150, c.DraftIntervalMS())
}

func TestAdmitDraftRejectsLowConfidence(t *testing.T) {
	c := NewController(cfgFixture())
	require.False(t, c.AdmitDraft(DraftCandidate{Confidence: 0.1, TokenCount: 5}))
}

func TestAdmitDraftRejectsShortTokenCount(t *testing.T) {
	c := NewController(cfgFixture())
	require.False(t, c.AdmitDraft(DraftCandidate{Confidence: 0.9, TokenCount: 1}))
}

func TestAdmitDraftRejectsLongPause(t *testing.T) {
	c := NewController(cfgFixture())
	require.False(t, c.AdmitDraft(DraftCandidate{Confidence: 0.9, TokenCount: 5, PauseDuration: 2 * time.Second}))
}

func TestAdmitDraftAcceptsGoodCandidate(t *testing.T) {
	c := NewController(cfgFixture())
	require.True(t, c.AdmitDraft(DraftCandidate{Confidence: 0.9, TokenCount: 5, PauseDuration: 100 * time.Millisecond}))
}

func TestFinalizationPushActivatesAfterSustainedSaturation(t *testing.T) {
	c := NewController(cfgFixture())
	start := time.Unix(0, 0)

	c.ObserveSaturation(start, true)
	require.False(t, c.FinalizationPush(), "not yet sustained")

	c.ObserveSaturation(start.Add(150*time.Millisecond), true)
	require.True(t, c.FinalizationPush())
}

func TestFinalizationPushRestoresAfterSustainedIdle(t *testing.T) {
	c := NewController(cfgFixture())
	start := time.Unix(0, 0)
	c.ObserveSaturation(start, true)
	c.ObserveSaturation(start.Add(150*time.Millisecond), true)
	require.True(t, c.FinalizationPush())

	idleStart := start.Add(200 * time.Millisecond)
	c.ObserveSaturation(idleStart, false)
	require.True(t, c.FinalizationPush(), "not yet sustained idle")

	c.ObserveSaturation(idleStart.Add(150*time.Millisecond), false)
	require.False(t, c.FinalizationPush())
}

func TestAdjustedMaxSegmentDurationAppliesReductionFlooredAtTwiceMin(t *testing.T) {
	require.Equal(t, 18.0, AdjustedMaxSegmentDuration(18, 0.25, false))
	require.InDelta(t, 13.5, AdjustedMaxSegmentDuration(18, 0.25, true), 0.001)
	require.Equal(t, 1.2, AdjustedMaxSegmentDuration(1, 0.6, true), "floored at min*2")
}
