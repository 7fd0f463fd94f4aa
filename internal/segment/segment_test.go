package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/voicetranslate/streamcore/internal/frame"
)

const sampleRate = 16000

func cfgFixture() Config {
	return Config{
		PaddingBefore:     100 * time.Millisecond,
		PaddingAfter:      100 * time.Millisecond,
		MinSegmentDur:     200 * time.Millisecond,
		MaxSegmentDur:     30 * time.Second,
		MergeGapThreshold: 300 * time.Millisecond,
	}
}

func mkFrame(epoch time.Time, offset time.Duration, dur time.Duration) frame.Frame {
	n := int(dur.Seconds() * sampleRate)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 1000
	}
	return frame.Frame{Samples: samples, SampleRate: sampleRate, CaptureTS: epoch.Add(offset)}
}

func feedDecisions(s *Segmenter, epoch time.Time, chunk time.Duration, decisions []frame.VadDecision) []SpeechSegment {
	var out []SpeechSegment
	for i, d := range decisions {
		f := mkFrame(epoch, time.Duration(i)*chunk, chunk)
		prob := frame.SpeechProbability{Prob: 0.9, IsSpeech: d == frame.VadSpeech || d == frame.VadEnding}
		out = append(out, s.Process(f, d, prob)...)
	}
	return out
}

func TestSegmenterEmitsWellFormedSegment(t *testing.T) {
	epoch := time.Now()
	s := NewSegmenter(cfgFixture(), epoch)
	chunk := 20 * time.Millisecond

	decisions := []frame.VadDecision{
		frame.VadSilence, frame.VadSilence,
		frame.VadStarting, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech,
		frame.VadEnding, frame.VadEnding,
		frame.VadSilence,
	}
	emitted := feedDecisions(s, epoch, chunk, decisions)
	flushed := s.Flush(epoch.Add(time.Second))
	emitted = append(emitted, flushed...)

	require.Len(t, emitted, 1)
	seg := emitted[0]
	require.Greater(t, seg.EndTS, seg.StartTS)
	require.GreaterOrEqual(t, seg.Duration(), cfgFixture().MinSegmentDur.Seconds()-1e-9)
	wantSamples := int(seg.Duration() * sampleRate)
	require.InDelta(t, wantSamples, len(seg.PCM), float64(sampleRate)*0.05+2)
}

func TestSegmenterDropsShortSegment(t *testing.T) {
	epoch := time.Now()
	cfg := cfgFixture()
	cfg.MinSegmentDur = 500 * time.Millisecond
	s := NewSegmenter(cfg, epoch)
	chunk := 20 * time.Millisecond

	decisions := []frame.VadDecision{
		frame.VadStarting, frame.VadSpeech, frame.VadEnding, frame.VadSilence,
	}
	emitted := feedDecisions(s, epoch, chunk, decisions)
	emitted = append(emitted, s.Flush(epoch.Add(2*time.Second))...)
	require.Empty(t, emitted, "short segment below min duration must be dropped")
}

func TestSegmenterMaxDurationSplitsSegment(t *testing.T) {
	epoch := time.Now()
	cfg := cfgFixture()
	cfg.MaxSegmentDur = 200 * time.Millisecond
	cfg.MinSegmentDur = 10 * time.Millisecond
	cfg.MergeGapThreshold = 0
	s := NewSegmenter(cfg, epoch)
	chunk := 20 * time.Millisecond

	decisions := make([]frame.VadDecision, 0, 60)
	decisions = append(decisions, frame.VadStarting)
	for i := 0; i < 40; i++ {
		decisions = append(decisions, frame.VadSpeech)
	}
	decisions = append(decisions, frame.VadEnding, frame.VadEnding, frame.VadSilence)

	emitted := feedDecisions(s, epoch, chunk, decisions)
	emitted = append(emitted, s.Flush(epoch.Add(2*time.Second))...)

	require.GreaterOrEqual(t, len(emitted), 2, "a continuous speech run longer than MaxSegmentDur must split into multiple segments")
	for _, seg := range emitted {
		require.LessOrEqual(t, seg.Duration(), cfg.MaxSegmentDur.Seconds()+1e-6)
	}
}

func TestSegmenterMergesAdjacentSegments(t *testing.T) {
	epoch := time.Now()
	cfg := cfgFixture()
	cfg.MergeGapThreshold = 500 * time.Millisecond
	cfg.MinSegmentDur = 10 * time.Millisecond
	s := NewSegmenter(cfg, epoch)
	chunk := 20 * time.Millisecond

	decisions := []frame.VadDecision{
		frame.VadStarting, frame.VadSpeech, frame.VadSpeech, frame.VadEnding, frame.VadSilence,
		frame.VadSilence, // short gap, within merge threshold
		frame.VadStarting, frame.VadSpeech, frame.VadSpeech, frame.VadEnding, frame.VadSilence,
	}
	emitted := feedDecisions(s, epoch, chunk, decisions)
	emitted = append(emitted, s.Flush(epoch.Add(5*time.Second))...)

	require.Len(t, emitted, 1, "segments within merge_gap_threshold must merge into one")
}

// TestPropertySegmentWellFormedness is invariant 1 from spec.md §8.
func TestPropertySegmentWellFormedness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		epoch := time.Now()
		cfg := Config{
			PaddingBefore:     time.Duration(rapid.IntRange(0, 200).Draw(t, "padBefore")) * time.Millisecond,
			PaddingAfter:      time.Duration(rapid.IntRange(0, 200).Draw(t, "padAfter")) * time.Millisecond,
			MinSegmentDur:     time.Duration(rapid.IntRange(50, 300).Draw(t, "minDur")) * time.Millisecond,
			MaxSegmentDur:     time.Duration(rapid.IntRange(500, 3000).Draw(t, "maxDur")) * time.Millisecond,
			MergeGapThreshold: 0,
		}
		s := NewSegmenter(cfg, epoch)
		chunk := 20 * time.Millisecond

		n := rapid.IntRange(1, 120).Draw(t, "numFrames")
		decisions := make([]frame.VadDecision, n)
		speaking := false
		for i := range decisions {
			if rapid.Float64Range(0, 1).Draw(t, "flip") < 0.1 {
				speaking = !speaking
			}
			if speaking {
				decisions[i] = frame.VadSpeech
			} else {
				decisions[i] = frame.VadSilence
			}
		}

		emitted := feedDecisions(s, epoch, chunk, decisions)
		emitted = append(emitted, s.Flush(epoch.Add(time.Hour))...)

		for _, seg := range emitted {
			if seg.Duration() < cfg.MinSegmentDur.Seconds()-1e-6 {
				t.Fatalf("segment shorter than MinSegmentDur: %f", seg.Duration())
			}
			if seg.Duration() > cfg.MaxSegmentDur.Seconds()+1e-6 {
				t.Fatalf("segment longer than MaxSegmentDur: %f", seg.Duration())
			}
			wantSamples := int(seg.Duration() * sampleRate)
			if diff := abs(wantSamples - len(seg.PCM)); diff > sampleRate/10+2 {
				t.Fatalf("pcm length %d does not match duration*sample_rate %d", len(seg.PCM), wantSamples)
			}
		}
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestBuildingSnapshotReturnsFalseWhenNoSegmentInProgress(t *testing.T) {
	s := NewSegmenter(cfgFixture(), time.Now())
	_, ok := s.BuildingSnapshot()
	require.False(t, ok)
}

func TestBuildingSnapshotSharesIDWithEventualFinalSegment(t *testing.T) {
	epoch := time.Now()
	s := NewSegmenter(cfgFixture(), epoch)
	chunk := 20 * time.Millisecond

	decisions := []frame.VadDecision{
		frame.VadSilence, frame.VadSilence,
		frame.VadStarting, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech,
		frame.VadSpeech, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech,
		frame.VadSpeech, frame.VadSpeech, frame.VadSpeech, frame.VadSpeech,
	}
	var snapshotID = ""
	for i, d := range decisions {
		f := mkFrame(epoch, time.Duration(i)*chunk, chunk)
		prob := frame.SpeechProbability{Prob: 0.9, IsSpeech: d == frame.VadSpeech || d == frame.VadEnding}
		s.Process(f, d, prob)
		if snap, ok := s.BuildingSnapshot(); ok && snapshotID == "" {
			snapshotID = snap.ID.String()
		}
	}

	emitted := s.Flush(epoch.Add(time.Hour))
	require.NotEmpty(t, snapshotID)
	require.Len(t, emitted, 1)
	require.Equal(t, snapshotID, emitted[0].ID.String())
}
