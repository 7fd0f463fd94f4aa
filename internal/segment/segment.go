// Package segment builds well-formed SpeechSegments from a VAD-tagged frame
// stream: pre/post padding, min/max duration enforcement, and adjacent
// segment merging.
package segment

import (
	"time"

	"github.com/google/uuid"

	"github.com/voicetranslate/streamcore/internal/frame"
)

// SpeechSegment is a finalized span of speech audio ready for transcription.
type SpeechSegment struct {
	ID            uuid.UUID
	StartTS       float64 // seconds, stream-relative
	EndTS         float64
	PCM           []int16
	SampleRate    uint32
	VADConfidence float32
}

// Duration reports the segment's span in seconds.
func (s SpeechSegment) Duration() float64 {
	return s.EndTS - s.StartTS
}

// Config controls padding, duration bounds, and merge behavior (spec.md §6).
type Config struct {
	PaddingBefore     time.Duration
	PaddingAfter      time.Duration
	MinSegmentDur     time.Duration
	MaxSegmentDur     time.Duration
	MergeGapThreshold time.Duration
}

// Segmenter is a single-stream, stateful segment builder. Not safe for
// concurrent use; one Segmenter per capture stream.
type Segmenter struct {
	cfg Config

	epoch      time.Time
	ringFrames []frame.Frame

	building     *building
	pending      *SpeechSegment
	pendingFlush time.Time
}

type building struct {
	id            uuid.UUID
	startTS       time.Time
	lastSpeechTS  time.Time
	samples       []int16
	sampleRate    uint32
	confidenceSum float32
	confidenceN   int
}

// NewSegmenter constructs a Segmenter bound to an epoch (the timestamp
// StartTS=0 corresponds to); pass the capture start time.
func NewSegmenter(cfg Config, epoch time.Time) *Segmenter {
	return &Segmenter{
		cfg:   cfg,
		epoch: epoch,
	}
}

func (s *Segmenter) seconds(t time.Time) float64 {
	return t.Sub(s.epoch).Seconds()
}

// SetMaxSegmentDur overrides MaxSegmentDur, taking effect on the next
// Process call (including a currently-building segment), letting the
// adaptive controller push the Segmenter toward shorter segments under
// sustained downstream saturation (spec.md §4.H).
func (s *Segmenter) SetMaxSegmentDur(d time.Duration) {
	s.cfg.MaxSegmentDur = d
}

// Process consumes one (Frame, VadDecision) tuple and returns zero or more
// finalized segments (normally 0 or 1; 2 only when a pending merge-candidate
// flush and a max-duration finalize land on the same call).
func (s *Segmenter) Process(f frame.Frame, decision frame.VadDecision, prob frame.SpeechProbability) []SpeechSegment {
	var emitted []SpeechSegment

	// Flush a held-back merge candidate once the gap since its end exceeds
	// the merge threshold and no new segment has started to absorb it.
	if s.pending != nil && s.building == nil {
		if f.CaptureTS.Sub(s.pendingFlush) >= 0 {
			emitted = append(emitted, *s.pending)
			s.pending = nil
		}
	}

	s.pushRing(f)

	switch decision {
	case frame.VadStarting:
		// not yet committed to a segment; ring buffer keeps pre-roll warm
	case frame.VadSpeech, frame.VadEnding:
		if s.building == nil {
			s.startBuilding(f)
		} else {
			s.appendBuilding(f)
		}
		if decision == frame.VadSpeech {
			s.building.lastSpeechTS = f.CaptureTS
		}
		s.building.confidenceSum += prob.Prob
		s.building.confidenceN++

		if s.building != nil && f.CaptureTS.Sub(s.building.startTS) >= s.cfg.MaxSegmentDur {
			if seg, ok := s.finalize(s.building.startTS.Add(s.cfg.MaxSegmentDur)); ok {
				emitted = s.emitOrMerge(emitted, seg)
			}
			s.building = nil
			// Immediately start a new segment headed by the current frame, no
			// padding carryover, per spec.md §4.D.
			s.ringFrames = nil
			s.startBuilding(f)
			s.building.lastSpeechTS = f.CaptureTS
		}
	case frame.VadSilence:
		if s.building != nil {
			endTS := s.building.lastSpeechTS.Add(s.cfg.PaddingAfter)
			if seg, ok := s.finalize(endTS); ok {
				emitted = s.emitOrMerge(emitted, seg)
			}
			s.building = nil
		}
	}

	return emitted
}

// emitOrMerge applies the adjacent-segment merge rule: a newly finalized
// segment within MergeGapThreshold of the currently held pending segment is
// merged (PCM concatenated, with any time overlap trimmed from the held
// segment's tail; confidence averaged), unless the merged span would exceed
// MaxSegmentDur; otherwise the pending segment is released and the new one
// becomes the pending candidate.
func (s *Segmenter) emitOrMerge(emitted []SpeechSegment, seg SpeechSegment) []SpeechSegment {
	if s.pending != nil {
		gap := seg.StartTS - s.pending.EndTS
		if gap <= s.cfg.MergeGapThreshold.Seconds() && seg.EndTS-s.pending.StartTS <= s.cfg.MaxSegmentDur.Seconds() {
			merged := *s.pending
			head := merged.PCM
			if gap < 0 {
				overlap := int(-gap * float64(seg.SampleRate))
				if overlap > len(head) {
					overlap = len(head)
				}
				head = head[:len(head)-overlap]
			}
			merged.PCM = append(append([]int16(nil), head...), seg.PCM...)
			merged.EndTS = seg.EndTS
			merged.VADConfidence = (s.pending.VADConfidence + seg.VADConfidence) / 2
			s.pending = &merged
			s.pendingFlush = s.epoch.Add(time.Duration(merged.EndTS*float64(time.Second)) + s.cfg.MergeGapThreshold)
			return emitted
		}
		emitted = append(emitted, *s.pending)
	}
	s.pending = &seg
	s.pendingFlush = s.epoch.Add(time.Duration(seg.EndTS*float64(time.Second)) + s.cfg.MergeGapThreshold)
	return emitted
}

// Flush releases any held-back pending segment unconditionally (used on
// stream shutdown / force-finalize).
func (s *Segmenter) Flush(now time.Time) []SpeechSegment {
	var out []SpeechSegment
	if s.building != nil {
		endTS := s.building.lastSpeechTS.Add(s.cfg.PaddingAfter)
		if seg, ok := s.finalize(endTS); ok {
			out = s.emitOrMerge(out, seg)
		}
		s.building = nil
	}
	if s.pending != nil {
		out = append(out, *s.pending)
		s.pending = nil
	}
	return out
}

// BuildingSnapshot returns the in-progress segment's audio so far without
// finalizing it, for draft ASR while speech is still ongoing. The second
// return value is false if no segment is currently building.
func (s *Segmenter) BuildingSnapshot() (SpeechSegment, bool) {
	if s.building == nil {
		return SpeechSegment{}, false
	}
	conf := float32(0)
	if s.building.confidenceN > 0 {
		conf = s.building.confidenceSum / float32(s.building.confidenceN)
	}
	samples := make([]int16, len(s.building.samples))
	copy(samples, s.building.samples)
	return SpeechSegment{
		ID:            s.building.id,
		StartTS:       s.seconds(s.building.startTS),
		EndTS:         s.seconds(s.building.lastSpeechTS),
		PCM:           samples,
		SampleRate:    s.building.sampleRate,
		VADConfidence: conf,
	}, true
}

func (s *Segmenter) startBuilding(f frame.Frame) {
	s.building = &building{
		id:         uuid.New(),
		startTS:    f.CaptureTS.Add(-s.preRollAvailable(f)),
		sampleRate: f.SampleRate,
	}
	s.building.samples = append(s.building.samples, s.preRollSamples(f.CaptureTS)...)
	s.building.samples = append(s.building.samples, f.Samples...)
}

func (s *Segmenter) appendBuilding(f frame.Frame) {
	s.building.samples = append(s.building.samples, f.Samples...)
}

// preRollAvailable returns how much buffered ring audio precedes f, capped
// at PaddingBefore.
func (s *Segmenter) preRollAvailable(f frame.Frame) time.Duration {
	var total time.Duration
	for _, rf := range s.ringFrames {
		if rf.CaptureTS.Before(f.CaptureTS) {
			total += rf.Duration()
		}
	}
	if total > s.cfg.PaddingBefore {
		return s.cfg.PaddingBefore
	}
	return total
}

// preRollSamples returns ring-buffered samples captured strictly before
// headTS, trimmed to PaddingBefore.
func (s *Segmenter) preRollSamples(headTS time.Time) []int16 {
	cutoff := headTS.Add(-s.cfg.PaddingBefore)
	var out []int16
	for _, rf := range s.ringFrames {
		if rf.CaptureTS.Before(headTS) && !rf.CaptureTS.Before(cutoff) {
			out = append(out, rf.Samples...)
		}
	}
	return out
}

func (s *Segmenter) pushRing(f frame.Frame) {
	s.ringFrames = append(s.ringFrames, f.Clone())
	cutoff := f.CaptureTS.Add(-s.cfg.PaddingBefore)
	trimmed := s.ringFrames[:0]
	for _, rf := range s.ringFrames {
		if !rf.CaptureTS.Before(cutoff) {
			trimmed = append(trimmed, rf)
		}
	}
	s.ringFrames = trimmed
}

// finalize trims the PCM to [building.startTS, endTS], padding it with zero
// samples where the buffered audio ends before endTS (post-speech padding),
// and returns a SpeechSegment, dropping it (ok=false) if it falls short of
// MinSegmentDur.
func (s *Segmenter) finalize(endTS time.Time) (SpeechSegment, bool) {
	b := s.building
	duration := endTS.Sub(b.startTS)
	if duration <= 0 {
		return SpeechSegment{}, false
	}
	if duration > s.cfg.MaxSegmentDur {
		duration = s.cfg.MaxSegmentDur
		endTS = b.startTS.Add(duration)
	}

	wantSamples := int(duration.Seconds() * float64(b.sampleRate))
	pcm := b.samples
	if wantSamples >= 0 && wantSamples < len(pcm) {
		pcm = pcm[:wantSamples]
	}
	if wantSamples > len(pcm) {
		pcm = append(append([]int16(nil), pcm...), make([]int16, wantSamples-len(pcm))...)
	}

	if duration < s.cfg.MinSegmentDur {
		return SpeechSegment{}, false
	}

	confidence := float32(0)
	if b.confidenceN > 0 {
		confidence = b.confidenceSum / float32(b.confidenceN)
	}

	return SpeechSegment{
		ID:            b.id,
		StartTS:       s.seconds(b.startTS),
		EndTS:         s.seconds(endTS),
		PCM:           append([]int16(nil), pcm...),
		SampleRate:    b.sampleRate,
		VADConfidence: confidence,
	}, true
}
