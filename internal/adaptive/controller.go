// Package adaptive implements the AdaptiveController (spec.md §4.H):
// observing queue depths and draft stability to scale draft cadence, gate
// low-quality drafts, and push the Segmenter toward shorter segments under
// sustained load.
package adaptive

import (
	"sync"
	"time"
)

// Config controls AdaptiveController thresholds.
type Config struct {
	MinDraftIntervalMS   int
	MaxDraftIntervalMS   int
	MaxQueueDepth        int
	StabilityThreshold   float32
	MinDraftLength       int
	PauseSkipThresholdMS int

	// SustainedWindow is how long a queue-depth excursion (over or under
	// MaxQueueDepth) must persist before FinalizationPush changes.
	SustainedWindow time.Duration
}

// Controller computes scheduling hints from observed pipeline state.
type Controller struct {
	cfg Config

	mu                  sync.Mutex
	draftIntervalMS     int
	saturatedSince      time.Time
	idleSince           time.Time
	finalizationPressed bool
}

// NewController constructs a Controller starting at the configured minimum
// draft interval.
func NewController(cfg Config) *Controller {
	if cfg.SustainedWindow <= 0 {
		cfg.SustainedWindow = 2 * time.Second
	}
	return &Controller{cfg: cfg, draftIntervalMS: cfg.MinDraftIntervalMS}
}

// ObserveQueueDepth adjusts the draft interval based on downstream queue
// depth, clamped to [min_draft_interval_ms, max_draft_interval_ms].
func (c *Controller) ObserveQueueDepth(depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if depth > c.cfg.MaxQueueDepth {
		c.draftIntervalMS += 50
	} else if c.draftIntervalMS > c.cfg.MinDraftIntervalMS {
		c.draftIntervalMS -= 25
	}
	if c.draftIntervalMS < c.cfg.MinDraftIntervalMS {
		c.draftIntervalMS = c.cfg.MinDraftIntervalMS
	}
	if c.draftIntervalMS > c.cfg.MaxDraftIntervalMS {
		c.draftIntervalMS = c.cfg.MaxDraftIntervalMS
	}
}

// DraftIntervalMS returns the current minimum spacing between successive
// drafts for an active segment.
func (c *Controller) DraftIntervalMS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftIntervalMS
}

// DraftCandidate is the information needed to decide draft admission.
type DraftCandidate struct {
	Confidence    float32
	TokenCount    int
	PauseDuration time.Duration
}

// AdmitDraft reports whether a draft should be surfaced, per the admission
// gate: suppress when confidence is below threshold, token count is too
// short, or the draft originates from an in-progress pause longer than
// pause_skip_threshold_ms.
func (c *Controller) AdmitDraft(candidate DraftCandidate) bool {
	if candidate.Confidence < c.cfg.StabilityThreshold {
		return false
	}
	if candidate.TokenCount < c.cfg.MinDraftLength {
		return false
	}
	if c.cfg.PauseSkipThresholdMS > 0 && candidate.PauseDuration > time.Duration(c.cfg.PauseSkipThresholdMS)*time.Millisecond {
		return false
	}
	return true
}

// ObserveSaturation tracks sustained queue saturation/idle to decide
// whether to request a finalization push. Call on every tick with the
// current time and whether the pipeline is currently saturated
// (queue depth above MaxQueueDepth across its stages).
func (c *Controller) ObserveSaturation(now time.Time, saturated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if saturated {
		if c.saturatedSince.IsZero() {
			c.saturatedSince = now
		}
		c.idleSince = time.Time{}
		if !c.finalizationPressed && now.Sub(c.saturatedSince) >= c.cfg.SustainedWindow {
			c.finalizationPressed = true
		}
		return
	}

	if c.idleSince.IsZero() {
		c.idleSince = now
	}
	c.saturatedSince = time.Time{}
	if c.finalizationPressed && now.Sub(c.idleSince) >= c.cfg.SustainedWindow {
		c.finalizationPressed = false
	}
}

// FinalizationPush reports whether the Segmenter should currently be
// operating with a lowered max_segment_duration (spec.md §4.H).
func (c *Controller) FinalizationPush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalizationPressed
}

// AdjustedMaxSegmentDuration applies the 25% reduction (floored at
// min*2) when a finalization push is active, otherwise returns base
// unchanged.
func AdjustedMaxSegmentDuration(base, min float64, pushed bool) float64 {
	if !pushed {
		return base
	}
	reduced := base * 0.75
	floor := min * 2
	if reduced < floor {
		return floor
	}
	return reduced
}
