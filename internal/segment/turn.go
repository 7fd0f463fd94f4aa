package segment

import "time"

// TurnTagger is a placeholder turn-based diarization stub, explicitly kept
// out of the core contract by spec.md §1 ("a placeholder turn-based stub
// exists but is not part of the core contract"). It labels alternating
// segments by gap heuristics and is not wired into the pipeline; it exists
// so a host that wants rudimentary two-party turn labeling has something to
// start from.
type TurnTagger struct {
	GapThreshold time.Duration

	lastEnd    float64
	currentTag string
}

// NewTurnTagger returns a tagger alternating "turn-a"/"turn-b" labels.
func NewTurnTagger(gapThreshold time.Duration) *TurnTagger {
	return &TurnTagger{GapThreshold: gapThreshold, currentTag: "turn-a"}
}

// Tag assigns a turn label to a segment based on the gap since the previous
// one; a gap at or above GapThreshold flips the active turn.
func (t *TurnTagger) Tag(seg SpeechSegment) string {
	gap := seg.StartTS - t.lastEnd
	if t.lastEnd > 0 && gap >= t.GapThreshold.Seconds() {
		if t.currentTag == "turn-a" {
			t.currentTag = "turn-b"
		} else {
			t.currentTag = "turn-a"
		}
	}
	t.lastEnd = seg.EndTS
	return t.currentTag
}
