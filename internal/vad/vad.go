// Package vad implements the streaming voice-activity detector: a
// hysteretic speech/silence state machine driven by a pluggable probability
// model collaborator (the concrete neural VAD model is out of scope per
// spec; ProbabilityModel is the stable interface it sits behind).
package vad

import (
	"github.com/voicetranslate/streamcore/internal/fsm"
	"github.com/voicetranslate/streamcore/internal/frame"
)

// ProbabilityModel is the out-of-scope collaborator that scores one frame.
// A real implementation wraps a neural VAD model (Silero, WebRTC, ...); this
// package never assumes which.
type ProbabilityModel interface {
	// Score returns a raw speech probability in [0,1] for one frame.
	Score(f frame.Frame) (float32, error)
}

// Config controls the hysteresis thresholds.
type Config struct {
	Threshold         float32 // prob >= Threshold is a candidate speech frame
	MinSpeechFrames   int     // consecutive speech frames to promote Starting -> Speech
	MinSilenceFrames  int     // consecutive silence frames to commit Ending -> Silence
}

var transitions = fsm.NewTable([]fsm.Transition[frame.VadDecision, frame.VadEvent]{
	{From: frame.VadSilence, Event: frame.VadEventSpeechFrame, To: frame.VadStarting},
	{From: frame.VadSilence, Event: frame.VadEventSilenceFrame, To: frame.VadSilence},

	{From: frame.VadStarting, Event: frame.VadEventPromoted, To: frame.VadSpeech},
	{From: frame.VadStarting, Event: frame.VadEventSilenceFrame, To: frame.VadSilence},
	{From: frame.VadStarting, Event: frame.VadEventSpeechFrame, To: frame.VadStarting},

	{From: frame.VadSpeech, Event: frame.VadEventSilenceFrame, To: frame.VadEnding},
	{From: frame.VadSpeech, Event: frame.VadEventSpeechFrame, To: frame.VadSpeech},

	{From: frame.VadEnding, Event: frame.VadEventSpeechFrame, To: frame.VadSpeech},
	{From: frame.VadEnding, Event: frame.VadEventCommitted, To: frame.VadSilence},
	{From: frame.VadEnding, Event: frame.VadEventSilenceFrame, To: frame.VadEnding},
})

// Engine is a stateful, single-stream VAD. Not safe for concurrent use from
// multiple goroutines; one Engine per capture stream.
type Engine struct {
	cfg   Config
	model ProbabilityModel

	machine *fsm.Machine[frame.VadDecision, frame.VadEvent]

	consecSpeech  int
	consecSilence int
}

// NewEngine constructs an Engine in the initial Silence state.
func NewEngine(cfg Config, model ProbabilityModel) *Engine {
	if cfg.MinSpeechFrames <= 0 {
		cfg.MinSpeechFrames = 1
	}
	if cfg.MinSilenceFrames <= 0 {
		cfg.MinSilenceFrames = 1
	}
	return &Engine{
		cfg:     cfg,
		model:   model,
		machine: fsm.NewMachine(transitions, frame.VadSilence),
	}
}

// State returns the current VadDecision.
func (e *Engine) State() frame.VadDecision {
	return e.machine.State()
}

// Process scores one frame and advances the state machine, returning the
// hysteretic decision for that frame.
func (e *Engine) Process(f frame.Frame) (frame.SpeechProbability, error) {
	prob, err := e.model.Score(f)
	if err != nil {
		return frame.SpeechProbability{}, err
	}

	isSpeechFrame := prob >= e.cfg.Threshold
	if isSpeechFrame {
		e.consecSpeech++
		e.consecSilence = 0
	} else {
		e.consecSilence++
		e.consecSpeech = 0
	}

	event := frame.VadEventSilenceFrame
	if isSpeechFrame {
		event = frame.VadEventSpeechFrame
	}
	_, _ = e.machine.Fire(event)

	if e.machine.State() == frame.VadStarting && isSpeechFrame && e.consecSpeech >= e.cfg.MinSpeechFrames {
		_, _ = e.machine.Fire(frame.VadEventPromoted)
	}
	if e.machine.State() == frame.VadEnding && !isSpeechFrame && e.consecSilence >= e.cfg.MinSilenceFrames {
		_, _ = e.machine.Fire(frame.VadEventCommitted)
		e.consecSilence = 0
	}

	decision := e.machine.State()
	return frame.SpeechProbability{
		Prob:     prob,
		IsSpeech: decision == frame.VadSpeech || decision == frame.VadEnding,
	}, nil
}

// Reset returns the engine to Silence and clears counters.
func (e *Engine) Reset() {
	e.machine.Reset(frame.VadSilence)
	e.consecSpeech = 0
	e.consecSilence = 0
}

// ForceFinalize reports whether buffered speech should be flushed (state was
// Starting, Speech or Ending) and then resets the engine, matching the "force-finalize
// emits whatever is buffered, then resets" contract.
func (e *Engine) ForceFinalize() (hadBufferedSpeech bool) {
	state := e.machine.State()
	hadBufferedSpeech = state == frame.VadSpeech || state == frame.VadEnding || state == frame.VadStarting
	e.Reset()
	return hadBufferedSpeech
}
