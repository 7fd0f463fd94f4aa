// Command voicecore runs a demonstration instance of the streaming
// translation core against a synthetic audio source (or, with --device, a
// live PulseAudio capture) and prints emitted translations to stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicetranslate/streamcore/internal/app"
	"github.com/voicetranslate/streamcore/internal/asr"
	"github.com/voicetranslate/streamcore/internal/audio"
	"github.com/voicetranslate/streamcore/internal/config"
	"github.com/voicetranslate/streamcore/internal/frame"
	"github.com/voicetranslate/streamcore/internal/logging"
	"github.com/voicetranslate/streamcore/internal/profile"
	"github.com/voicetranslate/streamcore/internal/translate"
)

type flags struct {
	configPath string
	deviceID   string
	synthetic  bool
	targetLang string
}

func parseFlags(args []string) (flags, error) {
	f := flags{synthetic: true}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return flags{}, errors.New("--config requires a path")
			}
			f.configPath = args[i]
		case "--device":
			i++
			if i >= len(args) {
				return flags{}, errors.New("--device requires a device id")
			}
			f.deviceID = args[i]
			f.synthetic = false
		case "--target-lang":
			i++
			if i >= len(args) {
				return flags{}, errors.New("--target-lang requires a language code")
			}
			f.targetLang = args[i]
		case "-h", "--help":
			return flags{}, errShowHelp
		default:
			return flags{}, fmt.Errorf("unknown flag: %s", args[i])
		}
	}
	return f, nil
}

var errShowHelp = errors.New("show help")

const usage = `voicecore [--config path] [--device id] [--target-lang code]

Runs the streaming translation core. With no --device, captures from a
synthetic 6-second speech/silence tone instead of a real microphone.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr *os.File) int {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, errShowHelp) {
			fmt.Fprint(stdout, usage)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	runtime, err := logging.New(slog.LevelInfo)
	if err != nil {
		fmt.Fprintln(stderr, "logging init:", err)
		return 1
	}
	defer runtime.Close()

	loaded, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config load:", err)
		return 1
	}
	for _, w := range loaded.Warnings {
		runtime.Logger.Warn(w.Message)
	}
	cfg := loaded.Config
	if f.targetLang != "" {
		cfg.Translation.TargetLanguage = f.targetLang
	}

	profileStore := profile.NewFileStore(mustProfilePath(stderr))

	deps := app.Deps{
		ASRBackend:   asr.NewFallbackBackend(),
		Translator:   translate.NewFallbackBackend(),
		Logger:       runtime.Logger,
		ProfileStore: profileStore,
	}

	deviceID := f.deviceID
	if f.synthetic {
		deps.Capture = audio.NewSyntheticCapture(syntheticFrames(cfg), 1.0)
		deviceID = "synthetic"
	} else {
		deps.Capture = audio.NewPulseCapture(int(cfg.Audio.SampleRate)*cfg.Audio.ChunkMS/1000, func(e *audio.CaptureError) {
			runtime.Logger.Error("capture error", "error", e)
		})
	}

	a, err := app.New(cfg, deps)
	if err != nil {
		fmt.Fprintln(stderr, "app init:", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	a.OnResult(func(r app.Result) {
		_ = enc.Encode(map[string]any{
			"segment_id":  r.Translation.SegmentID.String(),
			"source_text": r.Translation.SourceText,
			"text":        r.Translation.Text,
			"target_lang": r.Translation.TargetLang,
			"is_final":    r.Translation.IsFinal,
			"sequence":    r.Translation.Sequence,
		})
	})

	if err := a.Start(ctx, deviceID, false); err != nil {
		fmt.Fprintln(stderr, "start:", err)
		return 1
	}

	<-ctx.Done()
	if err := a.Stop(); err != nil {
		fmt.Fprintln(stderr, "stop:", err)
		return 1
	}
	return 0
}

func mustProfilePath(stderr *os.File) string {
	path, err := profile.ResolvePath("")
	if err != nil {
		fmt.Fprintln(stderr, "profile path:", err)
		return ""
	}
	return path
}

// syntheticFrames builds a 6-second demo stream: 1s silence, 2s tone, 1s
// silence, 2s tone, so the pipeline has two segments to work with.
func syntheticFrames(cfg config.Config) []frame.Frame {
	sampleRate := cfg.Audio.SampleRate
	chunk := time.Duration(cfg.Audio.ChunkMS) * time.Millisecond
	epoch := time.Now()

	segments := []struct {
		loud bool
		dur  time.Duration
	}{
		{false, 1 * time.Second},
		{true, 2 * time.Second},
		{false, 1 * time.Second},
		{true, 2 * time.Second},
	}

	var frames []frame.Frame
	offset := time.Duration(0)
	for _, seg := range segments {
		for elapsed := time.Duration(0); elapsed < seg.dur; elapsed += chunk {
			n := int(chunk.Seconds() * float64(sampleRate))
			samples := make([]int16, n)
			if seg.loud {
				for i := range samples {
					if i%2 == 0 {
						samples[i] = 18000
					} else {
						samples[i] = -18000
					}
				}
			}
			frames = append(frames, frame.Frame{
				Samples:    samples,
				SampleRate: sampleRate,
				CaptureTS:  epoch.Add(offset),
			})
			offset += chunk
		}
	}
	return frames
}
