package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/voicetranslate/streamcore/internal/frame"
	"github.com/voicetranslate/streamcore/internal/rpcwire"
	"github.com/voicetranslate/streamcore/internal/segment"
)

// streamingTranscribeMethod is the full gRPC method name for the remote
// backend's streaming recognize RPC. There is no .proto in this tree (the
// generated riva stub the teacher depends on is unavailable); the method is
// invoked directly against the raw grpc.ClientConn using the rpcwire gob
// codec instead of protoc-generated client code.
const streamingTranscribeMethod = "/voicecore.asr.v1.AsrService/StreamingTranscribe"

// transcribeRequest/transcribeResponse are the gob-encoded wire messages for
// streamingTranscribeMethod.
type transcribeRequest struct {
	PCM        []int16
	SampleRate uint32
	Language   string
	Precision  string
	IsDraft    bool
}

type transcribeResponse struct {
	Text       string
	Confidence float32
	Language   string
	Err        string
}

// RemoteBackendConfig configures a dial to an out-of-process ASR service.
type RemoteBackendConfig struct {
	Endpoint    string
	DialTimeout time.Duration
}

// RemoteBackend is an AsrBackend that proxies Transcribe calls to an
// out-of-process ASR service over gRPC, adapted from the teacher's
// riva.Stream dial/send/recv lifecycle but generalized to the rpcwire gob
// codec in place of protoc-generated stubs.
type RemoteBackend struct {
	cfg  RemoteBackendConfig
	bCfg BackendConfig

	mu   sync.Mutex
	conn *grpc.ClientConn
}

// NewRemoteBackend constructs an uninitialized RemoteBackend.
func NewRemoteBackend(cfg RemoteBackendConfig) *RemoteBackend {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	return &RemoteBackend{cfg: cfg}
}

func (b *RemoteBackend) Initialize(cfg BackendConfig) error {
	endpoint := strings.TrimSpace(b.cfg.Endpoint)
	if endpoint == "" {
		return errors.New("asr: remote backend endpoint is empty")
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("asr: dial remote backend %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(context.Background(), b.cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("asr: wait for remote backend readiness: %w", err)
	}

	b.mu.Lock()
	b.conn = conn
	b.bCfg = cfg
	b.mu.Unlock()
	return nil
}

func (b *RemoteBackend) Transcribe(ctx context.Context, seg segment.SpeechSegment, precision ComputePrecision, isDraft bool) (string, float32, frame.LanguageCode, error) {
	b.mu.Lock()
	conn := b.conn
	lang := b.bCfg.ForcedLanguage
	b.mu.Unlock()
	if conn == nil {
		return "", 0, "", errors.New("asr: remote backend not initialized")
	}

	stream, err := rpcwire.OpenBidiStream(ctx, conn, streamingTranscribeMethod)
	if err != nil {
		return "", 0, "", fmt.Errorf("asr: open remote transcribe stream: %w", err)
	}

	req := &transcribeRequest{
		PCM:        seg.PCM,
		SampleRate: seg.SampleRate,
		Language:   string(lang),
		Precision:  string(precision),
		IsDraft:    isDraft,
	}
	if err := stream.SendMsg(req); err != nil {
		return "", 0, "", fmt.Errorf("asr: send remote transcribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return "", 0, "", fmt.Errorf("asr: close remote transcribe send: %w", err)
	}

	var resp transcribeResponse
	if err := stream.RecvMsg(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return "", 0, "", errors.New("asr: remote backend closed stream without a response")
		}
		return "", 0, "", fmt.Errorf("asr: receive remote transcribe response: %w", err)
	}
	if resp.Err != "" {
		return "", 0, "", fmt.Errorf("asr: remote backend error: %s", resp.Err)
	}

	return resp.Text, resp.Confidence, frame.LanguageCode(resp.Language), nil
}

func (b *RemoteBackend) SupportedLanguages() []frame.LanguageCode {
	return []frame.LanguageCode{"en-US"}
}

func (b *RemoteBackend) Shutdown() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// waitForReady blocks until the gRPC connection enters Ready or fails,
// adapted from the teacher's riva.waitForReady.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}
		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
