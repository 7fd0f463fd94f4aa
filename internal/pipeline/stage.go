// Package pipeline implements the StagePipeline (spec.md §4.E): a DAG of
// stages connected by bounded FIFO queues, each with its own worker pool,
// feed discipline, and latency metrics.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voicetranslate/streamcore/internal/metrics"
)

// FeedResult reports how Feed handled an item.
type FeedResult int

const (
	Accepted FeedResult = iota
	AcceptedWithDrop
	Rejected
)

func (r FeedResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case AcceptedWithDrop:
		return "accepted_with_drop"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ProcessFunc transforms one input item into one output item. A non-nil
// error discards the item without advancing it to the next stage.
type ProcessFunc[In, Out any] func(context.Context, In) (Out, error)

// Config controls one Stage's queue discipline and worker pool size.
type Config struct {
	Name           string
	QueueCapacity  int
	Workers        int
	DropOnOverflow bool
	PollInterval   time.Duration // how often idle workers recheck shutdown; defaults to 50ms
	GraceShutdown  time.Duration // how long Stop waits for workers to drain; defaults to 2s
}

// Stage runs ProcessFunc across a bounded input queue and a pool of worker
// goroutines, pushing results to a downstream sink (spec.md §4.E feed
// discipline, worker loop, ordering, and metrics clauses).
type Stage[In, Out any] struct {
	cfg     Config
	process ProcessFunc[In, Out]
	sink    func(Out)
	logger  *slog.Logger
	metrics *StageMetrics

	mu       sync.Mutex
	queue    []In
	stopped  atomic.Bool
	wg       sync.WaitGroup
	started  bool
}

// NewStage constructs a Stage. sink receives every successfully processed
// output, in the order workers finish it (single-worker stages therefore
// preserve input order; multi-worker stages do not, by design -- spec.md
// §4.E pushes ordering recovery to the sequence-aware emission gate).
func NewStage[In, Out any](cfg Config, process ProcessFunc[In, Out], sink func(Out), logger *slog.Logger) *Stage[In, Out] {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.GraceShutdown <= 0 {
		cfg.GraceShutdown = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage[In, Out]{
		cfg:     cfg,
		process: process,
		sink:    sink,
		logger:  logger.With("stage", cfg.Name),
		metrics: &StageMetrics{},
		queue:   make([]In, 0, cfg.QueueCapacity),
	}
}

// Feed admits item per spec.md §4.E: enqueue if room, drop-oldest-and-push
// if configured and full, else reject.
func (s *Stage[In, Out]) Feed(item In) FeedResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) < s.cfg.QueueCapacity {
		s.queue = append(s.queue, item)
		return Accepted
	}

	if !s.cfg.DropOnOverflow {
		s.metrics.recordDrop()
		metrics.PipelineDropped.WithLabelValues(s.cfg.Name, "rejected").Inc()
		return Rejected
	}

	s.queue = append(s.queue[1:], item)
	s.metrics.recordDrop()
	metrics.PipelineDropped.WithLabelValues(s.cfg.Name, "overflow").Inc()
	return AcceptedWithDrop
}

func (s *Stage[In, Out]) dequeue() (In, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero In
	if len(s.queue) == 0 {
		return zero, false
	}
	item := s.queue[0]
	s.queue = s.queue[1:]
	return item, true
}

// Depth reports the current queue length, an input to AdaptiveController.
func (s *Stage[In, Out]) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Metrics exposes this stage's latency/throughput counters.
func (s *Stage[In, Out]) Metrics() StageSnapshot { return s.metrics.Snapshot() }

// Start launches the worker pool. Safe to call once per Stage.
func (s *Stage[In, Out]) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx)
	}
}

// workerLoop dequeues with a short poll timeout so shutdown is noticed
// promptly even while idle (spec.md §4.E worker loop).
func (s *Stage[In, Out]) workerLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if s.stopped.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, ok := s.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		start := time.Now()
		out, err := s.process(ctx, item)
		elapsed := time.Since(start)
		s.metrics.Record(elapsed)
		metrics.PipelineStageDuration.WithLabelValues(s.cfg.Name).Observe(elapsed.Seconds())

		if err != nil {
			s.metrics.recordError()
			metrics.PipelineErrors.WithLabelValues(s.cfg.Name, "process").Inc()
			s.logger.Warn("stage process failed", "error", err)
			continue
		}
		if s.sink != nil {
			s.sink(out)
		}
	}
}

// Stop signals shutdown and waits up to cfg.GraceShutdown for workers to
// drain in-flight work; the input queue is not re-processed after this call.
func (s *Stage[In, Out]) Stop() {
	s.stopped.Store(true)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.GraceShutdown):
		s.logger.Warn("stage did not drain within grace period")
	}
}
