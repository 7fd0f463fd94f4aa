package resilience

import (
	"log/slog"
	"sync"
)

// Strategy is one level of a graceful degradation ladder: Apply moves the
// system one notch further from nominal, Undo restores it.
type Strategy struct {
	Name  string
	Apply func()
	Undo  func()
}

// GracefulDegradation walks an ordered list of strategies under sustained
// stress, applying the next one with degrade() and undoing the most recent
// with restore() (spec.md §4.I). The typical ladder: lower ASR precision,
// increase chunk size, lengthen draft interval, disable drafts entirely,
// switch to final-only translation.
type GracefulDegradation struct {
	strategies []Strategy
	logger     *slog.Logger

	mu    sync.Mutex
	level int // 0 = nominal, len(strategies) = fully degraded
}

// NewGracefulDegradation constructs a ladder over strategies, in
// application order.
func NewGracefulDegradation(strategies []Strategy, logger *slog.Logger) *GracefulDegradation {
	if logger == nil {
		logger = slog.Default()
	}
	return &GracefulDegradation{strategies: strategies, logger: logger}
}

// Degrade applies the next strategy, if any remain. Returns false if
// already at maximum degradation.
func (d *GracefulDegradation) Degrade() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.level >= len(d.strategies) {
		return false
	}
	strategy := d.strategies[d.level]
	d.level++
	if strategy.Apply != nil {
		strategy.Apply()
	}
	d.logger.Info("degradation level increased", "level", d.level, "strategy", strategy.Name)
	return true
}

// Restore undoes the most recently applied strategy. Returns false if
// already at nominal.
func (d *GracefulDegradation) Restore() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.level <= 0 {
		return false
	}
	d.level--
	strategy := d.strategies[d.level]
	if strategy.Undo != nil {
		strategy.Undo()
	}
	d.logger.Info("degradation level decreased", "level", d.level, "strategy", strategy.Name)
	return true
}

// Level reports the current degradation depth, 0 = nominal.
func (d *GracefulDegradation) Level() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}
