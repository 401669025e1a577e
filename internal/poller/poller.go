// Package poller periodically rebuilds the network topology and keeps
// the latest result available to the HTTP layer.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/fortimap/internal/snapshot"
	"github.com/HerbHall/fortimap/pkg/models"
)

// Builder produces a complete topology from the current device state.
type Builder interface {
	Build(ctx context.Context) *models.Topology
}

// Poller owns the refresh cycle. It rebuilds the topology on a fixed
// interval, persists each result when a snapshot store is attached,
// and fans out change notifications to watchers.
type Poller struct {
	builder  Builder
	interval time.Duration
	logger   *zap.Logger

	store *snapshot.Store
	keep  int

	// buildMu serializes rebuilds so a manual refresh and the ticker
	// cannot interleave snapshot writes.
	buildMu sync.Mutex

	mu      sync.RWMutex
	current *models.Topology

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}
}

// New creates a poller that rebuilds every interval.
func New(builder Builder, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		builder:  builder,
		interval: interval,
		logger:   logger,
		watchers: make(map[chan struct{}]struct{}),
	}
}

// WithStore attaches a snapshot store. Every successful rebuild is
// persisted and history is pruned down to keep rows.
func (p *Poller) WithStore(store *snapshot.Store, keep int) *Poller {
	p.store = store
	p.keep = keep
	return p
}

// Run performs an initial rebuild and then refreshes on the configured
// interval until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller starting",
		zap.Duration("interval", p.interval),
		zap.Bool("snapshots", p.store != nil),
	)

	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller shutting down")
			return nil
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh rebuilds the topology immediately, replaces the held result,
// and notifies watchers. It is safe to call concurrently with Run.
func (p *Poller) Refresh(ctx context.Context) *models.Topology {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	start := time.Now()
	t := p.builder.Build(ctx)
	buildTotal.Inc()
	buildDuration.Observe(time.Since(start).Seconds())
	for typ, n := range t.Metadata.DeviceCounts {
		deviceCount.WithLabelValues(string(typ)).Set(float64(n))
	}

	p.mu.Lock()
	p.current = t
	p.mu.Unlock()

	if p.store != nil {
		if _, err := p.store.Save(ctx, t); err != nil {
			snapshotErrors.Inc()
			p.logger.Error("snapshot save failed", zap.Error(err))
		} else if p.keep > 0 {
			if _, err := p.store.Prune(ctx, p.keep); err != nil {
				p.logger.Warn("snapshot prune failed", zap.Error(err))
			}
		}
	}

	p.logger.Debug("topology refreshed",
		zap.Int("devices", len(t.Devices)),
		zap.Int("connections", len(t.Connections)),
		zap.Duration("took", time.Since(start)),
	)

	p.notify()
	return t
}

// Current returns the most recently built topology, or nil before the
// first rebuild completes.
func (p *Poller) Current() *models.Topology {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Watch registers for refresh notifications. The returned channel
// receives a signal after every rebuild; cancel must be called to
// unregister. A slow consumer misses signals rather than blocking the
// refresh cycle.
func (p *Poller) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	p.watchMu.Lock()
	p.watchers[ch] = struct{}{}
	p.watchMu.Unlock()

	cancel := func() {
		p.watchMu.Lock()
		delete(p.watchers, ch)
		p.watchMu.Unlock()
	}
	return ch, cancel
}

func (p *Poller) notify() {
	p.watchMu.Lock()
	defer p.watchMu.Unlock()
	for ch := range p.watchers {
		select {
		case ch <- struct{}{}:
		default:
			watchMissTotal.Inc()
		}
	}
}
