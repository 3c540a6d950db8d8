package registry

import (
	"context"
	"time"

	"github.com/yourorg/market-data-service/internal/model"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// MappingSource fetches the current product mappings from upstream.
type MappingSource interface {
	Fetch(ctx context.Context) ([]model.SymbolMapping, error)
}

// Refresher keeps a registry populated. It refreshes on a fixed interval and
// on demand when a caller reports the mappings look stale. A refresh that
// fails leaves the previously published generation untouched.
type Refresher struct {
	registry   *Registry
	source     MappingSource
	interval   time.Duration
	staleAfter time.Duration
	demand     chan struct{}
	logger     *zap.Logger
}

// NewRefresher creates a refresher for the given registry and source.
func NewRefresher(reg *Registry, source MappingSource, interval, staleAfter time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		registry:   reg,
		source:     source,
		interval:   interval,
		staleAfter: staleAfter,
		demand:     make(chan struct{}, 1),
		logger:     logger,
	}
}

// RequestRefresh asks for an out-of-band refresh. The request is a no-op when
// the current generation is younger than the staleness threshold or a demand
// is already queued.
func (r *Refresher) RequestRefresh() {
	if age, ok := r.registry.Age(time.Now()); ok && age < r.staleAfter {
		return
	}
	select {
	case r.demand <- struct{}{}:
	default:
	}
}

// Run refreshes until ctx is cancelled. The initial load retries with
// exponential backoff so the service becomes usable as soon as the mapping
// host does.
func (r *Refresher) Run(ctx context.Context) {
	r.refreshWithBackoff(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		case <-r.demand:
			r.refreshOnce(ctx)
		}
	}
}

func (r *Refresher) refreshWithBackoff(ctx context.Context) {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	err := backoff.Retry(func() error {
		return r.refreshOnce(ctx)
	}, policy)
	if err != nil && ctx.Err() == nil {
		r.logger.Error("Initial symbol mapping load gave up", zap.Error(err))
	}
}

func (r *Refresher) refreshOnce(ctx context.Context) error {
	mappings, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Warn("Symbol mapping refresh failed, keeping previous generation", zap.Error(err))
		return err
	}

	r.registry.Publish(NewGeneration(mappings, time.Now()))
	r.logger.Info("Published symbol mapping generation", zap.Int("mappings", len(mappings)))
	return nil
}
