package service

import (
	"context"
	"time"

	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/metrics"
)

// SnapshotSource is the read side of the live data provider.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (livedata.Result, error)
}

// SnapshotRefresher is a SnapshotSource that can also force a fetch.
type SnapshotRefresher interface {
	SnapshotSource
	Refresh(ctx context.Context) (livedata.Result, error)
}

type snapshotService struct {
	provider SnapshotRefresher
	metrics  *metrics.Metrics
	observer UseCaseObserver
}

func NewSnapshotService(provider SnapshotRefresher, m *metrics.Metrics, observers ...UseCaseObserver) SnapshotService {
	return &snapshotService{provider: provider, metrics: m, observer: useCaseObserverOrNoop(observers)}
}

func (s *snapshotService) Current(ctx context.Context) (livedata.Result, error) {
	res, err := s.provider.Snapshot(ctx)
	if err == nil {
		s.metrics.IncrementSnapshotSource(string(res.Source))
	}
	return res, err
}

// Refresh returns the fallback snapshot alongside a fetch error so callers
// can still show something.
func (s *snapshotService) Refresh(ctx context.Context) (res livedata.Result, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, s.observer, "refresh_snapshot", start, err, map[string]any{"source": string(res.Source)})
	}()

	res, err = s.provider.Refresh(ctx)
	if res.Source != "" {
		s.metrics.IncrementSnapshotSource(string(res.Source))
	}
	return res, err
}
