package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRefreshInterval is how often the dashboard snapshot is rebuilt.
const DefaultRefreshInterval = 5 * time.Minute

// RefreshFunc rebuilds and publishes the snapshot.
type RefreshFunc func(ctx context.Context)

// RefreshWorker runs background refreshes on a ticker and guarantees that
// at most one refresh, background or manual, runs at a time.
type RefreshWorker struct {
	refresh  RefreshFunc
	interval time.Duration
	logger   *logrus.Entry
	slot     chan struct{}
	skipped  atomic.Int64
}

func NewRefreshWorker(refresh RefreshFunc, interval time.Duration, logger *logrus.Entry) *RefreshWorker {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "refresh_worker")
	}
	return &RefreshWorker{
		refresh:  refresh,
		interval: interval,
		logger:   logger,
		slot:     make(chan struct{}, 1),
	}
}

// Start refreshes once right away and then on every tick until ctx ends.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.WithField("interval", w.interval.String()).Info("refresh worker started")
	w.Tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker shutting down")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs a background refresh unless one is already in flight, in which
// case the tick is dropped. It reports whether a refresh ran.
func (w *RefreshWorker) Tick(ctx context.Context) bool {
	select {
	case w.slot <- struct{}{}:
	default:
		w.skipped.Add(1)
		w.logger.Debug("refresh already in flight, skipping tick")
		return false
	}
	defer func() { <-w.slot }()
	w.refresh(ctx)
	return true
}

// Do runs fn once any in-flight refresh has finished. It returns ctx.Err()
// if ctx ends while waiting.
func (w *RefreshWorker) Do(ctx context.Context, fn func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case w.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-w.slot }()
	fn(ctx)
	return nil
}

// Skipped counts ticks dropped because a refresh was in flight.
func (w *RefreshWorker) Skipped() int64 {
	return w.skipped.Load()
}
