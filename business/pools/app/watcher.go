package app

import (
	"context"
	"sync"
	"time"

	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

// WatcherConfig holds the listing a Watcher keeps rendering.
type WatcherConfig struct {
	State    domain.BrowseState
	Context  BrowseContext
	Interval time.Duration
}

// Watcher re-runs a browse on an interval and hands each view to a Reporter.
type Watcher struct {
	svc      *BrowseService
	reporter Reporter
	cfg      WatcherConfig
	logger   logger.LoggerInterface

	wg sync.WaitGroup
}

// NewWatcher creates a Watcher.
func NewWatcher(svc *BrowseService, reporter Reporter, cfg WatcherConfig, log logger.LoggerInterface) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Watcher{svc: svc, reporter: reporter, cfg: cfg, logger: log}
}

// Start renders once, then keeps refreshing until ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "starting pools watcher", "interval", w.cfg.Interval.String())

	if err := w.reporter.Start(ctx); err != nil {
		return err
	}
	w.tick(ctx)

	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	view, err := w.svc.Browse(ctx, w.cfg.State, w.cfg.Context)
	if err != nil {
		w.logger.Error(ctx, "browse failed", "error", err)
		return
	}
	w.reporter.Render(view)
}

// Stop waits for the loop to exit and stops the reporter. Cancel the
// context passed to Start first.
func (w *Watcher) Stop() error {
	w.wg.Wait()
	return w.reporter.Stop()
}
