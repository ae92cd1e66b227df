package appointments

import (
	"context"
	"log/slog"
	"time"
)

const sweepBatchSize = 200

// Sweeper periodically auto-completes confirmed appointments whose end time
// has passed.
type Sweeper struct {
	service  *Service
	interval time.Duration
	log      *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, log: log}
}

// Run blocks until ctx is done.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("sweeper started", slog.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("sweeper stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Sweeper) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	total := 0
	for {
		n, err := w.service.SweepCompleted(runCtx, sweepBatchSize)
		total += n
		if err != nil {
			w.log.Error("sweeper: auto-complete failed", slog.String("error", err.Error()))
			return
		}
		if n < sweepBatchSize {
			break
		}
	}
	if total > 0 {
		w.log.Info("sweeper: auto-completed", slog.Int("count", total))
	}
}
