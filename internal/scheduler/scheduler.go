// Package scheduler drives periodic sweeps for deployments without an
// external cron. Each tick is one logical run; no state is carried between
// runs, so a missed or superseded update is corrected on the next interval.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/reconcile"
)

type Config struct {
	Interval time.Duration
}

// Sweeper is satisfied by *reconcile.Engine.
type Sweeper interface {
	RunSweep(ctx context.Context) (*reconcile.Report, error)
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every tick. A non-positive interval disables the loop entirely; the
// trigger endpoint is the primary path then.
func Run(ctx context.Context, s Sweeper, cfg Config, log *logrus.Logger) {
	if cfg.Interval <= 0 {
		log.Info("scheduler: disabled, sweeps run via the trigger endpoint only")
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.WithField("interval", cfg.Interval.String()).Info("scheduler: started")

	sweep(ctx, s, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler: stopping, context cancelled")
			return
		case <-ticker.C:
			sweep(ctx, s, log)
		}
	}
}

func sweep(ctx context.Context, s Sweeper, log *logrus.Logger) {
	rep, err := s.RunSweep(ctx)
	if err != nil {
		log.WithError(err).Error("scheduler: sweep failed")
		return
	}
	log.WithFields(logrus.Fields{
		"total":   rep.Total,
		"updated": rep.Updated,
		"failed":  rep.Failed,
	}).Info("scheduler: sweep complete")
}
