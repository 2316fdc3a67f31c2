// Package scheduler drives the periodic ingestion and notification tasks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs the ingestion and notification loops on independent timers.
type Scheduler struct {
	ingestor       *Ingestor
	notifier       *Notifier
	ingestInterval time.Duration
	notifyInterval time.Duration
	log            *slog.Logger
}

// New creates a Scheduler with the given tick cadences.
func New(ingestor *Ingestor, notifier *Notifier, ingestInterval, notifyInterval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		ingestor:       ingestor,
		notifier:       notifier,
		ingestInterval: ingestInterval,
		notifyInterval: notifyInterval,
		log:            log,
	}
}

// Run starts both loops and blocks until ctx is cancelled. Each loop runs an
// immediate first tick. A tick's failure never stops the schedule.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.loop(ctx, "ingest", s.ingestInterval, s.ingestor.Tick)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "notify", s.notifyInterval, s.notifier.Tick)
	}()

	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	s.log.Info("starting task", "task", name, "interval", interval)
	tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping task", "task", name)
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}
