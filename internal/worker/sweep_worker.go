package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/sla"
)

// SweepWorker drives the breach detector on a fixed interval. The interval is
// configuration, not logic: the detector itself is cadence-agnostic.
type SweepWorker struct {
	c        *cron.Cron
	detector *sla.Detector
	interval time.Duration
	logger   *zap.Logger
}

// NewSweepWorker schedules the detector at the given interval.
func NewSweepWorker(detector *sla.Detector, interval time.Duration, logger *zap.Logger) (*SweepWorker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	w := &SweepWorker{
		c:        cron.New(),
		detector: detector,
		interval: interval,
		logger:   logger,
	}
	if _, err := w.c.AddFunc(fmt.Sprintf("@every %s", interval), w.run); err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return w, nil
}

// Start begins sweeping in the background.
func (w *SweepWorker) Start() {
	w.logger.Info("starting sla sweep worker", zap.Duration("interval", w.interval))
	w.c.Start()
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (w *SweepWorker) Stop() {
	ctx := w.c.Stop()
	<-ctx.Done()
	w.logger.Info("sla sweep worker stopped")
}

func (w *SweepWorker) run() {
	// A sweep gets at most one interval; leftovers are next sweep's problem.
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	stats := w.detector.Sweep(ctx)
	w.logger.Info("sla sweep complete",
		zap.Int64("candidates", stats.CandidatesSeen),
		zap.Int64("response_breaches", stats.ResponseBreaches),
		zap.Int64("resolution_breaches", stats.ResolutionBreaches),
		zap.Int64("reassignments", stats.Reassignments),
		zap.Int64("lost_races", stats.LostRaces),
		zap.Int64("no_technician", stats.NoTechnician),
		zap.Int64("failures", stats.Failures),
	)
}
