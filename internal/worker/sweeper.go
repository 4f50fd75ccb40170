package worker

import (
	"context"
	"fmt"

	"airline-reservation/internal/util"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically auto-refunds cancelled reservations that have no
// refund. It covers cancellations whose events were never consumed.
type Sweeper struct {
	cron    *cron.Cron
	refunds AutoRefunder
	logger  *zap.Logger
}

// NewSweeper schedules the sweep on a standard five-field cron expression
func NewSweeper(schedule string, refunds AutoRefunder) (*Sweeper, error) {
	s := &Sweeper{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		refunds: refunds,
		logger:  util.GetLogger(),
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("failed to schedule refund sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Refund sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Refund sweeper stopped")
}

// Sweep runs one pass
func (s *Sweeper) Sweep() {
	ctx, span := util.StartSpan(context.Background(), "Sweeper.Sweep")
	defer span.End()

	if _, err := s.refunds.AutoProcessAll(ctx); err != nil {
		util.RecordError(span, err)
		s.logger.Error("Refund sweep failed", zap.Error(err))
	}
}
