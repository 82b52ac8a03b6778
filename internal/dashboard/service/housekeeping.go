package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/store"
)

const abandonedMessage = "the outcome of this change is unknown"

// HousekeepingService periodically prunes old notifications and gives up on
// writes that never settled, so the table does not grow without bound.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour and a non-positive retention to 7 days.
func NewHousekeepingService(
	store store.Store,
	logger *slog.Logger,
	interval, retention time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop shuts down the worker, waiting for any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	// Writes take seconds; anything pending for an hour was lost.
	failed, err := s.Store.Notifications().FailPendingNotificationsBefore(ctx, now.Add(-time.Hour), abandonedMessage, now)
	if err != nil {
		s.Logger.Error("failed to settle abandoned notifications", "error", err)
	} else if failed > 0 {
		s.Logger.Warn("settled abandoned notifications", "count", failed)
	}

	deleted, err := s.Store.Notifications().DeleteNotificationsBefore(ctx, now.Add(-s.Retention))
	if err != nil {
		s.Logger.Error("failed to delete old notifications", "error", err)
		return
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", deleted)
}
