package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
)

// HousekeepingService periodically removes pending tag requests that expired
// without being confirmed. Confirmed rows are kept as history.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Clock    clockx.Clock
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
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

// Cleanup deletes expired unconfirmed pending requests and returns how many
// were removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	now := clockx.OrReal(s.Clock).Now()

	deleted, err := s.Store.Tags().DeleteExpiredPending(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired pending tag requests", "error", err)
		return 0
	}

	s.Logger.Info("housekeeping cleanup completed", "expired_pending_deleted", deleted)
	return deleted
}
