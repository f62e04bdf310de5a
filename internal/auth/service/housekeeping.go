package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/store"
)

// HousekeepingService periodically deletes expired sessions. Validation
// already removes expired sessions it meets, this sweeps the ones nobody
// presents again.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweeper in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes every session that has expired as of now and returns how
// many were removed.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	n, err := s.Store.Sessions().DeleteExpiredSessions(ctx, s.Now())
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
		return 0
	}
	s.Logger.Info("housekeeping cleanup completed", "expired_sessions", n)
	return n
}
