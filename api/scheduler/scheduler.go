package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/invitations"
)

// Scheduler runs periodic background jobs for the invitation workflow
type Scheduler struct {
	cron       *cron.Cron
	Service    *invitations.Service
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(service *invitations.Service, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Service:    service,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep expired invitations hourly. The lifecycle checks also expire
	// invitations lazily on read, so the sweep only keeps the collection
	// and pending-invitation lists tidy between touches.
	_, err := s.cron.AddFunc("0 * * * *", s.cleanupExpiredInvitations)
	if err != nil {
		zap.S().Errorw("failed to register invitation cleanup job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Invitation scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Invitation scheduler stopped")
}

// cleanupExpiredInvitations marks every overdue pending invitation expired
func (s *Scheduler) cleanupExpiredInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "invitation_cleanup_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for invitation cleanup job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Invitation cleanup job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "invitation_cleanup_job", s.instanceID)

	zap.S().Infow("Running invitation cleanup job", "instance", s.instanceID)

	expired, err := s.Service.CleanupExpired(ctx)
	if err != nil {
		zap.S().Errorw("invitation cleanup failed", "error", err)
		return
	}

	zap.S().Infow("Invitation cleanup complete", "expired", expired)
}
