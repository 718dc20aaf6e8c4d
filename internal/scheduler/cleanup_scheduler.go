package scheduler

import (
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CleanupScheduler periodically purges recipes that have been soft-deleted
// longer than the configured retention window.
type CleanupScheduler struct {
	cron           *cron.Cron
	cleanupService service.CleanupService
	retention      time.Duration
}

func NewCleanupScheduler(cleanupService service.CleanupService, retention time.Duration) *CleanupScheduler {
	return &CleanupScheduler{
		cron:           cron.New(),
		cleanupService: cleanupService,
		retention:      retention,
	}
}

func (s *CleanupScheduler) Start() error {
	// Daily at 4:00 AM, when traffic is lowest.
	_, err := s.cron.AddFunc("0 4 * * *", func() {
		logger.Info("Starting scheduled recipe purge", nil)

		purged, err := s.cleanupService.PurgeDeletedRecipes(s.retention)
		if err != nil {
			logger.Error("Scheduled recipe purge failed", err)
			return
		}

		logger.Info("Scheduled recipe purge finished", map[string]interface{}{
			"purged": purged,
		})
	})
	if err != nil {
		logger.Error("Failed to register recipe purge cron job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cleanup scheduler started (daily at 4:00 AM)", nil)
	return nil
}

func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cleanup scheduler stopped", nil)
}
