package store

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mergewarden/mergewarden/pkg/logger"
)

// cleanupSchedule runs the retention sweep nightly, off-peak
const cleanupSchedule = "0 3 * * *"

// RetentionCleaner periodically removes run history past the retention
// window
type RetentionCleaner struct {
	store         RunStore
	retentionDays int
	cron          *cron.Cron
}

// NewRetentionCleaner creates a cleaner that keeps retentionDays of history
func NewRetentionCleaner(store RunStore, retentionDays int) *RetentionCleaner {
	return &RetentionCleaner{
		store:         store,
		retentionDays: retentionDays,
		cron:          cron.New(),
	}
}

// Start schedules the nightly sweep and runs one immediately to catch up
// after downtime
func (c *RetentionCleaner) Start() error {
	if c.retentionDays <= 0 {
		logger.Info("run history retention disabled")
		return nil
	}

	if _, err := c.cron.AddFunc(cleanupSchedule, c.Sweep); err != nil {
		return err
	}
	c.cron.Start()

	go c.Sweep()

	logger.Info("run history retention cleaner started",
		zap.Int("retention_days", c.retentionDays),
		zap.String("schedule", cleanupSchedule))
	return nil
}

// Stop halts the schedule; a sweep in flight finishes
func (c *RetentionCleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// Sweep deletes runs older than the retention window
func (c *RetentionCleaner) Sweep() {
	cutoff := time.Now().AddDate(0, 0, -c.retentionDays)

	deleted, err := c.store.DeleteOlderThan(cutoff)
	if err != nil {
		logger.Warn("run history cleanup failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		logger.Info("run history cleanup completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
