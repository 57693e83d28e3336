package store

import (
	"context"
	"fmt"

	"github.com/hostpulse/hostpulse/share/logger"
)

// CleanupTask trims benchmark history past the configured retention.
type CleanupTask struct {
	log     *logger.Logger
	service Service
	days    int64
}

func NewCleanupTask(log *logger.Logger, service Service, days int64) *CleanupTask {
	return &CleanupTask{
		log:     log,
		service: service,
		days:    days,
	}
}

func (t *CleanupTask) Run(ctx context.Context) error {
	deletedRecords, err := t.service.DeleteBandwidthRecordsOlderThanDays(ctx, t.days)
	if err != nil {
		return fmt.Errorf("failed to cleanup bandwidth records: %v", err)
	}
	t.log.Debugf("store.CleanupTask: %d bandwidth records deleted", deletedRecords)
	return nil
}
