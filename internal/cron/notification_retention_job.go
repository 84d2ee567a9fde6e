package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

const defaultNotificationRetentionDays = 180

type notificationLogPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetentionJobParams configure the notification log pruning.
type NotificationRetentionJobParams struct {
	Logger    *logger.Logger
	Pruner    notificationLogPruner
	Retention int
}

// NewNotificationRetentionJob builds the job that prunes old notification
// log entries.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pruner == nil {
		return nil, fmt.Errorf("notification pruner required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetentionDays
	}
	return &notificationRetentionJob{
		logg:      params.Logger,
		pruner:    params.Pruner,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationRetentionJob struct {
	logg      *logger.Logger
	pruner    notificationLogPruner
	retention int
	now       func() time.Time
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification log pruning complete")
	return nil
}
