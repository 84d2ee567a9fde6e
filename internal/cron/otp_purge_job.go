package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

const defaultOTPRetentionDays = 90

type inactiveCodePurger interface {
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OTPPurgeJobParams configure the pickup code purge.
type OTPPurgeJobParams struct {
	Logger    *logger.Logger
	Purger    inactiveCodePurger
	Retention int
}

// NewOTPPurgeJob builds the job that deletes consumed and expired pickup
// codes older than the retention window. Active codes are never touched.
func NewOTPPurgeJob(params OTPPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("code purger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOTPRetentionDays
	}
	return &otpPurgeJob{
		logg:      params.Logger,
		purger:    params.Purger,
		retention: retention,
		now:       time.Now,
	}, nil
}

type otpPurgeJob struct {
	logg      *logger.Logger
	purger    inactiveCodePurger
	retention int
	now       func() time.Time
}

func (j *otpPurgeJob) Name() string { return "otp-purge" }

func (j *otpPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.purger.DeleteInactiveOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("otp purge: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "pickup code purge complete")
	return nil
}
