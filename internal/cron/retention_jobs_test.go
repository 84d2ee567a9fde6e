package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type fakeRetentionStore struct {
	cutoff  time.Time
	deleted int64
	calls   int
	err     error
}

func (f *fakeRetentionStore) DeleteInactiveOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	f.calls++
	return f.deleted, f.err
}

func (f *fakeRetentionStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	f.calls++
	return f.deleted, f.err
}

func TestOTPPurgeJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeRetentionStore{deleted: 7}
	jobIface, err := NewOTPPurgeJob(OTPPurgeJobParams{
		Logger: logger.New(logger.Options{ServiceName: "purge-test"}),
		Purger: store,
	})
	if err != nil {
		t.Fatalf("NewOTPPurgeJob: %v", err)
	}
	job := jobIface.(*otpPurgeJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-defaultOTPRetentionDays * 24 * time.Hour)
	if !store.cutoff.Equal(expected) {
		t.Fatalf("cutoff = %s, want %s", store.cutoff, expected)
	}
	if store.calls != 1 {
		t.Fatalf("expected one call, got %d", store.calls)
	}
}

func TestOTPPurgeJobPropagatesErrors(t *testing.T) {
	store := &fakeRetentionStore{err: errors.New("boom")}
	jobIface, err := NewOTPPurgeJob(OTPPurgeJobParams{
		Logger: logger.New(logger.Options{ServiceName: "purge-test"}),
		Purger: store,
	})
	if err != nil {
		t.Fatalf("NewOTPPurgeJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNotificationRetentionJobUsesConfiguredRetention(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeRetentionStore{deleted: 12}
	jobIface, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "retention-test"}),
		Pruner:    store,
		Retention: 60,
	})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	job := jobIface.(*notificationRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-60 * 24 * time.Hour)
	if !store.cutoff.Equal(expected) {
		t.Fatalf("cutoff = %s, want %s", store.cutoff, expected)
	}
}
