package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type fakePickedUpReader struct {
	packages []models.Package
	err      error
	cutoff   time.Time
}

func (f *fakePickedUpReader) FindPickedUpBefore(_ context.Context, cutoff time.Time) ([]models.Package, error) {
	f.cutoff = cutoff
	return f.packages, f.err
}

type fakeArchivePackageRepo struct {
	updates map[uuid.UUID]map[string]any
}

func (f *fakeArchivePackageRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates[id] = updates
	return nil
}

func newArchiveJob(t *testing.T, reader *fakePickedUpReader, pkgRepo *fakeArchivePackageRepo, histRepo *fakeSweepHistoryRepo) *archiveJob {
	t.Helper()
	jobIface, err := NewArchiveJob(ArchiveJobParams{
		Logger: logger.New(logger.Options{ServiceName: "archive-test"}),
		DB:     fakeTxRunner{},
		Reader: reader,
		RepoFactory: func(*gorm.DB) (archivePackageRepo, transactionalHistoryRepo) {
			return pkgRepo, histRepo
		},
		Retention: 30,
	})
	if err != nil {
		t.Fatalf("NewArchiveJob: %v", err)
	}
	job, ok := jobIface.(*archiveJob)
	if !ok {
		t.Fatalf("expected archiveJob, got %T", jobIface)
	}
	return job
}

func TestArchiveJobArchivesStalePickedUpPackages(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stale := models.Package{ID: uuid.New(), Status: enums.PackageStatusPickedUp}
	reader := &fakePickedUpReader{packages: []models.Package{stale}}
	pkgRepo := &fakeArchivePackageRepo{updates: map[uuid.UUID]map[string]any{}}
	histRepo := &fakeSweepHistoryRepo{}
	job := newArchiveJob(t, reader, pkgRepo, histRepo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-30 * 24 * time.Hour)
	if !reader.cutoff.Equal(expectedCutoff) {
		t.Fatalf("cutoff = %s, want %s", reader.cutoff, expectedCutoff)
	}
	updates, ok := pkgRepo.updates[stale.ID]
	if !ok {
		t.Fatal("expected package updated")
	}
	if _, ok := updates["archived_at"]; !ok {
		t.Fatal("expected archived_at in updates")
	}
	if len(histRepo.events) != 1 || histRepo.events[0].Type != enums.EventTypeArchived {
		t.Fatalf("expected one archived event, got %+v", histRepo.events)
	}
}

func TestArchiveJobPropagatesReaderError(t *testing.T) {
	reader := &fakePickedUpReader{err: errors.New("boom")}
	pkgRepo := &fakeArchivePackageRepo{updates: map[uuid.UUID]map[string]any{}}
	job := newArchiveJob(t, reader, pkgRepo, &fakeSweepHistoryRepo{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
