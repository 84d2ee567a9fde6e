package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

const defaultArchiveRetentionDays = 30

type pickedUpReader interface {
	FindPickedUpBefore(ctx context.Context, cutoff time.Time) ([]models.Package, error)
}

type archivePackageRepo interface {
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type archiveRepoFactory func(tx *gorm.DB) (archivePackageRepo, transactionalHistoryRepo)

func defaultArchiveRepos(tx *gorm.DB) (archivePackageRepo, transactionalHistoryRepo) {
	return packages.NewRepository(tx), history.NewRepository(tx)
}

// ArchiveJobParams configure the picked-up package archiver.
type ArchiveJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Reader      pickedUpReader
	RepoFactory archiveRepoFactory
	Retention   int
}

// NewArchiveJob builds the job that soft-archives packages picked up longer
// ago than the retention window.
func NewArchiveJob(params ArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("picked-up reader required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultArchiveRetentionDays
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultArchiveRepos
	}
	return &archiveJob{
		logg:        params.Logger,
		db:          params.DB,
		reader:      params.Reader,
		repoFactory: repoFactory,
		retention:   retention,
		now:         time.Now,
	}, nil
}

type archiveJob struct {
	logg        *logger.Logger
	db          txRunner
	reader      pickedUpReader
	repoFactory archiveRepoFactory
	retention   int
	now         func() time.Time
}

func (j *archiveJob) Name() string { return "archive-picked-up" }

func (j *archiveJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.retention) * 24 * time.Hour)
	stale, err := j.reader.FindPickedUpBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query picked-up packages: %w", err)
	}

	metadata, err := json.Marshal(map[string]any{"reason": "retention", "retention_days": j.retention})
	if err != nil {
		return fmt.Errorf("marshal archive metadata: %w", err)
	}

	archived := 0
	var errs []error
	for i := range stale {
		pkg := stale[i]
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			pkgRepo, histRepo := j.repoFactory(tx)
			if err := pkgRepo.Update(ctx, pkg.ID, map[string]any{"archived_at": now}); err != nil {
				return fmt.Errorf("set archived_at: %w", err)
			}
			event := &models.PackageEvent{
				PackageID: pkg.ID,
				Type:      enums.EventTypeArchived,
				Metadata:  metadata,
			}
			if err := histRepo.Append(ctx, event); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("archive package %s: %w", pkg.ID, err))
			continue
		}
		archived++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"archived":       archived,
	})
	j.logg.Info(logCtx, "archive sweep complete")
	return multierr.Combine(errs...)
}
