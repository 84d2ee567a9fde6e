package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/metrics"
)

const (
	defaultGraceDays     = 15
	defaultWarningWindow = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storageCandidateReader interface {
	FindStorageCandidates(ctx context.Context, cutoff time.Time) ([]models.Package, error)
}

type transactionalPackageRepo interface {
	UpdateStatus(ctx context.Context, packageID uuid.UUID, status enums.PackageStatus) error
}

type transactionalHistoryRepo interface {
	Append(ctx context.Context, event *models.PackageEvent) error
}

type sweepRepoFactory func(tx *gorm.DB) (transactionalPackageRepo, transactionalHistoryRepo)

func defaultSweepRepos(tx *gorm.DB) (transactionalPackageRepo, transactionalHistoryRepo) {
	return packages.NewRepository(tx), history.NewRepository(tx)
}

type sweepNotifier interface {
	Notify(ctx context.Context, pkg *models.Package, event enums.NotificationEvent, tctx notify.TemplateContext, channels []enums.Channel) []notify.Delivery
	LastEntryWithin(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, window time.Duration) (*models.NotificationEntry, error)
}

type locationNamer interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error)
}

// StorageExpiryJobParams configure the storage expiration sweep.
type StorageExpiryJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Reader        storageCandidateReader
	Notifier      sweepNotifier
	Locations     locationNamer
	Metrics       *metrics.CronJobMetrics
	RepoFactory   sweepRepoFactory
	GraceDays     int
	WarningWindow time.Duration
}

// SweepResult summarizes one pass of the expiration sweep.
type SweepResult struct {
	Processed int
	Warned    int
	Expired   int
}

// NewStorageExpiryJob builds the job that warns about and expires packages
// that have sat in storage past the grace period.
func NewStorageExpiryJob(params StorageExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("storage candidate reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	graceDays := params.GraceDays
	if graceDays <= 0 {
		graceDays = defaultGraceDays
	}
	warningWindow := params.WarningWindow
	if warningWindow <= 0 {
		warningWindow = defaultWarningWindow
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultSweepRepos
	}
	return &storageExpiryJob{
		logg:          params.Logger,
		db:            params.DB,
		reader:        params.Reader,
		notifier:      params.Notifier,
		locations:     params.Locations,
		metrics:       params.Metrics,
		repoFactory:   repoFactory,
		graceDays:     graceDays,
		warningWindow: warningWindow,
		now:           time.Now,
	}, nil
}

type storageExpiryJob struct {
	logg          *logger.Logger
	db            txRunner
	reader        storageCandidateReader
	notifier      sweepNotifier
	locations     locationNamer
	metrics       *metrics.CronJobMetrics
	repoFactory   sweepRepoFactory
	graceDays     int
	warningWindow time.Duration
	now           func() time.Time
}

func (j *storageExpiryJob) Name() string { return "storage-expiry" }

func (j *storageExpiryJob) Run(ctx context.Context) error {
	result, err := j.Sweep(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed":  result.Processed,
		"warned":     result.Warned,
		"expired":    result.Expired,
		"grace_days": j.graceDays,
	})
	j.logg.Info(logCtx, "storage expiration sweep complete")
	j.metrics.AddSwept("processed", result.Processed)
	j.metrics.AddSwept("warned", result.Warned)
	j.metrics.AddSwept("expired", result.Expired)
	return err
}

// Sweep selects every non-archived in_storage package whose reference
// timestamp is older than now minus the grace period, sends at most one
// storage warning per package per warning window, and expires each candidate.
// A failure on one package does not stop the sweep for the rest.
func (j *storageExpiryJob) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.graceDays) * 24 * time.Hour)

	candidates, err := j.reader.FindStorageCandidates(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("query storage candidates: %w", err)
	}

	var errs []error
	for i := range candidates {
		pkg := &candidates[i]
		result.Processed++
		pkgCtx := j.logg.WithPackageID(ctx, pkg.ID.String())
		pkgCtx = j.logg.WithTrackingCode(pkgCtx, pkg.TrackingCode)

		daysStored := int(now.Sub(pkg.ReferenceTime().UTC()).Hours() / 24)

		warned, err := j.warnIfDue(pkgCtx, pkg, daysStored)
		if err != nil {
			errs = append(errs, fmt.Errorf("warn package %s: %w", pkg.ID, err))
		}
		if warned {
			result.Warned++
		}

		if err := j.expire(pkgCtx, pkg, daysStored); err != nil {
			errs = append(errs, fmt.Errorf("expire package %s: %w", pkg.ID, err))
			continue
		}
		result.Expired++
	}
	return result, multierr.Combine(errs...)
}

// warnIfDue sends a storage warning unless one was already logged within the
// warning window. Warnings are best effort and never block expiration.
func (j *storageExpiryJob) warnIfDue(ctx context.Context, pkg *models.Package, daysStored int) (bool, error) {
	last, err := j.notifier.LastEntryWithin(ctx, pkg.ID, enums.NotificationEventStorageWarning, j.warningWindow)
	if err != nil {
		return false, fmt.Errorf("check last warning: %w", err)
	}
	if last != nil {
		return false, nil
	}
	j.notifier.Notify(ctx, pkg, enums.NotificationEventStorageWarning, j.templateContext(ctx, pkg, daysStored), nil)
	return true, nil
}

func (j *storageExpiryJob) expire(ctx context.Context, pkg *models.Package, daysStored int) error {
	prev := pkg.Status
	newStatus := enums.PackageStatusStorageExpired
	metadata, err := json.Marshal(map[string]any{
		"days_stored": daysStored,
		"grace_days":  j.graceDays,
	})
	if err != nil {
		return fmt.Errorf("marshal sweep metadata: %w", err)
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		pkgRepo, histRepo := j.repoFactory(tx)
		if err := pkgRepo.UpdateStatus(ctx, pkg.ID, newStatus); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		event := &models.PackageEvent{
			PackageID:  pkg.ID,
			Type:       enums.EventTypeStatusChanged,
			PrevStatus: &prev,
			NewStatus:  &newStatus,
			Metadata:   metadata,
		}
		if err := histRepo.Append(ctx, event); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkg.Status = newStatus
	j.notifier.Notify(ctx, pkg, enums.NotificationEventStorageExpired, j.templateContext(ctx, pkg, daysStored), nil)
	j.logg.Info(j.logg.WithField(ctx, "days_stored", daysStored), "package expired from storage")
	return nil
}

func (j *storageExpiryJob) templateContext(ctx context.Context, pkg *models.Package, daysStored int) notify.TemplateContext {
	tctx := notify.TemplateContext{
		"customer_name": pkg.CustomerName,
		"tracking_code": pkg.TrackingCode,
		"days_stored":   strconv.Itoa(daysStored),
	}
	if j.locations != nil && pkg.LocationID != nil {
		if location, err := j.locations.Get(ctx, *pkg.LocationID); err == nil && location != nil {
			tctx["location"] = location.Name
		}
	}
	return tctx
}
