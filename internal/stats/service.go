package stats

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

// Range bounds a reporting window. Zero values mean unbounded.
type Range struct {
	From time.Time
	To   time.Time
}

// Report aggregates the operational counters for a reporting window.
type Report struct {
	TotalsByStatus  map[enums.PackageStatus]int64 `json:"totals_by_status"`
	CreatedInRange  int64                         `json:"created_in_range"`
	PickedUpInRange int64                         `json:"picked_up_in_range"`
	ExpiredTotal    int64                         `json:"expired_total"`
	ActiveCodes     int64                         `json:"active_codes"`
	AvgDaysToPickup float64                       `json:"avg_days_to_pickup"`
}

// PackageCounter exposes the status aggregation from the package repository.
type PackageCounter interface {
	CountByStatus(ctx context.Context, includeArchived bool) (map[enums.PackageStatus]int64, error)
}

// CodeCounter reports how many pickup codes are currently active.
type CodeCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// Service computes read-only reports. It never mutates state.
type Service interface {
	Compute(ctx context.Context, r Range) (*Report, error)
}

type service struct {
	db       *gorm.DB
	packages PackageCounter
	codes    CodeCounter
	now      func() time.Time
}

// NewService builds a stats service with the required dependencies.
func NewService(db *gorm.DB, packages PackageCounter, codes CodeCounter) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if packages == nil {
		return nil, fmt.Errorf("package counter required")
	}
	if codes == nil {
		return nil, fmt.Errorf("code counter required")
	}
	return &service{db: db, packages: packages, codes: codes, now: time.Now}, nil
}

func (s *service) Compute(ctx context.Context, r Range) (*Report, error) {
	report := &Report{}

	totals, err := s.packages.CountByStatus(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count packages by status")
	}
	report.TotalsByStatus = totals
	report.ExpiredTotal = totals[enums.PackageStatusStorageExpired]

	created := s.inRange(s.db.WithContext(ctx).Model(&models.Package{}).Where("archived_at IS NULL"), "created_at", r)
	if err := created.Count(&report.CreatedInRange).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count created packages")
	}

	pickedUp := s.inRange(
		s.db.WithContext(ctx).Model(&models.Package{}).
			Where("archived_at IS NULL AND status = ?", enums.PackageStatusPickedUp),
		"updated_at", r,
	)
	if err := pickedUp.Count(&report.PickedUpInRange).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count picked up packages")
	}

	avg, err := s.averageDaysToPickup(ctx, r)
	if err != nil {
		return nil, err
	}
	report.AvgDaysToPickup = avg

	active, err := s.codes.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active pickup codes")
	}
	report.ActiveCodes = active

	return report, nil
}

func (s *service) inRange(query *gorm.DB, column string, r Range) *gorm.DB {
	if !r.From.IsZero() {
		query = query.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		query = query.Where(column+" <= ?", r.To)
	}
	return query
}

// averageDaysToPickup measures creation to the final status update for
// picked-up packages. The update timestamp is the pickup moment because
// picked_up is terminal.
func (s *service) averageDaysToPickup(ctx context.Context, r Range) (float64, error) {
	var pkgs []models.Package
	query := s.inRange(
		s.db.WithContext(ctx).Model(&models.Package{}).
			Where("archived_at IS NULL AND status = ?", enums.PackageStatusPickedUp),
		"updated_at", r,
	)
	if err := query.Find(&pkgs).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load picked up packages")
	}
	if len(pkgs) == 0 {
		return 0, nil
	}

	var totalDays float64
	for _, pkg := range pkgs {
		totalDays += pkg.UpdatedAt.Sub(pkg.CreatedAt).Hours() / 24
	}
	return totalDays / float64(len(pkgs)), nil
}
