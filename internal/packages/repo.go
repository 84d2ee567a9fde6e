package packages

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

// ListFilters narrows a package listing. Zero values mean "no filter".
type ListFilters struct {
	Statuses        []enums.PackageStatus
	CourierID       *uuid.UUID
	LocationID      *uuid.UUID
	Search          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	UpdatedFrom     *time.Time
	UpdatedTo       *time.Time
	ExpectedFrom    *time.Time
	ExpectedTo      *time.Time
	IncludeArchived bool
	HasSignature    *bool
	HasPhoto        *bool
}

// ListParams combines filters with cursor pagination.
type ListParams struct {
	Filters ListFilters
	Limit   int
	Cursor  *pagination.Cursor
}

// Repository defines persistence operations for packages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pkg *models.Package) (*models.Package, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Package, error)
	FindByTrackingCode(ctx context.Context, trackingCode string) (*models.Package, error)
	List(ctx context.Context, params ListParams) ([]models.Package, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PackageStatus) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindStorageCandidates(ctx context.Context, cutoff time.Time) ([]models.Package, error)
	FindPickedUpBefore(ctx context.Context, cutoff time.Time) ([]models.Package, error)
	CountByStatus(ctx context.Context, includeArchived bool) (map[enums.PackageStatus]int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a package repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, pkg *models.Package) (*models.Package, error) {
	if err := r.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return nil, err
	}
	return pkg, nil
}

func (r *repositoryImpl) Find(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repositoryImpl) FindByTrackingCode(ctx context.Context, trackingCode string) (*models.Package, error) {
	var pkg models.Package
	err := r.db.WithContext(ctx).
		Where("lower(tracking_code) = lower(?)", strings.TrimSpace(trackingCode)).
		First(&pkg).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repositoryImpl) List(ctx context.Context, params ListParams) ([]models.Package, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.Package{}), params.Filters)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var pkgs []models.Package
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&pkgs).Error; err != nil {
		return nil, nil, err
	}

	pkgs, next := pagination.TrimPage(pkgs, params.Limit, func(p models.Package) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return pkgs, next, nil
}

func (r *repositoryImpl) applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if !filters.IncludeArchived {
		query = query.Where("archived_at IS NULL")
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}
	if filters.CourierID != nil {
		query = query.Where("courier_id = ?", *filters.CourierID)
	}
	if filters.LocationID != nil {
		query = query.Where("location_id = ?", *filters.LocationID)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(tracking_code) LIKE ? OR lower(customer_name) LIKE ?", pattern, pattern)
	}
	if filters.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filters.CreatedFrom)
	}
	if filters.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filters.CreatedTo)
	}
	if filters.UpdatedFrom != nil {
		query = query.Where("updated_at >= ?", *filters.UpdatedFrom)
	}
	if filters.UpdatedTo != nil {
		query = query.Where("updated_at <= ?", *filters.UpdatedTo)
	}
	if filters.ExpectedFrom != nil {
		query = query.Where("expected_arrival >= ?", *filters.ExpectedFrom)
	}
	if filters.ExpectedTo != nil {
		query = query.Where("expected_arrival <= ?", *filters.ExpectedTo)
	}
	if filters.HasSignature != nil {
		if *filters.HasSignature {
			query = query.Where("signature_ref IS NOT NULL")
		} else {
			query = query.Where("signature_ref IS NULL")
		}
	}
	if filters.HasPhoto != nil {
		if *filters.HasPhoto {
			query = query.Where("photo_ref IS NOT NULL")
		} else {
			query = query.Where("photo_ref IS NULL")
		}
	}
	return query
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PackageStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Package{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Package{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Package{}).Error
}

// FindStorageCandidates returns non-archived in_storage packages whose
// reference timestamp is older than the cutoff. The reference timestamp is
// expected_arrival when set, else updated_at, else created_at.
func (r *repositoryImpl) FindStorageCandidates(ctx context.Context, cutoff time.Time) ([]models.Package, error) {
	var pkgs []models.Package
	err := r.db.WithContext(ctx).
		Where("status = ? AND archived_at IS NULL", enums.PackageStatusInStorage).
		Where("COALESCE(expected_arrival, updated_at, created_at) <= ?", cutoff).
		Order("created_at ASC").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (r *repositoryImpl) FindPickedUpBefore(ctx context.Context, cutoff time.Time) ([]models.Package, error) {
	var pkgs []models.Package
	err := r.db.WithContext(ctx).
		Where("status = ? AND archived_at IS NULL AND updated_at <= ?", enums.PackageStatusPickedUp, cutoff).
		Order("created_at ASC").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (r *repositoryImpl) CountByStatus(ctx context.Context, includeArchived bool) (map[enums.PackageStatus]int64, error) {
	type row struct {
		Status enums.PackageStatus
		Total  int64
	}
	query := r.db.WithContext(ctx).
		Model(&models.Package{}).
		Select("status, count(*) as total").
		Group("status")
	if !includeArchived {
		query = query.Where("archived_at IS NULL")
	}

	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.PackageStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
