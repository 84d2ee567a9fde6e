package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

// Repository exposes persistence for the append-only package event log.
// Entries are only ever inserted; there are no update or delete paths.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, event *models.PackageEvent) error
	ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.PackageEvent, *pagination.Cursor, error)
}

// ListParams controls event log pagination.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Append(ctx context.Context, event *models.PackageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repositoryImpl) ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.PackageEvent, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.PackageEvent{}).Where("package_id = ?", packageID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var events []models.PackageEvent
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	events, next := pagination.TrimPage(events, params.Limit, func(e models.PackageEvent) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return events, next, nil
}
