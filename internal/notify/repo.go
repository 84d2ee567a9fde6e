package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

// Repository exposes persistence for the notification audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.NotificationEntry) error
	LastEntrySince(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, since time.Time) (*models.NotificationEntry, error)
	ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.NotificationEntry, *pagination.Cursor, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListParams controls notification log pagination.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notification log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, entry *models.NotificationEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) LastEntrySince(ctx context.Context, packageID uuid.UUID, event enums.NotificationEvent, since time.Time) (*models.NotificationEntry, error) {
	var entry models.NotificationEntry
	err := r.db.WithContext(ctx).
		Where("package_id = ? AND event = ? AND created_at >= ?", packageID, event, since).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) ListByPackage(ctx context.Context, packageID uuid.UUID, params ListParams) ([]models.NotificationEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.NotificationEntry{}).Where("package_id = ?", packageID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.NotificationEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	entries, next := pagination.TrimPage(entries, params.Limit, func(e models.NotificationEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return entries, next, nil
}

func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.NotificationEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
