package couriers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for couriers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, courier *models.Courier) (*models.Courier, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	List(ctx context.Context) ([]models.Courier, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a courier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, courier *models.Courier) (*models.Courier, error) {
	if err := r.db.WithContext(ctx).Create(courier).Error; err != nil {
		return nil, err
	}
	return courier, nil
}

func (r *repositoryImpl) Find(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&courier).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Courier, error) {
	var couriers []models.Courier
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&couriers).Error; err != nil {
		return nil, err
	}
	return couriers, nil
}

func (r *repositoryImpl) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Courier{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
