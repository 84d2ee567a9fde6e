package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for pickup locations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, location *models.PickupLocation) (*models.PickupLocation, error)
	Find(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error)
	List(ctx context.Context) ([]models.PickupLocation, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a pickup location repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, location *models.PickupLocation) (*models.PickupLocation, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repositoryImpl) Find(ctx context.Context, id uuid.UUID) (*models.PickupLocation, error) {
	var location models.PickupLocation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.PickupLocation, error) {
	var locations []models.PickupLocation
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repositoryImpl) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PickupLocation{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
