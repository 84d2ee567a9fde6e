package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
)

// Repository exposes persistence for pickup codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.PickupCode) error
	FindActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (*models.PickupCode, error)
	ExpireActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (int64, error)
	RecordFailedAttempt(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID, now time.Time) error
	CountActive(ctx context.Context, now time.Time) (int64, error)
	DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a pickup code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, code *models.PickupCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repositoryImpl) FindActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (*models.PickupCode, error) {
	var code models.PickupCode
	err := r.db.WithContext(ctx).
		Where("package_id = ? AND consumed_at IS NULL AND expires_at > ?", packageID, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *repositoryImpl) ExpireActiveByPackage(ctx context.Context, packageID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PickupCode{}).
		Where("package_id = ? AND consumed_at IS NULL AND expires_at > ?", packageID, now).
		UpdateColumn("expires_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) RecordFailedAttempt(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PickupCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *repositoryImpl) Consume(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PickupCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		UpdateColumns(map[string]any{
			"consumed_at": now,
			"attempts":    gorm.Expr("attempts + 1"),
		}).Error
}

func (r *repositoryImpl) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PickupCode{}).
		Where("consumed_at IS NULL AND expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ? AND (consumed_at IS NOT NULL OR expires_at < ?)", cutoff, cutoff).
		Delete(&models.PickupCode{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
