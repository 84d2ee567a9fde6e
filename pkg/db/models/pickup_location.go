package models

import (
	"time"

	"github.com/google/uuid"
)

// PickupLocation is a reference entity describing where packages are held.
type PickupLocation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Address   *string   `gorm:"column:address;type:text"`
	Phone     *string   `gorm:"column:phone;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
