package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// PickupCode is a one-time verification code tied to exactly one package.
// Only the salted hash of the code is ever stored.
type PickupCode struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID   uuid.UUID     `gorm:"column:package_id;type:uuid;not null"`
	CodeHash    string        `gorm:"column:code_hash;type:text;not null"`
	ExpiresAt   time.Time     `gorm:"column:expires_at;type:timestamptz;not null"`
	Attempts    int           `gorm:"column:attempts;not null;default:0"`
	MaxAttempts int           `gorm:"column:max_attempts;not null;default:5"`
	Channel     enums.Channel `gorm:"column:channel;type:notification_channel;not null"`
	ConsumedAt  *time.Time    `gorm:"column:consumed_at;type:timestamptz"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
}

// Active reports whether the code can still be verified at the given instant.
func (c PickupCode) Active(now time.Time) bool {
	return c.ConsumedAt == nil && c.ExpiresAt.After(now)
}

// Locked reports whether the attempt ceiling has been reached.
func (c PickupCode) Locked() bool {
	return c.Attempts >= c.MaxAttempts
}
