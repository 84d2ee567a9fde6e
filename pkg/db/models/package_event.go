package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// PackageEvent is an immutable audit record of any state-affecting event on a
// package. Entries are never updated or deleted.
type PackageEvent struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID   uuid.UUID            `gorm:"column:package_id;type:uuid;not null"`
	Type        enums.EventType      `gorm:"column:type;type:package_event_type;not null"`
	PrevStatus  *enums.PackageStatus `gorm:"column:prev_status;type:package_status"`
	NewStatus   *enums.PackageStatus `gorm:"column:new_status;type:package_status"`
	ActorUserID *uuid.UUID           `gorm:"column:actor_user_id;type:uuid"`
	Metadata    json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
