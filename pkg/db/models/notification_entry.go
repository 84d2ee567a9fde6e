package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// NotificationEntry is an immutable audit record of one attempted customer
// message on one channel. Append-only.
type NotificationEntry struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID uuid.UUID               `gorm:"column:package_id;type:uuid;not null"`
	Event     enums.NotificationEvent `gorm:"column:event;type:notification_event;not null"`
	Channel   enums.Channel           `gorm:"column:channel;type:notification_channel;not null"`
	Outcome   enums.DeliveryOutcome   `gorm:"column:outcome;type:delivery_outcome;not null"`
	Recipient *string                 `gorm:"column:recipient;type:text"`
	Subject   *string                 `gorm:"column:subject;type:text"`
	Body      *string                 `gorm:"column:body;type:text"`
	Metadata  json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
