package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// Package is a tracked physical parcel awaiting customer pickup.
type Package struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TrackingCode    string              `gorm:"column:tracking_code;type:text;not null"`
	CustomerName    string              `gorm:"column:customer_name;type:text;not null"`
	CustomerPhone   string              `gorm:"column:customer_phone;type:text;not null"`
	CustomerEmail   *string             `gorm:"column:customer_email;type:text"`
	CourierID       *uuid.UUID          `gorm:"column:courier_id;type:uuid"`
	LocationID      *uuid.UUID          `gorm:"column:location_id;type:uuid"`
	Status          enums.PackageStatus `gorm:"column:status;type:package_status;not null"`
	ExpectedArrival *time.Time          `gorm:"column:expected_arrival;type:timestamptz"`
	Notes           *string             `gorm:"column:notes;type:text"`
	SignatureRef    *string             `gorm:"column:signature_ref;type:text"`
	PhotoRef        *string             `gorm:"column:photo_ref;type:text"`
	QRCodeRef       *string             `gorm:"column:qr_code_ref;type:text"`
	ArchivedAt      *time.Time          `gorm:"column:archived_at;type:timestamptz"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Archived reports whether the package has been soft-archived.
func (p Package) Archived() bool {
	return p.ArchivedAt != nil
}

// ReferenceTime is the timestamp the expiration sweep measures storage age
// against: expected arrival when known, else last update, else creation.
func (p Package) ReferenceTime() time.Time {
	if p.ExpectedArrival != nil {
		return *p.ExpectedArrival
	}
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}
