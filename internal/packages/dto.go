package packages

import (
	"time"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// CreateInput carries the fields a new package is created with. Status
// defaults to incoming when empty.
type CreateInput struct {
	TrackingCode    string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	CourierID       *uuid.UUID
	LocationID      *uuid.UUID
	Status          enums.PackageStatus
	ExpectedArrival *time.Time
	Notes           *string
	ActorUserID     *uuid.UUID
}

// UpdateStatusInput drives one state-machine transition. AutoNotify defaults
// to true; pass a non-nil false to suppress the status-mapped notification.
type UpdateStatusInput struct {
	PackageID   uuid.UUID
	NewStatus   enums.PackageStatus
	AutoNotify  *bool
	GenerateOTP bool
	ActorUserID *uuid.UUID
}

// ConfirmPickupInput confirms a pickup with a customer-supplied code.
type ConfirmPickupInput struct {
	PackageID   uuid.UUID
	Code        string
	ActorUserID *uuid.UUID
}

// EditInput is the admin field-edit path. It bypasses transition validation
// for non-status fields; a status change still goes through the state machine
// unless Force is set (manual recovery out of storage_expired).
type EditInput struct {
	PackageID       uuid.UUID
	CustomerName    *string
	CustomerPhone   *string
	CustomerEmail   *string
	CourierID       *uuid.UUID
	LocationID      *uuid.UUID
	Status          *enums.PackageStatus
	ExpectedArrival *time.Time
	Notes           *string
	Force           bool
	ActorUserID     *uuid.UUID
}

// ListInput combines filters with an encoded cursor.
type ListInput struct {
	Filters ListFilters
	Limit   int
	Cursor  string
}

// PackageList wraps a page of packages plus the next page cursor.
type PackageList struct {
	Packages   []models.Package `json:"packages"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
