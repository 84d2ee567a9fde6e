package enums

import "fmt"

// EventType maps to the package_event_type enum in Postgres. Events form the
// append-only audit trail for a package.
type EventType string

const (
	EventTypeCreated          EventType = "created"
	EventTypeStatusChanged    EventType = "status_changed"
	EventTypeEdited           EventType = "edited"
	EventTypeOTPGenerated     EventType = "otp_generated"
	EventTypeOTPConfirmed     EventType = "otp_confirmed"
	EventTypeQRGenerated      EventType = "qr_generated"
	EventTypeSignatureCaptured EventType = "signature_captured"
	EventTypePhotoCaptured    EventType = "photo_captured"
	EventTypeNotificationSent EventType = "notification_sent"
	EventTypeIssueReported    EventType = "issue_reported"
	EventTypeArchived         EventType = "archived"
	EventTypeUnarchived       EventType = "unarchived"
)

var validEventTypes = []EventType{
	EventTypeCreated,
	EventTypeStatusChanged,
	EventTypeEdited,
	EventTypeOTPGenerated,
	EventTypeOTPConfirmed,
	EventTypeQRGenerated,
	EventTypeSignatureCaptured,
	EventTypePhotoCaptured,
	EventTypeNotificationSent,
	EventTypeIssueReported,
	EventTypeArchived,
	EventTypeUnarchived,
}

// IsValid checks whether the given type matches the canonical enum.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventType converts raw strings into EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
