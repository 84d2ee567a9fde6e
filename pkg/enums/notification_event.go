package enums

import "fmt"

// NotificationEvent identifies the business event a customer message is about.
type NotificationEvent string

const (
	NotificationEventArrived        NotificationEvent = "arrived"
	NotificationEventPickedUp       NotificationEvent = "picked_up"
	NotificationEventStorageWarning NotificationEvent = "storage_warning"
	NotificationEventStorageExpired NotificationEvent = "storage_expired"
	NotificationEventOTPGenerated   NotificationEvent = "otp_generated"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventArrived,
	NotificationEventPickedUp,
	NotificationEventStorageWarning,
	NotificationEventStorageExpired,
	NotificationEventOTPGenerated,
}

// IsValid checks whether the given event matches the canonical enum.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw strings into NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
