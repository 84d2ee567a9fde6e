package enums

import "fmt"

// DeliveryOutcome records how a notification attempt on a single channel
// ended. Manual means automated delivery was unavailable and a human-actionable
// deep link was produced instead; it is deliberately distinct from both sent
// and failed.
type DeliveryOutcome string

const (
	DeliveryOutcomeSent    DeliveryOutcome = "sent"
	DeliveryOutcomeFailed  DeliveryOutcome = "failed"
	DeliveryOutcomeManual  DeliveryOutcome = "manual"
	DeliveryOutcomeSkipped DeliveryOutcome = "skipped"
)

var validDeliveryOutcomes = []DeliveryOutcome{
	DeliveryOutcomeSent,
	DeliveryOutcomeFailed,
	DeliveryOutcomeManual,
	DeliveryOutcomeSkipped,
}

// IsValid checks whether the given outcome matches the canonical enum.
func (d DeliveryOutcome) IsValid() bool {
	for _, candidate := range validDeliveryOutcomes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryOutcome converts raw strings into DeliveryOutcome.
func ParseDeliveryOutcome(value string) (DeliveryOutcome, error) {
	for _, candidate := range validDeliveryOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery outcome %q", value)
}
