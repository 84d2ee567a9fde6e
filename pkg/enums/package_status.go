package enums

import "fmt"

// PackageStatus maps to the package_status enum in Postgres.
type PackageStatus string

const (
	PackageStatusIncoming       PackageStatus = "incoming"
	PackageStatusDelivered      PackageStatus = "delivered"
	PackageStatusInStorage      PackageStatus = "in_storage"
	PackageStatusPickedUp       PackageStatus = "picked_up"
	PackageStatusStorageExpired PackageStatus = "storage_expired"
)

var validPackageStatuses = []PackageStatus{
	PackageStatusIncoming,
	PackageStatusDelivered,
	PackageStatusInStorage,
	PackageStatusPickedUp,
	PackageStatusStorageExpired,
}

// IsValid checks whether the given status matches the canonical enum.
func (s PackageStatus) IsValid() bool {
	for _, candidate := range validPackageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the pickup lifecycle.
func (s PackageStatus) IsTerminal() bool {
	return s == PackageStatusPickedUp
}

// ParsePackageStatus converts raw strings into PackageStatus.
func ParsePackageStatus(value string) (PackageStatus, error) {
	for _, candidate := range validPackageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package status %q", value)
}

// PackageStatuses returns the canonical status vocabulary in declaration order.
func PackageStatuses() []PackageStatus {
	out := make([]PackageStatus, len(validPackageStatuses))
	copy(out, validPackageStatuses)
	return out
}
