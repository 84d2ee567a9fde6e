package packages

import (
	"fmt"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

// allowedTransitions is the full status graph. A status missing from the map
// (or an empty set) admits no outgoing transition.
var allowedTransitions = map[enums.PackageStatus]map[enums.PackageStatus]bool{
	enums.PackageStatusIncoming: {
		enums.PackageStatusDelivered: true,
		enums.PackageStatusInStorage: true,
		enums.PackageStatusPickedUp:  true,
	},
	enums.PackageStatusDelivered: {
		enums.PackageStatusInStorage: true,
		enums.PackageStatusPickedUp:  true,
	},
	enums.PackageStatusInStorage: {
		enums.PackageStatusPickedUp:       true,
		enums.PackageStatusStorageExpired: true,
	},
	enums.PackageStatusPickedUp:       {},
	enums.PackageStatusStorageExpired: {},
}

// CanTransition reports whether the status graph admits from -> to.
// Equal statuses are not a transition; callers treat them as a no-op.
func CanTransition(from, to enums.PackageStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// ValidateTransition returns a typed error when from -> to is not admitted.
// storage_expired has no outgoing edges; leaving it requires a manual edit
// outside the state machine.
func ValidateTransition(from, to enums.PackageStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown package status %q", to))
	}
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transition %s -> %s not allowed", from, to))
	}
	return nil
}
