package packages

import (
	"testing"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from    enums.PackageStatus
		to      enums.PackageStatus
		allowed bool
	}{
		{enums.PackageStatusIncoming, enums.PackageStatusDelivered, true},
		{enums.PackageStatusIncoming, enums.PackageStatusInStorage, true},
		{enums.PackageStatusIncoming, enums.PackageStatusPickedUp, true},
		{enums.PackageStatusIncoming, enums.PackageStatusStorageExpired, false},
		{enums.PackageStatusDelivered, enums.PackageStatusInStorage, true},
		{enums.PackageStatusDelivered, enums.PackageStatusPickedUp, true},
		{enums.PackageStatusDelivered, enums.PackageStatusIncoming, false},
		{enums.PackageStatusInStorage, enums.PackageStatusPickedUp, true},
		{enums.PackageStatusInStorage, enums.PackageStatusStorageExpired, true},
		{enums.PackageStatusInStorage, enums.PackageStatusDelivered, false},
		{enums.PackageStatusPickedUp, enums.PackageStatusInStorage, false},
		{enums.PackageStatusPickedUp, enums.PackageStatusIncoming, false},
		{enums.PackageStatusStorageExpired, enums.PackageStatusInStorage, false},
		{enums.PackageStatusStorageExpired, enums.PackageStatusPickedUp, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestValidateTransitionSameStatusIsNoop(t *testing.T) {
	if err := ValidateTransition(enums.PackageStatusInStorage, enums.PackageStatusInStorage); err != nil {
		t.Fatalf("same status should not error: %v", err)
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := ValidateTransition(enums.PackageStatusIncoming, enums.PackageStatus("teleported"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestValidateTransitionOutOfExpired(t *testing.T) {
	err := ValidateTransition(enums.PackageStatusStorageExpired, enums.PackageStatusInStorage)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}
