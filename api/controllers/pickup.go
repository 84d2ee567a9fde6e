package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/api/responses"
	"github.com/parcelhub/parcelhub-backend/api/validators"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type confirmPickupRequest struct {
	Code        string     `json:"code" validate:"required"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// ConfirmPickup verifies the customer-supplied pickup code and hands the
// package over. Code failures are reported with one generic message so the
// response does not reveal whether a code exists for the package.
func ConfirmPickup(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmPickupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkg, err := svc.ConfirmPickup(r.Context(), packages.ConfirmPickupInput{
			PackageID:   id,
			Code:        req.Code,
			ActorUserID: req.ActorUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, maskCodeError(err))
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

type confirmPickupByQRRequest struct {
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// ConfirmPickupByQR hands the package over after a staff QR scan. No pickup
// code is required on this path.
func ConfirmPickupByQR(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmPickupByQRRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		pkg, err := svc.ConfirmPickupByQR(r.Context(), id, req.ActorUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

// maskCodeError collapses code mismatches and missing-code lookups into one
// indistinguishable validation failure. Attempt exhaustion and state
// conflicts keep their own codes.
func maskCodeError(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired code")
	}
	return err
}
