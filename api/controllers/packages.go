package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parcelhub/parcelhub-backend/api/responses"
	"github.com/parcelhub/parcelhub-backend/api/validators"
	"github.com/parcelhub/parcelhub-backend/internal/otp"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type createPackageRequest struct {
	TrackingCode    string     `json:"tracking_code" validate:"required"`
	CustomerName    string     `json:"customer_name" validate:"required"`
	CustomerPhone   string     `json:"customer_phone" validate:"required"`
	CustomerEmail   *string    `json:"customer_email,omitempty" validate:"omitempty,email"`
	CourierID       *uuid.UUID `json:"courier_id,omitempty"`
	LocationID      *uuid.UUID `json:"location_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	ExpectedArrival *time.Time `json:"expected_arrival,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	ActorUserID     *uuid.UUID `json:"actor_user_id,omitempty"`
}

// CreatePackage registers a new package and kicks off the arrival flow.
func CreatePackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := packages.CreateInput{
			TrackingCode:    req.TrackingCode,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			CourierID:       req.CourierID,
			LocationID:      req.LocationID,
			ExpectedArrival: req.ExpectedArrival,
			Notes:           req.Notes,
			ActorUserID:     req.ActorUserID,
		}
		if req.Status != "" {
			status, err := enums.ParsePackageStatus(req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = status
		}

		pkg, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pkg)
	}
}

// GetPackage fetches one package by id.
func GetPackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pkg, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

// GetPackageByTrackingCode fetches one package by its tracking code,
// case-insensitively.
func GetPackageByTrackingCode(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "trackingCode"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking code is required"))
			return
		}
		pkg, err := svc.GetByTrackingCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

// ListPackages returns a filtered, cursor-paginated page of packages.
func ListPackages(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listInputFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func listInputFromQuery(r *http.Request) (*packages.ListInput, error) {
	var input packages.ListInput

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := enums.ParsePackageStatus(strings.TrimSpace(part))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
			}
			input.Filters.Statuses = append(input.Filters.Statuses, status)
		}
	}

	var err error
	if input.Filters.CourierID, err = uuidQuery(r, "courier_id"); err != nil {
		return nil, err
	}
	if input.Filters.LocationID, err = uuidQuery(r, "location_id"); err != nil {
		return nil, err
	}
	input.Filters.Search = strings.TrimSpace(r.URL.Query().Get("q"))

	if input.Filters.CreatedFrom, err = timeQuery(r, "created_from"); err != nil {
		return nil, err
	}
	if input.Filters.CreatedTo, err = timeQuery(r, "created_to"); err != nil {
		return nil, err
	}
	if input.Filters.UpdatedFrom, err = timeQuery(r, "updated_from"); err != nil {
		return nil, err
	}
	if input.Filters.UpdatedTo, err = timeQuery(r, "updated_to"); err != nil {
		return nil, err
	}
	if input.Filters.ExpectedFrom, err = timeQuery(r, "expected_from"); err != nil {
		return nil, err
	}
	if input.Filters.ExpectedTo, err = timeQuery(r, "expected_to"); err != nil {
		return nil, err
	}

	if include, err := boolQuery(r, "include_archived"); err != nil {
		return nil, err
	} else if include != nil {
		input.Filters.IncludeArchived = *include
	}
	if input.Filters.HasSignature, err = boolQuery(r, "has_signature"); err != nil {
		return nil, err
	}
	if input.Filters.HasPhoto, err = boolQuery(r, "has_photo"); err != nil {
		return nil, err
	}

	if input.Limit, err = limitQuery(r); err != nil {
		return nil, err
	}
	input.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return &input, nil
}

type updateStatusRequest struct {
	Status      string     `json:"status" validate:"required"`
	AutoNotify  *bool      `json:"auto_notify,omitempty"`
	GenerateOTP bool       `json:"generate_otp,omitempty"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// UpdatePackageStatus drives one state-machine transition.
func UpdatePackageStatus(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePackageStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		pkg, err := svc.UpdateStatus(r.Context(), packages.UpdateStatusInput{
			PackageID:   id,
			NewStatus:   status,
			AutoNotify:  req.AutoNotify,
			GenerateOTP: req.GenerateOTP,
			ActorUserID: req.ActorUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

type editPackageRequest struct {
	CustomerName    *string    `json:"customer_name,omitempty"`
	CustomerPhone   *string    `json:"customer_phone,omitempty"`
	CustomerEmail   *string    `json:"customer_email,omitempty" validate:"omitempty,email"`
	CourierID       *uuid.UUID `json:"courier_id,omitempty"`
	LocationID      *uuid.UUID `json:"location_id,omitempty"`
	Status          *string    `json:"status,omitempty"`
	ExpectedArrival *time.Time `json:"expected_arrival,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Force           bool       `json:"force,omitempty"`
	ActorUserID     *uuid.UUID `json:"actor_user_id,omitempty"`
}

// EditPackage applies an admin field edit. A status change still goes through
// the state machine unless force is set.
func EditPackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req editPackageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := packages.EditInput{
			PackageID:       id,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			CourierID:       req.CourierID,
			LocationID:      req.LocationID,
			ExpectedArrival: req.ExpectedArrival,
			Notes:           req.Notes,
			Force:           req.Force,
			ActorUserID:     req.ActorUserID,
		}
		if req.Status != nil {
			status, err := enums.ParsePackageStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		pkg, err := svc.Edit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pkg)
	}
}

type issueCodeRequest struct {
	Channel     string     `json:"channel,omitempty"`
	SkipNotify  bool       `json:"skip_notify,omitempty"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// IssuePackageCode mints a fresh pickup code, invalidating any active one.
func IssuePackageCode(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req issueCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := otp.IssueOptions{SkipNotify: req.SkipNotify, ActorUserID: req.ActorUserID}
		if req.Channel != "" {
			channel, err := enums.ParseChannel(req.Channel)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel"))
				return
			}
			opts.Channel = channel
		}

		result, err := svc.IssueOTP(r.Context(), id, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"code":       result.Code,
			"expires_at": result.Record.ExpiresAt,
		})
	}
}

type reportIssueRequest struct {
	Note        string     `json:"note" validate:"required"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// ReportPackageIssue records a free-form problem note in the package history.
func ReportPackageIssue(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req reportIssueRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ReportIssue(r.Context(), id, req.Note, req.ActorUserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "reported"})
	}
}

type attachRefRequest struct {
	Ref         string     `json:"ref" validate:"required"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// AttachPackageSignature stores a signature capture reference.
func AttachPackageSignature(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return attachRefHandler(logg, func(r *http.Request, id uuid.UUID, req attachRefRequest) error {
		return svc.AttachSignature(r.Context(), id, req.Ref, req.ActorUserID)
	})
}

// AttachPackagePhoto stores a handover photo reference.
func AttachPackagePhoto(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return attachRefHandler(logg, func(r *http.Request, id uuid.UUID, req attachRefRequest) error {
		return svc.AttachPhoto(r.Context(), id, req.Ref, req.ActorUserID)
	})
}

func attachRefHandler(logg *logger.Logger, attach func(*http.Request, uuid.UUID, attachRefRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req attachRefRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := attach(r, id, req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "attached"})
	}
}

type actorRequest struct {
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
}

// ArchivePackage soft-archives a package.
func ArchivePackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return archiveHandler(logg, func(r *http.Request, id uuid.UUID, actor *uuid.UUID) error {
		return svc.Archive(r.Context(), id, actor)
	}, "archived")
}

// UnarchivePackage restores a soft-archived package.
func UnarchivePackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return archiveHandler(logg, func(r *http.Request, id uuid.UUID, actor *uuid.UUID) error {
		return svc.Unarchive(r.Context(), id, actor)
	}, "unarchived")
}

func archiveHandler(logg *logger.Logger, apply func(*http.Request, uuid.UUID, *uuid.UUID) error, outcome string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req actorRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if err := apply(r, id, req.ActorUserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": outcome})
	}
}

// DeletePackage hard-deletes a package and its dependent records.
func DeletePackage(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
