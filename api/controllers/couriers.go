package controllers

import (
	"net/http"

	"github.com/parcelhub/parcelhub-backend/api/responses"
	"github.com/parcelhub/parcelhub-backend/api/validators"
	"github.com/parcelhub/parcelhub-backend/internal/couriers"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type createCourierRequest struct {
	Name  string  `json:"name" validate:"required"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Notes *string `json:"notes,omitempty"`
}

func CreateCourier(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCourierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courier, err := svc.Create(r.Context(), couriers.CreateInput{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
			Notes: req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, courier)
	}
}

func GetCourier(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "courierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courier, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courier)
	}
}

func ListCouriers(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
