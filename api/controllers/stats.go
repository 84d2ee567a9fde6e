package controllers

import (
	"net/http"

	"github.com/parcelhub/parcelhub-backend/api/responses"
	"github.com/parcelhub/parcelhub-backend/internal/stats"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

// StatsReport computes the operational report, optionally bounded to a
// from/to window.
func StatsReport(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var window stats.Range

		from, err := timeQuery(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := timeQuery(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from != nil {
			window.From = *from
		}
		if to != nil {
			window.To = *to
		}
		if from != nil && to != nil && to.Before(*from) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from"))
			return
		}

		report, err := svc.Compute(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
