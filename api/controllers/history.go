package controllers

import (
	"net/http"
	"strings"

	"github.com/parcelhub/parcelhub-backend/api/responses"
	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
	"github.com/parcelhub/parcelhub-backend/pkg/pagination"
)

type packageEventList struct {
	Events     []models.PackageEvent `json:"events"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// PackageHistory returns the audit trail for one package, newest first.
func PackageHistory(repo history.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := history.ListParams{}
		if params.Limit, err = limitQuery(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}

		events, next, err := repo.ListByPackage(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := packageEventList{Events: events}
		if next != nil {
			page.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, page)
	}
}

type notificationEntryList struct {
	Notifications []models.NotificationEntry `json:"notifications"`
	NextCursor    string                     `json:"next_cursor,omitempty"`
}

// PackageNotifications returns the notification log for one package.
func PackageNotifications(svc notify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := notify.ListParams{}
		if params.Limit, err = limitQuery(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}

		entries, next, err := svc.ListByPackage(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := notificationEntryList{Notifications: entries}
		if next != nil {
			page.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, page)
	}
}
