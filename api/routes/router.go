package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parcelhub/parcelhub-backend/api/controllers"
	"github.com/parcelhub/parcelhub-backend/api/middleware"
	"github.com/parcelhub/parcelhub-backend/internal/couriers"
	"github.com/parcelhub/parcelhub-backend/internal/history"
	"github.com/parcelhub/parcelhub-backend/internal/locations"
	"github.com/parcelhub/parcelhub-backend/internal/notify"
	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/internal/stats"
	"github.com/parcelhub/parcelhub-backend/pkg/config"
	"github.com/parcelhub/parcelhub-backend/pkg/db"
	"github.com/parcelhub/parcelhub-backend/pkg/logger"
)

type redisPinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router mounts.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DBPinger  db.Pinger
	Redis     redisPinger
	Packages  packages.Service
	Couriers  couriers.Service
	Locations locations.Service
	History   history.Repository
	Notify    notify.Service
	Stats     stats.Service
	Metrics   http.Handler
}

// NewRouter wires middleware, health endpoints, and the v1 API surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DBPinger, deps.Redis))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/packages", func(r chi.Router) {
			r.Post("/", controllers.CreatePackage(deps.Packages, deps.Logger))
			r.Get("/", controllers.ListPackages(deps.Packages, deps.Logger))
			r.Get("/tracking/{trackingCode}", controllers.GetPackageByTrackingCode(deps.Packages, deps.Logger))

			r.Route("/{packageId}", func(r chi.Router) {
				r.Get("/", controllers.GetPackage(deps.Packages, deps.Logger))
				r.Patch("/", controllers.EditPackage(deps.Packages, deps.Logger))
				r.Delete("/", controllers.DeletePackage(deps.Packages, deps.Logger))
				r.Post("/status", controllers.UpdatePackageStatus(deps.Packages, deps.Logger))
				r.Post("/codes", controllers.IssuePackageCode(deps.Packages, deps.Logger))
				r.Post("/pickup/confirm", controllers.ConfirmPickup(deps.Packages, deps.Logger))
				r.Post("/pickup/confirm-qr", controllers.ConfirmPickupByQR(deps.Packages, deps.Logger))
				r.Post("/issues", controllers.ReportPackageIssue(deps.Packages, deps.Logger))
				r.Post("/signature", controllers.AttachPackageSignature(deps.Packages, deps.Logger))
				r.Post("/photo", controllers.AttachPackagePhoto(deps.Packages, deps.Logger))
				r.Post("/archive", controllers.ArchivePackage(deps.Packages, deps.Logger))
				r.Post("/unarchive", controllers.UnarchivePackage(deps.Packages, deps.Logger))
				r.Get("/history", controllers.PackageHistory(deps.History, deps.Logger))
				r.Get("/notifications", controllers.PackageNotifications(deps.Notify, deps.Logger))
			})
		})

		r.Route("/couriers", func(r chi.Router) {
			r.Post("/", controllers.CreateCourier(deps.Couriers, deps.Logger))
			r.Get("/", controllers.ListCouriers(deps.Couriers, deps.Logger))
			r.Get("/{courierId}", controllers.GetCourier(deps.Couriers, deps.Logger))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Post("/", controllers.CreateLocation(deps.Locations, deps.Logger))
			r.Get("/", controllers.ListLocations(deps.Locations, deps.Logger))
			r.Get("/{locationId}", controllers.GetLocation(deps.Locations, deps.Logger))
		})

		r.Get("/stats", controllers.StatsReport(deps.Stats, deps.Logger))
	})

	return r
}
