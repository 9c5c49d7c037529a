package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/civreg-backend/api/controllers"
	"github.com/angelmondragon/civreg-backend/api/middleware"
	draftsvc "github.com/angelmondragon/civreg-backend/internal/drafts"
	eventsvc "github.com/angelmondragon/civreg-backend/internal/events"
	"github.com/angelmondragon/civreg-backend/pkg/config"
	"github.com/angelmondragon/civreg-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	eventService eventsvc.Service,
	draftService draftsvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/records", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", controllers.ListRecords(eventService, logg))
		r.Post("/", controllers.DeclareRecord(eventService, logg))

		r.Route("/{recordID}", func(r chi.Router) {
			r.Get("/", controllers.GetRecord(eventService, logg))
			r.Post("/actions/{actionType}", controllers.SubmitAction(eventService, logg))

			r.Route("/drafts", func(r chi.Router) {
				r.Get("/", controllers.ListDrafts(draftService, logg))
				r.Put("/{actionType}", controllers.PutDraft(draftService, logg))
				r.Delete("/{actionType}", controllers.DiscardDraft(draftService, logg))
			})
		})
	})

	return r
}
