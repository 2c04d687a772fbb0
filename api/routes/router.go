package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gravender/boardgames-backend/api/controllers"
	"github.com/Gravender/boardgames-backend/api/middleware"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/internal/sharing"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sharingService sharing.Service,
	linkResolver *grants.Resolver,
	libraryService library.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	linkPolicy := middleware.NewLinkRateLimitPolicy(
		"share-link",
		cfg.LinkRateLimit.Window,
		cfg.LinkRateLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.With(middleware.LinkRateLimit(linkPolicy, redisClient, logg)).
			Get("/shares/{token}", controllers.ResolveShareLink(sharingService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/shares", func(r chi.Router) {
			r.Post("/", controllers.CreateShare(sharingService, logg))
			r.Get("/", controllers.ListOutgoingShares(sharingService, logg))
			r.Get("/incoming", controllers.ListIncomingShares(sharingService, logg))
			r.Post("/{shareId}/accept", controllers.AcceptShare(sharingService, logg))
			r.Post("/{shareId}/reject", controllers.RejectShare(sharingService, logg))
			r.Delete("/{shareId}", controllers.CancelShare(sharingService, logg))
		})

		r.Route("/v1/share-grants", func(r chi.Router) {
			r.Get("/", controllers.ListGrants(linkResolver, logg))
			r.Post("/{itemType}/{grantId}/link", controllers.LinkGrant(linkResolver, logg))
		})

		r.Route("/v1/matches", func(r chi.Router) {
			r.Post("/", controllers.CreateMatch(libraryService, logg))
		})
	})

	return r
}
