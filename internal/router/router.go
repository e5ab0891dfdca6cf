package router

import (
	"net/http"

	"promo-service/internal/auth"
	"promo-service/internal/config"
	"promo-service/internal/handler"
	"promo-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// New builds the HTTP router with all routes and middleware configured.
// Admin privilege is enforced inside the services; the router only decides
// which routes demand an authenticated caller at all.
func New(
	promoHandler *handler.PromoCodeHandler,
	redemptionHandler *handler.RedemptionHandler,
	tokens *auth.Manager,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}
	if limiter != nil {
		r.Use(limiter.Middleware(logger))
	}
	r.Use(middleware.Authenticate(tokens, logger))

	// Clients expect every verb a path does not offer to answer 404,
	// not 405.
	notFound := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not_found", "message": "not found"}`))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	requireAuth := middleware.RequireAuth(logger)

	r.Route("/promocode", func(r chi.Router) {
		r.Get("/", promoHandler.List)
		r.Post("/", promoHandler.Create)
		r.Get("/{id}", promoHandler.Get)
		r.Put("/{id}", promoHandler.Update)
		r.Delete("/{id}", promoHandler.Delete)
		r.With(requireAuth).Put("/{id}/redeem", redemptionHandler.Redeem)
		r.With(requireAuth).Get("/{id}/redeemed", redemptionHandler.ListForCode)
	})

	r.Route("/redeemed", func(r chi.Router) {
		r.With(requireAuth).Get("/", redemptionHandler.List)
		r.With(requireAuth).Delete("/{id}", redemptionHandler.Delete)
	})

	return r
}
