package rest

import (
	"net/http"

	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the HTTP-only settings.
type RouterConfig struct {
	TrustedOrigins []string
	LoginRateLimit int // per client and minute, 0 disables
}

// NewRouter builds the chi router for the accounts API.
func NewRouter(accounts Accounts, cfg RouterConfig, logger logging.Logger) http.Handler {
	h := NewHandler(accounts, logger)

	r := chi.NewRouter()

	if len(cfg.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}

	r.Use(securityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	limiter := newRateLimiter(cfg.LoginRateLimit)
	tooMany := func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, r, errorResponse{Error: "too many requests"}, http.StatusTooManyRequests)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Get("/activation", h.Activate)
		r.With(limiter.handler(tooMany)).Post("/login", h.Login)
		r.Post("/{id}/activation", h.ResendActivation)
		r.With(h.requireAuth).Get("/me", h.Me)
	})

	return r
}
