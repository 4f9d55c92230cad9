package router

import (
	"net/http"

	"retroprofile-api/internal/handler"
	"retroprofile-api/internal/middleware"
	"retroprofile-api/internal/ratelimit"
	"retroprofile-api/pkg/apierror"
	"retroprofile-api/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limiters holds one limiter per endpoint family.
type Limiters struct {
	Profile    *ratelimit.Limiter
	Bundle     *ratelimit.Limiter
	Badges     *ratelimit.Limiter
	Progress   *ratelimit.Limiter
	Games      *ratelimit.Limiter
	Follow     *ratelimit.Limiter
	WantToPlay *ratelimit.Limiter
	Live       *ratelimit.Limiter
}

// All returns the configured limiters.
func (l Limiters) All() []*ratelimit.Limiter {
	var out []*ratelimit.Limiter
	for _, lim := range []*ratelimit.Limiter{l.Profile, l.Bundle, l.Badges, l.Progress, l.Games, l.Follow, l.WantToPlay, l.Live} {
		if lim != nil {
			out = append(out, lim)
		}
	}
	return out
}

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	ProfileHandler   *handler.ProfileHandler
	DashboardHandler *handler.DashboardHandler
	LiveHandler      *handler.LiveHandler
	AdminHandler     *handler.AdminHandler
	Limiters         Limiters
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.NotFound(""))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, apierror.MethodNotAllowed())
	})

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if h := cfg.ProfileHandler; h != nil {
			limited(r, cfg.Limiters.Bundle).Get("/bundle", h.Bundle)
		}

		r.Route("/games/{gameId}", func(r chi.Router) {
			r.Use(limit(cfg.Limiters.Games))
			if d := cfg.DashboardHandler; d != nil {
				r.Get("/", d.GameDetail)
			}
			if h := cfg.ProfileHandler; h != nil {
				r.Get("/info", h.GameInfo)
				r.Get("/hashes", h.GameHashes)
				r.Get("/distribution", h.Distribution)
			}
		})

		if h := cfg.DashboardHandler; h != nil {
			limited(r, cfg.Limiters.Profile).Get("/profile", h.Profile)
			limited(r, cfg.Limiters.Badges).Get("/badges", h.Badges)
			limited(r, cfg.Limiters.Progress).Get("/game-progress", h.GameProgress)
			limited(r, cfg.Limiters.WantToPlay).Get("/want-to-play", h.WantToPlay)
			limited(r, cfg.Limiters.Follow).Get("/following", h.Following)
			limited(r, cfg.Limiters.Follow).Get("/followers", h.Followers)
			r.Get("/consoles", h.Consoles)
		}

		if cfg.LiveHandler != nil {
			limited(r, cfg.Limiters.Live).Get("/live", cfg.LiveHandler.Serve)
		}

		// Admin endpoints
		if cfg.AdminHandler != nil {
			r.Get("/admin/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}

func limit(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(l)
}

func limited(r chi.Router, l *ratelimit.Limiter) chi.Router {
	return r.With(limit(l))
}
