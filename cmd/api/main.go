package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"retroprofile-api/internal/cache"
	"retroprofile-api/internal/config"
	"retroprofile-api/internal/handler"
	"retroprofile-api/internal/icons"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/media"
	"retroprofile-api/internal/model"
	"retroprofile-api/internal/ratelimit"
	"retroprofile-api/internal/retroapi"
	"retroprofile-api/internal/router"
	"retroprofile-api/internal/service"
)

// expirer is implemented by backends that need periodic sweeping.
type expirer interface {
	RemoveExpired(ctx context.Context) (int64, error)
}

// pinger is implemented by backends with a liveness probe.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg := config.MustLoad()

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	logging.Info().
		Str("environment", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("Starting RetroProfile API...")

	if err := cfg.RetroAchievements.Validate(); err != nil {
		logging.Warn().Err(err).Msg("Upstream credentials missing; API routes will return configuration errors")
	}

	// Endpoint caches
	endpointCache, err := openCache(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("type", cfg.Cache.Type).Msg("Failed to initialize cache")
	}
	defer endpointCache.Close()
	logging.Info().Str("type", cfg.Cache.Type).Msg("Endpoint cache initialized")

	// Per-username bundle store
	storeBackend, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("type", cfg.Store.Type).Msg("Failed to initialize bundle store")
	}
	defer storeBackend.Close()
	logging.Info().Str("type", cfg.Store.Type).Msg("Bundle store initialized")

	// Upstream client and shared resolvers
	api := retroapi.NewFromConfig(&cfg.RetroAchievements)
	resolver := icons.NewResolver(api, cfg.RetroAchievements.SystemIconURL, cfg.Cache.IconTTL)
	normalizer := media.NewNormalizer(cfg.RetroAchievements.MediaBaseURL)

	// Services
	bundles := cache.NewStore[model.Bundle](storeBackend, "bundle", cfg.Store.KeyPrefix, cfg.Store.TTL)
	profileService := service.NewProfileService(api, resolver, normalizer, bundles)
	dashboardService := service.NewDashboardService(service.DashboardDeps{
		API:         api,
		Icons:       resolver,
		Media:       normalizer,
		Cache:       endpointCache,
		TTL:         cfg.Cache.TTL,
		Concurrency: cfg.RetroAchievements.Concurrency,
	})

	// Rate limiters, one per endpoint family
	newLimiter := func(name string, max int) *ratelimit.Limiter {
		return ratelimit.New(ratelimit.Config{
			Name:       name,
			Window:     cfg.RateLimit.Window,
			Max:        max,
			MaxClients: cfg.RateLimit.MaxClients,
		})
	}
	limiters := router.Limiters{
		Profile:    newLimiter("profile", cfg.RateLimit.DefaultMax),
		Bundle:     newLimiter("bundle", cfg.RateLimit.DefaultMax),
		Badges:     newLimiter("badges", cfg.RateLimit.DefaultMax),
		Progress:   newLimiter("game_progress", cfg.RateLimit.DefaultMax),
		Games:      newLimiter("games", cfg.RateLimit.DefaultMax),
		Follow:     newLimiter("follow", cfg.RateLimit.FollowMax),
		WantToPlay: newLimiter("want_to_play", cfg.RateLimit.DefaultMax),
		Live:       newLimiter("live", cfg.RateLimit.DefaultMax),
	}

	// Background sweeps
	var schedulers []*service.CleanupScheduler
	for _, l := range limiters.All() {
		schedulers = append(schedulers, service.NewCleanupScheduler(l.Sweep, service.CleanupConfig{
			Name:     "ratelimit_" + l.Name(),
			Interval: cfg.RateLimit.SweepInterval,
		}))
	}
	for name, backend := range map[string]cache.Cache{"cache": endpointCache, "store": storeBackend} {
		if e, ok := backend.(expirer); ok {
			schedulers = append(schedulers, service.NewCleanupScheduler(e.RemoveExpired, service.CleanupConfig{
				Name:     name,
				Interval: cfg.Cache.CleanupInterval,
			}))
		}
	}
	for _, s := range schedulers {
		s.Start()
	}

	// Initialize handlers
	var checks []handler.ReadinessCheck
	for name, backend := range map[string]cache.Cache{"cache": endpointCache, "store": storeBackend} {
		if p, ok := backend.(pinger); ok {
			checks = append(checks, handler.ReadinessCheck{Name: name, Check: p.Ping})
		}
	}
	healthHandler := handler.New(cfg.App.Name, cfg.App.Version, checks...)
	adminHandler := handler.NewAdminHandler(handler.AdminDeps{
		CacheType:    cfg.Cache.Type,
		StoreType:    cfg.Store.Type,
		Limiters:     limiters.All(),
		BreakerState: api.BreakerState,
		Icons:        resolver,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		ProfileHandler:   handler.NewProfileHandler(&cfg.RetroAchievements, profileService),
		DashboardHandler: handler.NewDashboardHandler(&cfg.RetroAchievements, dashboardService),
		LiveHandler:      handler.NewLiveHandler(&cfg.RetroAchievements, profileService, cfg.Live.QuietPeriod),
		AdminHandler:     adminHandler,
		Limiters:         limiters,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logging.Info().Str("addr", cfg.Server.Address()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	for _, s := range schedulers {
		s.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server shutdown error")
	}

	logging.Info().Msg("Server stopped")
}

// openCache builds the backend for the short-lived endpoint caches.
func openCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Type {
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: "retroprofile:cache:",
		})
	case "memory", "":
		return cache.NewMemoryCache(0), nil
	default:
		return nil, fmt.Errorf("unknown CACHE_TYPE %q", cfg.Cache.Type)
	}
}

// openStore builds the backend for the per-username bundle store.
func openStore(cfg *config.Config) (cache.Cache, error) {
	s := cfg.Store
	switch s.Type {
	case "memory", "":
		return cache.NewMemoryCache(0), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: "retroprofile:",
		})
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return cache.NewSQLiteCache(s.Path)
	case "postgres", "postgresql":
		return cache.NewPostgresCache(s.PostgresDSN())
	case "mysql":
		return cache.NewMySQLCache(s.MySQLDSN())
	case "mongodb", "mongo":
		return cache.NewMongoCache(s.MongoURI, s.MongoDatabase, s.MongoCollection)
	case "badger":
		if err := os.MkdirAll(s.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return cache.NewBadgerCache(s.Path)
	default:
		return nil, fmt.Errorf("unknown STORE_TYPE %q", s.Type)
	}
}
