package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"amparo/internal/auth"
	"amparo/internal/authz"
	"amparo/internal/config"
	"amparo/internal/database"
	"amparo/internal/handlers"
	"amparo/internal/logging"
	"amparo/internal/middleware"
	"amparo/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg); err != nil {
		logging.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionStore, err := auth.OpenSessionStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer sessionStore.Close()

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}

	sessions := auth.NewManager(sessionStore, auth.CookieOptions{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	if cfg.RateLimit.CleanupInterval > 0 {
		limiter.StartCleanup(ctx, cfg.RateLimit.CleanupInterval)
	}

	server := handlers.NewServer(
		store,
		services.NewAccountService(store, enforcer),
		services.NewDonationService(store, enforcer),
		sessions,
	)
	router, err := handlers.NewRouter(server, handlers.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Limiter:        limiter,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.ListenPort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("database", cfg.Database.Driver).Str("sessions", cfg.Session.Store).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
