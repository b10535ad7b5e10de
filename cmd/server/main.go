// @title        Customer Portal API
// @version      1.0
// @description  Session, authorization and customer list surfaces of the customer portal.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/customer-portal/internal/api"
	"github.com/99minutos/customer-portal/internal/api/handler"
	"github.com/99minutos/customer-portal/internal/api/middleware"
	"github.com/99minutos/customer-portal/internal/core/service"
	"github.com/99minutos/customer-portal/internal/infrastructure/backend"
	"github.com/99minutos/customer-portal/internal/infrastructure/config"
	"github.com/99minutos/customer-portal/internal/infrastructure/db/mongo"
	"github.com/99minutos/customer-portal/internal/infrastructure/db/redis"
	"github.com/99minutos/customer-portal/internal/infrastructure/queue"
	"github.com/99minutos/customer-portal/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
	pingTimeout     = 2 * time.Second
)

func main() {
	// .env is optional; the platform environment wins.
	_ = godotenv.Load()

	// config + logger
	cfg := config.Load()
	l := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "customer-portal",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// audit store
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		l.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	auditRepo := mongo.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		l.Fatal().Err(err).Msg("audit indexes failed")
	}

	// revocation store
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		l.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = rdb.Close() }()

	// audit workers stop after the HTTP server
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, l.With().Str("component", "audit").Logger())
	dispatcher.Start(auditCtx)

	// services
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, l.With().Str("component", "backend").Logger())
	sessions, err := service.NewSessionService(cfg.Session.Secret, cfg.Session.TTL, redis.NewRevocationStore(rdb), l)
	if err != nil {
		l.Fatal().Err(err).Msg("session service init failed")
	}
	authService := service.NewAuthService(client, client.BaseURL(), l)
	registry := service.NewControllerRegistry(client, cfg.Query.Debounce, l)

	// http
	e := api.NewRouter(api.Deps{
		Log:      l,
		Cookie:   middleware.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		BaseURL:  cfg.BaseURL,
		Sessions: sessions,
		Auth:     authService,
		Customer: client,
		Registry: registry,
		Audit:    dispatcher,
		Checks: []handler.DependencyCheck{
			{Name: "mongodb", Check: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Check: func(ctx context.Context) error { return redis.Ping(ctx, rdb, pingTimeout) }},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Msg("portal listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				registry.Sweep()
			}
		}
	})
	g.Go(func() error {
		// graceful shutdown
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if runErr != nil {
		l.Error().Err(runErr).Msg("server error")
	}

	stopAudit()
	dispatcher.Wait()
	l.Info().Msg("shutdown complete")

	if runErr != nil {
		os.Exit(1)
	}
}
