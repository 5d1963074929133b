package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/ticketing/services/event-service/internal/application/event"
	"github.com/baechuer/ticketing/services/event-service/internal/config"
	rediscache "github.com/baechuer/ticketing/services/event-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/ticketing/services/event-service/internal/infrastructure/db/postgres"
	rabbitpub "github.com/baechuer/ticketing/services/event-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/ticketing/services/event-service/internal/logger"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/ticketing/services/event-service/internal/transport/http/middleware"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/router"
)

// sysClock is the single source of "now" for the service.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB
	Repo   *postgres.Repo

	Cache     *rediscache.Client
	Publisher *rabbitpub.Publisher
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_user", u.User.Username()).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	var cache *rediscache.Client
	if cfg.RedisURL != "" {
		cache, err = rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("redis init failed")
		}
		defer cache.Close()
		zlog.Info().Msg("redis cache ready")
	} else {
		zlog.Warn().Msg("REDIS_URL empty: caching and token revocation checks disabled")
	}

	var pub *rabbitpub.Publisher
	if cfg.RabbitURL != "" {
		pub, err = rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		defer pub.Close()
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: outbox rows will accumulate unpublished")
	}

	app := NewApp(cfg, db, cache, pub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.Publisher != nil {
		app.Repo.StartOutboxWorker(ctx, app.Publisher, postgres.OutboxOptions{
			Interval:    cfg.OutboxInterval,
			BatchSize:   cfg.OutboxBatchSize,
			MaxAttempts: cfg.OutboxMaxAttempts,
		})
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("shutdown signal received")
	case err := <-errCh:
		zlog.Error().Err(err).Msg("server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("graceful shutdown failed")
	}
	zlog.Info().Msg("stopped")
}

// NewApp wires the service. cache and pub may be nil.
func NewApp(cfg *config.Config, db *sql.DB, cache *rediscache.Client, pub *rabbitpub.Publisher) *App {
	// 1) Infrastructure
	repo := postgres.New(db)

	// a nil *Client must not leak into the interfaces as a non-nil value
	var (
		svcCache event.Cache
		versions authmw.TokenVersionChecker
	)
	deps := map[string]handlers.Pinger{"postgres": db.PingContext}
	if cache != nil {
		svcCache = cache
		versions = cache
		deps["redis"] = cache.Ping
	}

	// 2) Application
	svc := event.New(repo, sysClock{}, svcCache, cfg.CacheTTLDetails, cfg.CacheTTLList)

	// 3) Transport
	h := handlers.NewEventsHandler(svc, sysClock{})
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, versions)
	z := handlers.NewHealthHandler(deps)

	// 4) Router
	httpHandler := router.New(h, auth, z, cfg)

	// 5) Server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &App{
		Config:    cfg,
		Server:    srv,
		DB:        db,
		Repo:      repo,
		Cache:     cache,
		Publisher: pub,
	}
}
