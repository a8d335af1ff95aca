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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/influence-market/api/routes"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/identity"
	"github.com/angelmondragon/influence-market/pkg/auth/session"
	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/angelmondragon/influence-market/pkg/env"
	"github.com/angelmondragon/influence-market/pkg/instance"
	"github.com/angelmondragon/influence-market/pkg/logger"
	"github.com/angelmondragon/influence-market/pkg/metrics"
	"github.com/angelmondragon/influence-market/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "web"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "web",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clientFactory := backend.NewFactory(cfg.Backend, backend.Options{
		HTTP:    backend.NewTransport(cfg.Backend),
		Metrics: metrics.NewRPCMetrics(registry),
		Logger:  logg,
	})

	hub, err := clientsession.NewHub(clientsession.HubParams{
		Authenticator: identity.NewAssertionAuthenticator(cfg.Identity),
		Store:         identity.NewSessionStore(sessionManager),
		ClientFactory: clientFactory,
		Metrics:       metrics.NewResolutionMetrics(registry),
		Logger:        logg,
		IdleEvict:     cfg.Session.IdleEvict,
		MaxSessions:   cfg.Session.MaxLive,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session hub", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	go hub.Run(ctx)

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, hub, sessionManager, redisClient, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting web client server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "web client server stopped unexpectedly", err)
			hub.Close()
			_ = redisClient.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(ctx, "web client shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	hub.Close()
	err = multierr.Append(err, redisClient.Close())
	if err != nil {
		logg.Error(shutdownCtx, "shutdown finished with errors", err)
		os.Exit(1)
	}
}
