package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/apiclient"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/config"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/persistence"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/portal"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "portal")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conns, err := persistence.Open(ctx, cfg, persistence.NeedsForStore(cfg.Store.Driver), logger)
	if err != nil {
		logger.Fatal("failed to open backing services", zap.Error(err))
	}
	defer conns.Close()

	keyspace, err := tokenstore.New(tokenstore.Config{
		Driver: cfg.Store.Driver,
		Dir:    cfg.Store.FileDir,
		Prefix: cfg.Store.RedisPrefix,
		TTL:    cfg.Store.TTL(),
	}, conns.StoreDependencies())
	if err != nil {
		logger.Fatal("failed to build token store", zap.Error(err))
	}

	dispatcher := events.NewBusDispatcher(logger)
	if err := worker.StartAuditWorker(service.NewAuditService(dispatcher, logger)); err != nil {
		logger.Fatal("failed to start audit worker", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	client, err := apiclient.New(apiclient.Options{
		BaseURL:       cfg.API.ResolveBaseURL(cfg.App.Env),
		Timeout:       cfg.API.Timeout(),
		HealthTimeout: cfg.API.HealthTimeout(),
		RetryBackoff:  cfg.API.RetryBackoff(),
		LoginPath:     cfg.API.LoginPath,
		Logger:        logger,
		Metrics:       metrics,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		logger.Fatal("failed to build api client", zap.Error(err))
	}

	server := portal.NewServer(portal.Config{
		Name:         cfg.App.Name,
		CookieName:   cfg.Portal.CookieName,
		CookieSecure: cfg.Portal.CookieSecure,
		LoginPath:    cfg.API.LoginPath,
		Timeout:      cfg.App.RequestTimeout(),
	}, portal.Dependencies{
		Client:     client,
		Keyspace:   keyspace,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	app := server.App()

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("portal listening", zap.String("addr", cfg.App.Addr()), zap.String("backend", client.BaseURL()))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
