package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/api/http/handlers"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/config"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/persistence"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/repository"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "mockapi")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conns, err := persistence.Open(ctx, cfg, persistence.Needs{Postgres: cfg.Postgres.DSN != ""}, logger)
	if err != nil {
		logger.Fatal("failed to open backing services", zap.Error(err))
	}
	defer conns.Close()

	users := repository.NewMemoryUserRepository()
	if conns.Postgres.Enabled() {
		users = repository.NewUserRepository(conns.Postgres.PoolHandle())
	}
	checks := map[string]handlers.Check{}
	for name, check := range conns.Checks() {
		checks[name] = check
	}

	authService := service.NewAuthService(*cfg, users, logger)
	seeded, err := authService.SeedUsers(ctx, cfg.Auth.SeedUsers)
	if err != nil {
		logger.Fatal("failed to seed users", zap.Error(err))
	}
	logger.Info("seeded users", zap.Int("count", seeded))

	app := httptransport.NewApp(httptransport.AppConfig{
		Name:    "hready-mockapi",
		Version: cfg.App.Version,
		Timeout: cfg.App.RequestTimeout(),
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Auth:    authService,
		Users:   users,
		Checks:  checks,
	})

	addr := os.Getenv("MOCKAPI_ADDR")
	if addr == "" {
		addr = "127.0.0.1:5000"
	}
	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("mock backend listening", zap.String("addr", addr), zap.String("prefix", httptransport.APIPrefix))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
