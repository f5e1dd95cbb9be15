package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/config"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
)

// Needs selects the backing services a process opens.
type Needs struct {
	Postgres bool
	Redis    bool
}

// NeedsForStore returns what the given token store driver requires.
func NeedsForStore(driver string) Needs {
	return Needs{
		Postgres: driver == tokenstore.DriverPostgres,
		Redis:    driver == tokenstore.DriverRedis,
	}
}

// Connections are the opened backing services of one process.
type Connections struct {
	Postgres *Postgres
	Redis    *Redis
}

// Open connects to what needs asks for and migrates postgres when configured to.
// A partially opened set is closed before an error is returned.
func Open(ctx context.Context, cfg *config.Config, needs Needs, logger *zap.Logger) (*Connections, error) {
	conns := &Connections{}
	if needs.Postgres {
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		conns.Postgres = pg
		if !pg.Enabled() && NeedsForStore(cfg.Store.Driver).Postgres {
			conns.Close()
			return nil, fmt.Errorf("token store driver %q requires POSTGRES_DSN", cfg.Store.Driver)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				conns.Close()
				return nil, err
			}
		}
	}
	if needs.Redis {
		r, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			conns.Close()
			return nil, err
		}
		conns.Redis = r
	}
	return conns, nil
}

// StoreDependencies hands the opened clients to tokenstore.New.
func (c *Connections) StoreDependencies() tokenstore.Dependencies {
	deps := tokenstore.Dependencies{Postgres: c.Postgres.PoolHandle()}
	if c.Redis != nil {
		deps.Redis = c.Redis.Client
	}
	return deps
}

// Checks returns a readiness check per opened service.
func (c *Connections) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if c.Postgres.Enabled() {
		checks["postgres"] = c.Postgres.Ping
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping
	}
	return checks
}

// Close releases everything that was opened.
func (c *Connections) Close() {
	c.Postgres.Close()
	c.Redis.Close()
}
