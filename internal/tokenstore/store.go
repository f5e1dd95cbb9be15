// Package tokenstore persists the four-field session record (token, role, userId, userName).
//
// Every driver writes the record in a single operation so that a concurrent reader never
// observes a torn record, and every Clear removes all four fields at once. Readers still
// validate completeness with domain.Record.Complete because the backing storage can be
// edited out of band.
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// ErrIncompleteRecord is returned by Save when any of the four fields is empty.
var ErrIncompleteRecord = errors.New("tokenstore: record must carry token, role, userId and userName")

// Store is the persisted session of a single origin or browser.
type Store interface {
	// Save replaces the record with all four fields.
	Save(ctx context.Context, rec domain.Record) error
	// Read returns whichever fields are present; an absent record is the zero Record.
	Read(ctx context.Context) (domain.Record, error)
	// Clear removes every field. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Keyspace hands out stores isolated by namespace.
type Keyspace interface {
	For(namespace string) Store
}

// Driver identifiers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config describes the driver selection.
type Config struct {
	Driver string
	// Dir is the directory of the file driver.
	Dir string
	// Prefix namespaces redis keys.
	Prefix string
	// TTL bounds how long redis and postgres keep a record; zero keeps it until Clear.
	TTL time.Duration
}

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	Redis    *redis.Client
	Postgres *pgxpool.Pool
}

func validate(rec domain.Record) error {
	if !rec.Complete() {
		return ErrIncompleteRecord
	}
	return nil
}
