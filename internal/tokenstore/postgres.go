package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// PostgresKeyspace stores each namespace as one row of session_records.
type PostgresKeyspace struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgres builds a postgres keyspace; the session_records migration must have run.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) *PostgresKeyspace {
	return &PostgresKeyspace{pool: pool, ttl: ttl}
}

// For returns the store bound to namespace.
func (k *PostgresKeyspace) For(namespace string) Store {
	return &postgresStore{ks: k, namespace: namespace}
}

type postgresStore struct {
	ks        *PostgresKeyspace
	namespace string
}

func (s *postgresStore) Save(ctx context.Context, rec domain.Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	const query = `
        INSERT INTO session_records (namespace, token, role, user_id, user_name, expires_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (namespace) DO UPDATE SET
            token=EXCLUDED.token, role=EXCLUDED.role, user_id=EXCLUDED.user_id,
            user_name=EXCLUDED.user_name, expires_at=EXCLUDED.expires_at, updated_at=NOW()`

	var expiresAt *time.Time
	if s.ks.ttl > 0 {
		t := time.Now().UTC().Add(s.ks.ttl)
		expiresAt = &t
	}
	_, err := s.ks.pool.Exec(ctx, query, s.namespace, rec.Token, rec.Role, rec.UserID, rec.UserName, expiresAt)
	return err
}

func (s *postgresStore) Read(ctx context.Context) (domain.Record, error) {
	const query = `
        SELECT token, role, user_id, user_name
        FROM session_records
        WHERE namespace=$1 AND (expires_at IS NULL OR expires_at > NOW())`

	var rec domain.Record
	err := s.ks.pool.QueryRow(ctx, query, s.namespace).Scan(&rec.Token, &rec.Role, &rec.UserID, &rec.UserName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Record{}, nil
		}
		return domain.Record{}, err
	}
	return rec, nil
}

func (s *postgresStore) Clear(ctx context.Context) error {
	const query = `DELETE FROM session_records WHERE namespace=$1`
	_, err := s.ks.pool.Exec(ctx, query, s.namespace)
	return err
}
