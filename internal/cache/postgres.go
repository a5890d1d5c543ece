package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache operations.
var preparedStatements = map[string]string{
	"get_cached_detection": `SELECT payload FROM detection_cache WHERE detector = $1 AND image_hash = $2 AND expires_at > now()`,
	"set_cached_detection": `INSERT INTO detection_cache (id, detector, image_hash, payload, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (detector, image_hash) DO UPDATE SET payload = $4, cached_at = $5, expires_at = $6`,
	"purge_expired":        `DELETE FROM detection_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare the hot statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS detection_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	detector   TEXT NOT NULL,
	image_hash TEXT NOT NULL,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	UNIQUE (detector, image_hash)
);

CREATE INDEX IF NOT EXISTS idx_detection_cache_lookup ON detection_cache(detector, image_hash);
CREATE INDEX IF NOT EXISTS idx_detection_cache_expires_at ON detection_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, detector, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM detection_cache
		 WHERE detector = $1 AND image_hash = $2 AND expires_at > now()`,
		detector, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached detection")
	}
	return payload, nil
}

func (s *PostgresStore) Set(ctx context.Context, detector, key string, payload []byte, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO detection_cache (id, detector, image_hash, payload, cached_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (detector, image_hash) DO UPDATE SET payload = $4, cached_at = $5, expires_at = $6`,
		id, detector, key, payload, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set cached detection")
}

func (s *PostgresStore) Purge(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM detection_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge expired detections")
	}
	return int(tag.RowsAffected()), nil
}
