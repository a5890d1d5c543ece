package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS detection_cache (
	id         TEXT PRIMARY KEY,
	detector   TEXT NOT NULL,
	image_hash TEXT NOT NULL,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detection_cache_lookup ON detection_cache(detector, image_hash);
CREATE INDEX IF NOT EXISTS idx_detection_cache_expires_at ON detection_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, detector, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM detection_cache
		 WHERE detector = ? AND image_hash = ? AND expires_at > datetime('now')
		 ORDER BY cached_at DESC LIMIT 1`,
		detector, key,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached detection")
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) Set(ctx context.Context, detector, key string, payload []byte, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detection_cache (id, detector, image_hash, payload, cached_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, detector, key, string(payload), now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: set cached detection")
}

func (s *SQLiteStore) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM detection_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge expired detections")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
