package geocache

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/kgmap/internal/model"
)

// SQLiteStore keeps the cache in a local SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	runID string
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geo_cache (
	key        TEXT PRIMARY KEY,
	province   TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	district   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	level      TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

INSERT INTO schema_meta (version)
SELECT 1 WHERE NOT EXISTS (SELECT 1 FROM schema_meta);
`

const sqliteUpsert = `
INSERT INTO geo_cache (key, province, city, district, location, level, run_id, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(key) DO UPDATE SET
	province = excluded.province,
	city = excluded.city,
	district = excluded.district,
	location = excluded.location,
	level = excluded.level,
	run_id = excluded.run_id,
	updated_at = excluded.updated_at`

// NewSQLiteStore opens the database at dsn, configures WAL mode, and runs
// the migration.
func NewSQLiteStore(ctx context.Context, dsn, runID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db, runID: runID}
	if err := s.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Migrate creates the cache tables if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Load reads every row. A failing query is logged and yields an empty cache.
func (s *SQLiteStore) Load(ctx context.Context) (Entries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, province, city, district, location, level FROM geo_cache`)
	if err != nil {
		zap.L().Warn("sqlite: load failed, starting empty", zap.Error(err))
		return Entries{}, nil
	}
	defer rows.Close() //nolint:errcheck

	entries := Entries{}
	for rows.Next() {
		var key string
		var g model.Geocode
		if err := rows.Scan(&key, &g.Province, &g.City, &g.District, &g.Location, &g.Level); err != nil {
			zap.L().Warn("sqlite: scan failed, starting empty", zap.Error(err))
			return Entries{}, nil
		}
		entries[key] = g
	}
	if err := rows.Err(); err != nil {
		zap.L().Warn("sqlite: load failed, starting empty", zap.Error(err))
		return Entries{}, nil
	}
	return entries, nil
}

// Save upserts every entry in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries Entries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, key := range entries.Keys() {
		g := entries[key]
		if _, err := stmt.ExecContext(ctx, key, g.Province, g.City, g.District, g.Location, g.Level, s.runID); err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
