package geocache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/db"
	"github.com/sells-group/kgmap/internal/model"
)

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geo_cache (
	key        TEXT PRIMARY KEY,
	province   TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	district   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	level      TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// updated_at travels as a column so a replaced entry gets a fresh timestamp
// through the EXCLUDED update set.
var geoCacheUpsert = db.UpsertConfig{
	Table:        "geo_cache",
	Columns:      []string{"key", "province", "city", "district", "location", "level", "run_id", "updated_at"},
	ConflictKeys: []string{"key"},
}

// PostgresStore keeps the cache in a shared Postgres table.
type PostgresStore struct {
	pool  db.Pool
	runID string
}

// NewPostgresStore connects to databaseURL and runs the migration.
func NewPostgresStore(ctx context.Context, databaseURL, runID string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s := &PostgresStore{pool: pool, runID: runID}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the cache table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Load reads every row. A failing query is logged and yields an empty cache.
func (s *PostgresStore) Load(ctx context.Context) (Entries, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, province, city, district, location, level FROM geo_cache`)
	if err != nil {
		zap.L().Warn("postgres: load failed, starting empty", zap.Error(err))
		return Entries{}, nil
	}
	defer rows.Close()

	entries := Entries{}
	for rows.Next() {
		var key string
		var g model.Geocode
		if err := rows.Scan(&key, &g.Province, &g.City, &g.District, &g.Location, &g.Level); err != nil {
			zap.L().Warn("postgres: scan failed, starting empty", zap.Error(err))
			return Entries{}, nil
		}
		entries[key] = g
	}
	if err := rows.Err(); err != nil {
		zap.L().Warn("postgres: load failed, starting empty", zap.Error(err))
		return Entries{}, nil
	}
	return entries, nil
}

// Save bulk-upserts every entry through a COPY into a temp table.
func (s *PostgresStore) Save(ctx context.Context, entries Entries) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(entries))
	for _, key := range entries.Keys() {
		g := entries[key]
		rows = append(rows, []any{key, g.Province, g.City, g.District, g.Location, g.Level, s.runID, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, geoCacheUpsert, rows)
	if err != nil {
		return eris.Wrap(err, "postgres: save")
	}
	zap.L().Debug("postgres: saved geocache", zap.Int64("rows", n))
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
