package geocache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kgmap/internal/model"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(context.Background(), path, "run-1")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func TestSQLite_LoadEmpty(t *testing.T) {
	st := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "geo.db"))
	got, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "geo.db"))

	require.NoError(t, st.Save(ctx, sample))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestSQLite_SaveReplacesEntry(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "geo.db"))

	require.NoError(t, st.Save(ctx, Entries{"甲幼儿园": {Level: "道路", Location: "1,1"}}))
	require.NoError(t, st.Save(ctx, Entries{"甲幼儿园": {Level: "兴趣点", Location: "2,2"}}))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Entries{"甲幼儿园": model.Geocode{Level: "兴趣点", Location: "2,2"}}, got)

	var runID string
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT run_id FROM geo_cache WHERE key = ?`, "甲幼儿园").Scan(&runID))
	assert.Equal(t, "run-1", runID)
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "geo.db")

	first, err := NewSQLiteStore(ctx, path, "run-1")
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, sample))
	require.NoError(t, first.Close())

	second := newTestSQLiteStore(t, path)
	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	var versions int
	require.NoError(t, second.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_meta`).Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestSQLite_LoadAfterDroppedTable(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "geo.db"))
	_, err := st.db.ExecContext(ctx, `DROP TABLE geo_cache`)
	require.NoError(t, err)

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
