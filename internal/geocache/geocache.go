// Package geocache persists geocoding results keyed by kindergarten display
// name or home address.
package geocache

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kgmap/internal/config"
	"github.com/sells-group/kgmap/internal/model"
)

// SchemaVersion is the current on-disk layout version.
const SchemaVersion = 1

// Entries maps a cache key to its geocode. Entries are replaced whole.
type Entries map[string]model.Geocode

// Get returns the entry for key.
func (e Entries) Get(key string) (model.Geocode, bool) {
	g, ok := e[key]
	return g, ok
}

// Put inserts or replaces the entry for key.
func (e Entries) Put(key string, g model.Geocode) {
	e[key] = g
}

// Keys returns the keys in sorted order.
func (e Entries) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and saves the whole cache.
type Store interface {
	// Load returns every entry. A missing or unreadable cache yields an
	// empty set; only setup failures are returned as errors.
	Load(ctx context.Context) (Entries, error)
	// Save persists every entry.
	Save(ctx context.Context, entries Entries) error
	Close() error
}

// Open returns the backend selected by cfg.Driver. runID tags every write.
func Open(ctx context.Context, cfg config.StoreConfig, runID string) (Store, error) {
	switch cfg.Driver {
	case "", "json":
		return NewJSONStore(cfg.Path, runID), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "geocache: create directory %s", dir)
			}
		}
		return NewSQLiteStore(ctx, cfg.Path, runID)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL, runID)
	default:
		return nil, eris.Errorf("geocache: unknown driver %q", cfg.Driver)
	}
}
