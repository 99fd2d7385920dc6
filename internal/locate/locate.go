// Package locate drives geocoding of home addresses and kindergartens against
// the cache.
package locate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/pkg/geocode"
)

// DefaultCheckpointEvery is the number of processed entities between saves.
const DefaultCheckpointEvery = 50

// Resolver is the subset of *geocode.Resolver used by the runner.
type Resolver interface {
	Resolve(ctx context.Context, name, address string) *geocode.Result
	Lookup(ctx context.Context, query string) *geocode.Result
	Policy() *geocode.Policy
}

// Stats counts what happened to each entity in a run.
type Stats struct {
	Added     int `json:"added"`
	Refreshed int `json:"refreshed"`
	CacheHits int `json:"cache_hits"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Runner resolves entities one at a time and writes results into the cache.
type Runner struct {
	resolver        Resolver
	store           geocache.Store
	checkpointEvery int
	runID           string
}

// NewRunner creates a Runner. checkpointEvery <= 0 uses the default.
func NewRunner(resolver Resolver, store geocache.Store, checkpointEvery int, runID string) *Runner {
	if checkpointEvery <= 0 {
		checkpointEvery = DefaultCheckpointEvery
	}
	return &Runner{
		resolver:        resolver,
		store:           store,
		checkpointEvery: checkpointEvery,
		runID:           runID,
	}
}

// LocateHomes geocodes each home address not already cached. Any cached
// entry counts as a hit regardless of precision. The cache is saved once at
// the end, even after cancellation.
func (r *Runner) LocateHomes(ctx context.Context, entries geocache.Entries, addresses []string) (Stats, error) {
	log := zap.L().With(zap.String("run_id", r.runID), zap.String("phase", "homes"))
	var stats Stats

	for _, addr := range addresses {
		if ctx.Err() != nil {
			break
		}
		if addr == "" {
			stats.Skipped++
			continue
		}
		if _, ok := entries.Get(addr); ok {
			stats.CacheHits++
			continue
		}
		res := r.resolver.Lookup(ctx, addr)
		if res == nil {
			log.Warn("locate: home address not found", zap.String("address", addr))
			stats.Failed++
			continue
		}
		entries.Put(addr, res.Projection())
		stats.Added++
		log.Info("locate: home address added", zap.String("address", addr), zap.String("level", res.Level))
	}

	if err := r.save(ctx, entries); err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

// LocateKindergartens resolves every kindergarten by name and address.
//   - An acceptable cached entry is a hit and makes no call.
//   - An imprecise cached entry is re-resolved and replaced by any result.
//   - An uncached entity is inserted on success and left out on failure.
//
// The cache is saved after every checkpointEvery entities and once at the
// end. Cancellation stops the loop and the final save still runs.
func (r *Runner) LocateKindergartens(ctx context.Context, entries geocache.Entries, kgs []model.Kindergarten) (Stats, error) {
	log := zap.L().With(zap.String("run_id", r.runID), zap.String("phase", "kindergartens"))
	policy := r.resolver.Policy()
	var stats Stats

	for i, kg := range kgs {
		if ctx.Err() != nil {
			log.Warn("locate: interrupted", zap.Int("processed", i), zap.Int("total", len(kgs)))
			break
		}

		r.locateOne(ctx, log, entries, kg, policy, &stats)

		if (i+1)%r.checkpointEvery == 0 {
			if err := r.save(ctx, entries); err != nil {
				return stats, err
			}
			log.Info("locate: checkpoint", zap.Int("processed", i+1), zap.Int("total", len(kgs)))
		}
	}

	if err := r.save(ctx, entries); err != nil {
		return stats, err
	}
	return stats, ctx.Err()
}

func (r *Runner) locateOne(ctx context.Context, log *zap.Logger, entries geocache.Entries, kg model.Kindergarten, policy *geocode.Policy, stats *Stats) {
	if kg.Name == "" {
		stats.Skipped++
		return
	}
	log = log.With(zap.String("name", kg.Name))

	cached, ok := entries.Get(kg.Name)
	if ok && policy.Acceptable(cached.Level) {
		stats.CacheHits++
		return
	}

	res := r.resolver.Resolve(ctx, kg.Name, kg.Address)
	switch {
	case res == nil && ok:
		log.Debug("locate: refresh found nothing, keeping cached entry", zap.String("level", cached.Level))
		stats.Failed++
	case res == nil:
		log.Warn("locate: not found")
		stats.Failed++
	case ok:
		entries.Put(kg.Name, res.Projection())
		stats.Refreshed++
		log.Info("locate: refreshed", zap.String("from", cached.Level), zap.String("to", res.Level))
	default:
		entries.Put(kg.Name, res.Projection())
		stats.Added++
		log.Info("locate: added", zap.String("level", res.Level))
	}
}

// save persists entries on a context that survives cancellation of ctx.
func (r *Runner) save(ctx context.Context, entries geocache.Entries) error {
	if err := r.store.Save(context.WithoutCancel(ctx), entries); err != nil {
		return eris.Wrap(err, "locate: save cache")
	}
	return nil
}
