package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/config"
	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/ingest"
	"github.com/sells-group/kgmap/internal/locate"
	"github.com/sells-group/kgmap/internal/report"
	"github.com/sells-group/kgmap/internal/resilience"
	"github.com/sells-group/kgmap/pkg/geocode"
)

var (
	geocodeDataset   string
	geocodeSkipHomes bool
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode home addresses and every dataset entry, then report precision",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		override(&cfg.Ingest.Output, geocodeDataset)
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}

		runID := uuid.NewString()
		store, err := geocache.Open(ctx, cfg.Store, runID)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		return runGeocode(ctx, cmd.OutOrStdout(), cfg, newResolver(cfg), store, runID, !geocodeSkipHomes)
	},
}

// newResolver wires the AMap client with its governor, retry and breaker.
func newResolver(c *config.Config) *geocode.Resolver {
	governor := geocode.NewGovernor(c.AMap.MaxPerSecond, time.Duration(c.AMap.MinIntervalMs)*time.Millisecond)
	client := geocode.NewAMapClient(c.AMap.Key,
		geocode.WithBaseURL(c.AMap.BaseURL),
		geocode.WithTimeout(time.Duration(c.AMap.TimeoutSecs)*time.Second),
		geocode.WithGovernor(governor),
		geocode.WithRetry(resilience.RetryAttempts(c.AMap.RetryAttempts)),
		geocode.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.BreakerThreshold(c.AMap.CircuitThreshold))),
	)
	return geocode.NewResolver(client, geocode.NewPolicy(c.Geocode.PreciseLevels), c.AMap.City)
}

// runGeocode processes home addresses, then kindergartens, then prints the
// precision report. An interrupt after the cache is saved is not an error.
func runGeocode(ctx context.Context, out io.Writer, c *config.Config, resolver locate.Resolver, store geocache.Store, runID string, homes bool) error {
	log := zap.L().With(zap.String("run_id", runID))

	kgs, err := ingest.LoadDataset(ctx, c.Ingest.Output)
	if err != nil {
		return fmt.Errorf("%w (run `kgmap ingest` first)", err)
	}
	entries, err := store.Load(ctx)
	if err != nil {
		return err
	}
	log.Info("geocode: starting",
		zap.Int("kindergartens", len(kgs)),
		zap.Int("cached", len(entries)),
		zap.Strings("precise_levels", resolver.Policy().Levels()),
	)

	runner := locate.NewRunner(resolver, store, c.Geocode.CheckpointEvery, runID)

	if homes {
		stats, err := runner.LocateHomes(ctx, entries, c.Geocode.HomeAddresses)
		if interrupted(err) {
			log.Warn("geocode: interrupted during home addresses; cache saved")
			return nil
		}
		if err != nil {
			return err
		}
		printStats(out, "家庭住址", stats)
	}

	stats, err := runner.LocateKindergartens(ctx, entries, kgs)
	if interrupted(err) {
		log.Warn("geocode: interrupted; cache saved", zap.Int("added", stats.Added))
		printStats(out, "幼儿园（已中断）", stats)
		return nil
	}
	if err != nil {
		return err
	}
	printStats(out, "幼儿园", stats)

	return report.WriteText(out, report.Summarize(entries, resolver.Policy()))
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func printStats(w io.Writer, phase string, s locate.Stats) {
	fmt.Fprintf(w, "%s: 新增 %d，更新 %d，缓存命中 %d，失败 %d，跳过 %d\n",
		phase, s.Added, s.Refreshed, s.CacheHits, s.Failed, s.Skipped)
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeDataset, "dataset", "", "dataset JSON path (default from config ingest.output)")
	geocodeCmd.Flags().BoolVar(&geocodeSkipHomes, "skip-homes", false, "skip the home address list")
	rootCmd.AddCommand(geocodeCmd)
}
