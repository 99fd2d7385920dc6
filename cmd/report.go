package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/report"
	"github.com/sells-group/kgmap/pkg/geocode"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize cached geocodes by match level",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		store, err := geocache.Open(cmd.Context(), cfg.Store, "")
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		entries, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		summary := report.Summarize(entries, geocode.NewPolicy(cfg.Geocode.PreciseLevels))
		return report.Write(cmd.OutOrStdout(), summary, reportFormat)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(reportCmd)
}
