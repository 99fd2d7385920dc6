package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kgmap",
	Short: "Kindergarten directory normalizer and geocoder",
	Long:  "Normalizes the kindergarten directory (CSV/XLSX and PDF) into a JSON dataset and geocodes every entry through AMap with a durable cache.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
