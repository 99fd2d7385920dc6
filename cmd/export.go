package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/export"
	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/ingest"
	"github.com/sells-group/kgmap/pkg/geocode"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write cached geocodes joined with the dataset as GeoJSON or a shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		store, err := geocache.Open(ctx, cfg.Store, "")
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		entries, err := store.Load(ctx)
		if err != nil {
			return err
		}
		kgs, err := ingest.LoadDatasetIfPresent(ctx, cfg.Ingest.Output)
		if err != nil {
			return err
		}
		points := export.Join(entries, kgs, geocode.NewPolicy(cfg.Geocode.PreciseLevels))

		out := exportOut
		switch exportFormat {
		case "geojson":
			if out == "" {
				out = "data/geo.geojson"
			}
			if err := writeGeoJSONFile(out, points); err != nil {
				return err
			}
		case "shapefile":
			if out == "" {
				out = "data/geo.shp"
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return eris.Wrap(err, "export: create directory")
			}
			if err := export.WriteShapefile(out, points); err != nil {
				return err
			}
		default:
			return eris.Errorf("export: unknown format %q", exportFormat)
		}

		zap.L().Info("export complete", zap.String("format", exportFormat), zap.Int("points", len(points)))
		fmt.Fprintf(cmd.OutOrStdout(), "已导出 %d 个点到 %s\n", len(points), out)
		return nil
	},
}

func writeGeoJSONFile(path string, points []export.Point) error {
	if path == "-" {
		return export.WriteGeoJSON(os.Stdout, points)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "export: create directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := export.WriteGeoJSON(f, points); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "output format: geojson or shapefile")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path, - for stdout (geojson only)")
	rootCmd.AddCommand(exportCmd)
}
