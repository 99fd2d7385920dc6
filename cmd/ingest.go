package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/ingest"
	"github.com/sells-group/kgmap/internal/ocr"
)

var (
	ingestCSV    string
	ingestPDF    string
	ingestOutput string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize the CSV/XLSX and PDF directories into the dataset JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		override(&cfg.Ingest.CSVPath, ingestCSV)
		override(&cfg.Ingest.PDFPath, ingestPDF)
		override(&cfg.Ingest.Output, ingestOutput)
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		extractor, err := ocr.NewExtractor(cfg.Ingest.OCR)
		if err != nil {
			return err
		}

		res, err := ingest.Run(ctx,
			ingest.NewTabularIngestor(cfg.Ingest.CSVEncoding),
			ingest.NewDocumentIngestor(extractor, cfg.Ingest.Locality),
			ingest.Options{
				CSVPath: cfg.Ingest.CSVPath,
				PDFPath: cfg.Ingest.PDFPath,
				Output:  cfg.Ingest.Output,
			},
		)
		if err != nil {
			return err
		}

		zap.L().Info("ingest complete",
			zap.Int("csv", res.CSVCount),
			zap.Int("pdf", res.PDFCount),
			zap.String("output", res.Output),
		)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "CSV: %d 条\n", res.CSVCount)
		fmt.Fprintf(out, "PDF: %d 条\n", res.PDFCount)
		fmt.Fprintf(out, "合计 %d 条，已写入 %s\n", res.Total(), res.Output)
		return nil
	},
}

// override replaces *dst with a non-empty flag value.
func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "tabular source, .csv or .xlsx (default from config)")
	ingestCmd.Flags().StringVar(&ingestPDF, "pdf", "", "PDF source (default from config)")
	ingestCmd.Flags().StringVar(&ingestOutput, "output", "", "dataset JSON path (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
