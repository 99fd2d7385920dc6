// Package ingest turns the tabular directory and the table-bearing PDF into
// the normalized kindergarten dataset.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/kgmap/internal/fetcher"
	"github.com/sells-group/kgmap/internal/model"
)

// Ingestor parses one source document into dataset entries.
type Ingestor interface {
	Ingest(ctx context.Context, path string) ([]model.Kindergarten, error)
}

// Options names the inputs and the dataset output.
type Options struct {
	CSVPath string
	PDFPath string
	Output  string
}

// Result summarizes an ingestion run.
type Result struct {
	CSVCount int
	PDFCount int
	Output   string
}

// Total is the number of entries written.
func (r *Result) Total() int { return r.CSVCount + r.PDFCount }

// Run checks that both inputs exist, parses them concurrently and writes the
// dataset: tabular entries first, then document entries, each in source order.
func Run(ctx context.Context, tabular, document Ingestor, opts Options) (*Result, error) {
	if _, err := os.Stat(opts.CSVPath); err != nil {
		return nil, eris.Wrapf(err, "ingest: csv file not found at %s", opts.CSVPath)
	}
	if _, err := os.Stat(opts.PDFPath); err != nil {
		return nil, eris.Wrapf(err, "ingest: pdf file not found at %s", opts.PDFPath)
	}

	var csvData, pdfData []model.Kindergarten
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		csvData, err = tabular.Ingest(gctx, opts.CSVPath)
		return err
	})
	g.Go(func() error {
		var err error
		pdfData, err = document.Ingest(gctx, opts.PDFPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]model.Kindergarten, 0, len(csvData)+len(pdfData))
	all = append(all, csvData...)
	all = append(all, pdfData...)

	if err := fetcher.WriteJSONFile(opts.Output, all); err != nil {
		return nil, eris.Wrap(err, "ingest: write dataset")
	}

	zap.L().Info("ingest: dataset written",
		zap.String("output", opts.Output),
		zap.Int("csv", len(csvData)),
		zap.Int("pdf", len(pdfData)),
	)

	return &Result{CSVCount: len(csvData), PDFCount: len(pdfData), Output: opts.Output}, nil
}

// LoadDataset reads a dataset written by Run.
func LoadDataset(ctx context.Context, path string) ([]model.Kindergarten, error) {
	kgs, err := fetcher.ReadJSONArrayFile[model.Kindergarten](ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: load dataset %s", path)
	}
	return kgs, nil
}

// LoadDatasetIfPresent is LoadDataset for readers that can run before the
// first ingest: a missing file yields an empty, non-nil list.
func LoadDatasetIfPresent(ctx context.Context, path string) ([]model.Kindergarten, error) {
	kgs, err := LoadDataset(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("ingest: dataset not found, using empty list", zap.String("path", path))
		return []model.Kindergarten{}, nil
	}
	if err != nil {
		return nil, err
	}
	if kgs == nil {
		kgs = []model.Kindergarten{}
	}
	return kgs, nil
}
