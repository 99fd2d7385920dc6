package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/fetcher"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/internal/textnorm"
)

const (
	tabularSkipLines = 2
	tabularMinCols   = 10
	tabularHeader    = "幼儿园名称"
)

// Tabular column indices.
const (
	colName         = 1
	colNature       = 3
	colInclusiveRaw = 4
	colScale        = 5
	colAddress      = 6
	colFee          = 8
	colPhone        = 9
)

// TabularIngestor reads the published directory as CSV or as the same table
// exported to XLSX.
type TabularIngestor struct {
	// Encoding is the CSV charset label (e.g. "gbk"). Ignored for XLSX.
	Encoding string
}

// NewTabularIngestor creates a TabularIngestor for the given CSV charset.
func NewTabularIngestor(encoding string) *TabularIngestor {
	return &TabularIngestor{Encoding: encoding}
}

// Ingest parses the file at path. The format is chosen by extension: .xlsx
// is read as a workbook, anything else as CSV.
func (t *TabularIngestor) Ingest(ctx context.Context, path string) ([]model.Kindergarten, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "ingest: csv file not found at %s", path)
	}

	log := zap.L().With(zap.String("source", path))

	malformed := 0
	rows, err := t.readRows(ctx, path, func(line int, err error) {
		malformed++
		log.Warn("ingest: skip malformed tabular row", zap.Int("line", line), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}

	var out []model.Kindergarten
	skipped := malformed
	for _, row := range rows {
		rec, ok := tabularRecord(row.Fields)
		if !ok {
			skipped++
			log.Debug("ingest: skip tabular row", zap.Int("line", row.Line), zap.Int("cells", len(row.Fields)))
			continue
		}
		out = append(out, normalize(rec, TabularInclusiveMarker)...)
	}

	log.Info("ingest: tabular source parsed",
		zap.Int("rows", len(rows)+malformed),
		zap.Int("skipped", skipped),
		zap.Int("entities", len(out)),
	)
	return out, nil
}

// readRows returns the data rows with their source line (CSV) or sheet row
// (XLSX) numbers. Malformed CSV rows go to onBad and are left out.
func (t *TabularIngestor) readRows(ctx context.Context, path string, onBad func(line int, err error)) ([]fetcher.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: tabularSkipLines})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", path)
		}
		recs := make([]fetcher.Record, len(rows))
		for i, row := range rows {
			recs[i] = fetcher.Record{Line: i + tabularSkipLines + 1, Fields: row}
		}
		return recs, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	// Hand-typed cells carry bare quotes (广州市"某"路); accept them the way
	// spreadsheet exports do.
	rows, err := fetcher.CollectCSVRecords(ctx, f, fetcher.CSVOptions{
		SkipLines:  tabularSkipLines,
		Encoding:   t.Encoding,
		LazyQuotes: true,
		OnBadRow:   onBad,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return rows, nil
}

// tabularRecord maps one row to a cleaned SourceRecord. Short rows, blank
// names and repeated header rows are rejected.
func tabularRecord(row []string) (model.SourceRecord, bool) {
	if len(row) < tabularMinCols {
		return model.SourceRecord{}, false
	}
	if strings.TrimSpace(row[colName]) == "" || row[colName] == tabularHeader {
		return model.SourceRecord{}, false
	}
	return model.SourceRecord{
		Name:         textnorm.Clean(row[colName]),
		Nature:       textnorm.Clean(row[colNature]),
		InclusiveRaw: textnorm.Clean(row[colInclusiveRaw]),
		Scale:        textnorm.Clean(row[colScale]),
		Address:      textnorm.Clean(row[colAddress]),
		Fee:          textnorm.Clean(row[colFee]),
		Phone:        textnorm.Clean(row[colPhone]),
	}, true
}
