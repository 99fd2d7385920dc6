// Package fetcher reads the tabular inputs (CSV, XLSX) and the JSON dataset.
package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune   // default ','
	SkipLines  int    // raw lines dropped before parsing, e.g. title banners
	Encoding   string // WHATWG label such as "gbk"; empty or "utf-8" reads bytes as-is
	LazyQuotes bool
	TrimSpace  bool

	// OnBadRow, when set, turns a malformed row into a skip: it is called
	// with the row's source line and the parse error, and reading continues.
	// When nil a malformed row ends the stream with an error.
	OnBadRow func(line int, err error)
}

// Record is one parsed CSV row and the source line it starts on, counted
// from 1 and including skipped banner lines.
type Record struct {
	Line   int
	Fields []string
}

// StreamCSV reads CSV rows from r and sends them to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		err := readCSV(ctx, r, opts, func(rec Record) error {
			select {
			case rowCh <- rec.Fields:
				return nil
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "csv: context cancelled")
			}
		})
		if err != nil {
			errCh <- err
		}
	}()

	return rowCh, errCh
}

// CollectCSV drains StreamCSV into a slice.
func CollectCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

// CollectCSVRecords reads every row of r along with its source line.
func CollectCSVRecords(ctx context.Context, r io.Reader, opts CSVOptions) ([]Record, error) {
	var recs []Record
	err := readCSV(ctx, r, opts, func(rec Record) error {
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

func readCSV(ctx context.Context, r io.Reader, opts CSVOptions, emit func(Record) error) error {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return err
	}

	br := bufio.NewReader(decoded)
	for i := 0; i < opts.SkipLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil
			}
			return eris.Wrap(err, "csv: skip line")
		}
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // rows are ragged in the published directory

	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if opts.OnBadRow != nil && errors.As(err, &perr) {
				opts.OnBadRow(perr.StartLine+opts.SkipLines, err)
				continue
			}
			return eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		line, _ := reader.FieldPos(0)
		if err := emit(Record{Line: line + opts.SkipLines, Fields: record}); err != nil {
			return err
		}
	}
}

func decodeReader(r io.Reader, label string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(r), nil
}
