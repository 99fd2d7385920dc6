package ingest

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/internal/ocr"
	"github.com/sells-group/kgmap/internal/textnorm"
)

const (
	docTableMinCells = 6
	docRowMinCells   = 10
	docNameKeyword   = "幼儿园"
	defaultLocality  = "广州"

	// The text fallback inspects at most this many tokens after the name.
	fallbackWindow = 5
)

// Document column indices.
const (
	docColName    = 2
	docColNature  = 4
	docColAddress = 5
	docColPhone   = 6
	docColScale   = 7
	docColFee     = 10
)

var (
	docHeaderTokens = []string{"序号", "镇街", "园所名称", "办园性质"}

	// pdftotext -layout separates columns with runs of spaces; CJK documents
	// also pad with U+3000.
	layoutColumnSep  = regexp.MustCompile(`[ \t\x{3000}]{2,}`)
	markdownSepCell  = regexp.MustCompile(`^:?-{3,}:?$`)
	phonePattern     = regexp.MustCompile(`^\d{3,4}-?\d{8}$`)
	cityPhonePattern = regexp.MustCompile(`^020-\d{8}$`)
	shortNumber      = regexp.MustCompile(`^\d{1,3}$`)
)

// DocumentIngestor extracts directory rows from the table-bearing PDF.
type DocumentIngestor struct {
	extractor ocr.Extractor
	locality  string
}

// NewDocumentIngestor creates a DocumentIngestor. locality is the keyword that
// identifies an address token in the text fallback; empty means 广州.
func NewDocumentIngestor(extractor ocr.Extractor, locality string) *DocumentIngestor {
	if locality == "" {
		locality = defaultLocality
	}
	return &DocumentIngestor{extractor: extractor, locality: locality}
}

// Ingest extracts the PDF at path and parses it page by page.
func (d *DocumentIngestor) Ingest(ctx context.Context, path string) ([]model.Kindergarten, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "ingest: pdf file not found at %s", path)
	}

	text, err := d.extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: extract %s", path)
	}

	log := zap.L().With(zap.String("source", path))

	pages := ocr.SplitPages(text)
	var out []model.Kindergarten
	fallbackPages := 0
	for i, page := range pages {
		rows := tableRows(page)
		if len(rows) == 0 {
			fallbackPages++
			log.Debug("ingest: no table on page, using text lines", zap.Int("page", i+1))
			out = append(out, d.parseTextLines(page)...)
			continue
		}
		for _, row := range rows {
			rec, ok := documentRecord(row)
			if !ok {
				log.Debug("ingest: skip document row", zap.Int("page", i+1), zap.Int("cells", len(row)))
				continue
			}
			out = append(out, normalize(rec, DocumentInclusiveMarker)...)
		}
	}

	log.Info("ingest: document source parsed",
		zap.Int("pages", len(pages)),
		zap.Int("fallback_pages", fallbackPages),
		zap.Int("entities", len(out)),
	)
	return out, nil
}

// tableRows recovers table rows from one page. Markdown pipe rows come from
// the Mistral extractor; aligned columns come from pdftotext -layout. Only
// lines with at least docTableMinCells cells count as rows.
//
// Layout splitting cannot see an empty cell, so once a layout header fixes
// the page's width, layout rows of any other width are dropped rather than
// read with shifted columns.
func tableRows(page string) [][]string {
	var rows [][]string
	layoutWidth := 0
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "|") {
			cells := markdownCells(line)
			if len(cells) >= docTableMinCells {
				rows = append(rows, cells)
			}
			continue
		}

		cells := layoutColumnSep.Split(line, -1)
		if len(cells) < docTableMinCells {
			continue
		}
		if isHeaderRow(cells) {
			layoutWidth = len(cells)
		} else if layoutWidth > 0 && len(cells) != layoutWidth {
			zap.L().Debug("ingest: skip layout row with missing cells",
				zap.Int("cells", len(cells)), zap.Int("want", layoutWidth))
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

// markdownCells splits "| a | b |". Separator rows return nil.
func markdownCells(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")

	separator := true
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if !markdownSepCell.MatchString(parts[i]) {
			separator = false
		}
	}
	if separator {
		return nil
	}
	return parts
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		for _, tok := range docHeaderTokens {
			if strings.Contains(c, tok) {
				return true
			}
		}
	}
	return false
}

// cell returns the cleaned cell at i, or "" when the row is shorter.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return textnorm.Clean(row[i])
}

// documentRecord maps one table row to a cleaned SourceRecord.
func documentRecord(row []string) (model.SourceRecord, bool) {
	if len(row) < docRowMinCells || isHeaderRow(row) {
		return model.SourceRecord{}, false
	}
	rec := model.SourceRecord{
		Name:    cell(row, docColName),
		Nature:  cell(row, docColNature),
		Address: cell(row, docColAddress),
		Phone:   cell(row, docColPhone),
		Scale:   cell(row, docColScale),
		Fee:     cell(row, docColFee),
	}
	if !strings.Contains(rec.Name, docNameKeyword) {
		return model.SourceRecord{}, false
	}
	return rec, true
}

// parseTextLines is the best-effort path for pages without a table. Each line
// naming a kindergarten yields at most one record; the tokens after the name
// are classified by shape.
func (d *DocumentIngestor) parseTextLines(page string) []model.Kindergarten {
	var out []model.Kindergarten
	for _, line := range strings.Split(page, "\n") {
		if !strings.Contains(line, docNameKeyword) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < docTableMinCells {
			continue
		}
		rec, ok := d.textLineRecord(tokens)
		if !ok {
			continue
		}
		out = append(out, normalize(rec, DocumentInclusiveMarker)...)
	}
	return out
}

func (d *DocumentIngestor) textLineRecord(tokens []string) (model.SourceRecord, bool) {
	for i, tok := range tokens {
		if !strings.Contains(tok, docNameKeyword) {
			continue
		}

		rec := model.SourceRecord{Name: textnorm.Clean(tok)}
		end := min(i+1+fallbackWindow, len(tokens))
		for _, raw := range tokens[i+1 : end] {
			part := textnorm.Clean(raw)
			switch {
			case strings.Contains(part, "公办") || strings.Contains(part, privateNature):
				rec.Nature = part
			case phonePattern.MatchString(part) || cityPhonePattern.MatchString(part):
				rec.Phone = part
			case shortNumber.MatchString(part):
				if rec.Scale == "" {
					rec.Scale = part
				} else if rec.Fee == "" {
					rec.Fee = part
				}
			case strings.Contains(part, d.locality):
				rec.Address = part
			}
		}
		return rec, true
	}
	return model.SourceRecord{}, false
}
