package ingest

import (
	"strings"

	"github.com/sells-group/kgmap/internal/fee"
	"github.com/sells-group/kgmap/internal/model"
)

// Inclusiveness markers. The tabular directory spells out the full category;
// the document only says 普惠 in its nature column.
const (
	TabularInclusiveMarker  = "普惠性民办园"
	DocumentInclusiveMarker = "普惠"

	privateNature = "民办"
)

// Inclusive derives the 是否普惠 flag from the organizational nature. Public
// kindergartens are always inclusive; private ones only when the nature
// carries marker.
func Inclusive(nature, marker string) string {
	if !strings.Contains(nature, privateNature) {
		return model.InclusiveYes
	}
	if strings.Contains(nature, marker) {
		return model.InclusiveYes
	}
	return model.InclusiveNo
}

// normalize turns one cleaned source record into dataset entries, one per fee class.
func normalize(rec model.SourceRecord, marker string) []model.Kindergarten {
	base := model.NewKindergarten(rec, Inclusive(rec.Nature, marker))
	return model.Expand(base, fee.ParseClasses(rec.Fee))
}
