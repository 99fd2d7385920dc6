// Package export writes cached geocodes joined with the kindergarten dataset
// as GeoJSON or an ESRI point shapefile.
package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/pkg/geocode"
)

// Point kinds.
const (
	KindKindergarten = "kindergarten"
	KindHome         = "home"
)

// Point is one located cache entry.
type Point struct {
	Key          string
	Kind         string
	Lon, Lat     float64
	Geocode      model.Geocode
	Acceptable   bool
	Kindergarten *model.Kindergarten
}

// Join pairs each cache entry with the dataset row of the same display name.
// Keys absent from the dataset are home addresses. Entries whose location
// does not parse are skipped. Output is ordered by key.
func Join(entries geocache.Entries, kgs []model.Kindergarten, policy *geocode.Policy) []Point {
	byName := make(map[string]*model.Kindergarten, len(kgs))
	for i := range kgs {
		byName[kgs[i].Name] = &kgs[i]
	}

	points := make([]Point, 0, len(entries))
	var skipped int
	for _, key := range entries.Keys() {
		g := entries[key]
		lon, lat, err := ParseLocation(g.Location)
		if err != nil {
			zap.L().Warn("export: skipping entry", zap.String("key", key), zap.Error(err))
			skipped++
			continue
		}
		p := Point{
			Key:        key,
			Kind:       KindHome,
			Lon:        lon,
			Lat:        lat,
			Geocode:    g,
			Acceptable: policy.Acceptable(g.Level),
		}
		if kg, ok := byName[key]; ok {
			p.Kind = KindKindergarten
			p.Kindergarten = kg
		}
		points = append(points, p)
	}
	if skipped > 0 {
		zap.L().Info("export: skipped unlocatable entries", zap.Int("skipped", skipped))
	}
	return points
}

// ParseLocation splits a "lon,lat" string.
func ParseLocation(s string) (lon, lat float64, err error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, eris.Errorf("export: malformed location %q", s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "export: longitude in %q", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "export: latitude in %q", s)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return 0, 0, eris.Errorf("export: location out of range %q", s)
	}
	return lon, lat, nil
}
