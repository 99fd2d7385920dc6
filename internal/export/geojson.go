package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/kgmap/internal/model"
)

// FeatureCollection builds a GeoJSON FeatureCollection of points.
func FeatureCollection(points []Point) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(points))}
	for _, p := range points {
		pt, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{p.Lon, p.Lat})
		if err != nil {
			return nil, eris.Wrapf(err, "geojson: point for %s", p.Key)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.Key,
			Geometry:   pt,
			Properties: properties(p),
		})
	}
	return fc, nil
}

func properties(p Point) map[string]any {
	props := map[string]any{
		"key":        p.Key,
		"kind":       p.Kind,
		"province":   p.Geocode.Province,
		"city":       p.Geocode.City,
		"district":   p.Geocode.District,
		"level":      p.Geocode.Level,
		"acceptable": p.Acceptable,
	}
	if kg := p.Kindergarten; kg != nil {
		props[model.KeyName] = kg.Name
		props[model.KeyNature] = kg.Nature
		props[model.KeyInclusive] = kg.Inclusive
		props[model.KeyScale] = kg.Scale
		props[model.KeyAddress] = kg.Address
		props[model.KeyFee] = kg.Fee
		props[model.KeyPhone] = kg.Phone
	}
	return props
}

// WriteGeoJSON encodes points as a FeatureCollection to w.
func WriteGeoJSON(w io.Writer, points []Point) error {
	fc, err := FeatureCollection(points)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "geojson: marshal")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "geojson: write")
	}
	return nil
}
