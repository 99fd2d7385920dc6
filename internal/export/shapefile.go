package export

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// shpFields is the DBF schema. Names are limited to 10 ASCII bytes.
var shpFields = []shp.Field{
	shp.StringField("KEY", 254),
	shp.StringField("KIND", 12),
	shp.StringField("PROVINCE", 40),
	shp.StringField("CITY", 40),
	shp.StringField("DISTRICT", 40),
	shp.StringField("LEVEL", 24),
	shp.StringField("ACCEPT", 1),
	shp.StringField("NATURE", 40),
	shp.StringField("INCLUSIVE", 4),
	shp.StringField("SCALE", 12),
	shp.StringField("ADDRESS", 254),
	shp.StringField("FEE", 20),
	shp.StringField("PHONE", 60),
}

// WriteShapefile writes points as a POINT shapefile at base (.shp, .shx,
// .dbf and a .cpg declaring UTF-8). base may end in ".shp".
func WriteShapefile(base string, points []Point) error {
	base = strings.TrimSuffix(base, ".shp")

	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "shapefile: create %s", base)
	}
	if err := w.SetFields(shpFields); err != nil {
		w.Close()
		return eris.Wrap(err, "shapefile: set fields")
	}

	for _, p := range points {
		row := int(w.Write(&shp.Point{X: p.Lon, Y: p.Lat}))
		for i, v := range attributes(p) {
			if err := w.WriteAttribute(row, i, fit(v, int(shpFields[i].Size))); err != nil {
				w.Close()
				return eris.Wrapf(err, "shapefile: attribute %s of %s", shpFields[i], p.Key)
			}
		}
	}
	w.Close()

	// go-shp names the table "<base>dbf".
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "shapefile: rename dbf")
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8\n"), 0o644); err != nil {
		return eris.Wrap(err, "shapefile: write cpg")
	}
	return nil
}

func attributes(p Point) []string {
	accept := "N"
	if p.Acceptable {
		accept = "Y"
	}
	vals := []string{
		p.Key, p.Kind,
		p.Geocode.Province, p.Geocode.City, p.Geocode.District, p.Geocode.Level,
		accept,
		"", "", "", "", "", "",
	}
	if kg := p.Kindergarten; kg != nil {
		copy(vals[7:], []string{kg.Nature, kg.Inclusive, kg.Scale, kg.Address, kg.Fee, kg.Phone})
	}
	return vals
}

// fit truncates s to size bytes on a rune boundary and pads it with spaces.
func fit(s string, size int) string {
	for len(s) > size {
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
	}
	return s + strings.Repeat(" ", size-len(s))
}
