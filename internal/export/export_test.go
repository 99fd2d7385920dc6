package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/pkg/geocode"
)

func fixture() (geocache.Entries, []model.Kindergarten) {
	entries := geocache.Entries{
		"阳光幼儿园（成长班）": {Province: "广东省", City: "广州市", District: "天河区", Location: "113.33,23.14", Level: "兴趣点"},
		"越秀·保利爱特城22栋":  {Province: "广东省", City: "广州市", District: "越秀区", Location: "113.28,23.13", Level: "道路"},
		"坏坐标幼儿园":        {Location: "not-a-point", Level: "兴趣点"},
	}
	kgs := []model.Kindergarten{
		{Name: "阳光幼儿园（成长班）", Nature: "民办", Inclusive: model.InclusiveYes, Scale: "6", Address: "天河路1号", Fee: "2500", Phone: "020-1234"},
		{Name: "坏坐标幼儿园"},
	}
	return entries, kgs
}

func TestParseLocation(t *testing.T) {
	lon, lat, err := ParseLocation("113.33,23.14")
	require.NoError(t, err)
	assert.InDelta(t, 113.33, lon, 1e-9)
	assert.InDelta(t, 23.14, lat, 1e-9)

	for _, bad := range []string{"", "113.33", "a,b", "113.33,x", "200,10", "10,95"} {
		_, _, err := ParseLocation(bad)
		assert.Error(t, err, bad)
	}
}

func TestJoin(t *testing.T) {
	entries, kgs := fixture()
	points := Join(entries, kgs, geocode.NewPolicy(nil))

	require.Len(t, points, 2)
	assert.Equal(t, "越秀·保利爱特城22栋", points[0].Key)
	assert.Equal(t, KindHome, points[0].Kind)
	assert.Nil(t, points[0].Kindergarten)
	assert.False(t, points[0].Acceptable)

	assert.Equal(t, "阳光幼儿园（成长班）", points[1].Key)
	assert.Equal(t, KindKindergarten, points[1].Kind)
	require.NotNil(t, points[1].Kindergarten)
	assert.Equal(t, "2500", points[1].Kindergarten.Fee)
	assert.True(t, points[1].Acceptable)
}

func TestWriteGeoJSON(t *testing.T) {
	entries, kgs := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, Join(entries, kgs, geocode.NewPolicy(nil))))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	home := fc.Features[0]
	assert.Equal(t, "Point", home.Geometry.Type)
	assert.Equal(t, []float64{113.28, 23.13}, home.Geometry.Coordinates)
	assert.Equal(t, "home", home.Properties["kind"])
	assert.NotContains(t, home.Properties, model.KeyFee)

	kg := fc.Features[1]
	assert.Equal(t, "阳光幼儿园（成长班）", kg.ID)
	assert.Equal(t, "kindergarten", kg.Properties["kind"])
	assert.Equal(t, true, kg.Properties["acceptable"])
	assert.Equal(t, "2500", kg.Properties[model.KeyFee])
	assert.Equal(t, "是", kg.Properties[model.KeyInclusive])
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, nil))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, buf.String())
}

func TestWriteShapefile(t *testing.T) {
	entries, kgs := fixture()
	base := filepath.Join(t.TempDir(), "kg")
	require.NoError(t, WriteShapefile(base+".shp", Join(entries, kgs, geocode.NewPolicy(nil))))

	for _, ext := range []string{".shp", ".shx", ".dbf", ".cpg"} {
		assert.FileExists(t, base+ext)
	}
	cpg, err := os.ReadFile(base + ".cpg")
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", strings.TrimSpace(string(cpg)))

	r, err := shp.Open(base + ".shp")
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	idx := map[string]int{}
	for i, f := range r.Fields() {
		idx[f.String()] = i
	}

	type row struct{ key, kind, fee, accept string }
	var rows []row
	var xs []float64
	for r.Next() {
		_, s := r.Shape()
		p, ok := s.(*shp.Point)
		require.True(t, ok)
		xs = append(xs, p.X)
		rows = append(rows, row{
			key:    r.Attribute(idx["KEY"]),
			kind:   r.Attribute(idx["KIND"]),
			fee:    r.Attribute(idx["FEE"]),
			accept: r.Attribute(idx["ACCEPT"]),
		})
	}
	assert.Equal(t, []float64{113.28, 113.33}, xs)
	assert.Equal(t, []row{
		{key: "越秀·保利爱特城22栋", kind: "home", accept: "N"},
		{key: "阳光幼儿园（成长班）", kind: "kindergarten", fee: "2500", accept: "Y"},
	}, rows)
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	// "幼" is three bytes; a cut inside it drops the whole rune.
	assert.Equal(t, "幼 ", fit("幼儿", 4))
	assert.Equal(t, "", fit("", 0))
}
