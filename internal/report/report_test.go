package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/pkg/geocode"
)

func sampleEntries() geocache.Entries {
	return geocache.Entries{
		"a": {Level: "兴趣点"},
		"b": {Level: "兴趣点"},
		"c": {Level: "兴趣点"},
		"d": {Level: "道路"},
		"e": {Level: "区县"},
		"f": {},
		"g": {Level: "道路"},
		"h": {Level: "门址"},
	}
}

func TestSummarize_Ordering(t *testing.T) {
	s := Summarize(sampleEntries(), geocode.NewPolicy(nil))

	require.Len(t, s.Levels, 5)
	var order []string
	for _, lc := range s.Levels {
		order = append(order, lc.Level)
	}
	// Ties break on level so output is stable.
	assert.Equal(t, []string{"兴趣点", "道路", "区县", "未知", "门址"}, order)
	assert.Equal(t, 3, s.Levels[0].Count)
	assert.InDelta(t, 37.5, s.Levels[0].Percent, 1e-9)
	assert.True(t, s.Levels[0].Acceptable)
	assert.False(t, s.Levels[1].Acceptable)
}

func TestSummarize_Totals(t *testing.T) {
	s := Summarize(sampleEntries(), geocode.NewPolicy(nil))
	assert.Equal(t, 8, s.Total)
	assert.Equal(t, 4, s.AcceptableCount)
	assert.InDelta(t, 50.0, s.AcceptablePercent, 1e-9)
	assert.InDelta(t, 50.0, s.UnacceptablePercent, 1e-9)
	assert.Equal(t, geocode.DefaultPreciseLevels, s.AcceptableLevels)
}

func TestSummarize_UnknownLevel(t *testing.T) {
	s := Summarize(geocache.Entries{"x": model.Geocode{Location: "1,1"}}, geocode.NewPolicy(nil))
	require.Len(t, s.Levels, 1)
	assert.Equal(t, UnknownLevel, s.Levels[0].Level)
	assert.False(t, s.Levels[0].Acceptable)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(geocache.Entries{}, geocode.NewPolicy(nil))
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AcceptablePercent)
	assert.Zero(t, s.UnacceptablePercent)
	assert.Empty(t, s.Levels)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))
	assert.Contains(t, buf.String(), "总计: 0个地点")
}

func TestSummarize_CustomPolicy(t *testing.T) {
	s := Summarize(sampleEntries(), geocode.NewPolicy([]string{"道路"}))
	assert.Equal(t, 2, s.AcceptableCount)
	assert.Equal(t, "道路", s.Levels[1].Level)
	assert.True(t, s.Levels[1].Acceptable)
}

func TestWriteText(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Summarize(sampleEntries(), geocode.NewPolicy(nil))))

	out := buf.String()
	assert.Contains(t, out, "坐标精确度统计:")
	assert.Contains(t, out, "  3个 ( 37.5%) ✓ 精确")
	assert.Contains(t, out, "⚠ 可能不精确")
	assert.Contains(t, out, "精确坐标: 4个 (50.0%)")
	assert.Contains(t, out, "可能不精确: 4个 (50.0%)")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Summarize(sampleEntries(), geocode.NewPolicy(nil))))

	var got Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 8, got.Total)
	assert.Equal(t, "兴趣点", got.Levels[0].Level)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Summarize(sampleEntries(), geocode.NewPolicy(nil)), "yaml"))

	var got Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 4, got.AcceptableCount)
	assert.Len(t, got.Levels, 5)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Summary{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}
