package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"name":"甲","level":"兴趣点"},{"name":"乙","level":"区县"}]`
	outCh, errCh := DecodeJSONArray[testItem](context.Background(), strings.NewReader(input))

	var items []testItem
	for item := range outCh {
		items = append(items, item)
	}
	for err := range errCh {
		require.NoError(t, err)
	}

	require.Len(t, items, 2)
	assert.Equal(t, "甲", items[0].Name)
	assert.Equal(t, "区县", items[1].Level)
}

func TestDecodeJSONArray_NotAnArray(t *testing.T) {
	outCh, errCh := DecodeJSONArray[testItem](context.Background(), strings.NewReader(`{"name":"x"}`))
	for range outCh {
	}
	var gotErr error
	for err := range errCh {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "expected '['")
}

func TestDecodeJSONArray_EmptyInput(t *testing.T) {
	outCh, errCh := DecodeJSONArray[testItem](context.Background(), strings.NewReader(""))
	for range outCh {
		t.Fatal("unexpected item")
	}
	for err := range errCh {
		assert.NoError(t, err)
	}
}

func TestReadJSONArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"a"},{"name":"b"}]`), 0o644))

	items, err := ReadJSONArrayFile[testItem](context.Background(), path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Name)
}

func TestReadJSONArrayFile_Missing(t *testing.T) {
	_, err := ReadJSONArrayFile[testItem](context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json: open")
}

func TestWriteJSONFile_CreatesDirAndSkipsHTMLEscape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSONFile(path, []testItem{{Name: "A&B<幼儿园>", Level: "门址"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"A&B<幼儿园>"`)
	assert.Contains(t, string(data), "\n  {")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteJSONFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSONFile(path, []int{1, 2, 3}))
	require.NoError(t, WriteJSONFile(path, []int{4}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[4]`, string(data))
}
