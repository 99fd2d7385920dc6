package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kgmap/internal/fetcher"
	"github.com/sells-group/kgmap/internal/geocache"
	"github.com/sells-group/kgmap/internal/model"
	"github.com/sells-group/kgmap/internal/report"
	"github.com/sells-group/kgmap/pkg/geocode"
)

type memStore struct {
	entries geocache.Entries
	err     error
}

func (m *memStore) Load(context.Context) (geocache.Entries, error) { return m.entries, m.err }
func (m *memStore) Save(context.Context, geocache.Entries) error   { return nil }
func (m *memStore) Close() error                                   { return nil }

func newTestServer(t *testing.T, store geocache.Store, kgs []model.Kindergarten) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "school.json")
	if kgs != nil {
		require.NoError(t, fetcher.WriteJSONFile(path, kgs))
	}
	srv := httptest.NewServer(NewServer(path, store, geocode.NewPolicy(nil), []string{"https://map.example"}).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body := new(bytes.Buffer)
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, body.Bytes()
}

var cache = geocache.Entries{
	"阳光幼儿园":       {City: "广州市", Location: "113.33,23.14", Level: "兴趣点"},
	"中海誉东花园A7栋": {City: "广州市", Location: "113.40,23.12", Level: "道路"},
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &memStore{}, nil)
	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestKindergartens(t *testing.T) {
	kgs := []model.Kindergarten{{Name: "阳光幼儿园", Inclusive: model.InclusiveYes, Fee: "2500"}}
	srv := newTestServer(t, &memStore{}, kgs)

	resp, body := get(t, srv.URL+"/kindergartens")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.Kindergarten
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, kgs, got)
	assert.Contains(t, string(body), model.KeyFee)
}

func TestKindergartens_NoDataset(t *testing.T) {
	srv := newTestServer(t, &memStore{}, nil)
	resp, body := get(t, srv.URL+"/kindergartens")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestKindergartens_CorruptDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))
	srv := httptest.NewServer(NewServer(path, &memStore{}, geocode.NewPolicy(nil), nil).Routes())
	defer srv.Close()

	resp, body := get(t, srv.URL+"/kindergartens")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"dataset unavailable"}`, string(body))
}

func TestGeo(t *testing.T) {
	srv := newTestServer(t, &memStore{entries: cache}, nil)
	resp, body := get(t, srv.URL+"/geo")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]model.Geocode
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]model.Geocode(cache), got)
}

func TestGeo_StoreError(t *testing.T) {
	srv := newTestServer(t, &memStore{err: errors.New("boom")}, nil)
	resp, _ := get(t, srv.URL+"/geo")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGeoJSON(t *testing.T) {
	kgs := []model.Kindergarten{{Name: "阳光幼儿园"}}
	srv := newTestServer(t, &memStore{entries: cache}, kgs)

	resp, body := get(t, srv.URL+"/geo.geojson")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(body, &fc))
	require.Len(t, fc.Features, 2)
	kinds := map[string]any{}
	for _, f := range fc.Features {
		kinds[f.Properties["key"].(string)] = f.Properties["kind"]
	}
	assert.Equal(t, map[string]any{"阳光幼儿园": "kindergarten", "中海誉东花园A7栋": "home"}, kinds)
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, &memStore{entries: cache}, nil)

	resp, body := get(t, srv.URL+"/report")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var s report.Summary
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.AcceptableCount)

	resp, body = get(t, srv.URL+"/report?format=text")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "总计: 2个地点")

	resp, _ = get(t, srv.URL+"/report?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &memStore{}, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://map.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://map.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &memStore{}, nil)
	resp, err := http.Post(srv.URL+"/geo", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
