package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kgmap/internal/fetcher"
	"github.com/sells-group/kgmap/internal/model"
)

// envelope is the JSON file layout.
type envelope struct {
	SchemaVersion int                      `json:"schema_version"`
	RunID         string                   `json:"run_id,omitempty"`
	Entries       map[string]model.Geocode `json:"entries"`
}

// JSONStore keeps the cache in a single JSON file. Saves overwrite the file
// through a temp file and rename.
type JSONStore struct {
	path  string
	runID string
}

// NewJSONStore creates a JSONStore at path.
func NewJSONStore(path, runID string) *JSONStore {
	return &JSONStore{path: path, runID: runID}
}

// Load reads the file. A missing file is an empty cache; an unreadable or
// corrupt one is logged and also treated as empty.
func (s *JSONStore) Load(_ context.Context) (Entries, error) {
	log := zap.L().With(zap.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entries{}, nil
	}
	if err != nil {
		log.Warn("geocache: read failed, starting empty", zap.Error(err))
		return Entries{}, nil
	}

	entries, err := decode(data)
	if err != nil {
		log.Warn("geocache: corrupt cache, starting empty", zap.Error(err))
		return Entries{}, nil
	}
	return entries, nil
}

// Save writes every entry in the versioned envelope.
func (s *JSONStore) Save(_ context.Context, entries Entries) error {
	env := envelope{
		SchemaVersion: SchemaVersion,
		RunID:         s.runID,
		Entries:       map[string]model.Geocode(entries),
	}
	if env.Entries == nil {
		env.Entries = map[string]model.Geocode{}
	}
	if err := fetcher.WriteJSONFile(s.path, env); err != nil {
		return eris.Wrap(err, "geocache: save")
	}
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// decode accepts the versioned envelope and the legacy flat mapping, whose
// values may still carry raw API fields.
func decode(data []byte) (Entries, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, eris.Wrap(err, "geocache: decode")
	}

	if _, ok := top["schema_version"]; ok {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, eris.Wrap(err, "geocache: decode envelope")
		}
		if env.SchemaVersion > SchemaVersion {
			return nil, eris.Errorf("geocache: unsupported schema version %d", env.SchemaVersion)
		}
		entries := make(Entries, len(env.Entries))
		for k, v := range env.Entries {
			entries[k] = v
		}
		return entries, nil
	}

	entries := make(Entries, len(top))
	for key, raw := range top {
		g, ok := projectLegacy(raw)
		if !ok {
			zap.L().Warn("geocache: skipping malformed legacy entry", zap.String("key", key))
			continue
		}
		entries[key] = g
	}
	return entries, nil
}

// projectLegacy keeps the five cached fields of a legacy value. AMap returns
// [] for absent fields, so non-string values read as "".
func projectLegacy(raw json.RawMessage) (model.Geocode, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return model.Geocode{}, false
	}
	str := func(k string) string {
		s, _ := obj[k].(string)
		return s
	}
	return model.Geocode{
		Province: str("province"),
		City:     str("city"),
		District: str("district"),
		Location: str("location"),
		Level:    str("level"),
	}, true
}
