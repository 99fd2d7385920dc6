package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		AMap: AMapConfig{
			Key:              "amap-key",
			BaseURL:          "https://restapi.amap.com/v3/geocode/geo",
			City:             "广州",
			TimeoutSecs:      10,
			MinIntervalMs:    400,
			MaxPerSecond:     3,
			RetryAttempts:    2,
			CircuitThreshold: 10,
		},
		Geocode: GeocodeConfig{
			PreciseLevels:   []string{"兴趣点", "门牌号"},
			HomeAddresses:   []string{"越秀·保利爱特城22栋"},
			CheckpointEvery: 50,
		},
		Ingest: IngestConfig{
			CSVPath: "data/raw/hp.csv",
			PDFPath: "data/raw/zc.pdf",
			Output:  "data/school.json",
			OCR:     OCRConfig{Provider: "local"},
		},
		Store:  StoreConfig{Driver: "json", Path: "data/geo.json"},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_AllCommandsValid(t *testing.T) {
	for _, cmd := range []string{"ingest", "geocode", "report", "export", "serve"} {
		t.Run(cmd, func(t *testing.T) {
			assert.NoError(t, validDefaults().Validate(cmd))
		})
	}
}

func TestValidateGeocode_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.AMap.Key = ""

	err := cfg.Validate("geocode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amap.key is required")

	// Other commands never touch the API.
	assert.NoError(t, cfg.Validate("report"))
}

func TestValidateIngest_MistralNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Ingest.OCR.Provider = "mistral"

	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest.ocr.mistral_api_key is required")

	cfg.Ingest.OCR.MistralKey = "m-key"
	assert.NoError(t, cfg.Validate("ingest"))
}

func TestValidatePostgres_NeedsDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/kgmap"
	assert.NoError(t, cfg.Validate("report"))
}

func TestValidate_MissingStorePath(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Path = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of [json sqlite postgres]")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be greater than 0")
}

func TestValidate_RateSettings(t *testing.T) {
	cfg := validDefaults()
	cfg.AMap.MaxPerSecond = 0
	cfg.Geocode.CheckpointEvery = 0

	err := cfg.Validate("geocode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amap.max_per_second must be greater than 0")
	assert.Contains(t, err.Error(), "geocode.checkpoint_every must be greater than 0")
}

func TestValidate_EmptyPreciseLevels(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.PreciseLevels = nil

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.precise_levels")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
