package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	AMap    AMapConfig    `yaml:"amap" mapstructure:"amap"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// AMapConfig holds AMap geocoding API settings.
type AMapConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	City             string  `yaml:"city" mapstructure:"city"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
	MinIntervalMs    int     `yaml:"min_interval_ms" mapstructure:"min_interval_ms" validate:"gte=0"`
	MaxPerSecond     float64 `yaml:"max_per_second" mapstructure:"max_per_second" validate:"gt=0"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=1,lte=10"`
	CircuitThreshold int     `yaml:"circuit_threshold" mapstructure:"circuit_threshold" validate:"gte=1"`
}

// GeocodeConfig configures cache refresh behavior.
type GeocodeConfig struct {
	PreciseLevels   []string `yaml:"precise_levels" mapstructure:"precise_levels" validate:"min=1,dive,required"`
	HomeAddresses   []string `yaml:"home_addresses" mapstructure:"home_addresses" validate:"dive,required"`
	CheckpointEvery int      `yaml:"checkpoint_every" mapstructure:"checkpoint_every" validate:"gt=0"`
}

// IngestConfig configures the source ingestors.
type IngestConfig struct {
	CSVPath     string    `yaml:"csv_path" mapstructure:"csv_path" validate:"required"`
	PDFPath     string    `yaml:"pdf_path" mapstructure:"pdf_path" validate:"required"`
	Output      string    `yaml:"output" mapstructure:"output" validate:"required"`
	CSVEncoding string    `yaml:"csv_encoding" mapstructure:"csv_encoding"`
	Locality    string    `yaml:"locality" mapstructure:"locality"`
	OCR         OCRConfig `yaml:"ocr" mapstructure:"ocr"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider" validate:"oneof=local mistral"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// StoreConfig configures the geocode cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=json sqlite postgres"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port" validate:"gt=0,lte=65535"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KGMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original tooling read the key from AMAP_API_KEY; keep accepting it.
	if err := v.BindEnv("amap.key", "KGMAP_AMAP_KEY", "AMAP_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind amap.key")
	}

	// Defaults
	v.SetDefault("amap.base_url", "https://restapi.amap.com/v3/geocode/geo")
	v.SetDefault("amap.city", "广州")
	v.SetDefault("amap.timeout_secs", 10)
	v.SetDefault("amap.min_interval_ms", 400)
	v.SetDefault("amap.max_per_second", 3)
	v.SetDefault("amap.retry_attempts", 2)
	v.SetDefault("amap.circuit_threshold", 10)
	v.SetDefault("geocode.precise_levels", []string{"兴趣点", "门牌号", "单元号", "楼层", "房间", "门址"})
	v.SetDefault("geocode.home_addresses", []string{"越秀·保利爱特城22栋", "中海誉东花园A7栋"})
	v.SetDefault("geocode.checkpoint_every", 50)
	v.SetDefault("ingest.csv_path", "data/raw/hp.csv")
	v.SetDefault("ingest.pdf_path", "data/raw/zc.pdf")
	v.SetDefault("ingest.output", "data/school.json")
	v.SetDefault("ingest.csv_encoding", "utf-8")
	v.SetDefault("ingest.locality", "广州")
	v.SetDefault("ingest.ocr.provider", "local")
	v.SetDefault("ingest.ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ingest.ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/geo.json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
