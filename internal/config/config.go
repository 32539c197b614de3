package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "RAINGRID_CONFIG"

// Stages accepted by STAGE, in run order. "all" runs every one of them.
var Stages = []string{"aggregate", "split", "rasterize", "style", "all"}

// Strategies accepted by STRATEGY.
var Strategies = []string{"feature", "idw"}

// Config holds all pipeline settings.
type Config struct {
	InputDir      string `koanf:"input_dir"`
	InputGlob     string `koanf:"input_glob"`
	AggregateFile string `koanf:"aggregate_file"`
	MonthDir      string `koanf:"month_dir"`
	RasterDir     string `koanf:"raster_dir"`
	LegendDir     string `koanf:"legend_dir"`

	Stage    string `koanf:"stage"`
	Strategy string `koanf:"strategy"`

	CellSize        float64 `koanf:"cell_size"`
	IDWPower        float64 `koanf:"idw_power"`
	IDWSearchRadius float64 `koanf:"idw_search_radius"`
	IDWMaxNeighbors int     `koanf:"idw_max_neighbors"`
	MissingSentinel float64 `koanf:"missing_sentinel"`
	ZeroAsMissing   bool    `koanf:"zero_as_missing"`
	SpatialRef      string  `koanf:"spatial_reference"`

	// Styling of finished rasters.
	StyleEnabled bool   `koanf:"style_enabled"`
	ClassMethod  string `koanf:"class_method"`
	BreakCount   int    `koanf:"break_count"`
	ColorRamp    string `koanf:"color_ramp"`

	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Raster event publishing; disabled when no broker is set.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// Mapbox lookup for stations without coordinates.
	MapboxToken     string        `koanf:"mapbox_token"`
	MapboxEnabled   bool          `koanf:"mapbox_enabled"`
	MapboxTimeout   time.Duration `koanf:"mapbox_timeout"`
	MapboxCacheSize int           `koanf:"mapbox_cache_size"`
	MapboxCountry   string        `koanf:"mapbox_country"`

	// Object store upload of produced artifacts; disabled when no endpoint is set.
	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioBucket    string `koanf:"minio_bucket"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		InputDir:        "data",
		InputGlob:       "*.csv",
		AggregateFile:   "output/monthly.csv",
		MonthDir:        "output/months",
		RasterDir:       "output/rasters",
		LegendDir:       "output/legends",
		Stage:           "all",
		Strategy:        "idw",
		CellSize:        domain.DefaultCellSize,
		IDWPower:        domain.DefaultIDWPower,
		MissingSentinel: domain.MissingSentinel,
		ClassMethod:     string(domain.ClassEqual),
		BreakCount:      domain.DefaultBreakCount,
		ColorRamp:       domain.DefaultRampName,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		KafkaTopic:      "rainfall-rasters",
		MapboxTimeout:   5 * time.Second,
		MapboxCacheSize: 1000,
		MinioBucket:     "rain-grids",
	}
}

// Load layers defaults, the optional YAML file named by RAINGRID_CONFIG and
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	// Set when the file decides mapbox_enabled itself.
	mapboxExplicit := false
	if path := os.Getenv(FileEnv); path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		mapboxExplicit = k.Exists("mapbox_enabled")
	}

	if err := applyEnv(cfg, mapboxExplicit); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, mapboxExplicit bool) error {
	cfg.InputDir = sharedcfg.EnvOrDefault("INPUT_DIR", cfg.InputDir)
	cfg.InputGlob = sharedcfg.EnvOrDefault("INPUT_GLOB", cfg.InputGlob)
	cfg.AggregateFile = sharedcfg.EnvOrDefault("AGGREGATE_FILE", cfg.AggregateFile)
	cfg.MonthDir = sharedcfg.EnvOrDefault("MONTH_DIR", cfg.MonthDir)
	cfg.RasterDir = sharedcfg.EnvOrDefault("RASTER_DIR", cfg.RasterDir)
	cfg.LegendDir = sharedcfg.EnvOrDefault("LEGEND_DIR", cfg.LegendDir)
	cfg.Stage = sharedcfg.EnvOrDefault("STAGE", cfg.Stage)
	cfg.Strategy = sharedcfg.EnvOrDefault("STRATEGY", cfg.Strategy)
	cfg.SpatialRef = sharedcfg.EnvOrDefault("SPATIAL_REFERENCE", cfg.SpatialRef)
	cfg.ClassMethod = sharedcfg.EnvOrDefault("CLASS_METHOD", cfg.ClassMethod)
	cfg.ColorRamp = sharedcfg.EnvOrDefault("COLOR_RAMP", cfg.ColorRamp)
	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsAddr = sharedcfg.EnvOrDefault("METRICS_ADDR", cfg.MetricsAddr)
	cfg.KafkaTopic = sharedcfg.EnvOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.MapboxToken = sharedcfg.EnvOrDefault("MAPBOX_TOKEN", cfg.MapboxToken)
	cfg.MapboxCountry = sharedcfg.EnvOrDefault("MAPBOX_COUNTRY", cfg.MapboxCountry)
	cfg.MinioEndpoint = sharedcfg.EnvOrDefault("MINIO_ENDPOINT", cfg.MinioEndpoint)
	cfg.MinioAccessKey = sharedcfg.EnvOrDefault("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
	cfg.MinioSecretKey = sharedcfg.EnvOrDefault("MINIO_SECRET_KEY", cfg.MinioSecretKey)
	cfg.MinioBucket = sharedcfg.EnvOrDefault("MINIO_BUCKET", cfg.MinioBucket)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}
	if os.Getenv("SHUTDOWN_TIMEOUT") != "" {
		d, err := sharedcfg.ParseShutdownTimeout()
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	}
	// Mapbox turns on with a token unless the file or MAPBOX_ENABLED says otherwise.
	if cfg.MapboxToken != "" && !mapboxExplicit {
		cfg.MapboxEnabled = true
	}

	var errs []error
	floatEnv(&errs, "CELL_SIZE", &cfg.CellSize)
	floatEnv(&errs, "IDW_POWER", &cfg.IDWPower)
	floatEnv(&errs, "IDW_SEARCH_RADIUS", &cfg.IDWSearchRadius)
	floatEnv(&errs, "MISSING_SENTINEL", &cfg.MissingSentinel)
	intEnv(&errs, "IDW_MAX_NEIGHBORS", &cfg.IDWMaxNeighbors)
	intEnv(&errs, "BREAK_COUNT", &cfg.BreakCount)
	intEnv(&errs, "MAPBOX_CACHE_SIZE", &cfg.MapboxCacheSize)
	boolEnv(&errs, "ZERO_AS_MISSING", &cfg.ZeroAsMissing)
	boolEnv(&errs, "STYLE_ENABLED", &cfg.StyleEnabled)
	boolEnv(&errs, "MAPBOX_ENABLED", &cfg.MapboxEnabled)
	boolEnv(&errs, "MINIO_USE_SSL", &cfg.MinioUseSSL)
	durationEnv(&errs, "MAPBOX_TIMEOUT", &cfg.MapboxTimeout)
	return errors.Join(errs...)
}

func floatEnv(errs *[]error, key string, dst *float64) {
	if s := os.Getenv(key); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, s))
			return
		}
		*dst = v
	}
}

func intEnv(errs *[]error, key string, dst *int) {
	if s := os.Getenv(key); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, s))
			return
		}
		*dst = v
	}
}

func boolEnv(errs *[]error, key string, dst *bool) {
	if s := os.Getenv(key); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, s))
			return
		}
		*dst = v
	}
}

func durationEnv(errs *[]error, key string, dst *time.Duration) {
	if s := os.Getenv(key); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, s))
			return
		}
		*dst = v
	}
}

// Validate checks settings that cannot be fixed up with a default.
func (c *Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("INPUT_DIR is required"))
	}
	if !slices.Contains(Stages, c.Stage) {
		errs = append(errs, fmt.Errorf("invalid STAGE %q: want one of %v", c.Stage, Stages))
	}
	if !slices.Contains(Strategies, c.Strategy) {
		errs = append(errs, fmt.Errorf("invalid STRATEGY %q: want one of %v", c.Strategy, Strategies))
	}
	if c.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid CELL_SIZE %v: must be positive", c.CellSize))
	}
	if c.IDWPower <= 0 {
		errs = append(errs, fmt.Errorf("invalid IDW_POWER %v: must be positive", c.IDWPower))
	}
	if c.IDWSearchRadius < 0 {
		errs = append(errs, fmt.Errorf("invalid IDW_SEARCH_RADIUS %v: must not be negative", c.IDWSearchRadius))
	}
	if c.IDWMaxNeighbors < 0 {
		errs = append(errs, fmt.Errorf("invalid IDW_MAX_NEIGHBORS %d: must not be negative", c.IDWMaxNeighbors))
	}
	if _, err := domain.ParseClassMethod(c.ClassMethod); err != nil {
		errs = append(errs, fmt.Errorf("invalid CLASS_METHOD: %w", err))
	}
	if c.BreakCount < 1 {
		errs = append(errs, fmt.Errorf("invalid BREAK_COUNT %d: must be at least 1", c.BreakCount))
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		errs = append(errs, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set"))
	}
	if c.MapboxTimeout <= 0 {
		errs = append(errs, errors.New("invalid MAPBOX_TIMEOUT"))
	}
	if c.MapboxCacheSize <= 0 {
		c.MapboxCacheSize = 1000
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.MinioEndpoint != "" && c.MinioBucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required when MINIO_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}

// Runs reports whether the configured stage includes stage.
func (c *Config) Runs(stage string) bool {
	if stage == "style" && c.Stage == "all" {
		return c.StyleEnabled
	}
	return c.Stage == "all" || c.Stage == stage
}

// PublishEnabled reports whether raster events go to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

// UploadEnabled reports whether artifacts go to the object store.
func (c *Config) UploadEnabled() bool { return c.MinioEndpoint != "" }
