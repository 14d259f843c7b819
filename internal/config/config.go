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
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Population PopulationConfig `yaml:"population" mapstructure:"population"`
	Geometry   GeometryConfig   `yaml:"geometry" mapstructure:"geometry"`
	Normalize  NormalizeConfig  `yaml:"normalize" mapstructure:"normalize"`
	Map        MapConfig        `yaml:"map" mapstructure:"map"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the source files.
type DataConfig struct {
	Root                  string   `yaml:"root" mapstructure:"root"`
	DefaultMunicipalities []string `yaml:"default_municipalities" mapstructure:"default_municipalities"`
}

// PopulationConfig configures the population table loader.
type PopulationConfig struct {
	File       string       `yaml:"file" mapstructure:"file"`
	Encoding   string       `yaml:"encoding" mapstructure:"encoding"`
	BannerRows int          `yaml:"banner_rows" mapstructure:"banner_rows"` // 0 = header on the first row
	Bands      []BandConfig `yaml:"bands" mapstructure:"bands"`
}

// BandConfig defines a derived column as the sum of raw bucket columns.
type BandConfig struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Sources []string `yaml:"sources" mapstructure:"sources"`
}

// GeometryConfig configures the shapefile loader.
type GeometryConfig struct {
	Extensions       []string `yaml:"extensions" mapstructure:"extensions"`
	IgnorePrefix     string   `yaml:"ignore_prefix" mapstructure:"ignore_prefix"`
	Encoding         string   `yaml:"encoding" mapstructure:"encoding"`
	FallbackEncoding string   `yaml:"fallback_encoding" mapstructure:"fallback_encoding"`
	SourceEPSG       int      `yaml:"source_epsg" mapstructure:"source_epsg"`
	SubAreaColumn    string   `yaml:"subarea_column" mapstructure:"subarea_column"`
	AreaColumn       string   `yaml:"area_column" mapstructure:"area_column"`
	MarkerField      string   `yaml:"marker_field" mapstructure:"marker_field"`
	MarkerValue      string   `yaml:"marker_value" mapstructure:"marker_value"`
	CityAliases      []string `yaml:"city_aliases" mapstructure:"city_aliases"`
	SubAreaAliases   []string `yaml:"subarea_aliases" mapstructure:"subarea_aliases"`
}

// NormalizeConfig holds the place-name conversion tables.
type NormalizeConfig struct {
	ChomeSuffix   string            `yaml:"chome_suffix" mapstructure:"chome_suffix"`
	KanjiNumerals map[string]string `yaml:"kanji_numerals" mapstructure:"kanji_numerals"`
	Variants      map[string]string `yaml:"variants" mapstructure:"variants"`
}

// MapConfig configures what the map front-end is offered.
type MapConfig struct {
	DefaultAttribute string            `yaml:"default_attribute" mapstructure:"default_attribute"`
	Indicators       []string          `yaml:"indicators" mapstructure:"indicators"`
	Attributes       []AttributeConfig `yaml:"attributes" mapstructure:"attributes"`
	Presets          []PresetConfig    `yaml:"presets" mapstructure:"presets"`
	MinZoom          float64           `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom          float64           `yaml:"max_zoom" mapstructure:"max_zoom"`
}

// AttributeConfig is one selectable choropleth attribute.
type AttributeConfig struct {
	Label  string `yaml:"label" mapstructure:"label"`
	Column string `yaml:"column" mapstructure:"column"`
}

// PresetConfig pins the zoom and nudges the center for a set of municipalities.
type PresetConfig struct {
	Municipalities []string `yaml:"municipalities" mapstructure:"municipalities"`
	Zoom           float64  `yaml:"zoom" mapstructure:"zoom"`
	LatOffset      float64  `yaml:"lat_offset" mapstructure:"lat_offset"`
	LonOffset      float64  `yaml:"lon_offset" mapstructure:"lon_offset"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ExportConfig configures dataset exports.
type ExportConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	Table       string `yaml:"table" mapstructure:"table"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// BatchConfig configures multi-municipality loads.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.root", "data")
	v.SetDefault("data.default_municipalities", []string{"東大阪市", "大東市"})
	v.SetDefault("population.file", "tblT001082C27.csv")
	v.SetDefault("population.encoding", "shift_jis")
	v.SetDefault("population.banner_rows", 1)
	v.SetDefault("geometry.extensions", []string{".shp"})
	v.SetDefault("geometry.ignore_prefix", "~$")
	v.SetDefault("geometry.encoding", "utf-8")
	v.SetDefault("geometry.fallback_encoding", "shift_jis")
	v.SetDefault("geometry.source_epsg", 4326)
	v.SetDefault("geometry.subarea_column", "S_NAME")
	v.SetDefault("geometry.area_column", "AREA")
	v.SetDefault("geometry.marker_field", "KIGO_E")
	v.SetDefault("geometry.marker_value", "E1")
	v.SetDefault("normalize.chome_suffix", "丁目")
	v.SetDefault("map.default_attribute", "age_20_39")
	v.SetDefault("map.indicators", []string{"age_20_39"})
	v.SetDefault("map.min_zoom", 5.0)
	v.SetDefault("map.max_zoom", 15.0)
	v.SetDefault("server.port", 8041)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("export.dir", "out")
	v.SetDefault("export.database_url", "")
	v.SetDefault("export.schema", "popmap")
	v.SetDefault("export.table", "subareas")
	v.SetDefault("export.batch_size", 5000)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
