package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации генератора.
// Нулевое значение поля означает "не задано": геттеры берут значение
// из переменной окружения, затем значение по умолчанию.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Wfc         WfcConfig         `yaml:"wfc"`
	Paths       PathsConfig       `yaml:"paths"`
	Settlements SettlementsConfig `yaml:"settlements"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Ruleset     RulesetConfig     `yaml:"ruleset"`
	Server      ServerConfig      `yaml:"server"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type WorldConfig struct {
	Seed           int64   `yaml:"seed"`
	ElevationScale float64 `yaml:"elevation_scale" validate:"gte=0"`
	MoistureScale  float64 `yaml:"moisture_scale" validate:"gte=0"`
	Octaves        int32   `yaml:"octaves" validate:"gte=0,lte=8"`
}

type WfcConfig struct {
	RetryBudget      int `yaml:"retry_budget" validate:"gte=0,lte=100"`
	FootprintRetries int `yaml:"footprint_retries" validate:"gte=0"`
}

type PathsConfig struct {
	Enabled          *bool   `yaml:"enabled"`
	Density          float64 `yaml:"waypoint_density" validate:"gte=0,lte=1"`
	Margin           int     `yaml:"search_margin" validate:"gte=0,lte=32"`
	MaxExpansions    int     `yaml:"max_expansions" validate:"gte=0"`
	CacheSize        int64   `yaml:"cache_size" validate:"gte=0"`
	ElevationPenalty float64 `yaml:"elevation_penalty" validate:"gte=0"`
}

// SettlementsConfig дома у дорог. Без дорог поселений нет.
type SettlementsConfig struct {
	Enabled         *bool   `yaml:"enabled"`
	Probability     float64 `yaml:"probability" validate:"gte=0,lte=1"`
	BuildingDensity float64 `yaml:"building_density" validate:"gte=0,lte=1"`
}

type PipelineConfig struct {
	Workers      int `yaml:"workers" validate:"gte=0"`
	QueueSize    int `yaml:"queue_size" validate:"gte=0"`
	PregenRadius int `yaml:"pregen_radius" validate:"gte=0,lte=64"`
}

type RulesetConfig struct {
	Dir    string `yaml:"dir"`
	Strict bool   `yaml:"strict"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port" validate:"gte=0,lte=65535"` // API и /metrics
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error TRACE DEBUG INFO WARN ERROR"`
	Dir   string `yaml:"dir"`
	Files bool   `yaml:"files"`
	// Components уровни отдельных компонентов, например wfc: debug
	Components map[string]string `yaml:"components" validate:"dive,oneof=trace debug info warn error TRACE DEBUG INFO WARN ERROR"`
}

// GetSeed возвращает сид мира с поддержкой fallback значений
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("TILEWORLD_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 42
}

// GetRetryBudget возвращает число повторов WFC
func (w *WfcConfig) GetRetryBudget() int {
	return getIntWithEnvFallback(w.RetryBudget, "TILEWORLD_WFC_RETRIES", 5)
}

// GetFootprintRetries возвращает число отброшенных выборов больших объектов
func (w *WfcConfig) GetFootprintRetries() int {
	return getIntWithEnvFallback(w.FootprintRetries, "TILEWORLD_WFC_FOOTPRINT_RETRIES", 8)
}

// IsEnabled включена ли прокладка дорог (по умолчанию да)
func (p *PathsConfig) IsEnabled() bool {
	if p.Enabled != nil {
		return *p.Enabled
	}
	if envVal := os.Getenv("TILEWORLD_PATHS"); envVal != "" {
		if v, err := strconv.ParseBool(envVal); err == nil {
			return v
		}
	}
	return true
}

func (p *PathsConfig) GetDensity() float64 {
	return getFloatWithEnvFallback(p.Density, "TILEWORLD_WAYPOINT_DENSITY", 0.35)
}

func (p *PathsConfig) GetMargin() int {
	return getIntWithEnvFallback(p.Margin, "TILEWORLD_SEARCH_MARGIN", 8)
}

func (p *PathsConfig) GetMaxExpansions() int {
	return getIntWithEnvFallback(p.MaxExpansions, "TILEWORLD_MAX_EXPANSIONS", 20000)
}

func (p *PathsConfig) GetCacheSize() int64 {
	return int64(getIntWithEnvFallback(int(p.CacheSize), "TILEWORLD_ROUTE_CACHE", 4096))
}

func (p *PathsConfig) GetElevationPenalty() float64 {
	return getFloatWithEnvFallback(p.ElevationPenalty, "TILEWORLD_ELEVATION_PENALTY", 4.0)
}

// IsEnabled включены ли поселения (по умолчанию да)
func (s *SettlementsConfig) IsEnabled() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	if envVal := os.Getenv("TILEWORLD_SETTLEMENTS"); envVal != "" {
		if v, err := strconv.ParseBool(envVal); err == nil {
			return v
		}
	}
	return true
}

// GetProbability доля чанков-поселений
func (s *SettlementsConfig) GetProbability() float64 {
	return getFloatWithEnvFallback(s.Probability, "TILEWORLD_SETTLEMENT_PROBABILITY", 0.3)
}

func (s *SettlementsConfig) GetBuildingDensity() float64 {
	return getFloatWithEnvFallback(s.BuildingDensity, "TILEWORLD_BUILDING_DENSITY", 0.25)
}

// GetWorkers возвращает число параллельных генераций (по умолчанию число CPU)
func (p *PipelineConfig) GetWorkers() int {
	return getIntWithEnvFallback(p.Workers, "TILEWORLD_WORKERS", runtime.NumCPU())
}

func (p *PipelineConfig) GetQueueSize() int {
	return getIntWithEnvFallback(p.QueueSize, "TILEWORLD_QUEUE_SIZE", 256)
}

func (p *PipelineConfig) GetPregenRadius() int {
	return getIntWithEnvFallback(p.PregenRadius, "TILEWORLD_PREGEN_RADIUS", 2)
}

// GetHTTPPort возвращает порт HTTP API с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getIntWithEnvFallback(s.HTTPPort, "TILEWORLD_HTTP_PORT", 8088)
}

func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "OTEL_SERVICE_NAME", "tileworld")
}

func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
}

func (l *LoggingConfig) GetLevel() string {
	return strings.ToLower(getStringWithEnvFallback(l.Level, "TILEWORLD_LOG_LEVEL", "info"))
}

func (l *LoggingConfig) GetDir() string {
	return getStringWithEnvFallback(l.Dir, "TILEWORLD_LOG_DIR", "logs")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func getFloatWithEnvFallback(configVal float64, envVar string, defaultVal float64) float64 {
	if configVal > 0 {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.ParseFloat(envVal, 64); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Load читает YAML файл конфигурации.
// Если path == "", путь берётся из ENV TILEWORLD_CONFIG; без файла
// возвращается пустая конфигурация, и все значения берутся из окружения.
func Load(path string) (*Config, error) {
	// .env необязателен: переменные могут быть заданы напрямую
	if err := godotenv.Load(); err != nil {
		logging.Debug("Файл .env не загружен: %v", err)
	}

	if path == "" {
		path = os.Getenv("TILEWORLD_CONFIG")
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}
