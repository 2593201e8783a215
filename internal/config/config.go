package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the itemdex service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Primary PrimaryConfig `yaml:"primary"`
	Search  SearchConfig  `yaml:"search"`
	Sync    SyncConfig    `yaml:"sync"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Primary store drivers.
const (
	PrimaryPostgres = "postgres"
	PrimarySQLite   = "sqlite"
)

// PrimaryConfig holds primary store connection settings.
type PrimaryConfig struct {
	Driver           string `yaml:"driver"` // postgres, sqlite (default: postgres)
	DSN              string `yaml:"dsn"`    // postgres URL or sqlite file path (empty = in-memory)
	MaxConns         int32  `yaml:"max_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// Search index drivers.
const (
	SearchRedis = "redis"
	SearchBleve = "bleve"
)

// SearchConfig holds search index settings.
type SearchConfig struct {
	Driver           string   `yaml:"driver"` // redis, bleve (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	BlevePath        string   `yaml:"bleve_path"` // empty = in-memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SyncConfig holds index synchronization and reconciliation settings.
type SyncConfig struct {
	IndexTimeoutMS       int   `yaml:"index_timeout_ms"`
	ReconcileBatchSize   int   `yaml:"reconcile_batch_size"`
	ReconcileConcurrency int   `yaml:"reconcile_concurrency"`
	ReconcileIntervalSec int   `yaml:"reconcile_interval_sec"` // 0 = periodic reconcile off
	ReconcileOnStart     bool  `yaml:"reconcile_on_start"`
	PurgeOrphans         *bool `yaml:"purge_orphans"` // default: true
}

// PurgeOrphansEnabled reports whether reconcile deletes orphaned index documents.
func (c SyncConfig) PurgeOrphansEnabled() bool {
	return c.PurgeOrphans == nil || *c.PurgeOrphans
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.DefaultPageSize <= 0 {
		c.HTTP.DefaultPageSize = 20
	}
	if c.HTTP.MaxPageSize <= 0 {
		c.HTTP.MaxPageSize = 100
	}
	if c.Primary.Driver == "" {
		c.Primary.Driver = PrimaryPostgres
	}
	if c.Primary.ReadinessTimeout <= 0 {
		c.Primary.ReadinessTimeout = 10
	}
	if c.Search.Driver == "" {
		c.Search.Driver = SearchRedis
	}
	if c.Search.IndexName == "" {
		c.Search.IndexName = "items"
	}
	if c.Search.KeyPrefix == "" {
		c.Search.KeyPrefix = "itemdex:item:"
	}
	if c.Search.ReadinessTimeout <= 0 {
		c.Search.ReadinessTimeout = 10
	}
	if c.Sync.IndexTimeoutMS <= 0 {
		c.Sync.IndexTimeoutMS = 2000
	}
	if c.Sync.ReconcileBatchSize <= 0 {
		c.Sync.ReconcileBatchSize = 200
	}
	if c.Sync.ReconcileConcurrency <= 0 {
		c.Sync.ReconcileConcurrency = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Primary.Driver {
	case PrimaryPostgres:
		if c.Primary.DSN == "" {
			return fmt.Errorf("primary.dsn is required for the postgres driver")
		}
	case PrimarySQLite:
	default:
		return fmt.Errorf("primary.driver must be %q or %q, got %q", PrimaryPostgres, PrimarySQLite, c.Primary.Driver)
	}
	switch c.Search.Driver {
	case SearchRedis:
		if len(c.Search.Addrs) == 0 {
			return fmt.Errorf("search.addrs is required for the redis driver")
		}
	case SearchBleve:
	default:
		return fmt.Errorf("search.driver must be %q or %q, got %q", SearchRedis, SearchBleve, c.Search.Driver)
	}
	if c.Sync.ReconcileIntervalSec < 0 {
		return fmt.Errorf("sync.reconcile_interval_sec must not be negative, got %d", c.Sync.ReconcileIntervalSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
