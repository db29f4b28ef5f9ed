// Package config provides configuration for the sheetql service.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/nao1215/sheetql"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the sheetql service.
type Config struct {
	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Store configuration
	Store StoreConfig `json:"store" yaml:"store"`

	// Query configuration
	Query QueryConfig `json:"query" yaml:"query"`

	// Log configuration
	Log LogConfig `json:"log" yaml:"log"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// MaxUploadMB caps the request body of an upload in megabytes
	MaxUploadMB int `json:"max_upload_mb" yaml:"max_upload_mb"`
}

// StoreConfig holds the persisted store configuration.
type StoreConfig struct {
	// Driver is one of sqlite, libsql, mysql
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the data source. Empty means a private in-memory database per session.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the name of the persisted table
	Table string `json:"table" yaml:"table"`

	// InferTypes stores numeric columns as INTEGER or REAL instead of TEXT
	InferTypes bool `json:"infer_types" yaml:"infer_types"`
}

// QueryConfig holds query configuration.
type QueryConfig struct {
	// AllowRawSQL enables the free-text SQL endpoint
	AllowRawSQL bool `json:"allow_raw_sql" yaml:"allow_raw_sql"`

	// PreviewRows is the number of rows shown after an upload
	PreviewRows int `json:"preview_rows" yaml:"preview_rows"`

	// MaxRows caps search results, 0 for no cap
	MaxRows int `json:"max_rows" yaml:"max_rows"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error, off
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:         ":8001",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxUploadMB:  32,
		},
		Store: StoreConfig{
			Driver: string(sheetql.DriverSQLite),
			DSN:    "",
			Table:  sheetql.DefaultTableName,
		},
		Query: QueryConfig{
			AllowRawSQL: false,
			PreviewRows: sheetql.DefaultPreviewRows,
			MaxRows:     1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive, got read=%s write=%s", c.HTTP.ReadTimeout, c.HTTP.WriteTimeout)
	}
	if c.HTTP.MaxUploadMB <= 0 {
		return fmt.Errorf("http.max_upload_mb must be positive, got %d", c.HTTP.MaxUploadMB)
	}
	if _, err := sheetql.ParseDriver(c.Store.Driver); err != nil {
		return fmt.Errorf("invalid store.driver: %w", err)
	}
	if strings.TrimSpace(c.Store.Table) == "" {
		return fmt.Errorf("store.table is required")
	}
	if c.Query.PreviewRows <= 0 {
		return fmt.Errorf("query.preview_rows must be positive, got %d", c.Query.PreviewRows)
	}
	if c.Query.MaxRows < 0 {
		return fmt.Errorf("query.max_rows must not be negative, got %d", c.Query.MaxRows)
	}
	if _, err := c.Log.Lvl(); err != nil {
		return err
	}
	return nil
}

// Lvl maps the level name to the echo logger level.
func (l LogConfig) Lvl() (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return 0, fmt.Errorf("invalid log.level: %s (must be debug, info, warn, error or off)", l.Level)
	}
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}

// Builder returns a validated store builder for the configuration.
func (c *Config) Builder() (*sheetql.Builder, error) {
	driver, err := sheetql.ParseDriver(c.Store.Driver)
	if err != nil {
		return nil, err
	}

	b := sheetql.NewBuilder().
		WithDriver(driver).
		WithDSN(c.Store.DSN).
		WithTableName(c.Store.Table).
		WithMaxRows(c.Query.MaxRows)
	if c.Query.AllowRawSQL {
		b = b.EnableRawQuery()
	}
	if c.Store.InferTypes {
		b = b.EnableTypeInference()
	}
	return b, nil
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overrides cfg from environment variables. PORT and
// DATABASE_URL are honoured for platform deployments; everything else
// uses the SHEETQL_ prefix and wins over them.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %s", v)
		}
		cfg.HTTP.Addr = fmt.Sprintf(":%d", port)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
		if driver := DriverForURL(v); driver != "" {
			cfg.Store.Driver = string(driver)
		}
	}

	// HTTP configuration
	if v := os.Getenv("SHEETQL_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := envDuration("SHEETQL_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := envDuration("SHEETQL_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := envInt("SHEETQL_MAX_UPLOAD_MB", &cfg.HTTP.MaxUploadMB); err != nil {
		return err
	}

	// Store configuration
	if v := os.Getenv("SHEETQL_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("SHEETQL_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("SHEETQL_TABLE"); v != "" {
		cfg.Store.Table = v
	}
	if v := os.Getenv("SHEETQL_INFER_TYPES"); v != "" {
		cfg.Store.InferTypes = envBool(v)
	}

	// Query configuration
	if v := os.Getenv("SHEETQL_ALLOW_RAW_SQL"); v != "" {
		cfg.Query.AllowRawSQL = envBool(v)
	}
	if err := envInt("SHEETQL_PREVIEW_ROWS", &cfg.Query.PreviewRows); err != nil {
		return err
	}
	if err := envInt("SHEETQL_MAX_ROWS", &cfg.Query.MaxRows); err != nil {
		return err
	}

	if v := os.Getenv("SHEETQL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// DriverForURL guesses the driver of a DATABASE_URL. Remote libSQL URLs map
// to libsql; anything else is left to the configured driver.
func DriverForURL(raw string) sheetql.Driver {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "libsql", "https", "http", "wss", "ws":
		return sheetql.DriverLibSQL
	default:
		return ""
	}
}

func envBool(v string) bool {
	return v == "true" || v == "1"
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", key, v)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
