package contract

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kpitree/kpitree/schema"
)

// Default values for configuration.
const (
	DefaultTenant      = "main"
	DefaultServeAddr   = "localhost:8080"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultCacheTTL    = time.Hour
	MaxWorkers         = 32
)

// DefaultWorkers is the default number of concurrent metadata fetchers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a pipeline invocation.
// This struct remains the "final, validated" config.
type Config struct {
	Tenant string
	Site   string
	Filter string // Case-insensitive location name filter

	Orientation schema.Orientation
	Output      schema.OutputMode
	OutputFile  string
	Validate    bool // Prune nodes whose catalog function is unavailable
	Workers     int
	Width       int // Terminal width override (0 = auto-detect)

	BaseURL     string
	APIKey      string // Please use env var as this is plaintext
	APIToken    string // Please use env var as this is plaintext
	HTTPTimeout time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	// Catalog is the explicit set of available function classes for this
	// run; validation checks node functions against it.
	Catalog schema.FunctionCatalog

	ServeAddr  string
	ParquetDir string
	DryRun     bool

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	FilterStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Tenant         string `mapstructure:"tenant"`
	Site           string `mapstructure:"site"`
	Orientation    string `mapstructure:"orientation"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Validate       bool   `mapstructure:"validate"`
	Workers        int    `mapstructure:"workers"`
	Width          int    `mapstructure:"width"`
	BaseURL        string `mapstructure:"base-url"`
	APIKey         string `mapstructure:"api-key"`
	APIToken       string `mapstructure:"api-token"`
	Timeout        string `mapstructure:"timeout"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheTTL       string `mapstructure:"cache-ttl"`
	FunctionsFile  string `mapstructure:"functions-file"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`

	// --- Fields from renderCmd.Flags() ---
	ParquetDir string `mapstructure:"parquet-dir"`

	// --- Shared by deployCmd/teardownCmd, lives on rootCmd.PersistentFlags() ---
	DryRun bool `mapstructure:"dry-run"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Catalog != nil {
		clone.Catalog = make(schema.FunctionCatalog, len(c.Catalog))
		maps.Copy(clone.Catalog, c.Catalog)
	}
	return &clone
}

// HasPlatform reports whether platform credentials are configured.
func (c *Config) HasPlatform() bool {
	return c.BaseURL != ""
}

// RequirePlatform fails when a command needs the platform but no
// credentials are configured.
func (c *Config) RequirePlatform() error {
	if c.BaseURL == "" {
		return fmt.Errorf("platform base URL is not configured; set --base-url or KPITREE_BASE_URL")
	}
	if c.APIKey == "" || c.APIToken == "" {
		return fmt.Errorf("platform credentials are not configured; set KPITREE_API_KEY and KPITREE_API_TOKEN")
	}
	if c.Tenant == "" {
		return fmt.Errorf("tenant is not configured; set --tenant or KPITREE_TENANT")
	}
	return nil
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validatePlatformInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processFunctionCatalog(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates all non-platform fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Tenant = strings.TrimSpace(input.Tenant)
	cfg.Site = strings.TrimSpace(input.Site)
	cfg.Filter = strings.TrimSpace(input.FilterStr)
	cfg.OutputFile = input.OutputFile
	cfg.Validate = input.Validate
	cfg.Width = input.Width
	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	cfg.ParquetDir = input.ParquetDir
	cfg.DryRun = input.DryRun

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Orientation Validation ---
	orientation, ok := schema.ParseOrientation(strings.TrimSpace(input.Orientation))
	if !ok {
		return fmt.Errorf("invalid orientation '%s'. must be left-right or top-down", input.Orientation)
	}
	cfg.Orientation = orientation

	// --- 3. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be table, json, csv, mermaid, dot", input.Output)
	}

	return nil
}

// validatePlatformInputs processes base URL, credentials and HTTP timeout.
func validatePlatformInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(input.BaseURL), "/")
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid base URL '%s'. must be an http(s) URL", input.BaseURL)
		}
	}
	cfg.APIKey = input.APIKey
	cfg.APIToken = input.APIToken

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout value '%s': %w", input.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("--timeout must be positive (received %s)", d)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

// validateBackendConfigs validates the cache backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		d, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl value '%s': %w", input.CacheTTL, err)
		}
		if d <= 0 {
			return fmt.Errorf("--cache-ttl must be positive (received %s)", d)
		}
		cfg.CacheTTL = d
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection
// strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// processFunctionCatalog loads the run's function catalog: the canned
// default set, or the classes listed in --functions-file.
func processFunctionCatalog(cfg *Config, input *ConfigRawInput) error {
	if input.FunctionsFile == "" {
		cfg.Catalog = schema.DefaultFunctionCatalog()
		return nil
	}

	data, err := os.ReadFile(input.FunctionsFile)
	if err != nil {
		return fmt.Errorf("cannot read functions file: %w", err)
	}

	var funcs []schema.CatalogFunction
	if err := json.Unmarshal(data, &funcs); err != nil {
		return fmt.Errorf("cannot parse functions file %s: %w", input.FunctionsFile, err)
	}

	catalog := make(schema.FunctionCatalog, len(funcs))
	for _, fn := range funcs {
		if fn.Name == "" {
			return fmt.Errorf("functions file %s: entry with empty name", input.FunctionsFile)
		}
		if _, ok := schema.ValidFunctionCategories[fn.Category]; !ok {
			return fmt.Errorf("functions file %s: function %q has invalid category '%s'. must be transformer, aggregator, alert",
				input.FunctionsFile, fn.Name, fn.Category)
		}
		if err := catalog.Add(fn); err != nil {
			return fmt.Errorf("functions file %s: %w", input.FunctionsFile, err)
		}
	}
	cfg.Catalog = catalog
	return nil
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".kpitree_cache.db"
	}
	return filepath.Join(homeDir, ".kpitree_cache.db")
}
