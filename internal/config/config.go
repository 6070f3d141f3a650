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

// Config holds the omnisearch API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Registry    RegistryConfig    `yaml:"registry"`
	Executor    ExecutorConfig    `yaml:"executor"`
	Fusion      FusionConfig      `yaml:"fusion"`
	Cache       CacheConfig       `yaml:"cache"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Search      SearchConfig      `yaml:"search"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Storage     StorageConfig     `yaml:"storage"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search backend connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RegistryConfig holds tenant registry settings.
type RegistryConfig struct {
	SnapshotSize    int `yaml:"snapshot_size"`
	StalenessSec    int `yaml:"staleness_sec"`
	RefreshEverySec int `yaml:"refresh_every_sec"`
}

// ExecutorConfig holds fan-out settings.
type ExecutorConfig struct {
	Concurrency    int `yaml:"concurrency"`
	QueryTimeoutMs int `yaml:"query_timeout_ms"`
}

// FusionConfig holds score fusion weights.
type FusionConfig struct {
	TextWeight          float64 `yaml:"text_weight"`
	AttributeWeight     float64 `yaml:"attribute_weight"`
	SpecificationWeight float64 `yaml:"specification_weight"`
	ImageWeight         float64 `yaml:"image_weight"`
	SemanticWeight      float64 `yaml:"semantic_weight"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// MarketplaceConfig holds the deployment-wide marketplace shard set.
type MarketplaceConfig struct {
	Indices       []string `yaml:"indices"`
	VectorEnabled bool     `yaml:"vector_enabled"`
}

// SearchConfig holds query planning settings.
type SearchConfig struct {
	DefaultK     int                `yaml:"default_k"`
	FacetLimit   int                `yaml:"facet_limit"`
	SemanticText bool               `yaml:"semantic_text"`
	Boosts       map[string]float64 `yaml:"boosts"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Registry.SnapshotSize <= 0 {
		c.Registry.SnapshotSize = 1024
	}
	if c.Registry.StalenessSec <= 0 {
		c.Registry.StalenessSec = 300
	}
	if c.Registry.RefreshEverySec <= 0 {
		c.Registry.RefreshEverySec = 60
	}
	if c.Executor.Concurrency <= 0 {
		c.Executor.Concurrency = 16
	}
	if c.Executor.QueryTimeoutMs <= 0 {
		c.Executor.QueryTimeoutMs = 800
	}
	if c.Fusion.TextWeight <= 0 {
		c.Fusion.TextWeight = 0.4
	}
	if c.Fusion.AttributeWeight <= 0 {
		c.Fusion.AttributeWeight = 0.3
	}
	if c.Fusion.SpecificationWeight <= 0 {
		c.Fusion.SpecificationWeight = 0.2
	}
	if c.Fusion.ImageWeight <= 0 {
		c.Fusion.ImageWeight = 0.1
	}
	if c.Fusion.SemanticWeight <= 0 {
		c.Fusion.SemanticWeight = 0.5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 20
	}
	if c.Search.FacetLimit <= 0 {
		c.Search.FacetLimit = 20
	}
	if len(c.Search.Boosts) == 0 {
		c.Search.Boosts = map[string]float64{"name": 3, "description": 2, "category": 1}
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "omnisearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Fusion.SemanticWeight > 1 {
		return fmt.Errorf("fusion.semantic_weight must be in (0, 1], got %g", c.Fusion.SemanticWeight)
	}
	if c.Embedding.Provider != "" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when a provider is configured")
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
