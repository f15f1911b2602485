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

// Config holds the semsearch service configuration.
type Config struct {
	HTTP     HTTPConfig       `yaml:"http"`
	Database DatabaseConfig   `yaml:"database"`
	// Providers is an ordered list: registration order breaks priority ties.
	Providers []ProviderConfig `yaml:"providers"`
	Search    SearchConfig     `yaml:"search"`
	Pipeline  PipelineConfig   `yaml:"pipeline"`
	Cache     CacheConfig      `yaml:"cache"`
	Auth      AuthConfig       `yaml:"auth"`
	Logging   LoggingConfig    `yaml:"logging"`
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
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProviderConfig holds one embedding provider entry of the failover chain.
type ProviderConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // openai, ollama
	Priority   int    `yaml:"priority"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SearchConfig holds similarity search settings.
type SearchConfig struct {
	MinSimilarity float64 `yaml:"min_similarity"`
	ResultTTLSec  int     `yaml:"result_ttl_sec"`
}

// PipelineConfig holds embedding pipeline pacing settings.
type PipelineConfig struct {
	FillGapsDelaySec   int `yaml:"fill_gaps_delay_sec"`
	RegenerateDelaySec int `yaml:"regenerate_delay_sec"`
	ProviderTimeoutSec int `yaml:"provider_timeout_sec"`
	// IntervalSec paces the background fill-gaps worker. 0 disables it.
	IntervalSec int `yaml:"interval_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	EmbeddingTTLSec int `yaml:"embedding_ttl_sec"`
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
	if c.Search.MinSimilarity <= 0 {
		c.Search.MinSimilarity = 0.6
	}
	if c.Search.ResultTTLSec <= 0 {
		c.Search.ResultTTLSec = 120
	}
	if c.Pipeline.FillGapsDelaySec <= 0 {
		c.Pipeline.FillGapsDelaySec = 1
	}
	if c.Pipeline.RegenerateDelaySec <= 0 {
		c.Pipeline.RegenerateDelaySec = 3
	}
	if c.Pipeline.ProviderTimeoutSec <= 0 {
		c.Pipeline.ProviderTimeoutSec = 30
	}
	if c.Cache.EmbeddingTTLSec <= 0 {
		c.Cache.EmbeddingTTLSec = 86400
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Dimensions <= 0 {
			switch p.Type {
			case "ollama":
				p.Dimensions = 768
			default:
				p.Dimensions = 1536
			}
		}
		if p.Model == "" && p.Type == "openai" {
			p.Model = "text-embedding-3-small"
		}
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
	if c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be at most 1, got %v", c.Search.MinSimilarity)
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d].name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("providers[%d].name %q is duplicated", i, p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Type {
		case "openai", "ollama":
			// ok
		default:
			return fmt.Errorf("providers[%d].type must be \"openai\" or \"ollama\", got %q", i, p.Type)
		}
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
