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

// Config holds the podscout API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	WebSearch WebSearchConfig `yaml:"web_search"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Tags      TagsConfig      `yaml:"tags"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey selects
// the deterministic hash embedder (offline mode).
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	ChatModel  string `yaml:"chat_model"`
}

// WebSearchConfig holds fallback web search settings.
type WebSearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// PipelineConfig holds the retrieval and orchestration policy knobs.
// Thresholds are policy, not hard-coded business fact.
type PipelineConfig struct {
	TopK                int     `yaml:"top_k"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MinCandidates       int     `yaml:"min_candidates"`
	MaxExecutionSec     int     `yaml:"max_execution_sec"`
	MaxRecommendations  int     `yaml:"max_recommendations"`
	EnableTagRerank     *bool   `yaml:"enable_tag_rerank"`
	EnableFallback      *bool   `yaml:"enable_fallback"`
	AggregatePolicy     string  `yaml:"aggregate_policy"` // mean (default) | max
	CrossPrimaryMin     float64 `yaml:"cross_primary_min"`
	CrossSecondaryMin   float64 `yaml:"cross_secondary_min"`
	MaxInflightSearches int     `yaml:"max_inflight_searches"`
	ExpertPoolSize      int     `yaml:"expert_pool_size"`
	FallbackConfidence  float64 `yaml:"fallback_confidence"`
}

// TagsConfig holds the tag index source.
type TagsConfig struct {
	File string `yaml:"file"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "podscout:"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.WebSearch.TimeoutSec <= 0 {
		c.WebSearch.TimeoutSec = 8
	}
	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = 8
	}
	if c.Pipeline.ConfidenceThreshold <= 0 {
		c.Pipeline.ConfidenceThreshold = 0.7
	}
	if c.Pipeline.MinCandidates <= 0 {
		c.Pipeline.MinCandidates = 2
	}
	if c.Pipeline.MaxExecutionSec <= 0 {
		c.Pipeline.MaxExecutionSec = 25
	}
	if c.Pipeline.MaxRecommendations <= 0 {
		c.Pipeline.MaxRecommendations = 3
	}
	if c.Pipeline.EnableTagRerank == nil {
		c.Pipeline.EnableTagRerank = boolPtr(true)
	}
	if c.Pipeline.EnableFallback == nil {
		c.Pipeline.EnableFallback = boolPtr(true)
	}
	if c.Pipeline.AggregatePolicy == "" {
		c.Pipeline.AggregatePolicy = "mean"
	}
	if c.Pipeline.CrossPrimaryMin <= 0 {
		c.Pipeline.CrossPrimaryMin = 0.6
	}
	if c.Pipeline.CrossSecondaryMin <= 0 {
		c.Pipeline.CrossSecondaryMin = 0.4
	}
	if c.Pipeline.MaxInflightSearches <= 0 {
		c.Pipeline.MaxInflightSearches = 32
	}
	if c.Pipeline.ExpertPoolSize <= 0 {
		c.Pipeline.ExpertPoolSize = 64
	}
	if c.Pipeline.FallbackConfidence <= 0 {
		c.Pipeline.FallbackConfidence = 0.85
	}
	if c.Tags.File == "" {
		c.Tags.File = "config/tags.yaml"
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
	if c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline.confidence_threshold must be in (0,1], got %f", c.Pipeline.ConfidenceThreshold)
	}
	switch c.Pipeline.AggregatePolicy {
	case "mean", "max":
	default:
		return fmt.Errorf("pipeline.aggregate_policy must be \"mean\" or \"max\", got %q", c.Pipeline.AggregatePolicy)
	}
	if c.Pipeline.FallbackConfidence > 1 {
		return fmt.Errorf("pipeline.fallback_confidence must be in (0,1], got %f", c.Pipeline.FallbackConfidence)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

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
