// Package config loads application configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Ollama        OllamaConfig        `yaml:"ollama"`
	Research      ResearchConfig      `yaml:"research"`
	CaseLaw       CaseLawConfig       `yaml:"caselaw"`
	Regulation    RegulationConfig    `yaml:"regulation"`
	Cache         CacheConfig         `yaml:"cache"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// OllamaConfig contains Ollama-specific configuration
type OllamaConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p,omitempty"`
	Timeout     string  `yaml:"timeout"`
}

// ResearchConfig contains research orchestration configuration
type ResearchConfig struct {
	MaxRounds      int    `yaml:"max_rounds"`
	MaxConcurrency int    `yaml:"max_concurrency"`
	QueueSize      int    `yaml:"queue_size"`
	CallTimeout    string `yaml:"call_timeout"`
	SessionTimeout string `yaml:"session_timeout"`
	SessionMaxAge  string `yaml:"session_max_age"`
}

// CaseLawConfig contains case-law search service configuration
type CaseLawConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	APIToken   string `yaml:"api_token,omitempty"`
	MaxResults int    `yaml:"max_results"`
}

// RegulationConfig contains regulation text service configuration
type RegulationConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
}

// CacheConfig contains tool result cache configuration
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// APIConfig contains API server configuration
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Host    string `yaml:"host"`
}

// ObservabilityConfig contains observability configuration
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
	Output string `yaml:"output"` // "stdout", "file"
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	config.overrideFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads configuration from a file or returns default config
func LoadOrDefault(path string) *Config {
	config, err := Load(path)
	if err != nil {
		config = Default()
	}
	return config
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.2",
			Temperature: 0.2,
			MaxTokens:   4096,
			Timeout:     "2m",
		},
		Research: ResearchConfig{
			MaxRounds:      10,
			MaxConcurrency: 4,
			QueueSize:      32,
			CallTimeout:    "2m",
			SessionTimeout: "10m",
			SessionMaxAge:  "1h",
		},
		CaseLaw: CaseLawConfig{
			MaxResults: 10,
		},
		Cache: CacheConfig{
			MaxEntries: 1024,
		},
		API: APIConfig{
			Enabled: false,
			Port:    8080,
			Host:    "0.0.0.0",
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      true,
				Endpoint:     "localhost:4317",
				SamplingRate: 1.0,
				Insecure:     true,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    2223,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
	}
}

// applyDefaults applies default values to missing fields
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaults.Ollama.BaseURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaults.Ollama.Model
	}
	if c.Ollama.Temperature == 0 {
		c.Ollama.Temperature = defaults.Ollama.Temperature
	}
	if c.Ollama.MaxTokens == 0 {
		c.Ollama.MaxTokens = defaults.Ollama.MaxTokens
	}
	if c.Ollama.Timeout == "" {
		c.Ollama.Timeout = defaults.Ollama.Timeout
	}

	if c.Research.MaxRounds == 0 {
		c.Research.MaxRounds = defaults.Research.MaxRounds
	}
	if c.Research.MaxConcurrency == 0 {
		c.Research.MaxConcurrency = defaults.Research.MaxConcurrency
	}
	if c.Research.QueueSize == 0 {
		c.Research.QueueSize = defaults.Research.QueueSize
	}
	if c.Research.CallTimeout == "" {
		c.Research.CallTimeout = defaults.Research.CallTimeout
	}
	if c.Research.SessionTimeout == "" {
		c.Research.SessionTimeout = defaults.Research.SessionTimeout
	}
	if c.Research.SessionMaxAge == "" {
		c.Research.SessionMaxAge = defaults.Research.SessionMaxAge
	}

	if c.CaseLaw.MaxResults == 0 {
		c.CaseLaw.MaxResults = defaults.CaseLaw.MaxResults
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaults.Cache.MaxEntries
	}
	if c.API.Port == 0 {
		c.API.Port = defaults.API.Port
	}
	if c.API.Host == "" {
		c.API.Host = defaults.API.Host
	}
}

// overrideFromEnv overrides configuration from environment variables
func (c *Config) overrideFromEnv() {
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.Ollama.BaseURL = url
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		c.Ollama.Model = model
	}
	if token := os.Getenv("COURTLISTENER_API_TOKEN"); token != "" {
		c.CaseLaw.APIToken = token
	}
	if port := os.Getenv("API_PORT"); port != "" {
		_, err := fmt.Sscanf(port, "%d", &c.API.Port)
		if err != nil {
			log.Printf("Invalid API_PORT value: %s, using default: %d", port, c.API.Port)
		}
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Observability.Tracing.Endpoint = endpoint
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base_url is required")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model is required")
	}

	if c.Research.MaxRounds < 1 {
		return fmt.Errorf("research max_rounds must be at least 1")
	}
	if c.Research.MaxConcurrency < 1 {
		return fmt.Errorf("research max_concurrency must be at least 1")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("api port must be between 1 and 65535")
	}

	for name, value := range map[string]string{
		"ollama timeout":           c.Ollama.Timeout,
		"research call_timeout":    c.Research.CallTimeout,
		"research session_timeout": c.Research.SessionTimeout,
		"research session_max_age": c.Research.SessionMaxAge,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDuration parses a duration string from config
func (c *Config) GetDuration(value string) (time.Duration, error) {
	return time.ParseDuration(value)
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	env := os.Getenv("ENVIRONMENT")
	return strings.ToLower(env) == "production" || strings.ToLower(env) == "prod"
}
