// Package config provides configuration loading and structs for the nlweb server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Query     QueryConfig     `yaml:"query"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Corpus    CorpusConfig    `yaml:"corpus"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// QueryConfig holds defaults applied to incoming queries.
type QueryConfig struct {
	DefaultMode   string `yaml:"default_mode"`
	MaxResults    int    `yaml:"max_results"`
	Streaming     *bool  `yaml:"streaming"`
	ToolSelection *bool  `yaml:"tool_selection"`
	// SummarizeTop is how many leading results feed summary and answer prompts.
	SummarizeTop int `yaml:"summarize_top"`
}

// StreamingOrDefault returns whether streaming is allowed; defaults to true when unset.
func (q *QueryConfig) StreamingOrDefault() bool {
	if q.Streaming != nil {
		return *q.Streaming
	}
	return true
}

// ToolSelectionOrDefault returns whether tool selection runs; defaults to true when unset.
func (q *QueryConfig) ToolSelectionOrDefault() bool {
	if q.ToolSelection != nil {
		return *q.ToolSelection
	}
	return true
}

// EndpointConfig describes one retrieval backend.
type EndpointConfig struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	// Write marks this endpoint as the destination for item upserts.
	// At most one endpoint may set it.
	Write bool `yaml:"write"`
}

// RetrievalConfig holds backend fan-out and merge settings.
type RetrievalConfig struct {
	MultiBackend          *bool            `yaml:"multi_backend"`
	BackendTimeoutSeconds int              `yaml:"backend_timeout_seconds"`
	MaxConcurrent         int              `yaml:"max_concurrent"`
	Deduplicate           *bool            `yaml:"deduplicate"`
	CacheEnabled          bool             `yaml:"cache_enabled"`
	CacheSize             int              `yaml:"cache_size"`
	CacheTTLSeconds       int              `yaml:"cache_ttl_seconds"`
	Endpoints             []EndpointConfig `yaml:"endpoints"`
}

// MultiBackendOrDefault returns whether all backends are queried; defaults to true.
func (r *RetrievalConfig) MultiBackendOrDefault() bool {
	if r.MultiBackend != nil {
		return *r.MultiBackend
	}
	return true
}

// DeduplicateOrDefault returns whether merged results are deduplicated by URL; defaults to true.
func (r *RetrievalConfig) DeduplicateOrDefault() bool {
	if r.Deduplicate != nil {
		return *r.Deduplicate
	}
	return true
}

// BackendTimeout returns the per-backend search timeout.
func (r *RetrievalConfig) BackendTimeout() time.Duration {
	return time.Duration(r.BackendTimeoutSeconds) * time.Second
}

// CacheTTL returns how long cached retrieval lists stay valid.
func (r *RetrievalConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// LLMConfig holds external language model settings.
type LLMConfig struct {
	// Provider selects the client: "openai", "anthropic", "mock", or "" to disable.
	Provider string `yaml:"provider"`
	// APIKey falls back to the provider's conventional environment variable when empty.
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// RateLimitConfig holds fixed-window admission settings.
type RateLimitConfig struct {
	Enabled       *bool  `yaml:"enabled"`
	WindowSeconds int    `yaml:"window_seconds"`
	MaxRequests   int    `yaml:"max_requests"`
	// Strategy picks the request identifier: "ip", "client", or "both".
	// With "both", the remote address is preferred and the client id is
	// the fallback.
	Strategy string `yaml:"strategy"`
}

// EnabledOrDefault returns whether rate limiting is on; defaults to true when unset.
func (r *RateLimitConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
}

// Window returns the fixed window duration.
func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// CorpusConfig holds corpus reload settings.
type CorpusConfig struct {
	Watch *bool `yaml:"watch"`
}

// WatchOrDefault returns whether corpus files are watched for changes; defaults to true.
func (c *CorpusConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, validates,
// and expands endpoint paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Dir(path)
	for i := range cfg.Retrieval.Endpoints {
		if cfg.Retrieval.Endpoints[i].Path != "" {
			cfg.Retrieval.Endpoints[i].Path = expandPath(cfg.Retrieval.Endpoints[i].Path, configDir)
		}
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
