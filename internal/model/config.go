package model

import "time"

// Config is the complete process configuration. It is constructed once per
// process (defaults + config file + env + flags) and passed by reference
// into the pipeline; nothing reads ambient global state.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	NCBI        NCBIConfig        `yaml:"ncbi" json:"ncbi"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Log         LogConfig         `yaml:"log" json:"log"`
}

// HTTPConfig configures the shared HTTP behavior of all source clients
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy,omitempty"`
}

// SearchConfig bounds each pipeline run
type SearchConfig struct {
	MaxClaims            int           `yaml:"max_claims" json:"max_claims"`
	MaxLiteratureResults int           `yaml:"max_literature_results" json:"max_literature_results"`
	MaxTrialResults      int           `yaml:"max_trial_results" json:"max_trial_results"`
	YearsBack            int           `yaml:"years_back" json:"years_back"`
	PerSourceTimeout     time.Duration `yaml:"per_source_timeout" json:"per_source_timeout"`
	TrialPhase           string        `yaml:"trial_phase" json:"trial_phase"`
	TrialStatus          string        `yaml:"trial_status" json:"trial_status"`
}

// ConcurrencyConfig caps concurrent external calls
type ConcurrencyConfig struct {
	FullTextWorkers int     `yaml:"full_text_workers" json:"full_text_workers"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" json:"requests_per_sec"` // per-host default
	Burst           int     `yaml:"burst" json:"burst"`
}

// NCBIConfig carries optional E-utilities credentials. Without an API key
// NCBI allows 3 requests per second; with one, 10.
type NCBIConfig struct {
	APIKey string `yaml:"api_key" json:"-"`
	Email  string `yaml:"email" json:"email,omitempty"`
}

// LLMConfig configures the external capability provider
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "openai" or "anthropic"
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// CacheConfig configures the per-process request cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Substantia/0.2 (+https://github.com/pharmaclaims/substantia)",
			MaxBodyBytes: 8_000_000,
		},
		Search: SearchConfig{
			MaxClaims:            6,
			MaxLiteratureResults: 20,
			MaxTrialResults:      10,
			YearsBack:            5,
			PerSourceTimeout:     45 * time.Second,
			TrialPhase:           "PHASE3",
			TrialStatus:          "COMPLETED",
		},
		Concurrency: ConcurrencyConfig{
			FullTextWorkers: 5,
			RequestsPerSec:  3, // NCBI limit without an API key
			Burst:           3,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
