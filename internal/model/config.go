package model

import (
	"errors"
	"time"
)

// ErrMissingCredentials is returned at startup when a required API credential is absent
var ErrMissingCredentials = errors.New("missing credentials")

// Config is the complete citecheck configuration
type Config struct {
	CaseLaw     CaseLawConfig     `yaml:"caselaw" mapstructure:"caselaw"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Breaker     BreakerConfig     `yaml:"breaker" mapstructure:"breaker"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// CaseLawConfig configures the case-law database client
type CaseLawConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	APIToken   string        `yaml:"-" mapstructure:"api_token"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxPages   int           `yaml:"max_pages" mapstructure:"max_pages"`
	PeopleGap  time.Duration `yaml:"people_gap" mapstructure:"people_gap"` // Delay between serialized judge lookups
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RateLimitConfig configures the shared token bucket
type RateLimitConfig struct {
	Capacity       int           `yaml:"capacity" mapstructure:"capacity"`
	RefillPerSec   float64       `yaml:"refill_per_sec" mapstructure:"refill_per_sec"`
	MinSpacing     time.Duration `yaml:"min_spacing" mapstructure:"min_spacing"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
}

// BreakerConfig configures the shared circuit breaker
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	OpenDuration     time.Duration `yaml:"open_duration" mapstructure:"open_duration"`
}

// SearchConfig configures the batched search orchestrator
type SearchConfig struct {
	BatchSize         int           `yaml:"batch_size" mapstructure:"batch_size"`
	TaskTimeout       time.Duration `yaml:"task_timeout" mapstructure:"task_timeout"`
	GlobalBudget      time.Duration `yaml:"global_budget" mapstructure:"global_budget"`
	InterBatchDelay   time.Duration `yaml:"inter_batch_delay" mapstructure:"inter_batch_delay"`
	MaxFailureRate    float64       `yaml:"max_failure_rate" mapstructure:"max_failure_rate"`
	MinForFailureRate int           `yaml:"min_for_failure_rate" mapstructure:"min_for_failure_rate"`
	EnrichJudges      int           `yaml:"enrich_judges" mapstructure:"enrich_judges"` // Top-N candidates to enrich with judge names (0 disables)
}

// VerifyConfig configures the verification pipeline
type VerifyConfig struct {
	HoldingThreshold  float64       `yaml:"holding_threshold" mapstructure:"holding_threshold"`
	VerifiedThreshold float64       `yaml:"verified_threshold" mapstructure:"verified_threshold"`
	MaxReframes       int           `yaml:"max_reframes" mapstructure:"max_reframes"`
	BadLawValidity    time.Duration `yaml:"bad_law_validity" mapstructure:"bad_law_validity"`
	ResultTTL         time.Duration `yaml:"result_ttl" mapstructure:"result_ttl"`
	StepTimeout       time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
}

// ConcurrencyConfig configures cross-citation parallelism
type ConcurrencyConfig struct {
	Citations int `yaml:"citations" mapstructure:"citations"` // Chunk size; chunks run one at a time
}

// LLMConfig configures the two verification vendors
type LLMConfig struct {
	Primary     VendorConfig `yaml:"primary" mapstructure:"primary"`
	Adversarial VendorConfig `yaml:"adversarial" mapstructure:"adversarial"`
	MaxTokens   int          `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// VendorConfig configures one AI provider
type VendorConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	APIKey   string `yaml:"-" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// StoreConfig configures persistence
type StoreConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	OverridesFile string `yaml:"overrides_file,omitempty" mapstructure:"overrides_file"`
}

// CacheConfig configures the in-process result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures reporting
type OutputConfig struct {
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
	JSONLogs    bool   `yaml:"json_logs" mapstructure:"json_logs"`
	MetricsAddr string `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
}

// DefaultConfig returns the production defaults
func DefaultConfig() *Config {
	return &Config{
		CaseLaw: CaseLawConfig{
			BaseURL:   "https://www.courtlistener.com/api/rest/v4",
			Timeout:   30 * time.Second,
			UserAgent: "citecheck/0.3 (+https://github.com/ppiankov/citecheck)",
			MaxPages:  5,
			PeopleGap: 250 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Capacity:       10,
			RefillPerSec:   1,
			MinSpacing:     100 * time.Millisecond,
			MaxRetries:     3,
			InitialBackoff: time.Second,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			OpenDuration:     30 * time.Second,
		},
		Search: SearchConfig{
			BatchSize:         3,
			TaskTimeout:       90 * time.Second,
			GlobalBudget:      270 * time.Second,
			InterBatchDelay:   1500 * time.Millisecond,
			MaxFailureRate:    0.5,
			MinForFailureRate: 10,
			EnrichJudges:      0,
		},
		Verify: VerifyConfig{
			HoldingThreshold:  0.70,
			VerifiedThreshold: 0.90,
			MaxReframes:       2,
			BadLawValidity:    30 * 24 * time.Hour,
			ResultTTL:         30 * 24 * time.Hour,
			StepTimeout:       2 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Citations: 5,
		},
		LLM: LLMConfig{
			Primary:     VendorConfig{Provider: "openai", Timeout: 60},
			Adversarial: VendorConfig{Provider: "anthropic", Timeout: 60},
			MaxTokens:   1200,
		},
		Store: StoreConfig{
			Path: "citecheck.db",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
	}
}
