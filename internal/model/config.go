package model

import "time"

// Config holds the complete doxwatch configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	API       APIConfig       `yaml:"api"`
	Retry     RetryConfig     `yaml:"retry"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Output    OutputConfig    `yaml:"output"`
	LLM       LLMConfig       `yaml:"llm"`
	Queries   []string        `yaml:"queries"`
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// APIConfig configures the search API endpoint
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Key        string `yaml:"-"` // From YOUTUBE_API_KEY, never written to config files
	MaxResults int    `yaml:"max_results"`
	MaxPages   int    `yaml:"max_pages_per_query"`
}

// RetryConfig configures the per-request retry policy
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"` // Base delay; attempt N waits N*Backoff
}

// ScoringConfig configures the scoring pipeline
type ScoringConfig struct {
	MinScore    float64 `yaml:"min_score"`     // Composite threshold for the final report
	TitleMaxLen int     `yaml:"title_max_len"` // Truncation applied to report titles
}

// CacheConfig configures the in-run page cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// RateLimitConfig paces requests against the search API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig configures report output
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Verbose bool   `yaml:"verbose"`
}

// LLMConfig configures the optional triage summary (never affects scoring)
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "" disables, "openai" enables
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // From OPENAI_API_KEY
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "doxwatch/0.1 (+https://github.com/fanshield/doxwatch)",
		},
		API: APIConfig{
			BaseURL:    "https://www.googleapis.com/youtube/v3",
			MaxResults: 15,
			MaxPages:   2,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  1500 * time.Millisecond,
		},
		Scoring: ScoringConfig{
			MinScore:    0.25,
			TitleMaxLen: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Output: OutputConfig{
			Dir: "reports",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 500,
		},
		Queries: []string{
			"Felix maison Seoul",
			"Felix address Seoul",
			"Stray Kids Felix house",
			"Felix home location",
		},
	}
}
