package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Interval is a closed range of durations a random delay is drawn from.
type Interval struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// RateLimitConfig holds the delay intervals for each request class. They are
// configuration so each source profile can be tuned independently. A nil
// interval selects the default; a zero interval means no delay.
type RateLimitConfig struct {
	// DocumentRetry governs the wait before every document fetch attempt
	// (default 2s-5s).
	DocumentRetry *Interval `json:"document_retry,omitempty" yaml:"document_retry,omitempty"`

	// Page governs the wait between consecutive result pages (default 3s-7s).
	Page *Interval `json:"page,omitempty" yaml:"page,omitempty"`
}

// RotationConfig holds the request identity material.
type RotationConfig struct {
	// Seed makes header, proxy and delay draws reproducible. Zero uses entropy.
	Seed int64 `json:"seed" yaml:"seed"`

	// UserAgents replaces the built-in header catalog when non-empty.
	UserAgents []string `json:"user_agents,omitempty" yaml:"user_agents,omitempty"`

	// Proxies is the primary proxy source: a static list of proxy URLs.
	Proxies []string `json:"proxies,omitempty" yaml:"proxies,omitempty"`

	// ProxyListURL is the secondary proxy source: a remote plain-text list
	// with one proxy per line.
	ProxyListURL string `json:"proxy_list_url,omitempty" yaml:"proxy_list_url,omitempty"`
}

// FetchConfig holds settings for the fetch engine.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxAttempts is the number of attempts per document (default 2).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// MaxBodyBytes caps the size of a fetched body (default 50 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// SourceConfig holds settings for one paginated source profile.
type SourceConfig struct {
	// BaseURL is the query endpoint of the source.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PageSize is the number of results requested per page (default 10).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Language is the interface language parameter for scraped sources.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// RateLimit overrides the session's delay intervals for this source.
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

// GatherConfig holds settings for the gather stage.
type GatherConfig struct {
	// OutputDir receives accepted files, sidecars and results.json.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// AllowMissingMetadata accepts documents exposing no embedded metadata.
	AllowMissingMetadata bool `json:"allow_missing_metadata" yaml:"allow_missing_metadata"`

	// MaxAttempts is the per-document fetch attempt budget.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Years drops candidates published outside the range.
	Years YearRange `json:"years" yaml:"years"`

	// DedupIndex is the sqlite file (relative to OutputDir) that persists
	// accepted keys across runs. Empty keeps dedup state in memory only.
	DedupIndex string `json:"dedup_index,omitempty" yaml:"dedup_index,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is "json" (default) or "console".
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations for one query session.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Rotation  RotationConfig  `json:"rotation" yaml:"rotation"`
	Source    SourceConfig    `json:"source" yaml:"source"`
	Gather    GatherConfig    `json:"gather" yaml:"gather"`
	Log       LogConfig       `json:"log" yaml:"log"`
}
