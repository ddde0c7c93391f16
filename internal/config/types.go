package config

import "strconv"

// WorkersMode specifies how worker count is determined.
type WorkersMode int

const (
	// WorkersAuto automatically determines worker count based on available CPUs.
	WorkersAuto WorkersMode = iota
	// WorkersFixed uses a specific worker count.
	WorkersFixed
)

// WorkerSetting represents the workers configuration.
type WorkerSetting struct {
	Mode  WorkersMode
	Value int
}

// String returns the string representation of the worker setting.
func (w WorkerSetting) String() string {
	if w.Mode == WorkersAuto {
		return "auto"
	}
	return strconv.Itoa(w.Value)
}

// CaptureConfig contains capture listener settings.
type CaptureConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Workers        WorkerSetting `json:"-"`
	WorkersRaw     string        `json:"workers"`
	MaxConcurrency int           `json:"max_concurrency"`
	EnableTCP      bool          `json:"enable_tcp"`
	// Respond makes the listeners answer with header-only replies
	// (REFUSED for decoded queries, FORMERR/NOTIMP for malformed input)
	// instead of observing silently.
	Respond bool `json:"respond"`
}

// CorrelateConfig controls the query/response matcher.
type CorrelateConfig struct {
	TTL        string `json:"ttl"`         // How long an unanswered query is tracked (e.g. "5s")
	MaxEntries int    `json:"max_entries"` // Outstanding-query table capacity
}

// RetentionConfig controls how observations reach the database and how long
// they stay there.
type RetentionConfig struct {
	Days          int    `json:"days"`           // Rows older than this are purged
	FlushInterval string `json:"flush_interval"` // Aggregate write cadence (e.g. "1m")
	PurgeInterval string `json:"purge_interval"` // Purge sweep cadence (e.g. "1h")
}

// DatabaseConfig contains sqlite settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `json:"level"`
	Structured       bool              `json:"structured"`
	StructuredFormat string            `json:"structured_format"`
	IncludePID       bool              `json:"include_pid"`
	ExtraFields      map[string]string `json:"extra_fields,omitempty"`
}

// RateLimitConfig controls rate limiting settings.
type RateLimitConfig struct {
	// CleanupSeconds is how often stale entries are cleaned up (default: 60)
	CleanupSeconds float64 `json:"cleanup_seconds"`
	// MaxIPEntries is the maximum number of tracked IPs (default: 65536)
	MaxIPEntries int `json:"max_ip_entries"`
	// MaxPrefixEntries is the maximum number of tracked prefixes (default: 16384)
	MaxPrefixEntries int `json:"max_prefix_entries"`
	// GlobalQPS is the server-wide packets per second limit (0 = disabled)
	GlobalQPS float64 `json:"global_qps"`
	// GlobalBurst is the global burst size
	GlobalBurst int `json:"global_burst"`
	// PrefixQPS is the per-prefix limit (0 = disabled)
	PrefixQPS float64 `json:"prefix_qps"`
	// PrefixBurst is the per-prefix burst size
	PrefixBurst int `json:"prefix_burst"`
	// IPQPS is the per-IP limit (0 = disabled)
	IPQPS float64 `json:"ip_qps"`
	// IPBurst is the per-IP burst size
	IPBurst int `json:"ip_burst"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be returned by API endpoints.
type APIConfig struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	APIKey     string `json:"api_key,omitempty"`
	EnableCORS bool   `json:"enable_cors"`
}

// Config is the root configuration structure.
type Config struct {
	Capture   CaptureConfig   `json:"capture"`
	Correlate CorrelateConfig `json:"correlate"`
	Retention RetentionConfig `json:"retention"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	API       APIConfig       `json:"api"`
}
