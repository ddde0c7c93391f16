package models

import "github.com/jroosing/dnslens/internal/config"

// APIConfigResponse is a redacted version of APIConfig (no api_key exposed).
type APIConfigResponse struct {
	Enabled    bool   `json:"enabled"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	EnableCORS bool   `json:"enable_cors"`
}

// CaptureConfigResponse wraps CaptureConfig with workers as string.
type CaptureConfigResponse struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Workers        string `json:"workers"`
	MaxConcurrency int    `json:"max_concurrency"`
	EnableTCP      bool   `json:"enable_tcp"`
	Respond        bool   `json:"respond"`
}

// ConfigResponse is the API response for GET /config.
type ConfigResponse struct {
	Capture   CaptureConfigResponse  `json:"capture"`
	Correlate config.CorrelateConfig `json:"correlate"`
	Retention config.RetentionConfig `json:"retention"`
	Database  config.DatabaseConfig  `json:"database"`
	Logging   config.LoggingConfig   `json:"logging"`
	RateLimit config.RateLimitConfig `json:"rate_limit"`
	API       APIConfigResponse      `json:"api"`
}
