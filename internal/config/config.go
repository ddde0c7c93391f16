// Package config provides configuration types and validation for dnslens.
//
// Configuration is assembled from command-line flags in cmd/dnslens and
// normalized here; Validate fills defaults so the rest of the code never
// sees an empty duration string or a zero capacity.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	// Validate capture listener address
	if cfg.Capture.Port <= 0 || cfg.Capture.Port > 65535 {
		return errors.New("capture.port must be 1..65535")
	}
	if cfg.Capture.Host == "" {
		cfg.Capture.Host = "0.0.0.0"
	}

	// Normalize correlator settings
	if cfg.Correlate.TTL == "" {
		cfg.Correlate.TTL = "5s"
	}
	if _, err := time.ParseDuration(cfg.Correlate.TTL); err != nil {
		return fmt.Errorf("correlate.ttl: %w", err)
	}
	if cfg.Correlate.MaxEntries <= 0 {
		cfg.Correlate.MaxEntries = 65536
	}

	// Normalize retention
	if cfg.Retention.Days <= 0 {
		cfg.Retention.Days = 7
	}
	if cfg.Retention.FlushInterval == "" {
		cfg.Retention.FlushInterval = "1m"
	}
	if _, err := time.ParseDuration(cfg.Retention.FlushInterval); err != nil {
		return fmt.Errorf("retention.flush_interval: %w", err)
	}
	if cfg.Retention.PurgeInterval == "" {
		cfg.Retention.PurgeInterval = "1h"
	}
	if _, err := time.ParseDuration(cfg.Retention.PurgeInterval); err != nil {
		return fmt.Errorf("retention.purge_interval: %w", err)
	}

	// Normalize database
	if cfg.Database.Path == "" {
		cfg.Database.Path = "dnslens.db"
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	// Normalize management API
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	// Parse workers
	cfg.Capture.Workers = parseWorkers(cfg.Capture.WorkersRaw)

	return nil
}

// CorrelateTTL returns the parsed correlator TTL. Validate must have run.
func (cfg *Config) CorrelateTTL() time.Duration {
	d, err := time.ParseDuration(cfg.Correlate.TTL)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// FlushInterval returns the parsed aggregate flush cadence. Validate must have run.
func (cfg *Config) FlushInterval() time.Duration {
	d, err := time.ParseDuration(cfg.Retention.FlushInterval)
	if err != nil {
		return time.Minute
	}
	return d
}

// PurgeInterval returns the parsed purge sweep cadence. Validate must have run.
func (cfg *Config) PurgeInterval() time.Duration {
	d, err := time.ParseDuration(cfg.Retention.PurgeInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// parseWorkers converts the workers string to WorkerSetting.
func parseWorkers(raw string) WorkerSetting {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "auto" {
		return WorkerSetting{Mode: WorkersAuto}
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return WorkerSetting{Mode: WorkersFixed, Value: n}
	}
	return WorkerSetting{Mode: WorkersAuto}
}
