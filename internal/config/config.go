// Package config loads the client configuration file and compiles its
// policy rules into an immutable policy bundle. Malformed pattern keys fail
// at load time, never at call time.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"rpcfuse/internal/policy"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.TTL == 0 {
			cfg.Cache.TTL = DefaultCacheTTL
		}
		if cfg.Cache.Size == 0 {
			cfg.Cache.Size = DefaultCacheSize
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return errors.New("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.DialTimeout < 0 {
		return errors.New("dialTimeout must be non-negative")
	}

	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.TTL <= 0 {
			return errors.New("cache.ttl must be positive when cache is enabled")
		}
		if cfg.Cache.Size <= 0 {
			return errors.New("cache.size must be positive when cache is enabled")
		}
	}

	for i, rule := range cfg.Policies {
		if rule.Pattern == "" {
			return fmt.Errorf("policies[%d]: pattern is required", i)
		}
		if rule.TimeoutMs == nil && rule.BatchingEnabled == nil && rule.MaxBatchSize == nil {
			return fmt.Errorf("policies[%d] (%s): at least one of timeoutMs, batchingEnabled, maxBatchSize is required", i, rule.Pattern)
		}
		if rule.TimeoutMs != nil && *rule.TimeoutMs <= 0 {
			return fmt.Errorf("policies[%d] (%s): timeoutMs must be positive", i, rule.Pattern)
		}
	}

	return nil
}

// BuildBundle compiles the policy rules into an immutable bundle. Pattern
// parse errors from every rule are reported together at build time.
func (c *Config) BuildBundle() (*policy.Bundle, error) {
	b := policy.NewBuilder()
	for _, rule := range c.Policies {
		if rule.TimeoutMs != nil {
			b.Timeout(rule.Pattern, time.Duration(*rule.TimeoutMs)*time.Millisecond)
		}
		if rule.BatchingEnabled != nil {
			b.BatchingEnabled(rule.Pattern, *rule.BatchingEnabled)
		}
		if rule.MaxBatchSize != nil {
			b.MaxBatchSize(rule.Pattern, *rule.MaxBatchSize)
		}
	}
	return b.Build()
}
