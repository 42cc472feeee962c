package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Endpoint    string       `json:"endpoint"`
	LogLevel    string       `json:"logLevel"`
	DialTimeout int          `json:"dialTimeout"` // ms - transport dial/handshake timeout
	Cache       *CacheConfig `json:"cache,omitempty"`
	Policies    []PolicyRule `json:"policies"`
}

// CacheConfig represents the retrieval-result cache configuration
type CacheConfig struct {
	Enabled bool `json:"enabled"`
	TTL     int  `json:"ttl"`  // seconds
	Size    int  `json:"size"` // number of entries
}

// PolicyRule binds one wildcard pattern key to policy values. At least one
// value must be set per rule.
type PolicyRule struct {
	Pattern         string `json:"pattern"`
	TimeoutMs       *int64 `json:"timeoutMs,omitempty"`
	BatchingEnabled *bool  `json:"batchingEnabled,omitempty"`
	MaxBatchSize    *int   `json:"maxBatchSize,omitempty"`
}

// Default values
const (
	DefaultLogLevel    = "info"
	DefaultDialTimeout = 5000 // ms
	DefaultCacheTTL    = 60   // seconds
	DefaultCacheSize   = 10000
)

// GetDialTimeoutDuration returns the dial timeout as time.Duration
func (c *Config) GetDialTimeoutDuration() time.Duration {
	return time.Duration(c.DialTimeout) * time.Millisecond
}

// IsCacheEnabled returns true if the cache is configured and enabled
func (c *Config) IsCacheEnabled() bool {
	return c.Cache != nil && c.Cache.Enabled
}

// GetTTLDuration returns the cache TTL as time.Duration
func (c *CacheConfig) GetTTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
