package config

import (
	"os"
	"time"
)

// CacheConfig controls the Redis response cache for read-only hospital
// lookups.  Allocation and SOS endpoints are never cached.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  getenv("CACHE_PREFIX", "cache"),
	}
}

// RateLimitConfig controls the fixed-window per-IP rate limiter.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
	Prefix  string
}

func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Limit:   envInt("RATE_LIMIT_MAX", 120),
		Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if c.Limit < 1 {
		c.Limit = 1
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}
