package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the NETSEND_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("NETSEND_HOST"); v != "" {
		cfg.Destination = v
	}
	if v := os.Getenv("NETSEND_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("NETSEND_PROTOCOL"); v != "" {
		cfg.Protocol = strings.ToLower(v)
	}
	if envBool("NETSEND_IPV6") {
		cfg.IPv6 = true
	}
	if v := envInt("NETSEND_RESOLVE_TIMEOUT"); v > 0 {
		cfg.ResolveTimeout = secondsDuration(v)
	}

	// Sending
	if v := os.Getenv("NETSEND_DELIMITER"); v != "" {
		if d, err := ParseDelimiter(v); err == nil {
			cfg.Delimiter = d
		}
	}
	if v := envInt("NETSEND_MAX_SIZE"); v > 0 {
		cfg.MaxMessageSize = v
	}
	if v := envInt("NETSEND_WORKERS"); v > 0 {
		cfg.Workers = v
	}
	if envBool("NETSEND_REOPEN") {
		cfg.Reopen = true
	}
	if v := envInt("NETSEND_REOPEN_ATTEMPTS"); v > 0 {
		cfg.ReopenAttempts = v
	}

	// Output
	if v := envInt("NETSEND_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("NETSEND_STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
