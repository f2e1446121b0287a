package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the value of the environment variable k, or def when it is
// unset or empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// GetEnvBool parses k as a bool, falling back to def on error/absence.
func GetEnvBool(k string, def bool) bool {
	v := GetEnv(k, "")
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// GetEnvDuration parses k as a Go duration ("30s") or a number of seconds,
// falling back to def on error/absence.
func GetEnvDuration(k string, def time.Duration) time.Duration {
	v := GetEnv(k, "")
	if v == "" {
		return def
	}
	return ParseDuration(v, def)
}

// ParseDuration accepts "1m30s" style durations and plain seconds.
func ParseDuration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}

// ListenAddr turns a bare port into ":port".
func ListenAddr(v string) string {
	if v != "" && !strings.Contains(v, ":") {
		return ":" + v
	}
	return v
}
