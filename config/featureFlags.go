package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// RequireAttendanceForPost gates worker report submission behind a same-day
// check-in (or a manual approval). Site access policies can tighten this per
// site even when the global flag is off.
//
// Set via env:
// - REQUIRE_ATTENDANCE_FOR_POST=true
func RequireAttendanceForPost() bool {
	return boolFromEnv("REQUIRE_ATTENDANCE_FOR_POST")
}

// RateLimitEnabled turns on the redis-backed request rate limiter.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=600
func RateLimitEnabled() bool {
	return boolFromEnv("RATE_LIMIT_ENABLED")
}

// SkipMigrations disables AutoMigrate on startup (run migrations as a
// separate job instead; DDL can block tables and cause 504s).
func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS")
}
