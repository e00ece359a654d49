package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Cache entry lifetimes. Session state self-expires so abandoned
// sessions don't accumulate; today counters outlive the UTC day they
// count so late readers still see them.
const (
	SessionStateTTL = 24 * time.Hour
	TodayCountTTL   = 3 * 24 * time.Hour
)

// CacheOpTimeout bounds every Redis round trip. A cache call that
// exceeds it is treated as a cache failure and the DB value is used.
const CacheOpTimeout = 500 * time.Millisecond

// Stale session sweeper
const (
	SweeperInterval    = 15 * time.Minute
	StaleSessionCutoff = 48 * time.Hour
)
