package config

import "time"

// Database and performance constants
const (
	// Timeouts
	DefaultQueryTimeout   = 10 * time.Second
	SettlementTimeout     = 15 * time.Second
	LeaderboardTimeout    = 10 * time.Second
	NetworkDialTimeout    = 5 * time.Second
	StravaRequestTimeout  = 30 * time.Second
	ShutdownTimeout       = 10 * time.Second

	// Cache settings
	LeaderboardCacheSize   = 256
	LeaderboardCacheExpiry = 30 * time.Second

	// Limits
	DefaultSessionLimit     = 20
	MaxSessionLimit         = 100
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 200
	MaxRoutePoints          = 100
	MaxUsernameLength       = 20
	MinUsernameLength       = 2

	// Rate limiting
	RateLimitRequests = 60
	RateLimitWindow   = time.Minute
)
