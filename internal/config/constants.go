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
	ServerWriteTimeout    = 75 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Session credentials
const (
	ParticipantTokenTTL = 15 * time.Minute
	DelegationTokenTTL  = time.Hour

	// Serialized metadata above the warn size is logged; above the max size
	// issuance is refused.
	MetadataWarnBytes = 1500
	MetadataMaxBytes  = 4096
)

// Interview lifecycle thresholds
const (
	InterviewDuration   = time.Hour
	ExpiryGracePeriod   = 2 * time.Hour
	StartingSoonWindow  = 30 * time.Minute
	ResumeTextCacheTTL  = 24 * time.Hour
	ReconcileJobTimeout = 30 * time.Second
)

// Rate limiting window for the unauthenticated connection-details route
const ConnectionRateLimitWindow = time.Minute
