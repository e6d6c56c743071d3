package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "your-secret-key", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"9000"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Canonical external URL of this service. Used for the agent's detail
	// endpoint so credentials do not depend on the issuing host.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	AuthJWTSecret    string `env:"AUTH_JWT_SECRET"`
	DelegationSecret string `env:"DELEGATION_SECRET"`

	LiveKitURL       string `env:"LIVEKIT_URL"`
	LiveKitAPIKey    string `env:"LIVEKIT_API_KEY"`
	LiveKitAPISecret string `env:"LIVEKIT_API_SECRET"`
	AgentMetadataKey string `env:"AGENT_METADATA_KEY"`

	MeetingAPIURL         string `env:"MEETING_API_URL"`
	MeetingAPIToken       string `env:"MEETING_API_TOKEN"`
	MeetingTimeoutSeconds int    `env:"MEETING_TIMEOUT_SECONDS" envDefault:"10"`
	MeetingFakeDelayMs    int    `env:"MEETING_FAKE_DELAY_MS" envDefault:"1000"`

	ResumeDir    string `env:"RESUME_DIR" envDefault:"uploads"`
	SlotTimezone string `env:"SLOT_TIMEZONE" envDefault:"Local"`

	ReconcileIntervalSeconds  int      `env:"RECONCILE_INTERVAL_SECONDS" envDefault:"0"`
	CORSAllowedOrigins        []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	ConnectionRateLimitPerMin int      `env:"CONNECTION_RATE_LIMIT_PER_MIN" envDefault:"30"`
	TracingEnabled            bool     `env:"TRACING_ENABLED" envDefault:"false"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) MeetingTimeout() time.Duration {
	return time.Duration(c.MeetingTimeoutSeconds) * time.Second
}

func (c *Config) MeetingFakeDelay() time.Duration {
	return time.Duration(c.MeetingFakeDelayMs) * time.Millisecond
}

func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// SlotLocation resolves SLOT_TIMEZONE, falling back to the server's local zone.
func (c *Config) SlotLocation() *time.Location {
	if c.SlotTimezone == "" || c.SlotTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.SlotTimezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.SlotTimezone).Msg("unknown SLOT_TIMEZONE, using local time")
		return time.Local
	}
	return loc
}

// LiveKitConfigured reports whether every value needed to mint session
// credentials is present.
func (c *Config) LiveKitConfigured() bool {
	return c.LiveKitURL != "" && c.LiveKitAPIKey != "" && c.LiveKitAPISecret != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "http") {
		return fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) URL")
	}
	if c.AgentMetadataKey != "" && len(c.AgentMetadataKey) != 64 {
		return fmt.Errorf("AGENT_METADATA_KEY must be 32 bytes hex encoded (generate with: openssl rand -hex 32)")
	}
	// Agent metadata travels inside the candidate's token and carries the
	// delegation token, so it can only be issued sealed.
	if c.DelegationSecret != "" && c.AgentMetadataKey == "" {
		return fmt.Errorf("AGENT_METADATA_KEY is required when DELEGATION_SECRET is set")
	}

	if isProduction {
		if err := validateSecret("AUTH_JWT_SECRET", c.AuthJWTSecret); err != nil {
			return err
		}
		if err := validateSecret("DELEGATION_SECRET", c.DelegationSecret); err != nil {
			return err
		}
		if c.DelegationSecret == c.AuthJWTSecret {
			return fmt.Errorf("DELEGATION_SECRET must differ from AUTH_JWT_SECRET")
		}

		if !c.LiveKitConfigured() {
			log.Warn().Msg("LiveKit is not configured in production: connection details will fail")
		}
		if c.MeetingAPIURL == "" {
			log.Warn().Msg("MEETING_API_URL is empty in production: using the fake meeting provider")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

// Load reads an optional .env file and then parses the process environment.
// Real environment variables win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &cfg, nil
}
