package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ConsentStoreKind selects the backend holding consent preference blobs.
type ConsentStoreKind string

const (
	ConsentStoreMemory   ConsentStoreKind = "memory"
	ConsentStoreRedis    ConsentStoreKind = "redis"
	ConsentStorePostgres ConsentStoreKind = "postgres"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	LogLevel     string
	LogFormat    string
	CookieSecure bool
	ConsentStore ConsentStoreKind
	Redis        RedisConfig
	Postgres     PostgresConfig
	Forms        FormsConfig
	Sessions     SessionConfig
	RateLimit    RateLimitConfig

	// TrustedProxies lists CIDRs or addresses whose forwarding headers are
	// believed when resolving the client IP. Empty trusts no one.
	TrustedProxies []string
}

// RedisConfig configures the shared preference store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the SQL preference store.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FormsConfig holds the simulated submission timings.
type FormsConfig struct {
	SubmitLatency  time.Duration
	SuccessDisplay time.Duration
}

// SessionConfig bounds how long idle consent/form instances are kept in memory.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// RateLimitConfig throttles write endpoints per client IP.
type RateLimitConfig struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// Load reads an optional .env file and then builds the config from the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (Server, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Server{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           envString("SAPID_ADDR", ":8080"),
		LogLevel:       envString("SAPID_LOG_LEVEL", "info"),
		LogFormat:      envString("SAPID_LOG_FORMAT", "json"),
		CookieSecure:   envBool("SAPID_COOKIE_SECURE", false),
		TrustedProxies: envList("SAPID_TRUSTED_PROXIES"),
		ConsentStore:   ConsentStoreKind(strings.ToLower(envString("SAPID_CONSENT_STORE", string(ConsentStoreMemory)))),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Forms: FormsConfig{
			SubmitLatency:  envDuration("SAPID_FORM_SUBMIT_LATENCY", 2*time.Second),
			SuccessDisplay: envDuration("SAPID_FORM_SUCCESS_DISPLAY", 5*time.Second),
		},
		Sessions: SessionConfig{
			TTL:           envDuration("SAPID_SESSION_TTL", 30*time.Minute),
			SweepInterval: envDuration("SAPID_SESSION_SWEEP_INTERVAL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			Disabled: envBool("SAPID_RATELIMIT_DISABLED", false),
			Limit:    envInt("SAPID_RATELIMIT_LIMIT", 30),
			Window:   envDuration("SAPID_RATELIMIT_WINDOW", time.Minute),
		},
	}
}

// Validate checks cross-field requirements.
func (s Server) Validate() error {
	switch s.ConsentStore {
	case ConsentStoreMemory:
	case ConsentStoreRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when SAPID_CONSENT_STORE=redis")
		}
	case ConsentStorePostgres:
		if s.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when SAPID_CONSENT_STORE=postgres")
		}
	default:
		return fmt.Errorf("unsupported SAPID_CONSENT_STORE %q", s.ConsentStore)
	}
	if s.Forms.SubmitLatency < 0 || s.Forms.SuccessDisplay < 0 {
		return fmt.Errorf("form timings must not be negative")
	}
	if s.Sessions.TTL <= 0 || s.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("session ttl and sweep interval must be positive")
	}
	if !s.RateLimit.Disabled && (s.RateLimit.Limit <= 0 || s.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit and window must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
