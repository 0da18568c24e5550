package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./rollcall.db)
	DatabaseURL    string // Required for postgres: connection string

	TagCooldown    time.Duration // Optional: minimum time between tag writes (default: 30 days)
	PendingTTL     time.Duration // Optional: lifetime of a prepared tag (default: 5m)
	TagMaxAttempts int           // Optional: tag id collision retries (default: 5)
	AllowSelfScan  bool          // Optional: members may mark themselves present (default: false)
	AllowGuests    bool          // Optional: operators may record non-members as guests (default: true)

	Issuer      string        // Optional: expected token issuer (default: bartab-auth)
	Audience    []string      // Optional: accepted token audiences, comma separated (default: not enforced)
	JWKSURL     string        // One of JWKSURL or JWKSFile is required
	JWKSFile    string        // Static JWKS document, mainly for tests and air-gapped setups
	JWKSRefresh time.Duration // Optional: JWKS refresh interval when fetched by URL (default: 5m)

	DirectorySeedFile    string        // Optional: YAML file with users, memberships and events
	HousekeepingInterval time.Duration // Optional: expired pending request cleanup (default: 0, disabled)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory if there is one. Variables already set win over .env.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseDriver: strings.ToLower(getEnvOrDefault("ROLLCALL_DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   getEnvOrDefault("ROLLCALL_DATABASE_FILE", "rollcall.db"),
		DatabaseURL:    os.Getenv("ROLLCALL_DATABASE_URL"),

		TagCooldown:    getEnvDurationOrDefault("ROLLCALL_TAG_COOLDOWN", service.DefaultTagCooldown),
		PendingTTL:     getEnvDurationOrDefault("ROLLCALL_PENDING_TTL", service.DefaultPendingTTL),
		TagMaxAttempts: getEnvIntOrDefault("ROLLCALL_TAG_MAX_ATTEMPTS", service.DefaultTagMaxAttempts),
		AllowSelfScan:  getEnvBoolOrDefault("ROLLCALL_ALLOW_SELF_SCAN", false),
		AllowGuests:    getEnvBoolOrDefault("ROLLCALL_ALLOW_GUESTS", true),

		Issuer:      getEnvOrDefault("AUTH_ISSUER", "bartab-auth"),
		Audience:    splitList(os.Getenv("AUTH_AUDIENCE")),
		JWKSURL:     os.Getenv("AUTH_JWKS_URL"),
		JWKSFile:    os.Getenv("AUTH_JWKS_FILE"),
		JWKSRefresh: getEnvDurationOrDefault("AUTH_JWKS_REFRESH", 5*time.Minute),

		DirectorySeedFile:    os.Getenv("DIRECTORY_SEED_FILE"),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 0),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ROLLCALL_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ROLLCALL_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.JWKSURL == "" && c.JWKSFile == "" {
		errs = append(errs, errors.New("one of AUTH_JWKS_URL or AUTH_JWKS_FILE is required"))
	}
	if c.TagCooldown < 0 {
		errs = append(errs, errors.New("ROLLCALL_TAG_COOLDOWN must not be negative"))
	}
	if c.PendingTTL <= 0 {
		errs = append(errs, errors.New("ROLLCALL_PENDING_TTL must be positive"))
	}
	if c.TagMaxAttempts < 1 {
		errs = append(errs, errors.New("ROLLCALL_TAG_MAX_ATTEMPTS must be at least 1"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Day counts, e.g. "30d" for the tag cooldown
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
