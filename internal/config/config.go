package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup. Empty backend addresses disable the backend.
type Config struct {
	Port   string
	AppEnv string

	DBDriver    string
	DatabaseURL string

	RedisHost     string
	RedisPassword string
	CacheTTL      time.Duration

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string

	JWTSecret    string
	OIDCIssuer   string
	OIDCClientID string

	CORSOrigins       []string
	CheckoutRateLimit int
	RateLimitWindow   time.Duration
}

// Load reads .env when present, then the process environment.
// It reports whether a .env file was loaded.
func Load() (Config, bool) {
	loaded := godotenv.Load(".env") == nil
	return FromEnv(), loaded
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:   getenv("PORT", "8080"),
		AppEnv: getenv("APP_ENV", "production"),

		DBDriver:    getenv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    getenv("ELASTIC_INDEX", "products"),

		ScyllaHosts:    splitList(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace: os.Getenv("SCYLLA_KEYSPACE"),
		ScyllaUser:     os.Getenv("SCYLLA_USER"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		OIDCIssuer:   os.Getenv("OIDC_ISSUER"),
		OIDCClientID: os.Getenv("OIDC_CLIENT_ID"),

		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		CheckoutRateLimit: getInt("CHECKOUT_RATE_LIMIT", 10),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

func (c Config) Development() bool {
	return c.AppEnv == "development"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
