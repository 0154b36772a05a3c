package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Permissions PermissionsConfig
	Directory   DirectoryConfig
	HTTP        HTTPConfig
	Bootstrap   BootstrapConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type PermissionsConfig struct {
	Mode    permission.Mode
	Enforce bool
}

type DirectoryConfig struct {
	CacheTTL   time.Duration
	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration
}

type HTTPConfig struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// BootstrapConfig names the admin seeded into the in-memory directory when
// no database is configured. A zero AdminID disables seeding.
type BootstrapConfig struct {
	TenantID   uuid.UUID
	AdminID    uuid.UUID
	AdminEmail string
	AdminName  string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	mode, err := permission.ParseMode(getEnv("PERMISSION_MODE", string(permission.ModeCompat)))
	if err != nil {
		return nil, fmt.Errorf("invalid PERMISSION_MODE: %w", err)
	}

	enforce, err := getEnvBool("PERMISSION_ENFORCE", false)
	if err != nil {
		return nil, fmt.Errorf("invalid PERMISSION_ENFORCE: %w", err)
	}

	cacheTTL, err := getEnvDuration("STAFF_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid STAFF_CACHE_TTL: %w", err)
	}

	maxRetries, err := getEnvInt("DIRECTORY_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid DIRECTORY_MAX_RETRIES: %w", err)
	}

	retryBase, err := getEnvDuration("DIRECTORY_RETRY_BASE", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid DIRECTORY_RETRY_BASE: %w", err)
	}

	retryMax, err := getEnvDuration("DIRECTORY_RETRY_MAX", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid DIRECTORY_RETRY_MAX: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	bootstrapTenant, err := getEnvUUID("BOOTSTRAP_TENANT_ID")
	if err != nil {
		return nil, fmt.Errorf("invalid BOOTSTRAP_TENANT_ID: %w", err)
	}

	bootstrapAdmin, err := getEnvUUID("BOOTSTRAP_ADMIN_ID")
	if err != nil {
		return nil, fmt.Errorf("invalid BOOTSTRAP_ADMIN_ID: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Permissions: PermissionsConfig{
			Mode:    mode,
			Enforce: enforce,
		},
		Directory: DirectoryConfig{
			CacheTTL:   cacheTTL,
			MaxRetries: maxRetries,
			RetryBase:  retryBase,
			RetryMax:   retryMax,
		},
		HTTP: HTTPConfig{
			CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Bootstrap: BootstrapConfig{
			TenantID:   bootstrapTenant,
			AdminID:    bootstrapAdmin,
			AdminEmail: getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@localhost.localdomain"),
			AdminName:  getEnv("BOOTSTRAP_ADMIN_NAME", "Clinic Admin"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the API's settings. DATABASE_URL is optional: without it
// the API keeps staff in memory.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("missing required env vars: JWT_SECRET")
	}
	if c.Directory.MaxRetries < 0 {
		return fmt.Errorf("DIRECTORY_MAX_RETRIES must not be negative")
	}
	if (c.Bootstrap.AdminID == uuid.Nil) != (c.Bootstrap.TenantID == uuid.Nil) {
		return fmt.Errorf("BOOTSTRAP_ADMIN_ID and BOOTSTRAP_TENANT_ID must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvUUID(key string) (uuid.UUID, error) {
	v := os.Getenv(key)
	if v == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
