package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	HTTPPort        string
	DatabaseDriver  string
	DatabaseDSN     string
	RedisAddr       string
	ImportWorkers   int
	ImportDir       string
	ImportJobTTL    time.Duration
	MaxUploadBytes  int64
	AllowedOrigins  []string
	SeedProductsCSV string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = os.Getenv("SECRET")
	}
	if secret == "" {
		secret = "dev_secret"
	}

	port := envOr("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	driver := strings.ToLower(envOr("DB_DRIVER", "sqlite"))
	switch driver {
	case "sqlite", "pgx", "mysql":
	case "postgres", "postgresql":
		driver = "pgx"
	default:
		log.Printf("unsupported DB_DRIVER %q, defaulting to sqlite", driver)
		driver = "sqlite"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = defaultDSN(driver)
	}

	importDir := os.Getenv("IMPORT_DIR")
	if importDir == "" {
		importDir = os.TempDir()
	}

	origins := []string{"*"}
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = strings.Split(raw, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	return Config{
		Secret:          secret,
		TokenTTL:        time.Duration(envInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30, 1)) * time.Minute,
		HTTPPort:        port,
		DatabaseDriver:  driver,
		DatabaseDSN:     dsn,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ImportWorkers:   envInt("IMPORT_WORKERS", 3, 1),
		ImportDir:       importDir,
		ImportJobTTL:    envDuration("IMPORT_JOB_TTL", 24*time.Hour),
		MaxUploadBytes:  int64(envInt("MAX_UPLOAD_MB", 10, 1)) << 20,
		AllowedOrigins:  origins,
		SeedProductsCSV: os.Getenv("SEED_PRODUCTS_CSV"),
	}
}

func defaultDSN(driver string) string {
	host := envOr("DB_HOST", "localhost")
	user := envOr("DB_USER", "inventory_user")
	password := os.Getenv("DB_PASSWORD")
	name := envOr("DB_NAME", "inventory_db")

	switch driver {
	case "pgx":
		port := envOr("DB_PORT", "5432")
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	case "mysql":
		port := envOr("DB_PORT", "3306")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true", user, password, host, port, name)
	default:
		return "file:inventory.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		log.Printf("invalid %s value %q, defaulting to %s", key, raw, fallback)
		return fallback
	}
	return v
}
