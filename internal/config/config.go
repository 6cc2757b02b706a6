// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Favorites  FavoritesConfig
	Catalog    CatalogConfig
	Share      ShareConfig
	Compositor CompositorConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the on-disk data directory.
type DataConfig struct {
	// BasePath holds the catalog, the favorites database, the search index
	// and locally published share images (default: ~/Shayari/data).
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port               string        // Server port (default: 8080)
	ReadTimeout        time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout       time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout        time.Duration // HTTP idle timeout (default: 60s)
	ShutdownTimeout    time.Duration // Grace period for draining on exit (default: 30s)
	CORSAllowedOrigins []string
}

// FavoritesConfig selects the persisted favorite store.
type FavoritesConfig struct {
	// Backend is "sqlite" (default) or "postgres".
	Backend     string
	PostgresDSN string
}

// CatalogConfig controls how the content catalog is seeded.
type CatalogConfig struct {
	// SeedPath is an optional YAML dataset. Empty uses the embedded dataset.
	SeedPath string
	// Watch re-imports SeedPath when it changes on disk.
	Watch bool
}

// ShareConfig selects where composed images are published.
type ShareConfig struct {
	// Backend is "local" (default) or "s3".
	Backend      string
	S3Region     string
	S3Endpoint   string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	PresignTTL   time.Duration
	PublicPrefix string
}

// CompositorConfig holds image composition settings.
type CompositorConfig struct {
	// Optional TTF/OTF files, tried before the embedded DejaVu faces.
	BoldFontPath    string
	RegularFontPath string
	// Rate limit for compose and share endpoints, per client IP.
	RatePerMinute int
	RateBurst     int
}

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	ShareLocal      = "local"
	ShareS3         = "s3"
)

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	flags := map[string]*string{
		"ENV":                     flag.String("env", "", "Environment (development, staging, production)"),
		"LOG_LEVEL":               flag.String("log-level", "", "Log level (debug, info, warn, error)"),
		"SHAYARI_DATA_PATH":       flag.String("data-path", "", "Base path for the data directory"),
		"SERVER_PORT":             flag.String("port", "", "Server port (default: 8080)"),
		"SERVER_READ_TIMEOUT":     flag.String("read-timeout", "", "HTTP read timeout (default: 15s)"),
		"SERVER_WRITE_TIMEOUT":    flag.String("write-timeout", "", "HTTP write timeout (default: 30s)"),
		"SERVER_IDLE_TIMEOUT":     flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)"),
		"FAVORITES_BACKEND":       flag.String("favorites-backend", "", "Favorite store (sqlite, postgres)"),
		"POSTGRES_DSN":            flag.String("postgres-dsn", "", "PostgreSQL connection string"),
		"CATALOG_SEED_PATH":       flag.String("catalog-seed", "", "YAML dataset to seed the catalog from"),
		"CATALOG_WATCH":           flag.String("catalog-watch", "", "Reload the catalog seed file on change"),
		"SHARE_BACKEND":           flag.String("share-backend", "", "Share publisher (local, s3)"),
		"COMPOSE_RATE_PER_MINUTE": flag.String("compose-rate", "", "Compose requests per minute per client"),
	}
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	values := make(map[string]string, len(flags))
	for key, v := range flags {
		values[key] = *v
	}
	return Load(*envFile, values)
}

// Load builds the configuration from an optional .env file and explicit
// overrides keyed by environment variable name. It is used directly by
// commands that own their own flag set.
func Load(envFile string, overrides map[string]string) (*Config, error) {
	// Missing .env files are fine; variables already in the environment win.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %q: %w", envFile, err)
		}
	}

	get := func(key, defaultValue string) string {
		return getConfigValue(overrides[key], key, defaultValue)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: get("ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: get("LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: get("SHAYARI_DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:               get("SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*")),
		},
		Favorites: FavoritesConfig{
			Backend:     strings.ToLower(get("FAVORITES_BACKEND", BackendSQLite)),
			PostgresDSN: get("POSTGRES_DSN", ""),
		},
		Catalog: CatalogConfig{
			SeedPath: get("CATALOG_SEED_PATH", ""),
			Watch:    getBoolConfigValue(overrides["CATALOG_WATCH"], "CATALOG_WATCH", false),
		},
		Share: ShareConfig{
			Backend:      strings.ToLower(get("SHARE_BACKEND", ShareLocal)),
			S3Region:     get("S3_REGION", "us-east-1"),
			S3Endpoint:   get("S3_ENDPOINT", ""),
			S3Bucket:     get("S3_BUCKET", ""),
			S3AccessKey:  get("S3_ACCESS_KEY", ""),
			S3SecretKey:  get("S3_SECRET_KEY", ""),
			PublicPrefix: get("SHARE_PUBLIC_PREFIX", "/api/v1/shares"),
		},
		Compositor: CompositorConfig{
			BoldFontPath:    get("COMPOSE_FONT_BOLD", ""),
			RegularFontPath: get("COMPOSE_FONT_REGULAR", ""),
			RatePerMinute:   getIntConfigValue(overrides["COMPOSE_RATE_PER_MINUTE"], "COMPOSE_RATE_PER_MINUTE", 30),
			RateBurst:       getIntConfigValue(overrides["COMPOSE_RATE_BURST"], "COMPOSE_RATE_BURST", 5),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(get("SERVER_READ_TIMEOUT", "15s"), "read timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(get("SERVER_WRITE_TIMEOUT", "30s"), "write timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(get("SERVER_IDLE_TIMEOUT", "60s"), "idle timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = parseDuration(get("SERVER_SHUTDOWN_TIMEOUT", "30s"), "shutdown timeout"); err != nil {
		return nil, err
	}
	if cfg.Share.PresignTTL, err = parseDuration(get("S3_PRESIGN_TTL", "15m"), "presign TTL"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Catalog.SeedPath != "" {
		if cfg.Catalog.SeedPath, err = expandPath(cfg.Catalog.SeedPath, ""); err != nil {
			return nil, fmt.Errorf("invalid catalog seed path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Favorites.Backend {
	case BackendSQLite:
	case BackendPostgres:
		if c.Favorites.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when FAVORITES_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("invalid favorites backend: %s (must be sqlite or postgres)", c.Favorites.Backend)
	}

	switch c.Share.Backend {
	case ShareLocal:
	case ShareS3:
		if c.Share.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when SHARE_BACKEND=s3")
		}
		if c.Share.PresignTTL <= 0 {
			return errors.New("S3_PRESIGN_TTL must be positive")
		}
	default:
		return fmt.Errorf("invalid share backend: %s (must be local or s3)", c.Share.Backend)
	}

	if c.Compositor.RatePerMinute <= 0 {
		return fmt.Errorf("invalid compose rate: %d (must be positive)", c.Compositor.RatePerMinute)
	}

	return nil
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath resolves the data directory, defaulting to ~/Shayari/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shayari", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

func parseDuration(value, name string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
