package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"

	NotifierDesktop = "desktop"
	NotifierLog     = "log"

	DefaultHTTPAddr  = "127.0.0.1:7625"
	defaultRateLimit = 20
	defaultRateBurst = 40
)

type Config struct {
	HomePath string
	DBPath   string

	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Profile       string

	HTTPAddr  string
	RateLimit float64
	RateBurst int

	LogLevel    string
	Environment string
	Notifier    string

	// Warnings collects env values that were ignored; callers log them once a logger exists.
	Warnings []string
}

// DefaultHome resolves the home directory used when --home is not given.
func DefaultHome() string {
	if home := strings.TrimSpace(os.Getenv("POMOGUARD_HOME")); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".pomoguard"
	}
	return filepath.Join(userHome, ".pomoguard")
}

// Load reads .env files from the working directory and the home directory, then builds the config.
func Load(homePath string) (Config, error) {
	if strings.TrimSpace(homePath) == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	for _, path := range []string{".env", filepath.Join(homePath, ".env")} {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return New(homePath)
}

// New builds the config from the process environment only.
func New(homePath string) (Config, error) {
	if strings.TrimSpace(homePath) == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	cfg := Config{
		HomePath:    homePath,
		DBPath:      envOr("POMOGUARD_DB", filepath.Join(homePath, "pomoguard.db")),
		Store:       strings.ToLower(envOr("POMOGUARD_STORE", StoreSQLite)),
		RedisAddr:   envOr("POMOGUARD_REDIS_ADDR", "127.0.0.1:6379"),
		Profile:     envOr("POMOGUARD_PROFILE", "default"),
		HTTPAddr:    DefaultHTTPAddr,
		LogLevel:    strings.ToLower(envOr("POMOGUARD_LOG_LEVEL", "info")),
		Environment: strings.ToLower(envOr("POMOGUARD_ENV", "development")),
		Notifier:    strings.ToLower(envOr("POMOGUARD_NOTIFIER", NotifierDesktop)),
	}
	cfg.RedisPassword = os.Getenv("POMOGUARD_REDIS_PASSWORD")
	if addr, ok := os.LookupEnv("POMOGUARD_HTTP_ADDR"); ok {
		cfg.HTTPAddr = strings.TrimSpace(addr)
	}
	cfg.RedisDB = cfg.intEnv("POMOGUARD_REDIS_DB", 0)
	cfg.RateBurst = cfg.intEnv("POMOGUARD_RATE_BURST", defaultRateBurst)
	cfg.RateLimit = cfg.floatEnv("POMOGUARD_RATE_LIMIT", defaultRateLimit)

	switch cfg.Store {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("unsupported store %q: use sqlite|redis|memory", cfg.Store)
	}
	switch cfg.Notifier {
	case NotifierDesktop, NotifierLog:
	default:
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown notifier %q, using %s", cfg.Notifier, NotifierDesktop))
		cfg.Notifier = NotifierDesktop
	}
	return cfg, nil
}

func (c Config) DaemonDir() string {
	return filepath.Join(c.HomePath, "daemon")
}

func (c Config) BadgePath() string {
	return filepath.Join(c.HomePath, "badge.json")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring %s=%q", key, raw))
		return fallback
	}
	return v
}

func (c *Config) floatEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("ignoring %s=%q", key, raw))
		return fallback
	}
	return v
}
