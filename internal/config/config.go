package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	defaultEnv           = "dev"
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultPriceDataPath = "./data/price-matrix.yaml"
	defaultDotEnvPath    = ".env"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBPath         string
	Port           string
	PriceDataPath  string
	MetricsEnabled bool
}

// IsDev reports whether the app runs in the local development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	if n, err := loadDotEnv(defaultDotEnvPath); err != nil {
		slog.Warn("could not read dotenv file", "path", defaultDotEnvPath, "err", err)
	} else if n > 0 {
		slog.Debug("loaded dotenv file", "path", defaultDotEnvPath, "keys", n)
	}

	cfg := Config{
		Env:            strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		DBPath:         os.Getenv("DB_PATH"),
		Port:           os.Getenv("PORT"),
		PriceDataPath:  os.Getenv("PRICE_DATA_PATH"),
		MetricsEnabled: true,
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.PriceDataPath == "" {
		cfg.PriceDataPath = defaultPriceDataPath
	}

	if raw := os.Getenv("METRICS_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			slog.Warn("METRICS_ENABLED is not a boolean, keeping metrics on", "value", raw)
		} else {
			cfg.MetricsEnabled = enabled
		}
	}

	return cfg
}
