package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "DB_PATH", "PORT", "PRICE_DATA_PATH", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg := Load()
	want := Config{
		Env:            "dev",
		DBPath:         "./dev.db",
		Port:           "8080",
		PriceDataPath:  "./data/price-matrix.yaml",
		MetricsEnabled: true,
	}
	if cfg != want {
		t.Fatalf("Load() = %+v, want %+v", cfg, want)
	}
	if !cfg.IsDev() {
		t.Fatalf("IsDev() = false for default env")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", " Production ")
	t.Setenv("DB_PATH", "/var/lib/blinds.db")
	t.Setenv("PORT", "9000")
	t.Setenv("PRICE_DATA_PATH", "/etc/blinds/prices.yaml")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()
	if cfg.Env != "production" || cfg.IsDev() {
		t.Fatalf("Env = %q, want production", cfg.Env)
	}
	if cfg.DBPath != "/var/lib/blinds.db" || cfg.Port != "9000" || cfg.PriceDataPath != "/etc/blinds/prices.yaml" {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.MetricsEnabled {
		t.Fatalf("MetricsEnabled = true, want false")
	}
}

func TestLoad_BadMetricsFlagKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("METRICS_ENABLED", "maybe")

	if cfg := Load(); !cfg.MetricsEnabled {
		t.Fatalf("MetricsEnabled = false, want true")
	}
}
