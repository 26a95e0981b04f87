package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"HTTP_PORT", "STATIC_DIR", "LOG_LEVEL", "LOG_FORMAT", "STORE_BACKEND",
	"SNAPSHOT_PATH", "SQLITE_DSN", "POSTGRES_DSN", "MONGO_URI", "MONGO_DATABASE",
	"BADGER_PATH", "FLUSH_DEBOUNCE", "SWEEP_INTERVAL", "MAX_MEMBERS",
	"MAX_UNAVAILABLE", "MAX_SPAN_DAYS", "SESSION_SECRET", "RESUME_TOKENS",
	"PIN_ARGON_MEMORY_KIB", "PIN_ARGON_TIME", "WS_ALLOWED_ORIGINS",
}

// clearEnv removes every scheduler key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvFileVariable, "")
	for _, key := range configKeys {
		name := Prefix + "_" + key
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("failed to unset %s: %v", name, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_SESSION_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreBackend != "file" || cfg.SnapshotPath != "data/rooms.json" {
			t.Fatalf("unexpected default store: %q %q", cfg.StoreBackend, cfg.SnapshotPath)
		}
		if cfg.FlushDebounce != 250*time.Millisecond || cfg.SweepInterval != time.Minute {
			t.Fatalf("unexpected default timings: %v %v", cfg.FlushDebounce, cfg.SweepInterval)
		}
		if cfg.MaxMembers != 60 || cfg.MaxUnavailable != 5000 || cfg.MaxSpanDays != 21 {
			t.Fatalf("unexpected default caps: %+v", cfg)
		}
		if !cfg.ResumeTokens || cfg.PinArgonMemoryKiB != 19456 || cfg.PinArgonTime != 2 {
			t.Fatalf("unexpected default security settings: %+v", cfg)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected default logging: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
		if len(cfg.AllowedOrigins) != 0 {
			t.Fatalf("expected no allowed origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_STORE_BACKEND", "Postgres")
		t.Setenv("SCHEDULER_POSTGRES_DSN", "postgres://localhost/scheduler")
		t.Setenv("SCHEDULER_RESUME_TOKENS", "false")
		t.Setenv("SCHEDULER_SWEEP_INTERVAL", "5s")
		t.Setenv("SCHEDULER_WS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.StoreBackend != "postgres" {
			t.Fatalf("overrides not applied: %+v", cfg)
		}
		if cfg.SweepInterval != 5*time.Second {
			t.Fatalf("expected 5s sweep interval, got %v", cfg.SweepInterval)
		}
		want := []string{"https://a.example", "https://b.example"}
		if strings.Join(cfg.AllowedOrigins, "|") != strings.Join(want, "|") {
			t.Fatalf("expected origins %v, got %v", want, cfg.AllowedOrigins)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_STORE_BACKEND", "mongo")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error when required values are missing")
		}
		expected := "required environment variables are not set: SCHEDULER_MONGO_URI, SCHEDULER_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_SESSION_SECRET", "s")
		t.Setenv("SCHEDULER_STORE_BACKEND", "redis")
		t.Setenv("SCHEDULER_FLUSH_DEBOUNCE", "-1s")
		t.Setenv("SCHEDULER_MAX_MEMBERS", "0")

		_, err := Load()
		if err == nil {
			t.Fatal("expected validation error")
		}
		expected := "invalid environment values: SCHEDULER_STORE_BACKEND, SCHEDULER_FLUSH_DEBOUNCE, SCHEDULER_MAX_MEMBERS"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports unparsable values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_HTTP_PORT", "eighty")

		_, err := Load()
		if err == nil || err.Error() != "invalid environment values: SCHEDULER_HTTP_PORT" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLoader_EnvFile(t *testing.T) {
	t.Run("loads values from the named file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "scheduler.env")
		content := "SCHEDULER_SESSION_SECRET=from-file\nSCHEDULER_HTTP_PORT=7000\nSCHEDULER_MAX_SPAN_DAYS=14\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}
		t.Setenv(EnvFileVariable, path)
		t.Setenv("SCHEDULER_HTTP_PORT", "7100")
		t.Cleanup(func() {
			_ = os.Unsetenv("SCHEDULER_SESSION_SECRET")
			_ = os.Unsetenv("SCHEDULER_MAX_SPAN_DAYS")
		})

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.SessionSecret != "from-file" || cfg.MaxSpanDays != 14 {
			t.Fatalf("file values not applied: %+v", cfg)
		}
		if cfg.HTTPPort != 7100 {
			t.Fatalf("environment should win over the file, got port %d", cfg.HTTPPort)
		}
	})

	t.Run("errors when the named file is missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err == nil {
			t.Fatal("expected an error for a missing explicit env file")
		}
	})
}

func TestLoadStore(t *testing.T) {
	t.Run("does not require the session secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_STORE_BACKEND", "badger")
		t.Setenv("SCHEDULER_BADGER_PATH", "/var/lib/scheduler/badger")

		cfg, err := LoadStore()
		if err != nil {
			t.Fatalf("LoadStore returned error: %v", err)
		}
		if cfg.StoreBackend != "badger" || cfg.BadgerPath != "/var/lib/scheduler/badger" {
			t.Fatalf("unexpected store config: %+v", cfg)
		}
	})

	t.Run("still validates the backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_STORE_BACKEND", "postgres")

		_, err := LoadStore()
		if err == nil || err.Error() != "required environment variables are not set: SCHEDULER_POSTGRES_DSN" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
