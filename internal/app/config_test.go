package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.HTTPAddr != ":8080" || cfg.ProgressCASAttempts != 3 {
		t.Fatalf("defaults: got %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http_addr: ":9000"
allowed_origins: ["https://a.example.com"]
store:
  driver: postgres
  timeout: 2s
  postgres_host: db
activity:
  workers: 4
  queue_size: 64
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("ALLOWED_ORIGINS", "https://b.example.com, https://c.example.com")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Fatalf("env override: want=:9100 got=%s", cfg.HTTPAddr)
	}
	if cfg.Store.Driver != "postgres" || cfg.Store.Timeout != 2*time.Second || cfg.Store.PostgresHost != "db" {
		t.Fatalf("store from file: got %+v", cfg.Store)
	}
	if cfg.Activity.Workers != 4 || cfg.Activity.QueueSize != 64 {
		t.Fatalf("activity from file: got %+v", cfg.Activity)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://c.example.com" {
		t.Fatalf("origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_DynamoTableFallback(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DynamoDB")
	t.Setenv("COURSES_TABLE_NAME", "courses")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Driver != DriverDynamo || cfg.Store.DynamoTable != "courses" {
		t.Fatalf("dynamo: got %+v", cfg.Store)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("PROGRESS_CAS_ATTEMPTS", "0")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "unknown driver") || !strings.Contains(err.Error(), "progress_cas_attempts") {
		t.Fatalf("error: got %v", err)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
