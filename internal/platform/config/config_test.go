package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`server:
  listen_addr: ":8080"
  request_timeout: "20s"

database:
  host: localhost
  port: 15432
  user: user
  password: pass
  name: tastas
  ssl_mode: disable
  max_open_conns: 10
  max_idle_conns: 5
  conn_max_lifetime: "15m"
  conn_max_idle_time: "5m"

batch:
  cron_secret: "file-secret"
`)

	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}

	if cfg.Server.RequestTimeout != 20*time.Second {
		t.Errorf("expected RequestTimeout 20s, got %v", cfg.Server.RequestTimeout)
	}

	if cfg.Database.ConnMaxLifetime != 15*time.Minute {
		t.Errorf("expected ConnMaxLifetime 15m, got %v", cfg.Database.ConnMaxLifetime)
	}

	if cfg.Batch.CronSecret != "file-secret" {
		t.Errorf("unexpected cron secret: %s", cfg.Batch.CronSecret)
	}
}

func TestLoad_CronSecretEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`server:
  listen_addr: ":8080"

database:
  host: localhost
  port: 5432
  user: user
  password: pass
  name: tastas

batch:
  cron_secret: "file-secret"
`)

	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CRON_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Batch.CronSecret != "env-secret" {
		t.Errorf("expected env override, got %s", cfg.Batch.CronSecret)
	}
}

func TestLoad_MissingField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestDatabaseConfigDSN_EscapesCredentials(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "user@domain",
		Password: "p@ss:word",
		Name:     "tastas",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()

	if strings.Contains(dsn, "p@ss:word") {
		t.Errorf("password not escaped: %s", dsn)
	}

	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("unexpected scheme: %s", dsn)
	}

	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("sslmode missing: %s", dsn)
	}
}
