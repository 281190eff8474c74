package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const validConfig = `server:
  listen_addr: ":8080"

database:
  host: localhost
  port: 15432
  user: user
  password: pass
  name: hrms
  ssl_mode: disable
  max_open_conns: 10
  max_idle_conns: 5
  conn_max_lifetime: "15m"
  conn_max_idle_time: "5m"

auth:
  jwt_secret: test-secret
  token_ttl: "12h"

ai:
  api_key: test-key
  model: gemini-2.0-flash
  timeout: "20s"

mail:
  host: smtp.example.com
  port: 587
  username: mailer
  password: mailpass
  from: hr@example.com
  login_url: https://hr.example.com/login
  timeout: "5s"

intake:
  password_length: 16
  system_actor_id: system
`

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}

	if cfg.Database.ConnMaxLifetime != 15*time.Minute {
		t.Errorf("expected ConnMaxLifetime 15m, got %v", cfg.Database.ConnMaxLifetime)
	}

	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Errorf("expected TokenTTL 12h, got %v", cfg.Auth.TokenTTL)
	}

	if !cfg.AI.Enabled() {
		t.Errorf("expected AI to be enabled")
	}

	if cfg.AI.Timeout != 20*time.Second {
		t.Errorf("expected AI timeout 20s, got %v", cfg.AI.Timeout)
	}

	if cfg.Mail.Timeout != 5*time.Second {
		t.Errorf("expected mail timeout 5s, got %v", cfg.Mail.Timeout)
	}

	if cfg.Intake.PasswordLength != 16 {
		t.Errorf("expected password length 16, got %d", cfg.Intake.PasswordLength)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(validConfig, `  token_ttl: "12h"`, "")
	content = strings.ReplaceAll(content, "  api_key: test-key", "")
	content = strings.ReplaceAll(content, "  password_length: 16", "")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected default TokenTTL 24h, got %v", cfg.Auth.TokenTTL)
	}

	if cfg.AI.Enabled() {
		t.Errorf("expected AI to be disabled without api_key")
	}

	if cfg.Intake.PasswordLength != 12 {
		t.Errorf("expected default password length 12, got %d", cfg.Intake.PasswordLength)
	}

	if cfg.Intake.SystemActorID != "system" {
		t.Errorf("expected default system actor id, got %q", cfg.Intake.SystemActorID)
	}

	if cfg.Database.MigrationsDir != "assets/migrations" {
		t.Errorf("expected default migrations dir, got %q", cfg.Database.MigrationsDir)
	}
}

func TestLoad_MissingField(t *testing.T) {
	t.Parallel()

	if _, err := Load(writeConfig(t, "{}")); err == nil {
		t.Fatalf("expected validation error for empty config")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(validConfig, "  jwt_secret: test-secret", "")
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatalf("expected validation error for missing jwt secret")
	}
}

func TestLoad_PasswordLengthTooShort(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(validConfig, "  password_length: 16", "  password_length: 4")
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatalf("expected validation error for short password length")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(validConfig, `  timeout: "20s"`, `  timeout: "soon"`)
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatalf("expected validation error for invalid duration")
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "hrms", SSLMode: "disable"}
	want := "postgres://u:p@db:5432/hrms?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("unexpected DSN: got %s want %s", got, want)
	}
}
