package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ndatabase:\n  user: app\n  database: shop\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Type != "mysql" {
		t.Errorf("type = %q, want mysql", cfg.Database.Type)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 3306 {
		t.Errorf("host:port = %s:%d, want localhost:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.Charset != "utf8mb4" {
		t.Errorf("charset = %q, want utf8mb4", cfg.Database.Charset)
	}
	if cfg.Analysis.MaxIdentifierLength != 64 {
		t.Errorf("max identifier length = %d, want 64", cfg.Analysis.MaxIdentifierLength)
	}
	if cfg.Analysis.MinRowsForSelectivity != 1000 || cfg.Analysis.SelectivityThreshold != 0.1 {
		t.Errorf("selectivity defaults wrong: %+v", cfg.Analysis)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadPostgresDefaultPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ndatabase:\n  type: postgresql\n  user: app\n  database: shop\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("port = %d, want 5432", cfg.Database.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ndatabase:\n  host: db.internal\n  user: app\n  database: shop\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DB_HOST", "override.example")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_PASSWORD", "hunter2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "override.example" {
		t.Errorf("host = %q, env override not applied", cfg.Database.Host)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("port = %d, want 3307", cfg.Database.Port)
	}
	if cfg.Database.Password != "hunter2" {
		t.Errorf("password override not applied")
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for an explicit missing config")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 99\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := &Config{
		Version: CurrentVersion,
		Database: DatabaseConfig{
			Type: "mysql", Host: "db.internal", Port: 3306,
			User: "app", Password: "secret", Database: "shop",
		},
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Database.Host != "db.internal" || loaded.Database.Password != "secret" {
		t.Errorf("round trip lost fields: %+v", loaded.Database)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Type: "mysql", User: "app", Database: "shop"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg = &Config{Database: DatabaseConfig{Type: "mysql", User: "app"}}
	if err := cfg.Validate(); err == nil {
		t.Error("missing database name accepted")
	}

	cfg = &Config{Database: DatabaseConfig{Type: "oracle", User: "app", Database: "shop"}}
	if err := cfg.Validate(); err == nil {
		t.Error("unsupported type accepted")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
