package conf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, firstRun, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !firstRun {
		t.Error("expected first run")
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != filepath.Join(dir, "warehouse.db") {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.ImportPollSec != 60 || cfg.HTTP.Enabled {
		t.Errorf("unexpected import/http defaults: %d %+v", cfg.ImportPollSec, cfg.HTTP)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	cfg.WorksheetFormat = "xlsx"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, firstRun, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if firstRun {
		t.Error("expected existing config")
	}
	if again.WorksheetFormat != "xlsx" {
		t.Errorf("expected xlsx, got %q", again.WorksheetFormat)
	}
}

func TestLoadOrCreateRejectsBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadOrCreate(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MRP_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MRP_DB_DRIVER", "postgres")
	t.Setenv("MRP_DB_DSN", "host=localhost dbname=mrp")
	t.Setenv("MRP_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("MRP_LOG_LEVEL", "")
	os.Unsetenv("MRP_LOG_LEVEL")

	cfg := Default(dir)
	cfg.ApplyEnv(dir)

	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "host=localhost dbname=mrp" {
		t.Errorf("database not overridden: %+v", cfg.Database)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Addr != "127.0.0.1:9999" {
		t.Errorf("http not overridden: %+v", cfg.HTTP)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level from .env, got %q", cfg.LogLevel)
	}
}
