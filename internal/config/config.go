// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Główny config aplikacji
type Config struct {
	Database        DatabaseConfig `json:"database"`
	WorksheetDir    string         `json:"worksheet_dir"`
	WorksheetFormat string         `json:"worksheet_format"` // txt | xlsx
	ImportDir       string         `json:"import_dir"`       // pliki dostaw *.xml
	ImportPollSec   int            `json:"import_poll_sec"`  // 0 = tylko ręczny import
	HTTP            HTTPConfig     `json:"http"`
	LogLevel        string         `json:"log_level"`
	LogConsole      bool           `json:"log_console"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite | sqlite-pure | postgres | mysql
	DSN    string `json:"dsn"`    // dla sqlite: ścieżka pliku
}

// Lokalne API dla front-endów (domyślnie wyłączone)
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Default zwraca konfigurację zapisywaną przy pierwszym uruchomieniu.
func Default(appDir string) *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(appDir, "warehouse.db"),
		},
		WorksheetDir:    filepath.Join(appDir, "worksheets"),
		WorksheetFormat: "txt",
		ImportDir:       filepath.Join(appDir, "deliveries"),
		ImportPollSec:   60,
		HTTP: HTTPConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8765",
		},
		LogLevel:   "info",
		LogConsole: true,
	}
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// upewnij się, że katalog istnieje
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default(filepath.Dir(path))
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("błąd zapisu domyślnego configa: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("błąd otwierania configa: %w", err)
	}
	defer f.Close()

	cfg := Default(filepath.Dir(path))
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, false, fmt.Errorf("błąd parsowania configa: %w", err)
	}
	return cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// ApplyEnv nadpisuje config zmiennymi środowiskowymi (także z pliku .env w katalogu aplikacji).
//
//	MRP_DB_DRIVER, MRP_DB_DSN, MRP_HTTP_ADDR, MRP_LOG_LEVEL
func (c *Config) ApplyEnv(appDir string) {
	// brak pliku .env to normalna sytuacja
	_ = godotenv.Load(filepath.Join(appDir, ".env"))

	if v := env("MRP_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := env("MRP_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := env("MRP_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
		c.HTTP.Enabled = true
	}
	if v := env("MRP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
