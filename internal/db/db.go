package db

import (
	"fmt"
	"path/filepath"
	"strings"

	puresqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite     = "sqlite"      // mattn/go-sqlite3 (cgo)
	DriverSQLitePure = "sqlite-pure" // glebarez, bez cgo
	DriverPostgres   = "postgres"
	DriverMySQL      = "mysql"

	DefaultFile = "warehouse.db"
)

type Handle struct {
	DB     *gorm.DB
	Path   string
	Driver string
}

// OpenAt otwiera domyślny plik SQLite w katalogu aplikacji.
func OpenAt(dir string) (*Handle, error) {
	return Open(DriverSQLite, filepath.Join(dir, DefaultFile))
}

// Open otwiera bazę wg sterownika z configa. Dla sqlite dsn to ścieżka pliku.
func Open(driver, dsn string) (*Handle, error) {
	var dial gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		driver = DriverSQLite
		dial = sqlite.Open(dsn)
	case DriverSQLitePure:
		dial = puresqlite.Open(dsn)
	case DriverPostgres:
		dial = postgres.Open(dsn)
	case DriverMySQL:
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("nieznany sterownik bazy %q", driver)
	}

	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent), // logger.Info jeśli chcesz verbose SQL
		TranslateError:                           true,
		// linie BOM mogą wskazywać na usunięty materiał, kaskady robimy w kodzie
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return &Handle{DB: gdb, Path: dsn, Driver: driver}, nil
}

func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
