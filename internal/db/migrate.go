package db

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

var ErrMigration = errors.New("migracja schematu nieudana")

const schemaVersionKey = "schema_version"

type migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Kolejne kroki tylko dopisujemy na końcu, nigdy nie zmieniamy istniejących.
var migrations = []migration{
	{1, "base schema", func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&Category{},
			&Material{},
			&Product{},
			&ProductPart{},
			&Project{},
			&ProjectPart{},
			&History{},
		)
	}},
	{2, "import bookkeeping", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&ImportFile{})
	}},
	{3, "stage labels to codes", func(tx *gorm.DB) error {
		// starsze dane trzymały w kolumnach etykiety ("Ootel", "Töös", "Valmis")
		for _, st := range Stages {
			col := string(st)
			for code, label := range statusLabels {
				if err := tx.Model(&Project{}).
					Where(col+" = ?", label).
					Update(col, code).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&Project{}).
				Where(col+" = '' OR "+col+" IS NULL").
				Update(col, StatusNone).Error; err != nil {
				return err
			}
		}
		return nil
	}},
}

// LatestVersion to wersja schematu, którą zna ta binarka.
func LatestVersion() int { return migrations[len(migrations)-1].Version }

// Migrate doprowadza schemat do najnowszej wersji.
// Kolejność:
//  1. tabela kv (trzyma numer wersji)
//  2. kroki o numerze większym niż zapisany, każdy we własnej transakcji
//
// Każdy błąd owija ErrMigration – aplikacja nie powinna startować.
func (h *Handle) Migrate() error {
	gdb := h.DB

	if err := gdb.AutoMigrate(&KV{}); err != nil {
		return fmt.Errorf("%w: kv: %v", ErrMigration, err)
	}

	current, err := h.SchemaVersion()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigration, err)
	}
	if current > LatestVersion() {
		return fmt.Errorf("%w: baza ma wersję %d, aplikacja zna najwyżej %d", ErrMigration, current, LatestVersion())
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Save(&KV{K: schemaVersionKey, V: strconv.Itoa(m.Version)}).Error
		})
		if err != nil {
			return fmt.Errorf("%w: krok %d (%s): %v", ErrMigration, m.Version, m.Name, err)
		}
	}
	return nil
}

// SchemaVersion zwraca zapisaną wersję; 0 dla pustej bazy.
func (h *Handle) SchemaVersion() (int, error) {
	var kv KV
	err := h.DB.Where("k = ?", schemaVersionKey).Limit(1).Find(&kv).Error
	if err != nil {
		return 0, err
	}
	if kv.K == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(kv.V)
	if err != nil {
		return 0, fmt.Errorf("zły numer wersji %q: %w", kv.V, err)
	}
	return v, nil
}
