package mrp

import (
	"context"
	"errors"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

// DeriveParts liczy zapotrzebowanie z BOM produktu: ilość z BOM × mnożnik.
// Brak produktu (nil albo usunięty) daje pustą listę bez błędu. Mnożnik <= 0 traktujemy jak 1.
func (s *Service) DeriveParts(ctx context.Context, productID *uint, multiplier int) ([]PartInput, error) {
	var out []PartInput
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = deriveParts(tx, productID, multiplier)
		return err
	})
	return out, err
}

// EnsureProjectParts wylicza części zlecenia, jeśli jeszcze ich nie ma.
// Zwraca liczbę dodanych linii (0, gdy części już były).
func (s *Service) EnsureProjectParts(ctx context.Context, projectID uint) (int, error) {
	var n int
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return notFound(err)
		}
		var err error
		n, err = ensureParts(tx, &p)
		return err
	})
	if err == nil && n > 0 {
		s.log.Debug().Uint("project_id", projectID).Int("parts", n).Msg("project parts derived")
	}
	return n, err
}

func deriveParts(tx *gorm.DB, productID *uint, multiplier int) ([]PartInput, error) {
	if productID == nil {
		return nil, nil
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	var prod db.Product
	err := tx.Select("id").Where("id = ?", *productID).Take(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var bom []db.ProductPart
	if err := tx.Where("product_id = ?", prod.ID).Order("id").Find(&bom).Error; err != nil {
		return nil, err
	}
	out := make([]PartInput, 0, len(bom))
	for _, line := range bom {
		out = append(out, PartInput{
			MaterialID: line.MaterialID,
			Quantity:   line.QuantityRequired * multiplier,
		})
	}
	return out, nil
}

func ensureParts(tx *gorm.DB, p *db.Project) (int, error) {
	var n int64
	if err := tx.Model(&db.ProjectPart{}).Where("project_id = ?", p.ID).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	parts, err := deriveParts(tx, p.ProductID, p.Quantity)
	if err != nil {
		return 0, err
	}
	if err := insertParts(tx, p.ID, parts); err != nil {
		return 0, err
	}
	return len(parts), nil
}
