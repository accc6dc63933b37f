package mrp

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

type NewProduct struct {
	Name           string
	Description    string
	Note           string
	ProductionTime *int // minuty
	Categories     []string
}

type ProductPatch struct {
	Name                *string
	Description         *string
	Note                *string
	ProductionTime      *int
	ClearProductionTime bool
}

// Products zwraca produkty z kategoriami; z filtrem – tylko te w którejkolwiek z podanych kategorii.
func (s *Service) Products(ctx context.Context, categoryNames ...string) ([]db.Product, error) {
	q := s.db.WithContext(ctx).Preload("Categories").Order("name")
	if len(categoryNames) > 0 {
		sub := s.db.Table("product_categories").
			Select("product_categories.product_id").
			Joins("JOIN categories ON categories.id = product_categories.category_id").
			Where("categories.name IN ?", categoryNames)
		q = q.Where("id IN (?)", sub)
	}
	var out []db.Product
	err := q.Find(&out).Error
	return out, err
}

// Product ładuje produkt razem z kategoriami i BOM.
func (s *Service) Product(ctx context.Context, id uint) (*db.Product, error) {
	var p db.Product
	err := s.db.WithContext(ctx).
		Preload("Categories").
		Preload("Parts", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Parts.Material").
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ProductByName zwraca (nil, nil), gdy nie ma takiego produktu.
func (s *Service) ProductByName(ctx context.Context, name string) (*db.Product, error) {
	var p db.Product
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (*db.Product, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.ProductionTime != nil && *in.ProductionTime < 0 {
		return nil, fmt.Errorf("%w: production time %d", ErrInvalidInput, *in.ProductionTime)
	}

	p := db.Product{
		Name:           name,
		Description:    in.Description,
		Note:           in.Note,
		ProductionTime: in.ProductionTime,
	}
	err = s.tx(ctx, func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, &db.Product{}, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: product %q", ErrDuplicateName, name)
		}
		if err := tx.Create(&p).Error; err != nil {
			return storeErr(err)
		}
		if len(in.Categories) > 0 {
			if err := assignCategories(tx, &p, in.Categories); err != nil {
				return err
			}
		}
		return tx.Preload("Categories").First(&p, p.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return &p, nil
}

// UpdateProduct: częściowa zmiana; nieistniejący produkt = (nil, nil).
func (s *Service) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*db.Product, error) {
	var out *db.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		upd := map[string]any{}
		if patch.Name != nil {
			name, err := cleanName(*patch.Name)
			if err != nil {
				return err
			}
			taken, err := nameTaken(tx, &db.Product{}, name, p.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: product %q", ErrDuplicateName, name)
			}
			upd["name"] = name
		}
		if patch.Description != nil {
			upd["description"] = *patch.Description
		}
		if patch.Note != nil {
			upd["note"] = *patch.Note
		}
		switch {
		case patch.ClearProductionTime:
			upd["production_time"] = nil
		case patch.ProductionTime != nil:
			if *patch.ProductionTime < 0 {
				return fmt.Errorf("%w: production time %d", ErrInvalidInput, *patch.ProductionTime)
			}
			upd["production_time"] = *patch.ProductionTime
		}
		if len(upd) > 0 {
			if err := tx.Model(&p).Updates(upd).Error; err != nil {
				return storeErr(err)
			}
		}
		p = db.Product{}
		if err := tx.Preload("Categories").First(&p, id).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		s.log.Info().Uint("product_id", out.ID).Msg("product updated")
	}
	return out, nil
}

// DeleteProduct usuwa produkt z jego BOM i powiązaniami z kategoriami.
// Zlecenia zachowują swoje części i nazwę produktu, tracą tylko odnośnik.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	deleted := false
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&db.ProductPart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&db.Project{}).Where("product_id = ?", p.ID).Update("product_id", nil).Error; err != nil {
			return err
		}
		deleted = true
		return tx.Delete(&p).Error
	})
	if err == nil && deleted {
		s.log.Info().Uint("product_id", id).Msg("product deleted")
	}
	return err
}

// ─────────── BOM produktu ───────────

func (s *Service) ProductParts(ctx context.Context, productID uint) ([]db.ProductPart, error) {
	var out []db.ProductPart
	err := s.db.WithContext(ctx).
		Preload("Material").
		Where("product_id = ?", productID).
		Order("id").
		Find(&out).Error
	return out, err
}

// AddMaterialToProduct dodaje linię BOM albo zwiększa ilość w istniejącej (para produkt+materiał jest unikalna).
func (s *Service) AddMaterialToProduct(ctx context.Context, productID, materialID uint, qty int) (*db.ProductPart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	var row db.ProductPart
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &db.Product{}, productID); err != nil {
			return err
		}
		if err := mustExist(tx, &db.Material{}, materialID); err != nil {
			return err
		}
		err := tx.Where("product_id = ? AND material_id = ?", productID, materialID).Take(&row).Error
		switch {
		case err == nil:
			if err := tx.Model(&row).Update("quantity_required", gorm.Expr("quantity_required + ?", qty)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = db.ProductPart{ProductID: productID, MaterialID: materialID, QuantityRequired: qty}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		default:
			return err
		}
		return tx.Preload("Material").First(&row, row.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("product_id", productID).Uint("material_id", materialID).Int("qty", row.QuantityRequired).Msg("product bom line saved")
	return &row, nil
}

// RemoveProductPart: brak linii = no-op.
func (s *Service) RemoveProductPart(ctx context.Context, partID uint) error {
	return s.db.WithContext(ctx).Delete(&db.ProductPart{}, partID).Error
}

func mustExist(tx *gorm.DB, model any, id uint) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %T #%d", ErrNotFound, model, id)
	}
	return nil
}
