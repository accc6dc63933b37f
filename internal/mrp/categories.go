package mrp

import (
	"context"
	"errors"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

func (s *Service) Categories(ctx context.Context) ([]db.Category, error) {
	var out []db.Category
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// CreateCategory działa jak get-or-create po nazwie.
func (s *Service) CreateCategory(ctx context.Context, name string) (*db.Category, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var cat db.Category
	err = s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where(db.Category{Name: name}).FirstOrCreate(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// AssignCategories ustawia kategorie produktu dokładnie na podaną listę (zastępuje, nie dopisuje).
// Brakujące kategorie są tworzone. Dla nieistniejącego produktu zwraca (nil, nil).
func (s *Service) AssignCategories(ctx context.Context, productID uint, names []string) (*db.Product, error) {
	var out *db.Product
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Product
		if err := tx.First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := assignCategories(tx, &p, names); err != nil {
			return err
		}
		if err := tx.Preload("Categories").First(&p, p.ID).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		s.log.Info().Uint("product_id", out.ID).Strs("categories", names).Msg("categories assigned")
	}
	return out, nil
}

func assignCategories(tx *gorm.DB, p *db.Product, names []string) error {
	seen := map[string]bool{}
	cats := make([]db.Category, 0, len(names))
	for _, nm := range names {
		nm, err := cleanName(nm)
		if err != nil || seen[nm] {
			continue
		}
		seen[nm] = true
		var cat db.Category
		if err := tx.Where(db.Category{Name: nm}).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
		cats = append(cats, cat)
	}
	assoc := tx.Model(p).Association("Categories")
	if len(cats) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(cats)
}
