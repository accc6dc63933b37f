package mrp

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

type NewMaterial struct {
	Name         string
	StockQty     int
	Kind         db.MaterialKind // puste = general
	MaterialType string

	TubeProfile   string
	TubeLength    *int
	TubeQuantity  *int
	TubeDimension string
	TubeThickness string
}

// MaterialPatch: nil = bez zmian.
type MaterialPatch struct {
	Name          *string
	StockQty      *int
	Kind          *db.MaterialKind
	MaterialType  *string
	TubeProfile   *string
	TubeLength    *int
	TubeQuantity  *int
	TubeDimension *string
	TubeThickness *string
}

func validKind(k db.MaterialKind) (db.MaterialKind, error) {
	switch k {
	case "":
		return db.KindGeneral, nil
	case db.KindGeneral, db.KindTube:
		return k, nil
	}
	return "", fmt.Errorf("%w: material type %q", ErrInvalidInput, k)
}

func (s *Service) Materials(ctx context.Context) ([]db.Material, error) {
	var out []db.Material
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (s *Service) Material(ctx context.Context, id uint) (*db.Material, error) {
	var m db.Material
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// MaterialByName zwraca (nil, nil), gdy nie ma takiego materiału.
func (s *Service) MaterialByName(ctx context.Context, name string) (*db.Material, error) {
	var m db.Material
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMaterial nie robi deduplikacji: istniejąca nazwa to ErrDuplicateName.
func (s *Service) CreateMaterial(ctx context.Context, in NewMaterial) (*db.Material, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	kind, err := validKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if in.StockQty < 0 {
		return nil, fmt.Errorf("%w: stock %d", ErrInvalidQuantity, in.StockQty)
	}

	m := db.Material{
		Name:         name,
		StockQty:     in.StockQty,
		Kind:         kind,
		MaterialType: in.MaterialType,
	}
	if kind == db.KindTube {
		m.TubeProfile = in.TubeProfile
		m.TubeLength = in.TubeLength
		m.TubeQuantity = in.TubeQuantity
		m.TubeDimension = in.TubeDimension
		m.TubeThickness = in.TubeThickness
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, &db.Material{}, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: material %q", ErrDuplicateName, name)
		}
		return storeErr(tx.Create(&m).Error)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("material_id", m.ID).Str("name", m.Name).Int("stock", m.StockQty).Msg("material created")
	return &m, nil
}

// UpdateMaterialDetails zmienia stan i atrybuty materiału.
// W odróżnieniu od reszty update'ów brak materiału to błąd (ErrNotFound).
// Zmiana stanu zostawia wpis w historii.
func (s *Service) UpdateMaterialDetails(ctx context.Context, id uint, patch MaterialPatch) (*db.Material, error) {
	var m db.Material
	var delta int
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return notFound(err)
		}

		upd := map[string]any{}
		if patch.Name != nil {
			name, err := cleanName(*patch.Name)
			if err != nil {
				return err
			}
			taken, err := nameTaken(tx, &db.Material{}, name, m.ID)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: material %q", ErrDuplicateName, name)
			}
			upd["name"] = name
		}
		if patch.StockQty != nil {
			if *patch.StockQty < 0 {
				return fmt.Errorf("%w: stock %d", ErrInvalidQuantity, *patch.StockQty)
			}
			delta = *patch.StockQty - m.StockQty
			upd["stock_qty"] = *patch.StockQty
		}
		kind := m.Kind
		if patch.Kind != nil {
			k, err := validKind(*patch.Kind)
			if err != nil {
				return err
			}
			kind = k
			upd["type"] = k
		}
		if patch.MaterialType != nil {
			upd["material_type"] = *patch.MaterialType
		}
		if kind == db.KindTube {
			if patch.TubeProfile != nil {
				upd["tube_profile"] = *patch.TubeProfile
			}
			if patch.TubeLength != nil {
				upd["tube_length"] = *patch.TubeLength
			}
			if patch.TubeQuantity != nil {
				upd["tube_quantity"] = *patch.TubeQuantity
			}
			if patch.TubeDimension != nil {
				upd["tube_dimension"] = *patch.TubeDimension
			}
			if patch.TubeThickness != nil {
				upd["tube_thickness"] = *patch.TubeThickness
			}
		} else if m.IsTube() {
			// zmiana na general: atrybuty rury tracą sens
			upd["tube_profile"] = ""
			upd["tube_length"] = nil
			upd["tube_quantity"] = nil
			upd["tube_dimension"] = ""
			upd["tube_thickness"] = ""
		}
		if len(upd) == 0 {
			return nil
		}

		if err := tx.Model(&m).Updates(upd).Error; err != nil {
			return storeErr(err)
		}
		m = db.Material{}
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		if delta != 0 {
			return tx.Create(&db.History{
				Timestamp: s.now(),
				Action:    ActionStockAdjusted,
				Details:   stockChange(delta, m.Name),
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("material_id", m.ID).Int("stock", m.StockQty).Int("delta", delta).Msg("material updated")
	return &m, nil
}

// DeleteMaterial: brak materiału = no-op. Linie BOM wskazujące na materiał zostają.
func (s *Service) DeleteMaterial(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&db.Material{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info().Uint("material_id", id).Msg("material deleted")
	}
	return nil
}
