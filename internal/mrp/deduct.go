package mrp

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActionStockDeducted  = "Stock deducted"
	ActionStockAdjusted  = "Stock adjusted"
	ActionStockReceived  = "Stock received"
	ActionProjectStarted = "Project started"
)

type DeductedLine struct {
	MaterialID   uint   `json:"material_id"`
	MaterialName string `json:"material_name"`
	Quantity     int    `json:"quantity"`
	StockAfter   int    `json:"stock_after"`
}

type DeductionResult struct {
	ProjectID uint           `json:"project_id"`
	RunID     string         `json:"run_id"`
	Lines     []DeductedLine `json:"lines"`
}

type Availability struct {
	MaterialID   uint   `json:"material_id"`
	MaterialName string `json:"material_name"`
	Required     int    `json:"required"`
	InStock      int    `json:"in_stock"`
	Shortfall    int    `json:"shortfall"`
}

func (a Availability) OK() bool { return a.Shortfall == 0 }

// lockRows dokłada FOR UPDATE tam, gdzie dialekt to obsługuje (sqlite blokuje całą bazę i tak).
func lockRows(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// loadStock zwraca materiały części zlecenia po id, z blokadą wierszy.
func loadStock(tx *gorm.DB, parts []db.ProjectPart) (map[uint]db.Material, error) {
	ids := make([]uint, 0, len(parts))
	for _, pp := range parts {
		ids = append(ids, pp.MaterialID)
	}
	out := make(map[uint]db.Material, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var mats []db.Material
	if err := lockRows(tx).Where("id IN ?", ids).Find(&mats).Error; err != nil {
		return nil, err
	}
	for _, m := range mats {
		out[m.ID] = m
	}
	return out, nil
}

// DeductStock zdejmuje ze stanu wszystkie części zlecenia w jednej transakcji.
// Najpierw sprawdza każdą część; jeśli czegoś brakuje, nic nie jest zdejmowane.
func (s *Service) DeductStock(ctx context.Context, projectID uint) (*DeductionResult, error) {
	res := &DeductionResult{ProjectID: projectID, RunID: s.runID()}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return notFound(err)
		}
		if _, err := ensureParts(tx, &p); err != nil {
			return err
		}
		var parts []db.ProjectPart
		if err := tx.Where("project_id = ?", p.ID).Order("id").Find(&parts).Error; err != nil {
			return err
		}
		stock, err := loadStock(tx, parts)
		if err != nil {
			return err
		}

		for _, pp := range parts {
			m, ok := stock[pp.MaterialID]
			if !ok {
				return &InsufficientStockError{MaterialID: pp.MaterialID, Required: pp.QuantityRequired}
			}
			if m.StockQty < pp.QuantityRequired {
				return &InsufficientStockError{
					MaterialID:   m.ID,
					MaterialName: m.Name,
					Required:     pp.QuantityRequired,
					Available:    m.StockQty,
				}
			}
		}

		now := s.now()
		for _, pp := range parts {
			m := stock[pp.MaterialID]
			upd := tx.Model(&db.Material{}).
				Where("id = ? AND stock_qty >= ?", m.ID, pp.QuantityRequired).
				Update("stock_qty", gorm.Expr("stock_qty - ?", pp.QuantityRequired))
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				// ktoś zdjął stan między odczytem a zapisem
				return &InsufficientStockError{MaterialID: m.ID, MaterialName: m.Name, Required: pp.QuantityRequired, Available: m.StockQty}
			}
			if err := tx.Create(&db.History{
				Timestamp: now,
				ProjectID: &p.ID,
				RunID:     res.RunID,
				Action:    ActionStockDeducted,
				Details:   stockChange(-pp.QuantityRequired, m.Name),
			}).Error; err != nil {
				return err
			}
			res.Lines = append(res.Lines, DeductedLine{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Quantity:     pp.QuantityRequired,
				StockAfter:   m.StockQty - pp.QuantityRequired,
			})
		}
		return nil
	})
	if err != nil {
		var short *InsufficientStockError
		if errors.As(err, &short) {
			s.log.Warn().Uint("project_id", projectID).Uint("material_id", short.MaterialID).
				Int("required", short.Required).Int("available", short.Available).Msg("deduction rejected")
		}
		return nil, err
	}
	s.log.Info().Uint("project_id", projectID).Str("run_id", res.RunID).Int("lines", len(res.Lines)).Msg("stock deducted")
	return res, nil
}

// StartProject powtarza DeductStock times razy. Każde przebieganie jest osobną transakcją,
// więc po błędzie zostają skutki udanych przebiegów; zwracana jest ich liczba.
func (s *Service) StartProject(ctx context.Context, projectID uint, times int) (int, error) {
	if times < 1 {
		return 0, fmt.Errorf("%w: times %d", ErrInvalidQuantity, times)
	}
	p, err := s.Project(ctx, projectID)
	if err != nil {
		return 0, err
	}
	for i := 0; i < times; i++ {
		if _, err := s.DeductStock(ctx, projectID); err != nil {
			return i, fmt.Errorf("run %d of %d: %w", i+1, times, err)
		}
	}
	if err := s.AddHistory(ctx, &projectID, ActionProjectStarted, fmt.Sprintf("Started project: %s x%d", p.Name, times)); err != nil {
		return times, err
	}
	s.log.Info().Uint("project_id", projectID).Int("times", times).Msg("project started")
	return times, nil
}

// CheckAvailability porównuje zapotrzebowanie × times ze stanem, bez zmian w magazynie
// (poza wyliczeniem brakujących części zlecenia).
func (s *Service) CheckAvailability(ctx context.Context, projectID uint, times int) ([]Availability, error) {
	if times < 1 {
		times = 1
	}
	var out []Availability
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return notFound(err)
		}
		if _, err := ensureParts(tx, &p); err != nil {
			return err
		}
		var parts []db.ProjectPart
		if err := tx.Where("project_id = ?", p.ID).Order("id").Find(&parts).Error; err != nil {
			return err
		}
		stock, err := loadStock(tx, parts)
		if err != nil {
			return err
		}
		for _, pp := range parts {
			a := Availability{MaterialID: pp.MaterialID, Required: pp.QuantityRequired * times}
			if m, ok := stock[pp.MaterialID]; ok {
				a.MaterialName = m.Name
				a.InStock = m.StockQty
			}
			if a.InStock < a.Required {
				a.Shortfall = a.Required - a.InStock
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}
