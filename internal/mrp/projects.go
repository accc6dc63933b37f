package mrp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

// PartInput to jedna linia zapotrzebowania (materiał, ilość).
type PartInput struct {
	MaterialID uint `json:"material_id"`
	Quantity   int  `json:"quantity_required"`
}

type NewProject struct {
	Name        string
	Description string
	Delivery    string
	Customer    string
	OrderNumber string
	Notes       string

	// ProductID ma pierwszeństwo; ProductName to stary sposób (dopasowanie po nazwie)
	ProductID   *uint
	ProductName string

	Quantity int // mnożnik, 0 = 1
	Deadline *time.Time

	// Parts podane jawnie mają pierwszeństwo przed BOM produktu.
	Parts []PartInput
}

type ProjectPatch struct {
	Name          *string
	Description   *string
	Delivery      *string
	Customer      *string
	OrderNumber   *string
	Notes         *string
	Quantity      *int
	Deadline      *time.Time
	ClearDeadline bool
	Stages        map[db.Stage]db.StageStatus
}

const DeadlineLayout = "2006-01-02"

func (s *Service) Projects(ctx context.Context) ([]db.Project, error) {
	var out []db.Project
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Service) Project(ctx context.Context, id uint) (*db.Project, error) {
	var p db.Project
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreateProject zakłada zlecenie i od razu zapisuje jego części:
// jawnie podane albo wyliczone z BOM produktu × ilość.
func (s *Service) CreateProject(ctx context.Context, in NewProject) (*db.Project, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidQuantity, in.Quantity)
	}
	parts, err := mergeParts(in.Parts)
	if err != nil {
		return nil, err
	}

	p := db.Project{
		Name:        name,
		Description: in.Description,
		Delivery:    in.Delivery,
		Customer:    in.Customer,
		OrderNumber: in.OrderNumber,
		Notes:       in.Notes,
		Quantity:    in.Quantity,
		Deadline:    in.Deadline,
	}
	if p.Quantity == 0 {
		p.Quantity = 1
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		prod, err := resolveProduct(tx, in.ProductID, in.ProductName)
		if err != nil {
			return err
		}
		if prod != nil {
			p.ProductID = &prod.ID
			p.ProductName = prod.Name
		} else {
			p.ProductName = strings.TrimSpace(in.ProductName)
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		if len(parts) == 0 {
			parts, err = deriveParts(tx, p.ProductID, p.Quantity)
			if err != nil {
				return err
			}
		}
		return insertParts(tx, p.ID, parts)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("project_id", p.ID).Str("name", p.Name).Int("quantity", p.Quantity).Int("parts", len(parts)).Msg("project created")
	return &p, nil
}

// resolveProduct: nieznalezienie produktu to nie błąd – zlecenie po prostu nie ma BOM.
func resolveProduct(tx *gorm.DB, id *uint, name string) (*db.Product, error) {
	var p db.Product
	var err error
	switch {
	case id != nil:
		err = tx.Where("id = ?", *id).Take(&p).Error
	case strings.TrimSpace(name) != "":
		err = tx.Where("name = ?", strings.TrimSpace(name)).Take(&p).Error
	default:
		return nil, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mergeParts scala powtórzone materiały (sumuje ilości) i pilnuje ilości > 0.
func mergeParts(in []PartInput) ([]PartInput, error) {
	if len(in) == 0 {
		return nil, nil
	}
	idx := map[uint]int{}
	out := make([]PartInput, 0, len(in))
	for _, pi := range in {
		if pi.Quantity <= 0 {
			return nil, fmt.Errorf("%w: material #%d qty %d", ErrInvalidQuantity, pi.MaterialID, pi.Quantity)
		}
		if i, ok := idx[pi.MaterialID]; ok {
			out[i].Quantity += pi.Quantity
			continue
		}
		idx[pi.MaterialID] = len(out)
		out = append(out, pi)
	}
	return out, nil
}

func insertParts(tx *gorm.DB, projectID uint, parts []PartInput) error {
	if len(parts) == 0 {
		return nil
	}
	rows := make([]db.ProjectPart, 0, len(parts))
	for _, pi := range parts {
		rows = append(rows, db.ProjectPart{
			ProjectID:        projectID,
			MaterialID:       pi.MaterialID,
			QuantityRequired: pi.Quantity,
		})
	}
	return tx.Create(&rows).Error
}

// UpdateProject: częściowa zmiana; nieistniejące zlecenie = (nil, nil).
// Zmiana ilości nie przelicza już zapisanych części.
func (s *Service) UpdateProject(ctx context.Context, id uint, patch ProjectPatch) (*db.Project, error) {
	upd := map[string]any{}
	for col, v := range map[string]*string{
		"description":  patch.Description,
		"delivery":     patch.Delivery,
		"customer":     patch.Customer,
		"order_number": patch.OrderNumber,
		"notes":        patch.Notes,
	} {
		if v != nil {
			upd[col] = *v
		}
	}
	if patch.Name != nil {
		name, err := cleanName(*patch.Name)
		if err != nil {
			return nil, err
		}
		upd["name"] = name
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity %d", ErrInvalidQuantity, *patch.Quantity)
		}
		upd["quantity"] = *patch.Quantity
	}
	switch {
	case patch.ClearDeadline:
		upd["deadline"] = nil
	case patch.Deadline != nil:
		upd["deadline"] = *patch.Deadline
	}
	for st, status := range patch.Stages {
		if (&db.Project{}).StagePtr(st) == nil {
			return nil, fmt.Errorf("%w: stage %q", ErrInvalidField, st)
		}
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		upd[string(st)] = status
	}

	var out *db.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if len(upd) > 0 {
			if err := tx.Model(&p).Updates(upd).Error; err != nil {
				return err
			}
			p = db.Project{}
			if err := tx.First(&p, id).Error; err != nil {
				return err
			}
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil && len(upd) > 0 {
		s.log.Info().Uint("project_id", out.ID).Int("fields", len(upd)).Msg("project updated")
	}
	return out, nil
}

// UpdateProjectField obsługuje edycję pojedynczej komórki tabeli zleceń.
// Etapy przyjmują kod albo etykietę statusu, deadline format RRRR-MM-DD (pusty = usuń).
func (s *Service) UpdateProjectField(ctx context.Context, id uint, field, value string) (*db.Project, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	var patch ProjectPatch

	if st, ok := db.ParseStage(field); ok {
		status, err := db.ParseStageStatus(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, value)
		}
		patch.Stages = map[db.Stage]db.StageStatus{st: status}
		return s.UpdateProject(ctx, id, patch)
	}

	switch field {
	case "name":
		patch.Name = &value
	case "description":
		patch.Description = &value
	case "delivery":
		patch.Delivery = &value
	case "customer":
		patch.Customer = &value
	case "order_number":
		patch.OrderNumber = &value
	case "notes":
		patch.Notes = &value
	case "quantity":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: quantity %q", ErrInvalidQuantity, value)
		}
		patch.Quantity = &n
	case "deadline":
		value = strings.TrimSpace(value)
		if value == "" {
			patch.ClearDeadline = true
			break
		}
		t, err := time.Parse(DeadlineLayout, value)
		if err != nil {
			return nil, fmt.Errorf("%w: deadline %q", ErrInvalidInput, value)
		}
		patch.Deadline = &t
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return s.UpdateProject(ctx, id, patch)
}

func (s *Service) SetStage(ctx context.Context, id uint, st db.Stage, status db.StageStatus) (*db.Project, error) {
	return s.UpdateProject(ctx, id, ProjectPatch{Stages: map[db.Stage]db.StageStatus{st: status}})
}

// DeleteProject usuwa zlecenie i jego części. Historia zostaje.
func (s *Service) DeleteProject(ctx context.Context, id uint) error {
	var n int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&db.ProjectPart{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&db.Project{}, id)
		n = res.RowsAffected
		return res.Error
	})
	if err == nil && n > 0 {
		s.log.Info().Uint("project_id", id).Msg("project deleted")
	}
	return err
}

// ─────────── części zlecenia ───────────

// ProjectParts zwraca części zlecenia; przy pierwszym odczycie wylicza je z BOM produktu.
func (s *Service) ProjectParts(ctx context.Context, projectID uint) ([]db.ProjectPart, error) {
	var out []db.ProjectPart
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return notFound(err)
		}
		if _, err := ensureParts(tx, &p); err != nil {
			return err
		}
		return tx.Preload("Material").Where("project_id = ?", p.ID).Order("id").Find(&out).Error
	})
	return out, err
}

// AddMaterialToProject dopisuje materiał do części zlecenia (istniejąca linia jest sumowana).
func (s *Service) AddMaterialToProject(ctx context.Context, projectID, materialID uint, qty int) (*db.ProjectPart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	var row db.ProjectPart
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p db.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return notFound(err)
		}
		if err := mustExist(tx, &db.Material{}, materialID); err != nil {
			return err
		}
		// najpierw części z BOM, inaczej ręczna linia zablokowałaby ich wyliczenie
		if _, err := ensureParts(tx, &p); err != nil {
			return err
		}
		err := tx.Where("project_id = ? AND material_id = ?", projectID, materialID).Take(&row).Error
		switch {
		case err == nil:
			if err := tx.Model(&row).Update("quantity_required", gorm.Expr("quantity_required + ?", qty)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = db.ProjectPart{ProjectID: projectID, MaterialID: materialID, QuantityRequired: qty}
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
	s.log.Info().Uint("project_id", projectID).Uint("material_id", materialID).Int("qty", row.QuantityRequired).Msg("project part saved")
	return &row, nil
}

func (s *Service) RemoveProjectPart(ctx context.Context, partID uint) error {
	return s.db.WithContext(ctx).Delete(&db.ProjectPart{}, partID).Error
}
