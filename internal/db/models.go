// internal/db/models.go
package db

import (
	"time"

	"gorm.io/gorm"
)

type MaterialKind string

const (
	KindGeneral MaterialKind = "general"
	KindTube    MaterialKind = "tube"
)

// categories
type Category struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Name     string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Products []Product `gorm:"many2many:product_categories" json:"-"`
}

// materials (stan magazynu)
type Material struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:255;not null;uniqueIndex" json:"name"`
	StockQty     int          `gorm:"not null;default:0" json:"stock_qty"`
	Kind         MaterialKind `gorm:"column:type;size:16;not null;default:general" json:"type"`
	MaterialType string       `gorm:"size:64" json:"material_type,omitempty"`

	// tylko dla Kind == tube
	TubeProfile   string `gorm:"size:64" json:"tube_profile,omitempty"`
	TubeLength    *int   `json:"tube_length,omitempty"`
	TubeQuantity  *int   `json:"tube_quantity,omitempty"`
	TubeDimension string `gorm:"size:64" json:"tube_dimension,omitempty"`
	TubeThickness string `gorm:"size:64" json:"tube_thickness,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m Material) IsTube() bool { return m.Kind == KindTube }

// products
type Product struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Name           string        `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description    string        `gorm:"type:text" json:"description"`
	Note           string        `gorm:"type:text" json:"note"`
	ProductionTime *int          `json:"production_time,omitempty"` // minuty
	Categories     []Category    `gorm:"many2many:product_categories" json:"categories"`
	Parts          []ProductPart `json:"parts,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// product_parts (BOM produktu)
type ProductPart struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uint      `gorm:"not null;uniqueIndex:uniq_product_material" json:"product_id"`
	MaterialID       uint      `gorm:"not null;uniqueIndex:uniq_product_material" json:"material_id"`
	QuantityRequired int       `gorm:"not null;default:1" json:"quantity_required"`
	Material         *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

// projects (zlecenia)
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Delivery    string `gorm:"size:255" json:"delivery"`
	Customer    string `gorm:"size:255" json:"customer"`
	OrderNumber string `gorm:"size:128" json:"order_number"`
	Notes       string `gorm:"type:text" json:"notes"`

	// ProductID jest kluczem do BOM; ProductName to tylko kopia nazwy do wyświetlania
	ProductID   *uint      `gorm:"index" json:"product_id,omitempty"`
	ProductName string     `gorm:"size:255" json:"product"`
	Quantity    int        `gorm:"not null;default:1" json:"quantity"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	Afterone  StageStatus `gorm:"size:16;not null;default:none" json:"afterone"`
	Cutting   StageStatus `gorm:"size:16;not null;default:none" json:"cutting"`
	Laser     StageStatus `gorm:"size:16;not null;default:none" json:"laser"`
	Bending   StageStatus `gorm:"size:16;not null;default:none" json:"bending"`
	Drilling  StageStatus `gorm:"size:16;not null;default:none" json:"drilling"`
	Welding   StageStatus `gorm:"size:16;not null;default:none" json:"welding"`
	Grinding  StageStatus `gorm:"size:16;not null;default:none" json:"grinding"`
	Coating   StageStatus `gorm:"size:16;not null;default:none" json:"coating"`
	Delivered StageStatus `gorm:"size:16;not null;default:none" json:"delivered"`

	Parts     []ProjectPart `json:"parts,omitempty"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate uzupełnia puste etapy wartością "none".
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	for _, st := range Stages {
		if *p.StagePtr(st) == "" {
			*p.StagePtr(st) = StatusNone
		}
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	return nil
}

// project_parts (zamrożona kopia BOM dla zlecenia)
type ProjectPart struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProjectID        uint      `gorm:"not null;uniqueIndex:uniq_project_material" json:"project_id"`
	MaterialID       uint      `gorm:"not null;uniqueIndex:uniq_project_material" json:"material_id"`
	QuantityRequired int       `gorm:"not null;default:1" json:"quantity_required"`
	Material         *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

// history (tylko dopisywanie)
type History struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	ProjectID *uint     `gorm:"index" json:"project_id,omitempty"`
	RunID     string    `gorm:"size:36;index" json:"run_id,omitempty"`
	Action    string    `gorm:"size:128;not null" json:"action"`
	Details   string    `gorm:"type:text;not null" json:"details"`
}

func (History) TableName() string { return "history" }

// import_files (pliki dostaw już wczytane)
type ImportFile struct {
	ImportID    uint   `gorm:"primaryKey;column:import_id"`
	Filename    string `gorm:"size:255;uniqueIndex"`
	SHA256      string `gorm:"size:64;uniqueIndex"`
	SizeBytes   int64
	Status      int    `gorm:"index"` // 0=pending, 1=done, 2=error
	LastError   string `gorm:"type:text"`
	Lines       int
	ReceivedAt  time.Time `gorm:"autoCreateTime"`
	ProcessedAt *time.Time
}

const (
	ImportPending = 0
	ImportDone    = 1
	ImportError   = 2
)

type KV struct {
	K string `gorm:"primaryKey;size:64"`
	V string
}
