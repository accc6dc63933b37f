// Package mrp holds the domain operations: materials, products and their bills of
// materials, projects with stage statuses, stock deduction and the audit history.
// Every call runs in its own transaction and returns before anything else happens.
package mrp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateName     = errors.New("name already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidField      = errors.New("unknown field")
	ErrInvalidStatus     = db.ErrInvalidStatus
)

// InsufficientStockError wskazuje materiał, którego brakuje. errors.Is(err, ErrInsufficientStock) == true.
type InsufficientStockError struct {
	MaterialID   uint
	MaterialName string // puste, gdy materiału nie ma w bazie
	Required     int
	Available    int
}

func (e *InsufficientStockError) Material() string {
	if e.MaterialName != "" {
		return e.MaterialName
	}
	return fmt.Sprintf("material #%d", e.MaterialID)
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (required %d, available %d)", e.Material(), e.Required, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Service struct {
	db  *gorm.DB
	log zerolog.Logger

	now   func() time.Time
	runID func() string
}

func New(log zerolog.Logger, gdb *gorm.DB) *Service {
	return &Service{
		db:    gdb,
		log:   log,
		now:   time.Now,
		runID: func() string { return uuid.NewString() },
	}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// notFound mapuje brak rekordu na ErrNotFound, resztę zostawia.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// storeErr tłumaczy naruszenie unikalności z bazy na błąd domenowy.
func storeErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return err
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	return name, nil
}

// nameTaken sprawdza unikalność nazwy w tabeli, z pominięciem rekordu exceptID.
func nameTaken(tx *gorm.DB, model any, name string, exceptID uint) (bool, error) {
	var n int64
	q := tx.Model(model).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// stockChange formatuje zmianę stanu do wpisu historii: "-6 from Bolt", "+4 to Bolt".
func stockChange(delta int, name string) string {
	if delta < 0 {
		return fmt.Sprintf("%d from %s", delta, name)
	}
	return fmt.Sprintf("+%d to %s", delta, name)
}
