package mrp

import (
	"context"
	"strings"

	"github.com/bartek5186/ulvari-mrp/internal/db"
)

type HistoryFilter struct {
	ProjectID *uint
	RunID     string
	Limit     int // 0 = bez limitu
}

// History zwraca wpisy od najnowszych.
func (s *Service) History(ctx context.Context, f HistoryFilter) ([]db.History, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.RunID != "" {
		q = q.Where("run_id = ?", f.RunID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []db.History
	err := q.Find(&out).Error
	return out, err
}

// AddHistory dopisuje wpis ręcznie (np. podsumowanie startu zlecenia).
func (s *Service) AddHistory(ctx context.Context, projectID *uint, action, details string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidInput
	}
	return s.db.WithContext(ctx).Create(&db.History{
		Timestamp: s.now(),
		ProjectID: projectID,
		Action:    action,
		Details:   details,
	}).Error
}
