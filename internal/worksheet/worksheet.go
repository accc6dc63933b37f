// Package worksheet builds the printable parts list of a project and writes it
// as plain text or an xlsx workbook.
package worksheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bartek5186/ulvari-mrp/internal/db"
)

// Missing to tekst wstawiany w puste pola.
const Missing = "Puudub"

var ErrUnknownFormat = errors.New("unknown worksheet format")

// Source to to, czego arkusz potrzebuje od warstwy domenowej (spełnia to *mrp.Service).
type Source interface {
	Project(ctx context.Context, id uint) (*db.Project, error)
	ProjectParts(ctx context.Context, projectID uint) ([]db.ProjectPart, error)
}

type Line struct {
	MaterialID   uint
	MaterialName string
	Quantity     int
	Kind         string
	MaterialType string
}

type Sheet struct {
	ProjectID   uint
	ProjectName string
	Description string
	Lines       []Line
}

// Build składa arkusz dla zlecenia. Części wylicza się przy okazji, jeśli ich brakowało.
func Build(ctx context.Context, src Source, projectID uint) (*Sheet, error) {
	p, err := src.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	parts, err := src.ProjectParts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s := &Sheet{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Description: orMissing(p.Description),
		Lines:       make([]Line, 0, len(parts)),
	}
	for _, pp := range parts {
		ln := Line{
			MaterialID:   pp.MaterialID,
			MaterialName: Missing,
			Quantity:     pp.QuantityRequired,
			Kind:         Missing,
			MaterialType: Missing,
		}
		if m := pp.Material; m != nil {
			ln.MaterialName = m.Name
			ln.Kind = orMissing(string(m.Kind))
			ln.MaterialType = orMissing(m.MaterialType)
		}
		s.Lines = append(s.Lines, ln)
	}
	return s, nil
}

func orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return Missing
	}
	return v
}

// Filename: projekti_tööleht_<nazwa ze spacjami na _>_<id>.<ext>
func Filename(s *Sheet, ext string) string {
	name := strings.ReplaceAll(s.ProjectName, " ", "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("projekti_tööleht_%s_%d.%s", name, s.ProjectID, ext)
}

// Render zapisuje arkusz do pamięci (np. dla odpowiedzi HTTP).
func Render(s *Sheet, format string) ([]byte, string, error) {
	w, ok := Get(format)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, s); err != nil {
		return nil, "", fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), Filename(s, w.Ext()), nil
}

// Save zapisuje arkusz do katalogu dir i zwraca pełną ścieżkę. Błędy zapisu są zwracane bez ponawiania.
func Save(dir, format string, s *Sheet) (string, error) {
	data, name, err := Render(s, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
