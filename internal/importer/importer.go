package importer

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"gorm.io/gorm"
)

var ErrBadLine = errors.New("invalid delivery line")

// errAlreadyDone: inny przebieg zdążył przetworzyć plik przed nami.
var errAlreadyDone = errors.New("import already done")

// Importer wczytuje pliki dostaw (XML) i dopisuje ilości do stanów.
type Importer struct {
	log zerolog.Logger
	db  *gorm.DB
	now func() time.Time
	mu  sync.Mutex // jeden import naraz (syncer, "importuj teraz", API)
}

func New(log zerolog.Logger, gdb *gorm.DB) *Importer {
	return &Importer{log: log, db: gdb, now: time.Now}
}

// Result opisuje jeden przetworzony (albo pominięty) plik.
type Result struct {
	File     string `json:"file"`
	ImportID uint   `json:"import_id"`
	Skipped  bool   `json:"skipped"`
	Lines    int    `json:"lines"`
	Created  int    `json:"created"` // nowe materiały
}

// <delivery><material>...</material></delivery>
type xmlMaterial struct {
	Name         string `xml:"name"`
	Quantity     string `xml:"quantity"` // bywa "12,0" albo puste
	Type         string `xml:"type"`
	MaterialType string `xml:"material_type"`

	TubeProfile   string `xml:"tube_profile"`
	TubeLength    string `xml:"tube_length"`
	TubeQuantity  string `xml:"tube_quantity"`
	TubeDimension string `xml:"tube_dimension"`
	TubeThickness string `xml:"tube_thickness"`
}

// ScanDir przetwarza wszystkie *.xml w katalogu, w kolejności nazw.
// Błąd jednego pliku nie zatrzymuje pozostałych; zwracany jest pierwszy.
func (i *Importer) ScanDir(ctx context.Context, dir string) ([]Result, error) {
	dir = expandHome(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var out []Result
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := i.ImportFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			i.log.Error().Err(err).Str("file", e.Name()).Msg("błąd przetwarzania pliku")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, *res)
	}
	return out, firstErr
}

// ImportFile wczytuje jeden plik. Cały plik to jedna transakcja: albo wszystkie linie, albo nic.
// Plik już przetworzony (ta sama nazwa albo SHA-256) jest pomijany.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	name := filepath.Base(path)
	importID, done, err := i.registerFile(ctx, path, name)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	if done {
		i.log.Debug().Str("file", name).Msg("plik już był i DONE — pomijam")
		return &Result{File: name, ImportID: importID, Skipped: true}, nil
	}

	res := &Result{File: name, ImportID: importID}
	err = i.processFile(ctx, importID, path, res)
	if errors.Is(err, errAlreadyDone) {
		i.log.Debug().Str("file", name).Msg("plik przetworzony równolegle, pomijam")
		return &Result{File: name, ImportID: importID, Skipped: true}, nil
	}
	if err != nil {
		_ = i.db.WithContext(ctx).Model(&db.ImportFile{}).Where("import_id = ?", importID).
			Updates(map[string]any{"status": db.ImportError, "last_error": err.Error()}).Error
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	i.log.Info().Str("file", name).Uint("import_id", importID).Int("lines", res.Lines).Int("created", res.Created).Msg("przetworzono OK")
	return res, nil
}

// registerFile zwraca id rekordu import_files i czy plik jest już DONE.
func (i *Importer) registerFile(ctx context.Context, fullPath, name string) (uint, bool, error) {
	fi, err := os.Stat(fullPath)
	if err != nil {
		return 0, false, err
	}
	h, err := fileSHA256(fullPath)
	if err != nil {
		return 0, false, err
	}

	gdb := i.db.WithContext(ctx)
	var existing db.ImportFile
	err = gdb.Where("sha256 = ? OR filename = ?", h, name).Take(&existing).Error
	if err == nil {
		if existing.Status != db.ImportDone {
			i.log.Warn().Str("file", name).Uint("import_id", existing.ImportID).
				Int("status", existing.Status).Msg("plik istnieje, ale nie DONE — ponawiam przetwarzanie")
		}
		return existing.ImportID, existing.Status == db.ImportDone, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	rec := db.ImportFile{
		Filename:  name,
		SHA256:    h,
		SizeBytes: fi.Size(),
		Status:    db.ImportPending,
	}
	if err := gdb.Create(&rec).Error; err != nil {
		return 0, false, err
	}
	return rec.ImportID, false, nil
}

func (i *Importer) processFile(ctx context.Context, importID uint, fullPath string, res *Result) error {
	f, err := os.Open(fullPath)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(bufio.NewReader(f))
	dec.CharsetReader = func(cs string, in io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(normalizeCharset(cs), in)
	}

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := i.now()
		// rezerwacja pliku: tylko jeden przebieg przejdzie z "nie DONE" na DONE
		claim := tx.Model(&db.ImportFile{}).
			Where("import_id = ? AND status <> ?", importID, db.ImportDone).
			Updates(map[string]any{"status": db.ImportDone, "processed_at": now})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return errAlreadyDone
		}

		for {
			tok, err := dec.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			se, ok := tok.(xml.StartElement)
			if !ok || !strings.EqualFold(se.Name.Local, "material") {
				continue
			}
			var xm xmlMaterial
			if err := dec.DecodeElement(&xm, &se); err != nil {
				return err
			}
			created, err := applyLine(tx, xm, now)
			if err != nil {
				return fmt.Errorf("line %d: %w", res.Lines+1, err)
			}
			res.Lines++
			if created {
				res.Created++
			}
		}

		return tx.Model(&db.ImportFile{}).Where("import_id = ?", importID).
			Updates(map[string]any{
				"lines":      res.Lines,
				"last_error": "",
			}).Error
	})
}

// applyLine dodaje ilość do istniejącego materiału albo zakłada nowy. Zwraca true dla nowego.
func applyLine(tx *gorm.DB, xm xmlMaterial, now time.Time) (bool, error) {
	name := strings.TrimSpace(xm.Name)
	if name == "" {
		return false, fmt.Errorf("%w: empty name", ErrBadLine)
	}
	qty, ok := quantity(xm.Quantity)
	if !ok || qty <= 0 {
		return false, fmt.Errorf("%w: %s quantity %q", ErrBadLine, name, xm.Quantity)
	}

	var m db.Material
	err := tx.Where("name = ?", name).Take(&m).Error
	created := false
	switch {
	case err == nil:
		if err := tx.Model(&m).Update("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error; err != nil {
			return false, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		m, err = newMaterial(name, qty, xm)
		if err != nil {
			return false, err
		}
		if err := tx.Create(&m).Error; err != nil {
			return false, err
		}
		created = true
	default:
		return false, err
	}

	return created, tx.Create(&db.History{
		Timestamp: now,
		Action:    mrp.ActionStockReceived,
		Details:   fmt.Sprintf("+%d to %s", qty, name),
	}).Error
}

func newMaterial(name string, qty int, xm xmlMaterial) (db.Material, error) {
	m := db.Material{
		Name:         name,
		StockQty:     qty,
		Kind:         db.KindGeneral,
		MaterialType: strings.TrimSpace(xm.MaterialType),
	}
	switch db.MaterialKind(strings.ToLower(strings.TrimSpace(xm.Type))) {
	case "", db.KindGeneral:
	case db.KindTube:
		m.Kind = db.KindTube
		m.TubeProfile = strings.TrimSpace(xm.TubeProfile)
		m.TubeLength = optInt(xm.TubeLength)
		m.TubeQuantity = optInt(xm.TubeQuantity)
		m.TubeDimension = strings.TrimSpace(xm.TubeDimension)
		m.TubeThickness = strings.TrimSpace(xm.TubeThickness)
	default:
		return m, fmt.Errorf("%w: %s type %q", ErrBadLine, name, xm.Type)
	}
	return m, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// normalizeCharset mapuje nietypowe etykiety na standardowe nazwy rozpoznawane przez charset.NewReaderLabel
func normalizeCharset(cs string) string {
	c := strings.TrimSpace(strings.ToLower(cs))
	switch c {
	case "latin ii", "latin-2", "latin2", "iso8859-2", "iso_8859-2":
		return "iso-8859-2"
	case "latin-9", "latin9", "iso8859-15":
		return "iso-8859-15"
	case "cp1250", "windows1250", "win-1250":
		return "windows-1250"
	case "cp1257", "windows1257", "win-1257":
		return "windows-1257"
	default:
		return c
	}
}

// quantity akceptuje "12", "12,0", "12.0"; ułamki są odrzucane.
func quantity(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

func optInt(s string) *int {
	n, ok := quantity(s)
	if !ok {
		return nil
	}
	return &n
}
