package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/gin-gonic/gin"
)

// SetupTestDB otwiera świeżą bazę sqlite (czysty Go) w katalogu testu i robi migracje.
// Baza jest zamykana po teście.
func SetupTestDB(t *testing.T) *db.Handle {
	t.Helper()
	h, err := db.Open(db.DriverSQLitePure, filepath.Join(t.TempDir(), db.DefaultFile))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := h.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// SeedMaterial wstawia materiał bezpośrednio, z pominięciem warstwy domenowej.
func SeedMaterial(t *testing.T, h *db.Handle, name string, stock int) *db.Material {
	t.Helper()
	m := &db.Material{Name: name, StockQty: stock, Kind: db.KindGeneral}
	if err := h.DB.Create(m).Error; err != nil {
		t.Fatalf("seed material %q: %v", name, err)
	}
	return m
}

func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest wykonuje żądanie JSON na routerze testowym.
func DoRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse dekoduje kopertę {code, message, data}.
func ParseResponse(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}
