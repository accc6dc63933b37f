package mrp_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/bartek5186/ulvari-mrp/internal/testutil"
	"github.com/rs/zerolog"
)

func newService(t *testing.T) (*mrp.Service, *db.Handle) {
	t.Helper()
	h := testutil.SetupTestDB(t)
	return mrp.New(zerolog.Nop(), h.DB), h
}

// widgetProject: Bolt (stan 10), Widget = 3×Bolt, zlecenie na 2 sztuki.
func widgetProject(t *testing.T, svc *mrp.Service) (*db.Material, *db.Project) {
	t.Helper()
	ctx := context.Background()
	bolt, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 10})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	widget, err := svc.CreateProduct(ctx, mrp.NewProduct{Name: "Widget"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if _, err := svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 3); err != nil {
		t.Fatalf("AddMaterialToProduct: %v", err)
	}
	p, err := svc.CreateProject(ctx, mrp.NewProject{Name: "P1", ProductID: &widget.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return bolt, p
}

func stockOf(t *testing.T, svc *mrp.Service, id uint) int {
	t.Helper()
	m, err := svc.Material(context.Background(), id)
	if err != nil {
		t.Fatalf("Material(%d): %v", id, err)
	}
	return m.StockQty
}

func TestDeductStockWidgetScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, p := widgetProject(t, svc)

	parts, err := svc.ProjectParts(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProjectParts: %v", err)
	}
	if len(parts) != 1 || parts[0].MaterialID != bolt.ID || parts[0].QuantityRequired != 6 {
		t.Fatalf("unexpected parts: %+v", parts)
	}

	res, err := svc.DeductStock(ctx, p.ID)
	if err != nil {
		t.Fatalf("DeductStock: %v", err)
	}
	if len(res.Lines) != 1 || res.Lines[0].StockAfter != 4 {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := stockOf(t, svc, bolt.ID); got != 4 {
		t.Errorf("expected Bolt stock 4, got %d", got)
	}

	hist, err := svc.History(ctx, mrp.HistoryFilter{ProjectID: &p.ID})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist))
	}
	if hist[0].Action != mrp.ActionStockDeducted || hist[0].Details != "-6 from Bolt" {
		t.Errorf("unexpected history entry: %+v", hist[0])
	}
	if hist[0].RunID != res.RunID {
		t.Errorf("history run id %q, result run id %q", hist[0].RunID, res.RunID)
	}

	// drugi raz: 6 > 4
	_, err = svc.DeductStock(ctx, p.ID)
	var short *mrp.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !errors.Is(err, mrp.ErrInsufficientStock) {
		t.Errorf("expected errors.Is ErrInsufficientStock")
	}
	if short.MaterialName != "Bolt" || short.Required != 6 || short.Available != 4 {
		t.Errorf("unexpected shortage: %+v", short)
	}
	if got := stockOf(t, svc, bolt.ID); got != 4 {
		t.Errorf("stock changed after rejected deduction: %d", got)
	}
}

func TestDeductStockIsAllOrNothing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	plate, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Plate", StockQty: 50})
	nut, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Nut", StockQty: 1})
	p, err := svc.CreateProject(ctx, mrp.NewProject{
		Name:  "Frame",
		Parts: []mrp.PartInput{{MaterialID: plate.ID, Quantity: 5}, {MaterialID: nut.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	_, err = svc.DeductStock(ctx, p.ID)
	if !errors.Is(err, mrp.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if !strings.Contains(err.Error(), "Nut") {
		t.Errorf("error should name the material: %v", err)
	}
	if got := stockOf(t, svc, plate.ID); got != 50 {
		t.Errorf("Plate stock changed to %d", got)
	}
	hist, _ := svc.History(ctx, mrp.HistoryFilter{})
	if len(hist) != 0 {
		t.Errorf("expected no history, got %d entries", len(hist))
	}
}

func TestDeductStockMissingMaterialReportedByID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, p := widgetProject(t, svc)

	if _, err := svc.ProjectParts(ctx, p.ID); err != nil {
		t.Fatalf("ProjectParts: %v", err)
	}
	if err := svc.DeleteMaterial(ctx, bolt.ID); err != nil {
		t.Fatalf("DeleteMaterial: %v", err)
	}

	_, err := svc.DeductStock(ctx, p.ID)
	var short *mrp.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.MaterialID != bolt.ID || short.Available != 0 {
		t.Errorf("unexpected shortage: %+v", short)
	}
	if !strings.Contains(err.Error(), "material #") {
		t.Errorf("expected id-based name in %q", err.Error())
	}
}

func TestDeductStockMissingProject(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.DeductStock(context.Background(), 999); !errors.Is(err, mrp.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartProjectStopsAtFirstShortage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 5})
	p, _ := svc.CreateProject(ctx, mrp.NewProject{
		Name:  "Rack",
		Parts: []mrp.PartInput{{MaterialID: bolt.ID, Quantity: 2}},
	})

	done, err := svc.StartProject(ctx, p.ID, 3)
	if !errors.Is(err, mrp.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if done != 2 {
		t.Errorf("expected 2 completed runs, got %d", done)
	}
	if got := stockOf(t, svc, bolt.ID); got != 1 {
		t.Errorf("expected stock 1, got %d", got)
	}

	hist, _ := svc.History(ctx, mrp.HistoryFilter{ProjectID: &p.ID})
	for _, h := range hist {
		if h.Action == mrp.ActionProjectStarted {
			t.Errorf("summary entry written after failed start: %+v", h)
		}
	}
	if len(hist) != 2 {
		t.Errorf("expected 2 deduction entries, got %d", len(hist))
	}
	if hist[0].RunID == hist[1].RunID {
		t.Errorf("runs share run id %q", hist[0].RunID)
	}
}

func TestStartProjectWritesSummary(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, p := widgetProject(t, svc)
	if _, err := svc.UpdateMaterialDetails(ctx, bolt.ID, mrp.MaterialPatch{StockQty: ptr(12)}); err != nil {
		t.Fatalf("UpdateMaterialDetails: %v", err)
	}

	done, err := svc.StartProject(ctx, p.ID, 2)
	if err != nil || done != 2 {
		t.Fatalf("StartProject: done=%d err=%v", done, err)
	}
	if got := stockOf(t, svc, bolt.ID); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	hist, _ := svc.History(ctx, mrp.HistoryFilter{ProjectID: &p.ID, Limit: 1})
	if len(hist) != 1 || hist[0].Details != "Started project: P1 x2" {
		t.Errorf("unexpected latest entry: %+v", hist)
	}

	if _, err := svc.StartProject(ctx, p.ID, 0); !errors.Is(err, mrp.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for times=0, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, p := widgetProject(t, svc)

	av, err := svc.CheckAvailability(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if len(av) != 1 {
		t.Fatalf("expected 1 line, got %d", len(av))
	}
	if av[0].Required != 12 || av[0].InStock != 10 || av[0].Shortfall != 2 || av[0].OK() {
		t.Errorf("unexpected availability: %+v", av[0])
	}
}

func ptr[T any](v T) *T { return &v }
