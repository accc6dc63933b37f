package mrp_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
)

func TestCreateMaterialRejectsDuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 1}); err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	_, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: " Bolt ", StockQty: 3})
	if !errors.Is(err, mrp.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Nut", StockQty: -1}); !errors.Is(err, mrp.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Pipe", Kind: "wood"}); !errors.Is(err, mrp.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown kind, got %v", err)
	}
}

func TestTubeAttributesFollowKind(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.CreateMaterial(ctx, mrp.NewMaterial{
		Name:        "Tube 40x40",
		Kind:        db.KindTube,
		TubeProfile: "square",
		TubeLength:  ptr(6000),
	})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	if !m.IsTube() || m.TubeLength == nil || *m.TubeLength != 6000 {
		t.Fatalf("unexpected tube: %+v", m)
	}

	general := db.KindGeneral
	m, err = svc.UpdateMaterialDetails(ctx, m.ID, mrp.MaterialPatch{Kind: &general})
	if err != nil {
		t.Fatalf("UpdateMaterialDetails: %v", err)
	}
	if m.TubeProfile != "" || m.TubeLength != nil {
		t.Errorf("tube attributes kept after switch to general: %+v", m)
	}

	if _, err := svc.UpdateMaterialDetails(ctx, 999, mrp.MaterialPatch{StockQty: ptr(1)}); !errors.Is(err, mrp.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStockAdjustmentIsRecorded(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 10})

	if _, err := svc.UpdateMaterialDetails(ctx, m.ID, mrp.MaterialPatch{StockQty: ptr(14)}); err != nil {
		t.Fatalf("UpdateMaterialDetails: %v", err)
	}
	hist, err := svc.History(ctx, mrp.HistoryFilter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 || hist[0].Action != mrp.ActionStockAdjusted || hist[0].Details != "+4 to Bolt" {
		t.Errorf("unexpected history: %+v", hist)
	}
}

func TestAddMaterialToProductAccumulates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 10})
	widget, _ := svc.CreateProduct(ctx, mrp.NewProduct{Name: "Widget"})

	if _, err := svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 3); err != nil {
		t.Fatalf("AddMaterialToProduct: %v", err)
	}
	line, err := svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 2)
	if err != nil {
		t.Fatalf("AddMaterialToProduct: %v", err)
	}
	if line.QuantityRequired != 5 {
		t.Errorf("expected accumulated qty 5, got %d", line.QuantityRequired)
	}
	parts, _ := svc.ProductParts(ctx, widget.ID)
	if len(parts) != 1 {
		t.Errorf("expected a single BOM line, got %d", len(parts))
	}

	if _, err := svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 0); !errors.Is(err, mrp.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.AddMaterialToProduct(ctx, widget.ID, 999, 1); !errors.Is(err, mrp.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing material, got %v", err)
	}
}

func categoryNames(p *db.Product) []string {
	out := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

func TestAssignCategoriesReplacesSet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, mrp.NewProduct{Name: "Gate", Categories: []string{"Fences", "Steel"}})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if got := categoryNames(p); len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}

	p, err = svc.AssignCategories(ctx, p.ID, []string{"Outdoor", "Steel", "Steel", " "})
	if err != nil {
		t.Fatalf("AssignCategories: %v", err)
	}
	got := categoryNames(p)
	if len(got) != 2 || got[0] != "Outdoor" || got[1] != "Steel" {
		t.Errorf("unexpected categories: %v", got)
	}

	// "Fences" zostaje jako kategoria, tylko bez produktu
	all, _ := svc.Categories(ctx)
	if len(all) != 3 {
		t.Errorf("expected 3 categories overall, got %d", len(all))
	}

	filtered, err := svc.Products(ctx, "Fences")
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(filtered) != 0 {
		t.Errorf("expected no products in Fences, got %d", len(filtered))
	}
	filtered, _ = svc.Products(ctx, "Outdoor", "Nope")
	if len(filtered) != 1 {
		t.Errorf("expected 1 product in Outdoor, got %d", len(filtered))
	}

	missing, err := svc.AssignCategories(ctx, 999, []string{"X"})
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing product, got %v, %v", missing, err)
	}
}

func TestMissingRecordsAreNoOps(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.DeleteMaterial(ctx, 42); err != nil {
		t.Errorf("DeleteMaterial: %v", err)
	}
	if err := svc.DeleteProduct(ctx, 42); err != nil {
		t.Errorf("DeleteProduct: %v", err)
	}
	if err := svc.DeleteProject(ctx, 42); err != nil {
		t.Errorf("DeleteProject: %v", err)
	}
	name := "x"
	if p, err := svc.UpdateProduct(ctx, 42, mrp.ProductPatch{Name: &name}); err != nil || p != nil {
		t.Errorf("UpdateProduct: %v, %v", p, err)
	}
	if p, err := svc.UpdateProject(ctx, 42, mrp.ProjectPatch{Name: &name}); err != nil || p != nil {
		t.Errorf("UpdateProject: %v, %v", p, err)
	}
	if m, err := svc.MaterialByName(ctx, "ghost"); err != nil || m != nil {
		t.Errorf("MaterialByName: %v, %v", m, err)
	}
	if p, err := svc.ProductByName(ctx, "ghost"); err != nil || p != nil {
		t.Errorf("ProductByName: %v, %v", p, err)
	}
}

func TestDeleteProductKeepsProjects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, p := widgetProject(t, svc)

	if err := svc.DeleteProduct(ctx, *p.ProductID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	got, err := svc.Project(ctx, p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got.ProductID != nil || got.ProductName != "Widget" {
		t.Errorf("unexpected project after product delete: %+v", got)
	}
	parts, _ := svc.ProjectParts(ctx, p.ID)
	if len(parts) != 1 {
		t.Errorf("project parts lost: %d", len(parts))
	}
}
