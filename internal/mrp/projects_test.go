package mrp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
)

func TestCreateProjectDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, mrp.NewProject{Name: "Bare"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", p.Quantity)
	}
	for _, st := range db.Stages {
		if p.Stage(st) != db.StatusNone {
			t.Errorf("stage %s = %q, want none", st, p.Stage(st))
		}
	}
	parts, err := svc.ProjectParts(ctx, p.ID)
	if err != nil || len(parts) != 0 {
		t.Errorf("expected no parts, got %v (%v)", parts, err)
	}
	if _, err := svc.CreateProject(ctx, mrp.NewProject{Name: "  "}); !errors.Is(err, mrp.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestCreateProjectResolvesLegacyProductName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 10})
	widget, _ := svc.CreateProduct(ctx, mrp.NewProduct{Name: "Widget"})
	svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 4)

	p, err := svc.CreateProject(ctx, mrp.NewProject{Name: "Old style", ProductName: "Widget", Quantity: 3})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ProductID == nil || *p.ProductID != widget.ID {
		t.Fatalf("product not linked: %+v", p)
	}
	parts, _ := svc.ProjectParts(ctx, p.ID)
	if len(parts) != 1 || parts[0].QuantityRequired != 12 {
		t.Errorf("unexpected parts: %+v", parts)
	}

	unknown, err := svc.CreateProject(ctx, mrp.NewProject{Name: "Ghost", ProductName: "Nope"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if unknown.ProductID != nil || unknown.ProductName != "Nope" {
		t.Errorf("unexpected link for unknown product: %+v", unknown)
	}
}

func TestExplicitPartsWinOverBOM(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Bolt", StockQty: 10})
	nut, _ := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "Nut", StockQty: 10})
	widget, _ := svc.CreateProduct(ctx, mrp.NewProduct{Name: "Widget"})
	svc.AddMaterialToProduct(ctx, widget.ID, bolt.ID, 3)

	p, err := svc.CreateProject(ctx, mrp.NewProject{
		Name:      "Custom",
		ProductID: &widget.ID,
		Parts:     []mrp.PartInput{{MaterialID: nut.ID, Quantity: 1}, {MaterialID: nut.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	parts, _ := svc.ProjectParts(ctx, p.ID)
	if len(parts) != 1 || parts[0].MaterialID != nut.ID || parts[0].QuantityRequired != 3 {
		t.Errorf("unexpected parts: %+v", parts)
	}
}

func TestEnsureProjectPartsIsIdempotent(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	_, p := widgetProject(t, svc)

	// symulujemy stare zlecenie bez zapisanych części
	if err := h.DB.Where("project_id = ?", p.ID).Delete(&db.ProjectPart{}).Error; err != nil {
		t.Fatalf("clear parts: %v", err)
	}

	n, err := svc.EnsureProjectParts(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("first ensure: n=%d err=%v", n, err)
	}
	n, err = svc.EnsureProjectParts(ctx, p.ID)
	if err != nil || n != 0 {
		t.Fatalf("second ensure: n=%d err=%v", n, err)
	}
	parts, _ := svc.ProjectParts(ctx, p.ID)
	if len(parts) != 1 || parts[0].QuantityRequired != 6 {
		t.Errorf("unexpected parts: %+v", parts)
	}

	if _, err := svc.EnsureProjectParts(ctx, 999); !errors.Is(err, mrp.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDerivePartsWithoutProduct(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	parts, err := svc.DeriveParts(ctx, nil, 5)
	if err != nil || len(parts) != 0 {
		t.Errorf("nil product: %v, %v", parts, err)
	}
	missing := uint(77)
	parts, err = svc.DeriveParts(ctx, &missing, 5)
	if err != nil || len(parts) != 0 {
		t.Errorf("missing product: %v, %v", parts, err)
	}
}

func TestUpdateProjectField(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p, _ := svc.CreateProject(ctx, mrp.NewProject{Name: "Inline"})

	cases := []struct {
		field, value string
		check        func(*db.Project) bool
	}{
		{"customer", "ACME", func(p *db.Project) bool { return p.Customer == "ACME" }},
		{"quantity", "4", func(p *db.Project) bool { return p.Quantity == 4 }},
		{"deadline", "2025-03-01", func(p *db.Project) bool { return p.Deadline != nil && p.Deadline.Day() == 1 }},
		{"deadline", "", func(p *db.Project) bool { return p.Deadline == nil }},
		{"welding", "Töös", func(p *db.Project) bool { return p.Welding == db.StatusInProgress }},
		{"Delivered", "done", func(p *db.Project) bool { return p.Delivered == db.StatusDone }},
	}
	for _, tc := range cases {
		got, err := svc.UpdateProjectField(ctx, p.ID, tc.field, tc.value)
		if err != nil {
			t.Errorf("%s=%q: %v", tc.field, tc.value, err)
			continue
		}
		if !tc.check(got) {
			t.Errorf("%s=%q not applied: %+v", tc.field, tc.value, got)
		}
	}

	bad := []struct {
		field, value string
		want         error
	}{
		{"quantity", "zero", mrp.ErrInvalidQuantity},
		{"quantity", "0", mrp.ErrInvalidQuantity},
		{"deadline", "01.03.2025", mrp.ErrInvalidInput},
		{"laser", "Maybe", mrp.ErrInvalidStatus},
		{"product_id", "1", mrp.ErrInvalidField},
	}
	for _, tc := range bad {
		if _, err := svc.UpdateProjectField(ctx, p.ID, tc.field, tc.value); !errors.Is(err, tc.want) {
			t.Errorf("%s=%q: expected %v, got %v", tc.field, tc.value, tc.want, err)
		}
	}
}

func TestDeleteProjectKeepsHistory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	bolt, p := widgetProject(t, svc)
	if _, err := svc.DeductStock(ctx, p.ID); err != nil {
		t.Fatalf("DeductStock: %v", err)
	}

	if err := svc.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := svc.Project(ctx, p.ID); !errors.Is(err, mrp.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	hist, _ := svc.History(ctx, mrp.HistoryFilter{ProjectID: &p.ID})
	if len(hist) != 1 {
		t.Errorf("expected history to survive, got %d entries", len(hist))
	}
	if got := stockOf(t, svc, bolt.ID); got != 4 {
		t.Errorf("stock should not be returned on delete, got %d", got)
	}
}

func TestOverviewClassification(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mk := func(name string, stages map[db.Stage]db.StageStatus) {
		t.Helper()
		p, err := svc.CreateProject(ctx, mrp.NewProject{Name: name})
		if err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
		if len(stages) > 0 {
			if _, err := svc.UpdateProject(ctx, p.ID, mrp.ProjectPatch{Stages: stages}); err != nil {
				t.Fatalf("UpdateProject: %v", err)
			}
		}
	}
	mk("fresh", nil)
	mk("queued", map[db.Stage]db.StageStatus{db.StageCutting: db.StatusWaiting})
	mk("running", map[db.Stage]db.StageStatus{db.StageLaser: db.StatusInProgress, db.StageCutting: db.StatusDone})
	mk("shipped", map[db.Stage]db.StageStatus{db.StageDelivered: db.StatusDone, db.StageWelding: db.StatusInProgress})
	mk("between", map[db.Stage]db.StageStatus{db.StageCutting: db.StatusDone})

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Total != 5 || ov.Delivered != 1 || ov.InProgress != 1 || ov.Waiting != 2 {
		t.Errorf("unexpected KPIs: %+v", ov)
	}
	if len(ov.Stages) != len(db.WorkStages) {
		t.Fatalf("expected %d stage buckets, got %d", len(db.WorkStages), len(ov.Stages))
	}

	cutting := ov.Stages[1]
	if cutting.Stage != db.StageCutting || cutting.Done != 3 || cutting.Waiting != 2 || cutting.InProgress != 0 {
		t.Errorf("unexpected cutting bucket: %+v", cutting)
	}
	welding := ov.Stages[5]
	if welding.InProgress != 0 || welding.Done != 1 {
		t.Errorf("delivered project must count as done: %+v", welding)
	}
}
