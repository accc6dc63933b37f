package mrp_test

import (
	"context"
	"testing"

	"github.com/bartek5186/ulvari-mrp/internal/mrp"
)

func TestSeedDemoOnce(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	added, err := svc.SeedDemo(ctx)
	if err != nil || !added {
		t.Fatalf("first SeedDemo: added=%v err=%v", added, err)
	}
	added, err = svc.SeedDemo(ctx)
	if err != nil || added {
		t.Fatalf("second SeedDemo: added=%v err=%v", added, err)
	}

	products, err := svc.Products(ctx, "Test")
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 demo products, got %d", len(products))
	}
	parts, err := svc.ProductParts(ctx, products[1].ID) // Riiul 1
	if err != nil {
		t.Fatalf("ProductParts: %v", err)
	}
	if len(parts) != 3 {
		t.Errorf("expected 3 parts for %s, got %d", products[1].Name, len(parts))
	}
}

func TestSeedDemoReusesExistingMaterial(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	plate, err := svc.CreateMaterial(ctx, mrp.NewMaterial{Name: "PLEKK S235 5 mm", StockQty: 7})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	added, err := svc.SeedDemo(ctx)
	if err != nil || !added {
		t.Fatalf("SeedDemo: added=%v err=%v", added, err)
	}

	items, err := svc.Materials(ctx)
	if err != nil {
		t.Fatalf("Materials: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("expected 4 materials, got %d", len(items))
	}
	if got := stockOf(t, svc, plate.ID); got != 7 {
		t.Errorf("existing stock overwritten: %d", got)
	}
	raam, err := svc.ProductByName(ctx, "Raam 1")
	if err != nil || raam == nil {
		t.Fatalf("ProductByName: %v %v", raam, err)
	}
	parts, err := svc.ProductParts(ctx, raam.ID)
	if err != nil {
		t.Fatalf("ProductParts: %v", err)
	}
	found := false
	for _, pp := range parts {
		if pp.MaterialID == plate.ID {
			found = pp.QuantityRequired == 1
		}
	}
	if !found {
		t.Errorf("Raam 1 does not use the existing plate: %+v", parts)
	}
}
