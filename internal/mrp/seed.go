package mrp

import (
	"context"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"gorm.io/gorm"
)

// SeedDemo wypełnia bazę przykładowymi materiałami i dwoma produktami (Raam 1, Riiul 1)
// w jednej transakcji. Istniejące materiały są używane ponownie, istniejące produkty pomijane.
// Zwraca false, gdy nic nie dodano.
func (s *Service) SeedDemo(ctx context.Context) (bool, error) {
	tubeLen := 6000
	materials := []NewMaterial{
		{Name: "NELIKANT 20×20×2 ALU 6 m", StockQty: 120, Kind: db.KindTube, MaterialType: "aluminium",
			TubeProfile: "nelikanttoru", TubeLength: &tubeLen, TubeDimension: "20×20", TubeThickness: "2"},
		{Name: "NELIKANT 40×20×2 ALU 6 m", StockQty: 100, Kind: db.KindTube, MaterialType: "aluminium",
			TubeProfile: "nelikanttoru", TubeLength: &tubeLen, TubeDimension: "40×20", TubeThickness: "2"},
		{Name: "PLEKK S235 5 mm", StockQty: 500, MaterialType: "steel"},
		{Name: "Polt M8×20", StockQty: 1000, MaterialType: "steel"},
	}
	var created, createdProducts int
	err := s.tx(ctx, func(tx *gorm.DB) error {
		// nadrzędne tx(): zagnieżdżone wywołania idą jako savepointy
		ts := &Service{db: tx, log: s.log, now: s.now, runID: s.runID}

		ids := make([]uint, len(materials))
		for i, in := range materials {
			m, err := ts.MaterialByName(ctx, in.Name)
			if err != nil {
				return err
			}
			if m == nil {
				if m, err = ts.CreateMaterial(ctx, in); err != nil {
					return err
				}
				created++
			}
			ids[i] = m.ID
		}
		alu20, alu40, plate, bolt := ids[0], ids[1], ids[2], ids[3]

		products := []struct {
			name, desc string
			parts      []PartInput
		}{
			{"Raam 1", "Lihtne toruraam", []PartInput{{alu20, 4}, {alu40, 2}, {plate, 1}}},
			{"Riiul 1", "Riiul toruraamiga", []PartInput{{alu20, 6}, {plate, 2}, {bolt, 24}}},
		}
		for _, pr := range products {
			existing, err := ts.ProductByName(ctx, pr.name)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			p, err := ts.CreateProduct(ctx, NewProduct{Name: pr.name, Description: pr.desc, Categories: []string{"Test"}})
			if err != nil {
				return err
			}
			for _, part := range pr.parts {
				if _, err := ts.AddMaterialToProduct(ctx, p.ID, part.MaterialID, part.Quantity); err != nil {
					return err
				}
			}
			createdProducts++
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if created+createdProducts == 0 {
		return false, nil
	}
	s.log.Info().Int("materials", created).Int("products", createdProducts).Msg("dane demo dodane")
	return true, nil
}
