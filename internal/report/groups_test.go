package report

import (
	"testing"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

func sampleInputs() []erp.ProductionInput {
	return []erp.ProductionInput{
		{ID: 1, PalletID: 10, PalletCode: "P-10", ProductID: 100, ProductName: "Pulpo", Lot: "L1", NetWeight: 12.5},
		{ID: 2, PalletID: 10, PalletCode: "P-10", ProductID: 100, ProductName: "Pulpo", Lot: "L1", NetWeight: 11.0},
		{ID: 3, PalletID: 10, PalletCode: "P-10", ProductID: 200, ProductName: "Sepia", Lot: "L2", NetWeight: 30.0},
		{ID: 4, PalletID: 20, PalletCode: "P-20", ProductID: 100, ProductName: "Pulpo", Lot: "L3", NetWeight: 8.0},
	}
}

func TestGroupByPallet(t *testing.T) {
	groups := GroupByPallet(sampleInputs())

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	first := groups[0]
	if first.PalletID != 10 || first.Boxes != 3 {
		t.Errorf("pallet 10 group = %+v", first)
	}
	if first.NetWeight != 53.5 {
		t.Errorf("pallet 10 weight = %v, want 53.5", first.NetWeight)
	}

	// 组内产品按净重降序：Sepia(30.0) > Pulpo(23.5)
	if len(first.Products) != 2 || first.Products[0].ProductID != 200 {
		t.Errorf("pallet 10 breakdown order wrong: %+v", first.Products)
	}
	if got := first.Products[1].Lots; len(got) != 1 || got[0] != "L1" {
		t.Errorf("pulpo lots = %v, want [L1]", got)
	}
}

func TestGroupByProduct(t *testing.T) {
	breakdown := GroupByProduct(sampleInputs())

	if len(breakdown) != 2 {
		t.Fatalf("got %d products, want 2", len(breakdown))
	}
	// Pulpo 12.5+11.0+8.0 = 31.5 > Sepia 30.0
	if breakdown[0].ProductID != 100 || breakdown[0].NetWeight != 31.5 {
		t.Errorf("first product = %+v", breakdown[0])
	}
	if got := breakdown[0].Lots; len(got) != 2 {
		t.Errorf("pulpo lots = %v, want 2 distinct", got)
	}
}

func TestGrandTotals(t *testing.T) {
	totals := GrandTotals(sampleInputs())

	if totals.Lines != 4 {
		t.Errorf("Lines = %d, want 4", totals.Lines)
	}
	if totals.NetWeight != 61.5 {
		t.Errorf("NetWeight = %v, want 61.5", totals.NetWeight)
	}
	if totals.Products != 2 || totals.Pallets != 2 {
		t.Errorf("Products = %d, Pallets = %d, want 2/2", totals.Products, totals.Pallets)
	}
}

func TestGroupDefensiveEmpty(t *testing.T) {
	if got := GroupByPallet(nil); len(got) != 0 {
		t.Errorf("GroupByPallet(nil) = %v", got)
	}
	if got := GroupByProduct(nil); len(got) != 0 {
		t.Errorf("GroupByProduct(nil) = %v", got)
	}
	if got := GrandTotals(nil); got.Lines != 0 || got.NetWeight != 0 {
		t.Errorf("GrandTotals(nil) = %+v", got)
	}
}
