package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

func TestProductionSummaryXLSXJoinsLots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"data": []erp.ProductionInput{
			{ID: 1, PalletID: 1, PalletCode: "PAL-001", ProductID: 100, ProductName: "Pulpo", Lot: "L1", NetWeight: 12.5},
			{ID: 2, PalletID: 1, PalletCode: "PAL-001", ProductID: 100, ProductName: "Pulpo", Lot: "L2", NetWeight: 8},
		}})
	}))
	defer srv.Close()

	svc := NewExportService(erp.NewClient(srv.URL, zap.NewNop()), nil, "", zap.NewNop())

	f, filename, err := svc.ProductionSummaryXLSX(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("ProductionSummaryXLSX failed: %v", err)
	}
	if filename != "Produccion_7_entradas.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	sheet := "Entradas"
	if got, _ := f.GetCellValue(sheet, "A2"); got != "PAL-001" {
		t.Errorf("pallet cell = %q, want PAL-001", got)
	}
	if got, _ := f.GetCellValue(sheet, "D3"); got != "Pulpo" {
		t.Errorf("product cell = %q, want Pulpo", got)
	}
	// 同一产品的多个批次合并为一个逗号分隔的单元格
	if got, _ := f.GetCellValue(sheet, "E3"); got != "L1, L2" {
		t.Errorf("lots cell = %q, want \"L1, L2\"", got)
	}
}
