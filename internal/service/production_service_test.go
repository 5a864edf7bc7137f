package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
)

// fakeERP 可配置的ERP后端桩，记录写调用顺序
type fakeERP struct {
	mu           sync.Mutex
	consumptions []erp.OutputConsumption
	nextID       int
	hasSync      bool
	failList     bool
	writeCalls   []string
	srv          *httptest.Server
}

func newFakeERP(t *testing.T, hasSync bool, seed []erp.OutputConsumption) *fakeERP {
	t.Helper()
	f := &fakeERP{consumptions: seed, nextID: 100, hasSync: hasSync}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeERP) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/consumptions"):
		if f.failList {
			writeJSON(w, 500, map[string]string{"message": "temporary outage"})
			return
		}
		writeJSON(w, 200, map[string]interface{}{"data": f.consumptions})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/consumptions/sync"):
		if !f.hasSync {
			writeJSON(w, 404, map[string]string{"message": "not found"})
			return
		}
		f.writeCalls = append(f.writeCalls, "sync")
		var req struct {
			Consumptions []erp.ConsumptionSyncRow `json:"consumptions"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.consumptions = nil
		for _, row := range req.Consumptions {
			id := row.ID
			if id == 0 {
				id = f.nextID
				f.nextID++
			}
			f.consumptions = append(f.consumptions, erp.OutputConsumption{
				ID: id, OutputID: row.OutputID, ProductID: row.ProductID,
				Lot: row.Lot, NetWeight: row.NetWeight, Boxes: row.Boxes,
			})
		}
		writeJSON(w, 200, map[string]string{"message": "synced"})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/consumptions"):
		f.writeCalls = append(f.writeCalls, "create")
		var payload erp.ConsumptionPayload
		json.NewDecoder(r.Body).Decode(&payload)
		created := erp.OutputConsumption{
			ID: f.nextID, OutputID: payload.OutputID, ProductID: payload.ProductID,
			Lot: payload.Lot, NetWeight: payload.NetWeight, Boxes: payload.Boxes,
		}
		f.nextID++
		f.consumptions = append(f.consumptions, created)
		writeJSON(w, 201, map[string]interface{}{"data": created})

	case r.Method == http.MethodPut:
		f.writeCalls = append(f.writeCalls, "update "+r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		var payload erp.ConsumptionPayload
		json.NewDecoder(r.Body).Decode(&payload)
		writeJSON(w, 200, map[string]interface{}{"data": payload})

	case r.Method == http.MethodDelete:
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		f.writeCalls = append(f.writeCalls, "delete "+id)
		kept := f.consumptions[:0]
		for _, c := range f.consumptions {
			if fmt.Sprintf("%d", c.ID) != id {
				kept = append(kept, c)
			}
		}
		f.consumptions = kept
		writeJSON(w, 200, map[string]string{"message": "deleted"})

	default:
		writeJSON(w, 404, map[string]string{"message": "not found"})
	}
}

func (f *fakeERP) setFailList(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failList = fail
}

func (f *fakeERP) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writeCalls...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestProductionService(f *fakeERP) *ProductionService {
	cfg := &config.Config{}
	cfg.Backend.CacheTTL = time.Minute
	client := erp.NewClient(f.srv.URL, zap.NewNop())
	return NewProductionService(client, nil, nil, cfg, zap.NewNop())
}

func TestSaveConsumptionsUsesSyncEndpoint(t *testing.T) {
	f := newFakeERP(t, true, []erp.OutputConsumption{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 20, Boxes: 2},
	})
	svc := newTestProductionService(f)

	err := svc.SaveConsumptions(context.Background(), "tok", "user-1", 5, []ConsumptionRow{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 25, Boxes: 2},
		{OutputID: 10, ProductID: 6, Lot: "L2", NetWeight: 8, Boxes: 1},
	})
	if err != nil {
		t.Fatalf("SaveConsumptions failed: %v", err)
	}

	calls := f.calls()
	if len(calls) != 1 || calls[0] != "sync" {
		t.Fatalf("expected single sync call, got %v", calls)
	}

	rows, err := svc.Consumptions(context.Background(), "tok", 5)
	if err != nil {
		t.Fatalf("Consumptions failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows after sync, got %d", len(rows))
	}
}

func TestSaveConsumptionsFallsBackToPerRowDiff(t *testing.T) {
	f := newFakeERP(t, false, []erp.OutputConsumption{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 20, Boxes: 2},
		{ID: 2, OutputID: 10, ProductID: 6, Lot: "L2", NetWeight: 12, Boxes: 1},
	})
	svc := newTestProductionService(f)

	// 保留并更新id=1，删除id=2，新增一行草稿
	err := svc.SaveConsumptions(context.Background(), "tok", "user-1", 5, []ConsumptionRow{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 25, Boxes: 2},
		{OutputID: 10, ProductID: 7, Lot: "L3", NetWeight: 8, Boxes: 1},
	})
	if err != nil {
		t.Fatalf("SaveConsumptions failed: %v", err)
	}

	calls := f.calls()
	want := []string{"update 1", "create", "delete 2"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestConsumptionsRecoverAfterBackendOutage(t *testing.T) {
	f := newFakeERP(t, true, []erp.OutputConsumption{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 20, Boxes: 2},
	})
	f.setFailList(true)
	svc := newTestProductionService(f)

	if _, err := svc.Consumptions(context.Background(), "tok", 5); err == nil {
		t.Fatal("expected error while backend is down")
	}

	// 后端恢复后，后续读取与变更必须都能成功，初始化失败不能钉死该父记录
	f.setFailList(false)

	err := svc.SaveConsumptions(context.Background(), "tok", "user-1", 5, []ConsumptionRow{
		{ID: 1, OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 25, Boxes: 2},
	})
	if err != nil {
		t.Fatalf("SaveConsumptions after recovery failed: %v", err)
	}

	rows, err := svc.Consumptions(context.Background(), "tok", 5)
	if err != nil {
		t.Fatalf("Consumptions still failing after successful reconcile: %v", err)
	}
	if len(rows) != 1 || rows[0].NetWeight != 25 {
		t.Errorf("unexpected rows after recovery: %+v", rows)
	}
}

func TestSaveConsumptionsRejectsInvalidRows(t *testing.T) {
	f := newFakeERP(t, true, nil)
	svc := newTestProductionService(f)

	err := svc.SaveConsumptions(context.Background(), "tok", "user-1", 5, []ConsumptionRow{
		{OutputID: 10, ProductID: 5, Lot: "L1", NetWeight: 0},
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls := f.calls(); len(calls) != 0 {
		t.Errorf("validation must not reach the backend, got calls %v", calls)
	}

	err = svc.SaveConsumptions(context.Background(), "tok", "user-1", 5, []ConsumptionRow{
		{ProductID: 5, Lot: "L1", NetWeight: 3},
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for missing output, got %v", err)
	}
}

func TestReselectInputsRestoresOnPartialBulkFailure(t *testing.T) {
	var mu sync.Mutex
	inputs := []erp.ProductionInput{
		{ID: 1, BoxID: 10, PalletID: 1, ProductID: 5, Lot: "L1", NetWeight: 12},
		{ID: 2, BoxID: 11, PalletID: 1, ProductID: 5, Lot: "L1", NetWeight: 9},
	}
	bulkCreates := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/inputs"):
			writeJSON(w, 200, map[string]interface{}{"data": inputs})

		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/inputs"):
			inputs = nil
			writeJSON(w, 200, map[string]string{"message": "deleted"})

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/inputs/bulk"):
			bulkCreates++
			if bulkCreates == 1 {
				// 新选集创建部分失败
				writeJSON(w, 201, map[string]interface{}{
					"data": erp.BulkInputResult{Created: 0, Failed: 1, Errors: []string{"box no longer available"}},
				})
				return
			}
			// 补偿恢复用的重建
			var req struct {
				Inputs []erp.ProductionInputPayload `json:"inputs"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for i, p := range req.Inputs {
				inputs = append(inputs, erp.ProductionInput{
					ID: i + 1, BoxID: p.BoxID, PalletID: p.PalletID,
					ProductID: p.ProductID, Lot: p.Lot, NetWeight: p.NetWeight,
				})
			}
			writeJSON(w, 201, map[string]interface{}{
				"data": erp.BulkInputResult{Created: len(req.Inputs)},
			})

		default:
			writeJSON(w, 404, map[string]string{"message": "not found"})
		}
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Backend.CacheTTL = time.Minute
	svc := NewProductionService(erp.NewClient(srv.URL, zap.NewNop()), nil, nil, cfg, zap.NewNop())

	view := svc.Inputs(context.Background(), "tok", 5, true)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 seeded inputs, got %d", len(view.Items))
	}

	err := svc.ReselectInputs(context.Background(), "tok", "user-1", 5, []erp.ProductionInputPayload{
		{BoxID: 99, PalletID: 3, ProductID: 5, Lot: "L9", NetWeight: 7},
	})
	if err == nil {
		t.Fatal("expected error when part of the selection fails to create")
	}
	apiErr, ok := erp.AsError(err)
	if !ok || apiErr.Kind != erp.KindServer {
		t.Fatalf("expected server-kind error with summary, got %v", err)
	}
	if len(apiErr.Details) != 1 {
		t.Errorf("expected failure details carried, got %+v", apiErr.Details)
	}

	mu.Lock()
	creates := bulkCreates
	mu.Unlock()
	if creates != 2 {
		t.Fatalf("expected compensation re-create after partial failure, got %d bulk calls", creates)
	}

	view = svc.Inputs(context.Background(), "tok", 5, true)
	if len(view.Items) != 2 {
		t.Errorf("expected previous rows restored, got %+v", view.Items)
	}
}

func TestScanBoxesMatchesByLotAndWeight(t *testing.T) {
	pallets := []erp.Pallet{
		{
			ID: 1, Code: "PAL-001", StoreID: 1,
			Boxes: []erp.Box{
				{ID: 1, PalletID: 1, ProductID: 5, GTIN: "08412345678905", Lot: "LOTE-230901", NetWeight: 12.5, Available: true},
				{ID: 2, PalletID: 1, ProductID: 5, GTIN: "08412345678905", Lot: "LOTE-230901", NetWeight: 9.75, Available: true},
				{ID: 3, PalletID: 1, ProductID: 5, GTIN: "08412345678905", Lot: "OTRO", NetWeight: 12.5, Available: false},
			},
		},
		{
			ID: 2, Code: "PAL-002", StoreID: 1,
			Boxes: []erp.Box{
				// 箱号与托盘1重复，必须按(palletId, boxId)区分
				{ID: 1, PalletID: 2, ProductID: 5, GTIN: "08412345678905", Lot: "LOTE-230901", NetWeight: 12.5, Available: true},
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"data": pallets})
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Backend.CacheTTL = time.Minute
	svc := NewProductionService(erp.NewClient(srv.URL, zap.NewNop()), nil, nil, cfg, zap.NewNop())

	// 两条相同的条码应消耗两个不同托盘上的同重量箱；第三行无法解析
	payload := strings.Join([]string{
		"0108412345678905310000125010LOTE-230901",
		"0108412345678905310000125010LOTE-230901",
		"garbage-line",
	}, "\n")

	result, err := svc.ScanBoxes(context.Background(), "tok", erp.PalletFilter{StoreID: 1}, payload)
	if err != nil {
		t.Fatalf("ScanBoxes failed: %v", err)
	}

	if len(result.Matched) != 2 {
		t.Fatalf("expected 2 matched boxes, got %d", len(result.Matched))
	}
	if result.Matched[0].PalletID == result.Matched[1].PalletID {
		t.Errorf("same barcode twice must take boxes from distinct pallets, got %+v", result.Matched)
	}
	if result.Unrecognized != 1 {
		t.Errorf("expected 1 unrecognized line, got %d", result.Unrecognized)
	}
	if len(result.Unmatched) != 0 {
		t.Errorf("expected no unmatched codes, got %+v", result.Unmatched)
	}
}
