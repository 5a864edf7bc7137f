package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func samplePunchPayloads() []PunchPayload {
	ts := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	return []PunchPayload{
		{EmployeeID: 1, Timestamp: ts, Direction: "in"},
		{EmployeeID: 2, Timestamp: ts, Direction: "in"},
	}
}

func TestBulkCreatePunchesAllCreated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Punches []PunchPayload `json:"punches"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Punches) != 2 {
			t.Errorf("expected 2 punches in payload, got %d", len(req.Punches))
		}

		w.WriteHeader(201)
		w.Write([]byte(`{
			"data": {
				"created": 2,
				"failed": 0,
				"results": [
					{"index": 0, "success": true, "punch": {"id": 100, "employeeId": 1, "direction": "in"}},
					{"index": 1, "success": true, "punch": {"id": 101, "employeeId": 2, "direction": "in"}}
				],
				"errors": []
			}
		}`))
	})

	result, err := client.BulkCreatePunches(context.Background(), "tok", samplePunchPayloads())
	if err != nil {
		t.Fatalf("BulkCreatePunches failed: %v", err)
	}
	if result.Created != 2 || result.Failed != 0 {
		t.Errorf("expected 2 created / 0 failed, got %d / %d", result.Created, result.Failed)
	}
	if len(result.Results) != 2 || result.Results[1].Punch.ID != 101 {
		t.Errorf("unexpected per-row results: %+v", result.Results)
	}
}

func TestBulkCreatePunchesServerRollback(t *testing.T) {
	// 200带顶层message、无嵌套结果 → 服务端全有或全无回滚
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{"message": "2 punches could not be created, operation rolled back"}`))
	})

	result, err := client.BulkCreatePunches(context.Background(), "tok", samplePunchPayloads())
	if result != nil {
		t.Fatalf("expected nil result on rollback, got %+v", result)
	}
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr.Kind != KindRollback {
		t.Errorf("expected rollback kind, got %d", apiErr.Kind)
	}
	if apiErr.Message != "2 punches could not be created, operation rolled back" {
		t.Errorf("expected server message carried, got %q", apiErr.Message)
	}
}

func TestBulkCreatePunchesPartialResultOn200(t *testing.T) {
	// 200但带完整嵌套结果 → 按逐行结果返回，不视为回滚
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte(`{
			"data": {
				"created": 1,
				"failed": 1,
				"results": [
					{"index": 0, "success": true, "punch": {"id": 100, "employeeId": 1, "direction": "in"}},
					{"index": 1, "success": false, "error": "duplicate punch"}
				],
				"errors": ["row 1: duplicate punch"]
			}
		}`))
	})

	result, err := client.BulkCreatePunches(context.Background(), "tok", samplePunchPayloads())
	if err != nil {
		t.Fatalf("expected per-row result, got error: %v", err)
	}
	if result.Created != 1 || result.Failed != 1 {
		t.Errorf("expected 1 created / 1 failed, got %d / %d", result.Created, result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected aggregated error lines, got %+v", result.Errors)
	}
}

func TestBulkCreatePunchesValidationFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{
			"message": "validation failed",
			"errors": ["row 0: direction must be in or out", "row 1: employeeId is required"]
		}`))
	})

	_, err := client.BulkCreatePunches(context.Background(), "tok", samplePunchPayloads())
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr.Kind != KindValidation {
		t.Errorf("expected validation kind, got %d", apiErr.Kind)
	}
	if len(apiErr.Details) != 2 {
		t.Errorf("expected 2 validation details, got %+v", apiErr.Details)
	}
}

func TestGetWorkerStatsFallbackMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte(`{}`))
	})

	_, err := client.GetWorkerStats(context.Background(), "tok", time.Time{}, time.Time{})
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr.DisplayMessage() != "Error al obtener estadísticas de trabajadores" {
		t.Errorf("unexpected fallback message: %q", apiErr.DisplayMessage())
	}
}
