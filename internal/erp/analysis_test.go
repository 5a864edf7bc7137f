package erp

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollAnalysisReachesTerminalState(t *testing.T) {
	var polls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			w.Write([]byte(`{"data": {"status": "running"}}`))
			return
		}
		w.Write([]byte(`{
			"data": {
				"status": "succeeded",
				"lines": [
					{"productName": "Pulpo cocido", "lot": "L-230901", "netWeight": 120.5, "boxes": 10}
				]
			}
		}`))
	})

	result, err := client.PollAnalysis(context.Background(), "tok", "/api/v1/analysis/delivery-notes/42", 5*time.Millisecond, 10)
	if err != nil {
		t.Fatalf("PollAnalysis failed: %v", err)
	}
	if result.Status != AnalysisSucceeded {
		t.Errorf("expected succeeded status, got %q", result.Status)
	}
	if len(result.Lines) != 1 || result.Lines[0].NetWeight != 120.5 {
		t.Errorf("unexpected lines: %+v", result.Lines)
	}
	if got := atomic.LoadInt32(&polls); got != 3 {
		t.Errorf("expected 3 polls, got %d", got)
	}
}

func TestPollAnalysisFailedIsTerminal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"status": "failed", "error": "unreadable PDF"}}`))
	})

	result, err := client.PollAnalysis(context.Background(), "tok", "/api/v1/analysis/delivery-notes/42", 5*time.Millisecond, 10)
	if err != nil {
		t.Fatalf("failed status is terminal, not an error: %v", err)
	}
	if result.Status != AnalysisFailed || result.Error != "unreadable PDF" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestPollAnalysisGivesUpAfterMaxAttempts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"status": "running"}}`))
	})

	_, err := client.PollAnalysis(context.Background(), "tok", "/api/v1/analysis/delivery-notes/42", time.Millisecond, 3)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr.Kind != KindServer {
		t.Errorf("expected server kind, got %d", apiErr.Kind)
	}
	if apiErr.DisplayMessage() != "El análisis del albarán ha tardado demasiado" {
		t.Errorf("unexpected message: %q", apiErr.DisplayMessage())
	}
}

func TestPollAnalysisCancelledBetweenPolls(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"status": "running"}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
		close(done)
	}()

	_, err := client.PollAnalysis(ctx, "tok", "/api/v1/analysis/delivery-notes/42", time.Second, 100)
	<-done
	if !IsKind(err, KindNetwork) {
		t.Fatalf("expected network kind on cancellation, got %v", err)
	}
}

func TestSubmitAnalysisReturnsLocation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analysis/delivery-notes" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(201)
		w.Write([]byte(`{"data": {"location": "/api/v1/analysis/delivery-notes/42"}}`))
	})

	op, err := client.SubmitAnalysis(context.Background(), "tok", "analysis/2026-03-10/abc-albaran.pdf")
	if err != nil {
		t.Fatalf("SubmitAnalysis failed: %v", err)
	}
	if op.Location != "/api/v1/analysis/delivery-notes/42" {
		t.Errorf("unexpected location: %q", op.Location)
	}
}
