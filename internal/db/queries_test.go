package db

import (
	"testing"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

func TestInsertAPICall(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	call := &models.APICall{
		Method:     "GET",
		Path:       "/api/analysis/latest",
		StatusCode: 200,
		DurationMs: 150,
		Outcome:    "ok",
		RequestID:  "req-123",
	}

	if err := db.InsertAPICall(call); err != nil {
		t.Fatalf("InsertAPICall() failed: %v", err)
	}

	if call.ID == 0 {
		t.Error("InsertAPICall() should set ID")
	}
}

func TestInsertAPICall_DefaultsOutcome(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.InsertAPICall(&models.APICall{Method: "GET", Path: "/x"}); err != nil {
		t.Fatalf("InsertAPICall() failed: %v", err)
	}

	calls, err := db.GetRecentAPICalls(1)
	if err != nil {
		t.Fatalf("GetRecentAPICalls() failed: %v", err)
	}
	if len(calls) != 1 || calls[0].Outcome != "ok" {
		t.Errorf("expected default outcome ok, got %+v", calls)
	}
}

func TestGetRecentAPICalls(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i, path := range []string{"/a", "/b", "/c"} {
		call := &models.APICall{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Method:     "GET",
			Path:       path,
			StatusCode: 500,
			Outcome:    "error",
			Error:      "boom",
		}
		if err := db.InsertAPICall(call); err != nil {
			t.Fatalf("InsertAPICall() failed: %v", err)
		}
	}

	calls, err := db.GetRecentAPICalls(2)
	if err != nil {
		t.Fatalf("GetRecentAPICalls() failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Path != "/c" || calls[1].Path != "/b" {
		t.Errorf("expected newest first, got %s, %s", calls[0].Path, calls[1].Path)
	}
	if calls[0].Error != "boom" {
		t.Errorf("Error = %q, want boom", calls[0].Error)
	}
	if !calls[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("Timestamp = %v, want %v", calls[0].Timestamp, base.Add(2*time.Minute))
	}
}

func TestGetCallStats(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	calls := []models.APICall{
		{Method: "GET", Path: "/api/analysis/latest", Outcome: "ok", DurationMs: 100},
		{Method: "GET", Path: "/api/analysis/latest", Outcome: "not_found", DurationMs: 50},
		{Method: "POST", Path: "/api/analysis/2024-03", Outcome: "error", DurationMs: 300},
		{Method: "GET", Path: "/user/info", Outcome: "unauthorized", DurationMs: 10},
	}
	for i := range calls {
		if err := db.InsertAPICall(&calls[i]); err != nil {
			t.Fatalf("InsertAPICall() failed: %v", err)
		}
	}

	stats, err := db.GetCallStats()
	if err != nil {
		t.Fatalf("GetCallStats() failed: %v", err)
	}

	if stats.TotalCalls != 4 {
		t.Errorf("TotalCalls = %d, want 4", stats.TotalCalls)
	}
	if stats.FailedCalls != 2 {
		t.Errorf("FailedCalls = %d, want 2", stats.FailedCalls)
	}
	if stats.Unauthorized != 1 {
		t.Errorf("Unauthorized = %d, want 1", stats.Unauthorized)
	}
	if stats.AvgDurationMs != 115 {
		t.Errorf("AvgDurationMs = %v, want 115", stats.AvgDurationMs)
	}
	if stats.MaxDurationMs != 300 {
		t.Errorf("MaxDurationMs = %d, want 300", stats.MaxDurationMs)
	}
	if stats.LastCall.IsZero() {
		t.Error("LastCall should be set")
	}
}

func TestGetCallStats_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	stats, err := db.GetCallStats()
	if err != nil {
		t.Fatalf("GetCallStats() failed: %v", err)
	}
	if stats.TotalCalls != 0 || !stats.LastCall.IsZero() {
		t.Errorf("expected empty stats, got %+v", stats)
	}
	if stats.SuccessRate() != 0 {
		t.Errorf("SuccessRate() = %v, want 0", stats.SuccessRate())
	}
}

func TestPruneAPICalls(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	old := &models.APICall{Timestamp: time.Now().Add(-48 * time.Hour), Method: "GET", Path: "/old"}
	recent := &models.APICall{Timestamp: time.Now(), Method: "GET", Path: "/new"}
	for _, c := range []*models.APICall{old, recent} {
		if err := db.InsertAPICall(c); err != nil {
			t.Fatalf("InsertAPICall() failed: %v", err)
		}
	}

	n, err := db.PruneAPICalls(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneAPICalls() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	calls, _ := db.GetRecentAPICalls(10)
	if len(calls) != 1 || calls[0].Path != "/new" {
		t.Errorf("unexpected remaining calls: %+v", calls)
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error("empty string should be invalid")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("nullString(x) = %+v", ns)
	}
}
