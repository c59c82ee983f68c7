package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
	"github.com/meltforce/zeppvault/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQueryHeartRate verifies the HTTP client hits the per-day path and
// unwraps the samples array from the response envelope.
func TestQueryHeartRate(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/heartrate/2026-02-06": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{
				"date":  "2026-02-06",
				"count": 2,
				"samples": []models.HeartRateSample{
					{MinuteOfDay: 480, BPM: 62},
					{MinuteOfDay: 481, BPM: 64},
				},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	date, _ := models.ParseDate("2026-02-06")

	samples, err := client.QueryHeartRate(context.Background(), date)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[1].BPM != 64 {
		t.Errorf("bpm=%d, want 64", samples[1].BPM)
	}
}

// TestQueryStepSummaryNotFound verifies a 404 becomes (nil, nil), matching
// the storage layer's behavior for missing days.
func TestQueryStepSummaryNotFound(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/steps/2026-02-06": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			writeTestJSON(t, w, map[string]string{"error": "no step data for 2026-02-06"})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	date, _ := models.ParseDate("2026-02-06")

	summary, err := client.QueryStepSummary(context.Background(), date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != nil {
		t.Errorf("summary = %+v, want nil", summary)
	}
}

// TestGetSleepSummaryParams verifies the bucket is translated to the REST
// agg parameter and the time range is sent as RFC3339.
func TestGetSleepSummaryParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sleep/summary": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("agg"); got != "monthly" {
				t.Errorf("agg=%q, want monthly", got)
			}
			if got := r.URL.Query().Get("start"); got == "" {
				t.Error("missing start param")
			}
			writeTestJSON(t, w, []storage.SleepSummaryPeriod{
				{Period: "2026-02-01", Nights: 28},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	periods, err := client.GetSleepSummary(context.Background(), start, end, "1 month")
	if err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 || periods[0].Nights != 28 {
		t.Fatalf("periods = %+v, want one period with 28 nights", periods)
	}
}

// TestQueryDayRecordServerError verifies non-404 error statuses surface as errors.
func TestQueryDayRecordServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/summary/2026-02-06": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			writeTestJSON(t, w, map[string]string{"error": "boom"})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	date, _ := models.ParseDate("2026-02-06")

	if _, err := client.QueryDayRecord(context.Background(), date); err == nil {
		t.Error("expected error for 500 response")
	}
}

// TestGetDataStats verifies the stats endpoint round-trips.
func TestGetDataStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.DataStats{TotalDays: 90, TotalSleepNights: 85})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	stats, err := client.GetDataStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDays != 90 || stats.TotalSleepNights != 85 {
		t.Errorf("stats = %+v, want 90 days / 85 nights", stats)
	}
}
