package hydrotop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const matrixResponse = `{
	"status": "success",
	"data": {
		"resultType": "matrix",
		"result": [{
			"metric": {"__name__": "ph_value", "instance": "board:7000"},
			"values": [[1714564800, "6.1"], [1714568400, "6.25"]]
		}]
	}
}`

func newTestPrometheusHistory(t *testing.T, handler http.HandlerFunc) *PrometheusHistory {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	p, err := NewPrometheusHistory(u, "", time.Second, nil, NewMetrics(nil))
	if err != nil {
		t.Fatalf("new prometheus history: %v", err)
	}
	p.now = func() time.Time { return time.Unix(1714568400, 0) }
	return p
}

func TestPrometheusHistoryFetch(t *testing.T) {
	var form url.Values
	p := newTestPrometheusHistory(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query_range" {
			http.NotFound(w, r)
			return
		}
		r.ParseForm()
		form = r.Form
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(matrixResponse))
	})

	samples, ok := p.Fetch(context.Background(), MetricPH, "-7d", "1h")
	if !ok {
		t.Fatal("fetch should succeed")
	}
	if got := form.Get("query"); got != "avg_over_time(ph_value[1h])" {
		t.Fatalf("unexpected query %q", got)
	}
	if got := form.Get("step"); got != "3600" {
		t.Fatalf("step should equal the window, got %q", got)
	}
	start, _ := strconv.ParseFloat(form.Get("start"), 64)
	if want := float64(1714568400 - 7*24*3600); start != want {
		t.Fatalf("start: got %v, want %v", start, want)
	}
	if len(samples) != 2 || samples[1].Value != 6.25 || !samples[0].Time.Equal(time.Unix(1714564800, 0)) {
		t.Fatalf("unexpected samples %+v", samples)
	}
}

func TestPrometheusHistoryEmptyMatrix(t *testing.T) {
	p := newTestPrometheusHistory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "data": {"resultType": "matrix", "result": []}}`))
	})
	samples, ok := p.Fetch(context.Background(), MetricTemperature, "-1h", "5m")
	if !ok || len(samples) != 0 {
		t.Fatalf("no series is a successful empty fetch: ok=%v samples=%v", ok, samples)
	}
}

func TestPrometheusHistoryFailure(t *testing.T) {
	p := newTestPrometheusHistory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": "error", "errorType": "bad_data", "error": "parse error"}`))
	})
	if _, ok := p.Fetch(context.Background(), MetricTemperature, "-1h", "5m"); ok {
		t.Fatal("API error should fail the fetch")
	}
	if _, ok := p.Fetch(context.Background(), MetricTemperature, "soon", "5m"); ok {
		t.Fatal("bad offset should fail the fetch")
	}
}

func TestParseOffset(t *testing.T) {
	tests := map[string]time.Duration{
		"-1h":   time.Hour,
		"-1d":   24 * time.Hour,
		"-30d":  30 * 24 * time.Hour,
		"-365d": 365 * 24 * time.Hour,
		"15m":   15 * time.Minute,
	}
	for in, want := range tests {
		got, err := ParseOffset(in)
		if err != nil || got != want {
			t.Errorf("ParseOffset(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseOffset("-1 week"); err == nil {
		t.Error("expected error for an unparseable offset")
	}
}
