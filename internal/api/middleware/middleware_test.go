package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/":                                   "/",
		"/metrics":                            "/metrics",
		"/health/ready":                       "/health/ready",
		"/files/GeoLite2-City.mmdb":           "/files/{name}",
		"/files/":                             "/files/{name}",
		"/api/v1/databases/GeoLite2-ASN.mmdb": "/api/v1/databases/{name}",
		"/wp-admin":                           "other",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q): ожидалось %q, получено %q", in, want, got)
		}
	}
}

// TestRequestID_Generated проверяет генерацию идентификатора при его отсутствии.
func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("идентификатор запроса не попал в контекст")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("заголовок %s: ожидалось %q, получено %q", RequestIDHeader, seen, got)
	}
}

// TestRequestID_Propagated проверяет сохранение входящего идентификатора.
func TestRequestID_Propagated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "req-42" {
		t.Errorf("ожидалось req-42, получено %q", seen)
	}
}

// TestRequestLogger_Levels проверяет уровень записи в зависимости от статуса.
func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("body"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/x.mmdb", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("запись лога не является JSON: %v (%s)", err, buf.String())
		}
		if entry["level"] != tt.level {
			t.Errorf("статус %d: ожидался уровень %s, получен %v", tt.status, tt.level, entry["level"])
		}
		if entry["status"] != float64(tt.status) {
			t.Errorf("status: ожидалось %d, получено %v", tt.status, entry["status"])
		}
		if entry["bytes"] != float64(4) {
			t.Errorf("bytes: ожидалось 4, получено %v", entry["bytes"])
		}
	}
}

// TestMetricsMiddleware проверяет учёт запроса в счётчике.
func TestMetricsMiddleware(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/files/{name}", "404")
	before := testutil.ToFloat64(counter)

	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/does-not-exist.mmdb", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("gm_http_requests_total: ожидалось %v, получено %v", before+1, got)
	}
}
