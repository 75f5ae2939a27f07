package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveMetrics(mw *MetricsAuthMiddleware, setup func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/metrics", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("metrics data"))
	})).ServeHTTP(rec, req)
	return rec
}

func TestMetricsAuthMiddleware_Credentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	testCases := []struct {
		name     string
		user     string
		pass     string
		expected int
	}{
		{"valid", "admin", "secret123", http.StatusOK},
		{"wrong password", "admin", "wrong", http.StatusUnauthorized},
		{"wrong user", "wrong", "secret123", http.StatusUnauthorized},
		{"both wrong", "wrong", "wrong", http.StatusUnauthorized},
		{"prefix of password", "admin", "secret", http.StatusUnauthorized},
		{"empty", "", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveMetrics(mw, func(r *http.Request) { r.SetBasicAuth(tc.user, tc.pass) })
			if rec.Code != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestMetricsAuthMiddleware_RejectsMissingOrMalformedAuth(t *testing.T) {
	mw := NewMetricsAuthMiddleware("admin", "secret123")

	rec := serveMetrics(mw, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="fetch metrics"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}

	rec = serveMetrics(mw, func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!notbase64") })
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for malformed header, got %d", rec.Code)
	}

	injected := base64.StdEncoding.EncodeToString([]byte("admin:secret123\r\nX-Injected: header"))
	rec = serveMetrics(mw, func(r *http.Request) { r.Header.Set("Authorization", "Basic "+injected) })
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for injection attempt, got %d", rec.Code)
	}
}

func TestMetricsAuthMiddleware_DisabledWhenNoCredentials(t *testing.T) {
	rec := serveMetrics(NewMetricsAuthMiddleware("", ""), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 when auth is disabled, got %d", rec.Code)
	}
}
