package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// serveLogged runs one request through the logging middleware and returns the
// log output.
func serveLogged(t *testing.T, req *http.Request, status int) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	rec := httptest.NewRecorder()
	mw.Handler(next).ServeHTTP(rec, req)
	return buf.String(), rec
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "FetchApp/1.0")

	out, _ := serveLogged(t, req, http.StatusOK)

	for _, want := range []string{"GET", "/api/feed", "status=200", "192.168.1.1", "FetchApp/1.0", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log should contain %q, got: %s", want, out)
		}
	}
}

func TestRequestLoggingMiddleware_LogsClientIPFromProxy(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195, 70.41.3.18")

	out, _ := serveLogged(t, req, http.StatusOK)

	if !strings.Contains(out, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_ServerErrorsLogAtWarn(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/selector/confirm", nil)

	out, _ := serveLogged(t, req, http.StatusBadGateway)

	if !strings.Contains(out, "status=502") {
		t.Errorf("log should contain 502 status, got: %s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("5xx should log at WARN, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/feed?token=secrettoken123&page=2", nil)

	out, _ := serveLogged(t, req, http.StatusOK)

	if strings.Contains(out, "secrettoken123") {
		t.Errorf("log should NOT contain sensitive token value, got: %s", out)
	}
	if !strings.Contains(out, "page=2") {
		t.Errorf("log should keep harmless params, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_SetsRequestID(t *testing.T) {
	_, rec := serveLogged(t, httptest.NewRequest("GET", "/api/feed", nil), http.StatusOK)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	out, rec := serveLogged(t, req, http.StatusOK)
	if got := rec.Header().Get(RequestIDHeader); got != "client-id-1" {
		t.Errorf("request id = %q, want client-id-1", got)
	}
	if !strings.Contains(out, "client-id-1") {
		t.Errorf("log should contain the client request id, got: %s", out)
	}
}

func TestRequestLoggingMiddleware_CapturesFirstStatus(t *testing.T) {
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError) // ignored by net/http too
	})
	mw.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/signup", nil))

	if !strings.Contains(buf.String(), "status=201") {
		t.Errorf("log should contain the first status, got: %s", buf.String())
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/files/posts/a.jpg"} {
		out, _ := serveLogged(t, httptest.NewRequest("GET", path, nil), http.StatusOK)
		if out != "" {
			t.Errorf("%s should not be logged, got: %s", path, out)
		}
	}
}
