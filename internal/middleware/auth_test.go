package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DukeRupert/fetch/internal/auth"
	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/session"
	"github.com/google/uuid"
)

// =============================================================================
// Mock SessionResolver
// =============================================================================

type mockSessions struct {
	GetBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockSessions) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, domain.Unauthorized("test", "no session")
}

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that only shows errors.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestAuthMiddleware(mock *mockSessions) *AuthMiddleware {
	return NewAuthMiddleware(mock, newTestLogger(), false)
}

func testUser() *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		Username: "jane",
		Email:    "jane@example.com",
	}
}

// =============================================================================
// WithUser Middleware Tests
// =============================================================================

func TestWithUser_NoToken_ContinuesWithoutUser(t *testing.T) {
	mw := newTestAuthMiddleware(&mockSessions{})

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if user := auth.GetUser(r.Context()); user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/feed", nil)
	rec := httptest.NewRecorder()
	mw.WithUser(next).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestWithUser_ValidCookie_SetsUserInContext(t *testing.T) {
	expected := testUser()
	mock := &mockSessions{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "valid-token-123" {
				t.Errorf("GetBySessionToken called with token = %q, want %q", token, "valid-token-123")
			}
			return expected, nil
		},
	}
	mw := newTestAuthMiddleware(mock)

	var captured *domain.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = auth.GetUser(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "valid-token-123"})
	mw.WithUser(next).ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("user not set in context")
	}
	if captured.ID != expected.ID {
		t.Errorf("user.ID = %v, want %v", captured.ID, expected.ID)
	}
}

func TestWithUser_BearerToken_SetsUserID(t *testing.T) {
	expected := testUser()
	mock := &mockSessions{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "mobile-token" {
				t.Errorf("token = %q, want %q", token, "mobile-token")
			}
			return expected, nil
		},
	}
	mw := newTestAuthMiddleware(mock)

	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = auth.UserID(r.Context())
	})

	req := httptest.NewRequest("POST", "/api/selector/fetch", nil)
	req.Header.Set("Authorization", "Bearer mobile-token")
	mw.WithUser(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotID != expected.ID.String() {
		t.Errorf("user id = %q, want %q", gotID, expected.ID.String())
	}
}

func TestWithUser_InvalidCookie_ClearsAndContinues(t *testing.T) {
	mw := newTestAuthMiddleware(&mockSessions{})

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if user := auth.GetUser(r.Context()); user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	})

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	mw.WithUser(next).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge == -1 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid session cookie was not cleared")
	}
}

func TestWithUser_InvalidBearer_DoesNotTouchCookies(t *testing.T) {
	mw := newTestAuthMiddleware(&mockSessions{})

	req := httptest.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if n := len(rec.Result().Cookies()); n != 0 {
		t.Errorf("expected no cookies, got %d", n)
	}
}

// =============================================================================
// RequireUser Middleware Tests
// =============================================================================

func TestRequireUser_WithUser_ContinuesToHandler(t *testing.T) {
	mw := newTestAuthMiddleware(&mockSessions{})

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/selector", nil)
	req = req.WithContext(auth.SetUser(req.Context(), testUser()))
	rec := httptest.NewRecorder()
	mw.RequireUser(next).ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("handler was not called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireUser_NoUser_Returns401JSON(t *testing.T) {
	mw := newTestAuthMiddleware(&mockSessions{})

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest("POST", "/api/selector/confirm", nil)
	rec := httptest.NewRecorder()
	mw.RequireUser(next).ServeHTTP(rec, req)

	if handlerCalled {
		t.Error("handler should not be called without a user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != domain.EUNAUTHORIZED {
		t.Errorf("error code = %q, want %q", body.Error.Code, domain.EUNAUTHORIZED)
	}
}

func TestStack_AppliesInOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(mark("outer"), mark("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}
