package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/fetch/internal/auth"
	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSelector struct {
	calls      []string
	lastUser   string
	lastIndex  int
	fetchErr   error
	confirmErr error
}

func (f *fakeSelector) state() service.SelectorState {
	return service.SelectorState{
		Slots:        domain.NewCollection(),
		Remaining:    domain.FetchLimit,
		Permission:   true,
		FetchAllowed: true,
		Action:       domain.SelectorActionFetch,
	}
}

func (f *fakeSelector) Start(ctx context.Context, userID string) (service.SelectorState, error) {
	f.calls, f.lastUser = append(f.calls, "start"), userID
	return f.state(), nil
}

func (f *fakeSelector) Get(ctx context.Context, userID string) (service.SelectorState, error) {
	f.calls, f.lastUser = append(f.calls, "get"), userID
	return f.state(), nil
}

func (f *fakeSelector) Fetch(ctx context.Context, userID string) (service.SelectorState, error) {
	f.calls, f.lastUser = append(f.calls, "fetch"), userID
	return f.state(), f.fetchErr
}

func (f *fakeSelector) Toggle(ctx context.Context, userID string, index int) (service.SelectorState, error) {
	f.calls, f.lastUser, f.lastIndex = append(f.calls, "toggle"), userID, index
	return f.state(), nil
}

func (f *fakeSelector) Confirm(ctx context.Context, userID string) (*service.ConfirmResult, error) {
	f.calls, f.lastUser = append(f.calls, "confirm"), userID
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &service.ConfirmResult{PostIDs: []string{"p1", "p2"}, Photos: 2}, nil
}

// selectorMux routes through RegisterRoutes with a middleware that signs in
// user when it is non-nil.
func selectorMux(sel service.SelectorService, user *domain.User) *http.ServeMux {
	signIn := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(auth.SetUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
	mux := http.NewServeMux()
	NewSelectorHandler(sel, discardLogger()).RegisterRoutes(mux, signIn)
	return mux
}

func TestSelectorHandler_Routes(t *testing.T) {
	user := &domain.User{ID: uuid.New()}

	cases := []struct {
		method, path string
		call         string
		status       int
	}{
		{"GET", "/api/selector", "get", http.StatusOK},
		{"POST", "/api/selector", "start", http.StatusCreated},
		{"POST", "/api/selector/fetch", "fetch", http.StatusOK},
		{"POST", "/api/selector/slots/3/toggle", "toggle", http.StatusOK},
		{"POST", "/api/selector/confirm", "confirm", http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.call, func(t *testing.T) {
			sel := &fakeSelector{}
			rec := httptest.NewRecorder()
			selectorMux(sel, user).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, []string{tc.call}, sel.calls)
			assert.Equal(t, user.ID.String(), sel.lastUser)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestSelectorHandler_StateBody(t *testing.T) {
	rec := httptest.NewRecorder()
	selectorMux(&fakeSelector{}, &domain.User{ID: uuid.New()}).ServeHTTP(rec, httptest.NewRequest("GET", "/api/selector", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body["slots"], domain.SlotCount)
	assert.EqualValues(t, domain.FetchLimit, body["remaining"])
	assert.Equal(t, true, body["fetchAllowed"])
}

func TestSelectorHandler_ToggleIndex(t *testing.T) {
	user := &domain.User{ID: uuid.New()}

	sel := &fakeSelector{}
	rec := httptest.NewRecorder()
	selectorMux(sel, user).ServeHTTP(rec, httptest.NewRequest("POST", "/api/selector/slots/5/toggle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, sel.lastIndex)

	for _, idx := range []string{"6", "-1", "two"} {
		sel := &fakeSelector{}
		rec := httptest.NewRecorder()
		selectorMux(sel, user).ServeHTTP(rec, httptest.NewRequest("POST", "/api/selector/slots/"+idx+"/toggle", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, idx)
		assert.Empty(t, sel.calls, idx)
	}
}

func TestSelectorHandler_Errors(t *testing.T) {
	user := &domain.User{ID: uuid.New()}

	cases := []struct {
		name   string
		sel    *fakeSelector
		path   string
		status int
		code   string
	}{
		{"budget", &fakeSelector{fetchErr: domain.BudgetExceeded("selector.begin_fetch")}, "/api/selector/fetch", http.StatusTooManyRequests, domain.EBUDGET},
		{"permission", &fakeSelector{fetchErr: domain.PermissionDenied("selector.begin_fetch")}, "/api/selector/fetch", http.StatusForbidden, domain.EPERMISSION},
		{"busy", &fakeSelector{fetchErr: domain.Busy("selector.begin_fetch", "A fetch is already running.")}, "/api/selector/fetch", http.StatusConflict, domain.EBUSY},
		{"no session", &fakeSelector{confirmErr: domain.NotFound("op", "selector session", "x")}, "/api/selector/confirm", http.StatusNotFound, domain.ENOTFOUND},
		{"upload", &fakeSelector{confirmErr: domain.UploadFailure(assert.AnError, "upload.collection")}, "/api/selector/confirm", http.StatusBadGateway, domain.EUPLOAD},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			selectorMux(tc.sel, user).ServeHTTP(rec, httptest.NewRequest("POST", tc.path, nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestSelectorHandler_RequiresUser(t *testing.T) {
	sel := &fakeSelector{}
	rec := httptest.NewRecorder()
	selectorMux(sel, nil).ServeHTTP(rec, httptest.NewRequest("POST", "/api/selector/fetch", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sel.calls)
}
