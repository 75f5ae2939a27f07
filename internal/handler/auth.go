// Package handler contains the HTTP handlers of the fetch API.
//
// This file implements sign-up, login and logout. Sessions are returned both
// as a cookie and in the response body so web and mobile clients can use
// the same endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/fetch/internal/auth"
	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/service"
	"github.com/DukeRupert/fetch/internal/session"
)

// LoginLimiter tracks failed logins per client.
type LoginLimiter interface {
	RecordFailedLogin(r *http.Request)
	ResetLogin(r *http.Request)
}

// AuthRoutes holds the middleware applied to individual auth routes.
type AuthRoutes struct {
	Login       func(http.Handler) http.Handler
	Signup      func(http.Handler) http.Handler
	RequireUser func(http.Handler) http.Handler
}

// AuthHandler handles authentication requests.
//
// Routes handled:
// - POST /api/signup -> Signup
// - POST /api/login  -> Login
// - POST /api/logout -> Logout
// - GET  /api/me     -> Me
type AuthHandler struct {
	users    service.UserService
	limiter  LoginLimiter
	logger   *slog.Logger
	isSecure bool
}

// NewAuthHandler creates a new AuthHandler. limiter may be nil.
func NewAuthHandler(users service.UserService, limiter LoginLimiter, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		users:    users,
		limiter:  limiter,
		logger:   logger,
		isSecure: isSecure,
	}
}

// =============================================================================
// Request and Response Types
// =============================================================================

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionResponse is returned by sign-up and login.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// =============================================================================
// Handlers
// =============================================================================

// Signup creates an account and signs it in.
//
// POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), user.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID)
	h.startSession(w, http.StatusCreated, result)
}

// Login authenticates a user and starts a session.
//
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.limiter != nil && domain.ErrorCode(err) == domain.EUNAUTHORIZED {
			h.limiter.RecordFailedLogin(r)
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if h.limiter != nil {
		h.limiter.ResetLogin(r)
	}
	h.startSession(w, http.StatusOK, result)
}

// Logout ends the current session. It succeeds without a session.
//
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := session.TokenFromRequest(r)
	if token != "" {
		if err := h.users.Logout(r.Context(), token); err != nil {
			h.logger.Warn("failed to delete session", "error", err)
		}
	}

	session.ClearCookie(w, h.isSecure)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
//
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, result *domain.LoginResult) {
	session.SetCookie(w, result.Token, result.ExpiresAt, h.isSecure)
	writeJSON(w, status, SessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.User),
	})
}

// RegisterRoutes registers the auth routes on mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, routes AuthRoutes) {
	mux.Handle("POST /api/signup", wrap(routes.Signup, http.HandlerFunc(h.Signup)))
	mux.Handle("POST /api/login", wrap(routes.Login, http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.Handle("GET /api/me", wrap(routes.RequireUser, http.HandlerFunc(h.Me)))
}

func wrap(mw func(http.Handler) http.Handler, h http.Handler) http.Handler {
	if mw == nil {
		return h
	}
	return mw(h)
}
