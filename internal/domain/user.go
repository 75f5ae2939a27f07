// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository models so the service layer can
// work with plain Go types instead of sql.Null* values.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string // Never expose this in API responses
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the username or email if the username is empty.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored with a hashed token; the raw token is only handed to the
// client once, at login.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the parameters for sign-up.
type RegisterParams struct {
	Username string
	Email    string
	Password string // Raw password, hashed by the service
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User      *User
	Token     string // Raw session token, only returned once
	ExpiresAt time.Time
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue returns the zero time for invalid values.
func NullTimeValue(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}

// ToNullString converts a string to sql.NullString (empty string = NULL).
func ToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
