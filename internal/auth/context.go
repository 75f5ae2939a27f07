// Package auth carries the authenticated user through a request context.
//
// It is imported by middleware, handlers and the platform adapters, so it
// depends on nothing but domain.
package auth

import (
	"context"

	"github.com/DukeRupert/fetch/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// GetUser returns the authenticated user, or nil.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// SetUser stores a user in the context.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserID returns the authenticated user's ID as a string.
func UserID(ctx context.Context) (string, bool) {
	user := GetUser(ctx)
	if user == nil {
		return "", false
	}
	return user.ID.String(), true
}
