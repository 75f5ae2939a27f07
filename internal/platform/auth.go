package platform

import (
	"context"

	"github.com/DukeRupert/fetch/internal/auth"
)

// ContextAuth reads the user the auth middleware put on the request context.
type ContextAuth struct{}

// CurrentUserID implements Auth.
func (ContextAuth) CurrentUserID(ctx context.Context) (string, bool) {
	return auth.UserID(ctx)
}
