package jobs

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/fetch/internal/worker"
)

// SessionSweeper deletes sessions past their expiry.
type SessionSweeper interface {
	DeleteExpiredSessions(ctx context.Context) error
}

// ExpiredSessionsHandler runs the periodic session sweep.
type ExpiredSessionsHandler struct {
	sessions SessionSweeper
	logger   *slog.Logger
}

// NewExpiredSessionsHandler creates a new handler for session sweep jobs.
func NewExpiredSessionsHandler(sessions SessionSweeper, logger *slog.Logger) *ExpiredSessionsHandler {
	return &ExpiredSessionsHandler{sessions: sessions, logger: logger}
}

// Type returns the job type identifier.
func (h *ExpiredSessionsHandler) Type() string {
	return worker.JobTypeExpiredSessions
}

// Handle deletes expired sessions. The payload is ignored.
func (h *ExpiredSessionsHandler) Handle(ctx context.Context, _ []byte) error {
	return h.sessions.DeleteExpiredSessions(ctx)
}
