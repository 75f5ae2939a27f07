package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/service"
)

// FeedHandler serves the newest posts.
type FeedHandler struct {
	feed   service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feed service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// FeedResponse is the body of GET /api/feed.
type FeedResponse struct {
	Posts []domain.Post `json:"posts"`
}

// List returns recent posts, newest first.
//
// GET /api/feed
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.Recent(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	writeJSON(w, http.StatusOK, FeedResponse{Posts: posts})
}

// RegisterRoutes registers the feed route behind requireUser.
func (h *FeedHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/feed", wrap(requireUser, http.HandlerFunc(h.List)))
}
