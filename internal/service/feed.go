// This file implements the home feed: the most recent posts, newest first.
package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/platform"
)

// FeedService reads the post feed.
type FeedService interface {
	// Recent returns the newest posts. The feed is a fixed window; there is
	// no pagination.
	Recent(ctx context.Context) ([]domain.Post, error)
}

type feedService struct {
	docs   platform.DocumentStore
	limit  int
	logger *slog.Logger
}

// NewFeedService creates a FeedService. A non-positive limit means
// domain.DefaultFeedLimit.
func NewFeedService(docs platform.DocumentStore, limit int, logger *slog.Logger) FeedService {
	if limit <= 0 {
		limit = domain.DefaultFeedLimit
	}
	return &feedService{docs: docs, limit: limit, logger: logger}
}

func (s *feedService) Recent(ctx context.Context) ([]domain.Post, error) {
	const op = "FeedService.Recent"

	docs, err := s.docs.Query(ctx, domain.PostsCollection, platform.NewestFirst, s.limit)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load feed")
	}

	posts := make([]domain.Post, 0, len(docs))
	for _, d := range docs {
		var p domain.Post
		if err := d.Decode(&p); err != nil {
			s.logger.Warn("skipping malformed post", "post_id", d.ID, "error", err)
			continue
		}
		p.ID = d.ID
		p.CreatedAt = d.CreatedAt
		posts = append(posts, p)
	}
	return posts, nil
}
