package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_RecentNewestFirstWithLimit(t *testing.T) {
	docs := platform.NewMemoryDocuments()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		docs.Now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, err := docs.Insert(ctx, domain.PostsCollection, map[string]string{
			"userId":   "u1",
			"imageUrl": fmt.Sprintf("https://cdn.test/%d.jpg", i),
		})
		require.NoError(t, err)
	}

	svc := NewFeedService(docs, 3, slog.New(slog.NewTextHandler(io.Discard, nil)))
	posts, err := svc.Recent(ctx)
	require.NoError(t, err)

	require.Len(t, posts, 3)
	assert.Equal(t, "https://cdn.test/4.jpg", posts[0].ImageURL)
	assert.Equal(t, "https://cdn.test/2.jpg", posts[2].ImageURL)
	for _, p := range posts {
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "u1", p.UserID)
		assert.False(t, p.CreatedAt.IsZero())
	}
}

func TestFeed_DefaultLimitAndBatchPosts(t *testing.T) {
	docs := platform.NewMemoryDocuments()
	ctx := context.Background()
	for i := 0; i < domain.DefaultFeedLimit+5; i++ {
		_, err := docs.Insert(ctx, domain.PostsCollection, map[string]any{
			"userId":    "u1",
			"imageUrls": []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg"},
		})
		require.NoError(t, err)
	}

	svc := NewFeedService(docs, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	posts, err := svc.Recent(ctx)
	require.NoError(t, err)

	assert.Len(t, posts, domain.DefaultFeedLimit)
	assert.Equal(t, []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg"}, posts[0].URLs())
}

func TestFeed_EmptyFeed(t *testing.T) {
	svc := NewFeedService(platform.NewMemoryDocuments(), 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	posts, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}
