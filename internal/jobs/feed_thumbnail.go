// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/platform"
	"github.com/DukeRupert/fetch/internal/service"
	"github.com/DukeRupert/fetch/internal/storage"
	"github.com/DukeRupert/fetch/internal/worker"
)

// FeedThumbnailHandler renders a small thumbnail for a post photo, stores it
// under thumbnails/ and records its URL on the post as thumbnailUrl.
type FeedThumbnailHandler struct {
	storage   storage.Storage
	docs      platform.DocumentStore
	processor service.ThumbnailProcessor
	logger    *slog.Logger
}

// NewFeedThumbnailHandler creates a new handler for feed thumbnail jobs.
func NewFeedThumbnailHandler(
	storage storage.Storage,
	docs platform.DocumentStore,
	processor service.ThumbnailProcessor,
	logger *slog.Logger,
) *FeedThumbnailHandler {
	return &FeedThumbnailHandler{
		storage:   storage,
		docs:      docs,
		processor: processor,
		logger:    logger,
	}
}

// Type returns the job type identifier.
func (h *FeedThumbnailHandler) Type() string {
	return worker.JobTypeFeedThumbnail
}

// Handle executes the thumbnail job. Rerunning it overwrites the thumbnail,
// so retries are safe.
func (h *FeedThumbnailHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.FeedThumbnailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.PostID == "" || p.ImageKey == "" {
		return worker.NewPermanentError(errors.New("payload missing post_id or image_key"))
	}

	rc, _, err := h.storage.Get(ctx, p.ImageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return worker.NewPermanentError(fmt.Errorf("original photo gone: %w", err))
		}
		return fmt.Errorf("get original: %w", err)
	}
	defer rc.Close()

	thumb, width, height, err := h.processor.GenerateThumbnail(rc, domain.ThumbnailMaxWidth, domain.ThumbnailMaxHeight)
	if err != nil {
		return worker.NewPermanentError(fmt.Errorf("generate thumbnail: %w", err))
	}

	thumbKey := storage.ThumbnailKey(p.ImageKey)
	err = h.storage.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
		Public:      true,
	})
	if err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}

	url, err := h.storage.URL(ctx, thumbKey, 0)
	if err != nil {
		return fmt.Errorf("thumbnail url: %w", err)
	}

	err = h.docs.Merge(ctx, domain.PostsCollection, p.PostID, map[string]string{"thumbnailUrl": url})
	if err != nil {
		if errors.Is(err, platform.ErrDocumentNotFound) {
			return worker.NewPermanentError(fmt.Errorf("post %s not found: %w", p.PostID, err))
		}
		return fmt.Errorf("record thumbnail: %w", err)
	}

	h.logger.Info("feed thumbnail rendered",
		"post_id", p.PostID,
		"key", thumbKey,
		"original_width", width,
		"original_height", height,
	)
	return nil
}
