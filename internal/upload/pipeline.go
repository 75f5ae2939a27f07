// Package upload publishes the kept photos of a selector collection: each
// photo is read from the library, cropped, stored as a blob and recorded as
// a post document.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/platform"
	"github.com/DukeRupert/fetch/internal/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCropSize is the edge length of uploaded photos in pixels.
	DefaultCropSize = 300

	// DefaultQuality is the JPEG quality of uploaded photos.
	DefaultQuality = 80

	defaultConcurrency = 6
)

// PhotoReader reads the photo behind a resolved library URI.
type PhotoReader interface {
	ReadURI(ctx context.Context, uri string) ([]byte, error)
}

// Config controls how a collection is published.
type Config struct {
	// Mode is per_photo (one post per photo) or batch (one post listing
	// every photo). Default: per_photo
	Mode domain.UploadMode

	// CropSize is the square edge in pixels. Default: 300
	CropSize int

	// Quality is the JPEG quality, 1-100. Default: 80
	Quality int

	// Concurrency bounds parallel photo uploads. Default: 6
	Concurrency int
}

// Validate fills defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.Mode == "" {
		c.Mode = domain.UploadModePerPhoto
	}
	if !c.Mode.IsValid() {
		return fmt.Errorf("unknown upload mode %q", c.Mode)
	}
	if c.CropSize == 0 {
		c.CropSize = DefaultCropSize
	}
	if c.CropSize < 16 || c.CropSize > 4096 {
		return fmt.Errorf("crop size must be between 16 and 4096, got %d", c.CropSize)
	}
	if c.Quality == 0 {
		c.Quality = DefaultQuality
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return nil
}

// SlotResult is what happened to one kept slot.
type SlotResult struct {
	Index  int
	URI    string
	Key    string // blob key, set once the blob landed
	URL    string
	PostID string // per_photo mode only
	Err    error
}

// Outcome reports every slot of an upload. In batch mode PostID holds the
// single post written, if any.
type Outcome struct {
	Results []SlotResult
	PostID  string
}

// Succeeded counts slots whose photo was stored and recorded.
func (o Outcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts slots that did not make it.
func (o Outcome) Failed() int {
	return len(o.Results) - o.Succeeded()
}

// post is the document shape written to the posts collection. The timestamp
// is assigned by the store.
type post struct {
	UserID    string   `json:"userId"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// Pipeline uploads collections for the current user.
type Pipeline struct {
	auth      platform.Auth
	blobs     platform.BlobStore
	docs      platform.DocumentStore
	transform Transformer
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline that crops with imaging.
func NewPipeline(auth platform.Auth, blobs platform.BlobStore, docs platform.DocumentStore, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid upload config: %w", err)
	}

	return &Pipeline{
		auth:      auth,
		blobs:     blobs,
		docs:      docs,
		transform: SquareCropper{Size: cfg.CropSize, Quality: cfg.Quality},
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Mode returns the configured upload mode.
func (p *Pipeline) Mode() domain.UploadMode {
	return p.cfg.Mode
}

// UploadCollection publishes every kept, non-empty slot of c, reading photos
// through photos. All slots are attempted concurrently and each runs to
// completion regardless of its siblings. The call succeeds only if every slot
// did; otherwise the first failure in slot order is returned as an
// UploadFailure and the photos that did land stay published.
func (p *Pipeline) UploadCollection(ctx context.Context, c domain.Collection, photos PhotoReader) (Outcome, error) {
	const op = "upload.collection"

	userID, ok := p.auth.CurrentUserID(ctx)
	if !ok {
		return Outcome{}, domain.Unauthorized(op, "Sign in to post photos.")
	}
	if c.AnyLoading() {
		return Outcome{}, domain.Busy(op, "Photos are still loading.")
	}

	var results []SlotResult
	for i, slot := range c {
		if slot.Kept && slot.URI != "" {
			results = append(results, SlotResult{Index: i, URI: slot.URI})
		}
	}
	if len(results) == 0 {
		return Outcome{}, domain.Invalid(op, "Keep at least one photo to post.")
	}

	logger := p.logger.With("user_id", userID, "photos", len(results), "mode", p.cfg.Mode)
	logger.Info("uploading collection")

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			r.Key, r.URL, r.PostID, r.Err = p.uploadOne(ctx, userID, r.URI, photos)
			return r.Err
		})
	}
	_ = g.Wait()

	out := Outcome{Results: results}

	if err := firstError(results); err != nil {
		logger.Warn("collection upload failed",
			"succeeded", out.Succeeded(),
			"failed", out.Failed(),
			"error", err,
		)
		return out, domain.UploadFailure(err, op)
	}

	if p.cfg.Mode == domain.UploadModeBatch {
		urls := make([]string, len(results))
		for i, r := range results {
			urls[i] = r.URL
		}
		id, err := p.docs.Insert(ctx, domain.PostsCollection, post{UserID: userID, ImageURLs: urls})
		if err != nil {
			for i := range out.Results {
				out.Results[i].Err = err
			}
			logger.Warn("batch post record failed", "error", err)
			return out, domain.UploadFailure(err, op)
		}
		out.PostID = id
	}

	logger.Info("collection uploaded", "post_id", out.PostID)
	return out, nil
}

// uploadOne runs read, transform, store and (per_photo) record for one slot.
func (p *Pipeline) uploadOne(ctx context.Context, userID, uri string, photos PhotoReader) (key, url, postID string, err error) {
	data, err := photos.ReadURI(ctx, uri)
	if err != nil {
		return "", "", "", fmt.Errorf("read %s: %w", uri, err)
	}

	jpeg, err := p.transform.Transform(data)
	if err != nil {
		return "", "", "", fmt.Errorf("transform %s: %w", uri, err)
	}

	key = storage.PostKey(userID, p.now())
	ref, err := p.blobs.Put(ctx, key, jpeg)
	if err != nil {
		return "", "", "", fmt.Errorf("store %s: %w", key, err)
	}

	url, err = p.blobs.PublicURL(ctx, ref)
	if err != nil {
		return key, "", "", fmt.Errorf("public url %s: %w", key, err)
	}

	if p.cfg.Mode == domain.UploadModeBatch {
		return key, url, "", nil
	}

	postID, err = p.docs.Insert(ctx, domain.PostsCollection, post{UserID: userID, ImageURL: url})
	if err != nil {
		return key, url, "", fmt.Errorf("record %s: %w", key, err)
	}
	return key, url, postID, nil
}

func firstError(results []SlotResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("%w (and %d more)", errs[0], len(errs)-1)
}
