package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/platform"
	"github.com/DukeRupert/fetch/internal/service"
	"github.com/DukeRupert/fetch/internal/storage"
	"github.com/DukeRupert/fetch/internal/worker"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type thumbFixture struct {
	handler *FeedThumbnailHandler
	store   *storage.LocalStorage
	docs    *platform.MemoryDocuments
	postID  string
}

const photoKey = "posts/u1_1700000000000_0d6f6a8e-1b7c-4c59-a0f5-8e2b2f3b1c11.jpg"

func newThumbFixture(t *testing.T) *thumbFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, discardLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	img := imaging.New(600, 300, color.NRGBA{B: 255, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	require.NoError(t, store.Put(context.Background(), photoKey, &buf, storage.PutOptions{ContentType: "image/jpeg"}))

	docs := platform.NewMemoryDocuments()
	postID, err := docs.Insert(context.Background(), domain.PostsCollection, map[string]string{
		"userId":   "u1",
		"imageUrl": "http://localhost:8080/files/" + photoKey,
	})
	require.NoError(t, err)

	return &thumbFixture{
		handler: NewFeedThumbnailHandler(store, docs, service.NewImagingProcessor(), discardLogger()),
		store:   store,
		docs:    docs,
		postID:  postID,
	}
}

func payload(t *testing.T, p worker.FeedThumbnailPayload) []byte {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func TestFeedThumbnail_RendersAndRecords(t *testing.T) {
	f := newThumbFixture(t)
	ctx := context.Background()

	err := f.handler.Handle(ctx, payload(t, worker.FeedThumbnailPayload{PostID: f.postID, ImageKey: photoKey}))
	require.NoError(t, err)

	rc, _, err := f.store.Get(ctx, storage.ThumbnailKey(photoKey))
	require.NoError(t, err)
	defer rc.Close()
	img, err := imaging.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, domain.ThumbnailMaxWidth, img.Bounds().Dx())
	assert.Equal(t, domain.ThumbnailMaxWidth/2, img.Bounds().Dy())

	var post domain.Post
	require.NoError(t, f.docs.All(domain.PostsCollection)[0].Decode(&post))
	assert.Equal(t, "http://localhost:8080/files/"+storage.ThumbnailKey(photoKey), post.ThumbnailURL)
	assert.Equal(t, "u1", post.UserID, "merge keeps existing fields")

	// Retrying is harmless.
	require.NoError(t, f.handler.Handle(ctx, payload(t, worker.FeedThumbnailPayload{PostID: f.postID, ImageKey: photoKey})))
}

func TestFeedThumbnail_PermanentFailures(t *testing.T) {
	f := newThumbFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		payload []byte
	}{
		{"malformed payload", []byte("{")},
		{"missing fields", payload(t, worker.FeedThumbnailPayload{PostID: f.postID})},
		{"original gone", payload(t, worker.FeedThumbnailPayload{PostID: f.postID, ImageKey: "posts/gone.jpg"})},
		{"post gone", payload(t, worker.FeedThumbnailPayload{PostID: "nope", ImageKey: photoKey})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.handler.Handle(ctx, tc.payload)
			require.Error(t, err)
			assert.True(t, worker.IsPermanent(err), "%v", err)
		})
	}
}

type fakeSweeper struct {
	calls int
	err   error
}

func (s *fakeSweeper) DeleteExpiredSessions(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestExpiredSessions_Handle(t *testing.T) {
	sweeper := &fakeSweeper{}
	h := NewExpiredSessionsHandler(sweeper, discardLogger())

	assert.Equal(t, worker.JobTypeExpiredSessions, h.Type())
	require.NoError(t, h.Handle(context.Background(), []byte("{}")))
	assert.Equal(t, 1, sweeper.calls)

	sweeper.err = errors.New("db down")
	assert.Error(t, h.Handle(context.Background(), nil))
}
