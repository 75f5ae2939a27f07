package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, logger)
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetDelete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	key := "posts/u1_1700000000000_abc.jpg"

	require.NoError(t, s.Put(ctx, key, strings.NewReader("jpeg bytes"), PutOptions{ContentType: "image/jpeg"}))

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "delete is idempotent")

	_, _, err = s.Get(ctx, key)
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_PutRespectsOverwrite(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.jpg", strings.NewReader("1"), PutOptions{}))

	err := s.Put(ctx, "a.jpg", strings.NewReader("2"), PutOptions{})
	assert.True(t, IsKeyExists(err))

	require.NoError(t, s.Put(ctx, "a.jpg", strings.NewReader("3"), PutOptions{Overwrite: true}))
	rc, _, err := s.Get(ctx, "a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "3", string(data))
}

func TestLocalStorage_PutTooLarge(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.jpg", bytes.NewReader(make([]byte, 11)), PutOptions{MaxSize: 10})
	assert.True(t, IsTooLarge(err))

	exists, err := s.Exists(ctx, "big.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.jpg", "posts/../../escape.jpg", "/abs.jpg"} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}
}

func TestLocalStorage_URL(t *testing.T) {
	s := newTestLocal(t)

	url, err := s.URL(context.Background(), "posts/a.jpg", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/posts/a.jpg", url)
	assert.Equal(t, "posts/a.jpg", KeyFromURL("http://localhost:8080/files", url))
}

func TestPostKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	a := PostKey("user-1", now)
	b := PostKey("user-1", now)

	pattern := regexp.MustCompile(`^posts/user-1_1700000000123_[0-9a-f-]{36}\.jpg$`)
	assert.Regexp(t, pattern, a)
	assert.NotEqual(t, a, b, "keys in the same millisecond must differ")
	assert.Equal(t, "thumbnails/"+strings.TrimPrefix(a, "posts/"), ThumbnailKey(a))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		url  string
		want string
	}{
		{"public url", "https://cdn.example.com", "https://cdn.example.com/posts/a.jpg", "posts/a.jpg"},
		{"trailing slash base", "https://cdn.example.com/", "https://cdn.example.com/posts/a.jpg", "posts/a.jpg"},
		{"query stripped", "https://cdn.example.com", "https://cdn.example.com/posts/a.jpg?v=1", "posts/a.jpg"},
		{"foreign url", "https://cdn.example.com", "https://other.example.com/posts/a.jpg", ""},
		{"no base", "", "https://cdn.example.com/posts/a.jpg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFromURL(tt.base, tt.url))
		})
	}
}

func TestSniffImageType(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	heic := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")

	assert.Equal(t, "image/jpeg", SniffImageType(jpeg))
	assert.Equal(t, "image/png", SniffImageType(png))
	assert.Equal(t, "image/heic", SniffImageType(heic))
	assert.True(t, IsAllowedImageType("image/jpeg; charset=binary"))
	assert.False(t, IsAllowedImageType(SniffImageType([]byte("hello world"))))
}
