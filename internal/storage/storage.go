// Package storage provides blob storage for uploaded photos.
//
// Two implementations exist:
// - LocalStorage: files on disk, served by the app under /files
// - ObjectStorage: any S3-compatible bucket (Cloudflare R2, AWS S3, MinIO)
//
// Keys are forward-slash paths. Post photos live under posts/ and their feed
// thumbnails under thumbnails/.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is the blob store used by the upload pipeline and the thumbnail job.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists if the key is taken and
	// opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for the object. An expires of 0 asks for a permanent
	// public URL where the backend has one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Detected from the key when empty.
	ContentType string

	// MaxSize rejects objects larger than this many bytes with ErrTooLarge.
	// 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object.
	Overwrite bool

	// Public marks the object world-readable where the backend supports ACLs.
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the directory files are written to, e.g. "./storage".
	BasePath string

	// BaseURL is the public prefix files are served from,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// ObjectConfig holds configuration for S3-compatible object storage.
type ObjectConfig struct {
	// Endpoint overrides the service endpoint. Empty means AWS S3; for R2
	// use NewR2Endpoint(accountID).
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the public bucket URL (custom domain). If empty, URL
	// returns presigned links.
	PublicURL string

	// Region defaults to "auto", which R2 accepts.
	Region string

	// UsePathStyle addresses the bucket as a path segment (MinIO).
	UsePathStyle bool
}

// Provider names accepted by STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
	ProviderS3    = "s3"
)

// NewR2Endpoint returns the Cloudflare R2 endpoint for an account.
func NewR2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// PostKey generates the key of an uploaded post photo.
// Format: posts/{userID}_{unixMillis}_{uuid}.jpg
//
// The uuid suffix keeps keys unique when several photos of one collection are
// uploaded within the same millisecond.
func PostKey(userID string, now time.Time) string {
	return fmt.Sprintf("posts/%s_%d_%s.jpg", userID, now.UnixMilli(), uuid.New())
}

// ThumbnailKey derives the thumbnail key for a post photo key.
// "posts/u_1_x.jpg" becomes "thumbnails/u_1_x.jpg".
func ThumbnailKey(postKey string) string {
	return "thumbnails/" + path.Base(postKey)
}

// KeyFromURL recovers the storage key from a URL produced by URL with
// expires 0, given the store's public base URL. Returns "" if the URL does
// not belong to the base.
func KeyFromURL(baseURL, rawURL string) string {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if baseURL == "" || !strings.HasPrefix(rawURL, prefix) {
		return ""
	}
	key := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key
}

// validateKey rejects empty keys, absolute keys and keys that climb out of
// the store with "..".
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
