package platform

import (
	"bytes"
	"context"

	"github.com/DukeRupert/fetch/internal/storage"
)

// StorageBlobs adapts a storage.Storage to BlobStore.
type StorageBlobs struct {
	store   storage.Storage
	maxSize int64
}

// NewStorageBlobs wraps store. Blobs larger than maxSize bytes are refused;
// 0 disables the limit.
func NewStorageBlobs(store storage.Storage, maxSize int64) *StorageBlobs {
	return &StorageBlobs{store: store, maxSize: maxSize}
}

// Put stores data publicly at key. Keys are expected to be unique, so an
// existing object is an error.
func (b *StorageBlobs) Put(ctx context.Context, key string, data []byte) (Ref, error) {
	err := b.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		ContentType: storage.DetectContentType("", key, data),
		MaxSize:     b.maxSize,
		Public:      true,
	})
	if err != nil {
		return Ref{}, err
	}
	return Ref{Key: key}, nil
}

// PublicURL returns the permanent URL of a blob.
func (b *StorageBlobs) PublicURL(ctx context.Context, ref Ref) (string, error) {
	return b.store.URL(ctx, ref.Key, 0)
}
