package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StaticAuth is an Auth that always reports the same user. An empty UserID
// means nobody is signed in.
type StaticAuth struct {
	UserID string
}

// CurrentUserID implements Auth.
func (a StaticAuth) CurrentUserID(context.Context) (string, bool) {
	return a.UserID, a.UserID != ""
}

// MemoryBlobs is an in-memory BlobStore.
type MemoryBlobs struct {
	// BaseURL prefixes public URLs.
	BaseURL string

	// FailPut, when set, is consulted before each Put; a non-nil result fails
	// that Put.
	FailPut func(key string) error

	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryBlobs returns an empty store serving URLs under baseURL.
func NewMemoryBlobs(baseURL string) *MemoryBlobs {
	return &MemoryBlobs{BaseURL: baseURL, blobs: map[string][]byte{}}
}

// Put implements BlobStore.
func (b *MemoryBlobs) Put(ctx context.Context, key string, data []byte) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	if b.FailPut != nil {
		if err := b.FailPut(key); err != nil {
			return Ref{}, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[key]; ok {
		return Ref{}, fmt.Errorf("blob %q already exists", key)
	}
	b.blobs[key] = append([]byte(nil), data...)
	return Ref{Key: key}, nil
}

// PublicURL implements BlobStore.
func (b *MemoryBlobs) PublicURL(ctx context.Context, ref Ref) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[ref.Key]; !ok {
		return "", fmt.Errorf("blob %q not found", ref.Key)
	}
	return b.BaseURL + "/" + ref.Key, nil
}

// Get returns a stored blob.
func (b *MemoryBlobs) Get(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	return data, ok
}

// Keys returns every stored key, sorted.
func (b *MemoryBlobs) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.blobs))
	for k := range b.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MemoryDocuments is an in-memory DocumentStore. Timestamps come from Now,
// which defaults to time.Now.
type MemoryDocuments struct {
	Now func() time.Time

	mu   sync.Mutex
	docs map[string][]Document
	seq  int
}

// NewMemoryDocuments returns an empty store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{Now: time.Now, docs: map[string][]Document{}}
}

// Insert implements DocumentStore.
func (s *MemoryDocuments) Insert(ctx context.Context, collection string, record any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	doc := Document{
		ID:        uuid.NewString(),
		Data:      data,
		CreatedAt: s.Now().Add(time.Duration(s.seq) * time.Nanosecond),
	}
	s.docs[collection] = append(s.docs[collection], doc)
	return doc.ID, nil
}

// Query implements DocumentStore.
func (s *MemoryDocuments) Query(ctx context.Context, collection string, order Order, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	docs := append([]Document(nil), s.docs[collection]...)
	s.mu.Unlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if order == OldestFirst {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Merge implements DocumentStore.
func (s *MemoryDocuments) Merge(ctx context.Context, collection, id string, patch any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patchData, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patchData, &fields); err != nil {
		return fmt.Errorf("patch must be an object: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.docs[collection] {
		if doc.ID != id {
			continue
		}
		current := map[string]json.RawMessage{}
		if err := json.Unmarshal(doc.Data, &current); err != nil {
			return err
		}
		for k, v := range fields {
			current[k] = v
		}
		merged, err := json.Marshal(current)
		if err != nil {
			return err
		}
		s.docs[collection][i].Data = merged
		return nil
	}
	return ErrDocumentNotFound
}

// All returns every document of a collection in insertion order.
func (s *MemoryDocuments) All(collection string) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Document(nil), s.docs[collection]...)
}
