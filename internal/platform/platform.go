// Package platform defines the backend capabilities the photo engine runs
// against: the current user, a document database and a blob store.
//
// Production adapters sit over the Postgres repository and the storage
// package; in-memory versions back the tests. All of them are constructed in
// main and passed down explicitly.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrDocumentNotFound is returned by Merge when no document has the given id.
var ErrDocumentNotFound = errors.New("document not found")

// Auth reports who is making the current call.
type Auth interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Ref identifies a stored blob.
type Ref struct {
	Key string
}

// BlobStore stores opaque bytes and hands out public URLs for them.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (Ref, error)
	PublicURL(ctx context.Context, ref Ref) (string, error)
}

// Order selects the ordering of a document query by server timestamp.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// Document is one stored record with its server-assigned id and timestamp.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// DocumentStore is an append-mostly collection store with server timestamps.
type DocumentStore interface {
	// Insert stores record (marshalled as JSON) and returns its id.
	Insert(ctx context.Context, collection string, record any) (string, error)

	// Query returns up to limit documents of a collection.
	Query(ctx context.Context, collection string, order Order, limit int) ([]Document, error)

	// Merge adds or replaces top-level fields of a document.
	Merge(ctx context.Context, collection, id string, patch any) error
}
