// Package library provides access to the user's photo library.
//
// The Library interface mirrors what a device media library offers: a
// permission prompt, cursor-based pagination over photo assets and resolution
// of an asset ID to a locally readable URI. Source builds the full candidate
// pool the sampler draws from.
package library

import (
	"context"
	"errors"

	"github.com/DukeRupert/fetch/internal/domain"
)

// DefaultPageSize is how many assets are requested per page.
const DefaultPageSize = 100

var (
	// ErrPermissionDenied is returned by a Library when access was not granted.
	ErrPermissionDenied = errors.New("photo library access not granted")

	// ErrInvalidCursor is returned when a cursor was not produced by this
	// library or belongs to an index that has since been rebuilt.
	ErrInvalidCursor = errors.New("invalid library cursor")

	// ErrOutsideLibrary is returned when a URI does not point into the library.
	ErrOutsideLibrary = errors.New("uri is outside the photo library")
)

// Page is one page of assets.
type Page struct {
	Items      []domain.Asset
	NextCursor string
	HasMore    bool
}

// Library is the device media library capability.
type Library interface {
	// RequestPermission asks for read access to the library.
	RequestPermission(ctx context.Context) (bool, error)

	// ListPage returns up to first assets after cursor. An empty cursor starts
	// from the beginning. Returns ErrPermissionDenied without access.
	ListPage(ctx context.Context, cursor string, first int) (Page, error)

	// ResolveLocalURI returns a locally readable URI for an asset. An empty
	// string with a nil error means the asset has no local copy.
	ResolveLocalURI(ctx context.Context, id string) (string, error)
}
