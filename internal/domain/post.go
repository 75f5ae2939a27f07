// Package domain contains core business types and interfaces.
//
// This file defines the Post type written by the upload pipeline and read by
// the feed.
package domain

import "time"

// PostsCollection is the document collection posts are written to.
const PostsCollection = "posts"

// DefaultFeedLimit is how many posts the feed returns.
const DefaultFeedLimit = 20

// UploadMode selects how a confirmed collection is recorded.
type UploadMode string

const (
	// UploadModePerPhoto writes one post per uploaded photo.
	UploadModePerPhoto UploadMode = "per_photo"

	// UploadModeBatch writes one post listing every uploaded photo.
	UploadModeBatch UploadMode = "batch"
)

// IsValid returns true if the mode is a recognized value.
func (m UploadMode) IsValid() bool {
	return m == UploadModePerPhoto || m == UploadModeBatch
}

// Post is a published photo (or set of photos) in the feed.
//
// Exactly one of ImageURL and ImageURLs is set depending on the upload mode.
type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	ImageURLs    []string  `json:"imageUrls,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"timestamp"`
}

// URLs returns every image URL on the post.
func (p *Post) URLs() []string {
	if p.ImageURL != "" {
		return []string{p.ImageURL}
	}
	return p.ImageURLs
}

// Feed thumbnail settings.
const (
	ThumbnailMaxWidth    = 200
	ThumbnailMaxHeight   = 200
	ThumbnailJPEGQuality = 85
)
