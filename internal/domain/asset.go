package domain

import "time"

// Asset is one photo in the user's device library as reported by a page of
// enumeration. Its local URI is resolved separately.
type Asset struct {
	ID        string
	Filename  string
	CreatedAt time.Time
}

// Candidate is an asset whose local URI has been resolved and which can be
// placed into a slot.
type Candidate struct {
	AssetID string
	URI     string
}
