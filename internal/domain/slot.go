// Package domain contains core business types and interfaces.
//
// This file defines the photo selector's slot model: a fixed row of slots the
// user fills by fetching random photos from their library and pins by keeping.
package domain

// =============================================================================
// Selector Constants
// =============================================================================

const (
	// SlotCount is the number of photos in one collection.
	SlotCount = 6

	// FetchLimit is the maximum number of fetches per selector session.
	FetchLimit = 6
)

// =============================================================================
// Slot
// =============================================================================

// Slot is one fixed position in the collection being curated.
//
// A slot with an empty URI is unfilled. Kept slots always carry a URI.
type Slot struct {
	URI     string `json:"uri"`
	Kept    bool   `json:"kept"`
	Loading bool   `json:"loading"`
}

// IsEmpty returns true if the slot has no photo.
func (s Slot) IsEmpty() bool {
	return s.URI == ""
}

// CanToggle returns true if the keep control for this slot is enabled.
func (s Slot) CanToggle() bool {
	return s.URI != "" && !s.Loading
}

// =============================================================================
// Collection
// =============================================================================

// Collection is the ordered set of slots at a point in time.
//
// Collections are treated as values: every transition builds a new slice.
// Use Clone before handing a collection to code that may modify it.
type Collection []Slot

// NewCollection returns SlotCount empty slots.
func NewCollection() Collection {
	return make(Collection, SlotCount)
}

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// AllKept reports whether every slot is kept. It drives whether the primary
// action fetches again or asks for upload confirmation.
func (c Collection) AllKept() bool {
	if len(c) == 0 {
		return false
	}
	for _, s := range c {
		if !s.Kept {
			return false
		}
	}
	return true
}

// AnyLoading reports whether a fetch affecting any slot is in flight.
func (c Collection) AnyLoading() bool {
	for _, s := range c {
		if s.Loading {
			return true
		}
	}
	return false
}

// KeptCount returns the number of kept slots.
func (c Collection) KeptCount() int {
	n := 0
	for _, s := range c {
		if s.Kept {
			n++
		}
	}
	return n
}

// KeptURIs returns the URIs of kept, non-empty slots in slot order.
func (c Collection) KeptURIs() []string {
	var uris []string
	for _, s := range c {
		if s.Kept && s.URI != "" {
			uris = append(uris, s.URI)
		}
	}
	return uris
}

// =============================================================================
// Selector Action
// =============================================================================

// SelectorAction is what the primary button does for the current collection.
type SelectorAction string

const (
	SelectorActionFetch   SelectorAction = "fetch"
	SelectorActionConfirm SelectorAction = "confirm"
)

// ActionFor returns the primary action for a collection.
func ActionFor(c Collection) SelectorAction {
	if c.AllKept() {
		return SelectorActionConfirm
	}
	return SelectorActionFetch
}
