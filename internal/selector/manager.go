package selector

import (
	"sync"

	"github.com/DukeRupert/fetch/internal/domain"
)

// Ticket identifies one accepted fetch. It carries the collection as it was
// when the fetch began, with every refetched slot marked loading.
type Ticket struct {
	id       uint64
	Snapshot domain.Collection
}

// Manager owns the slots of one selector session.
//
// All transitions replace the collection wholesale under the lock; readers
// get copies. A session ends when the manager is discarded: there is no way
// to give fetches back.
type Manager struct {
	mu         sync.Mutex
	slots      domain.Collection
	fetchCount int
	fetchLimit int
	permission bool
	inFlight   uint64 // id of the outstanding fetch, 0 if none
	lastTicket uint64
	uploading  bool
}

// NewManager creates a session with SlotCount empty slots and a full budget.
func NewManager(permission bool) *Manager {
	return &Manager{
		slots:      domain.NewCollection(),
		fetchLimit: domain.FetchLimit,
		permission: permission,
	}
}

// SetPermission records the answer to the library permission prompt.
func (m *Manager) SetPermission(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = granted
}

// Permission reports whether library access was granted.
func (m *Manager) Permission() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission
}

// Snapshot returns a copy of the current collection.
func (m *Manager) Snapshot() domain.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots.Clone()
}

// FetchCount returns the number of accepted fetches.
func (m *Manager) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCount
}

// Remaining returns how many fetches are left.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchLimit - m.fetchCount
}

// Uploading reports whether an upload of this collection is in flight.
func (m *Manager) Uploading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploading
}

// IsFetchAllowed is true iff permission is granted, budget remains and no
// slot is loading.
func (m *Manager) IsFetchAllowed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchAllowedLocked()
}

func (m *Manager) fetchAllowedLocked() bool {
	return m.permission &&
		m.fetchCount < m.fetchLimit &&
		!m.slots.AnyLoading() &&
		m.inFlight == 0 &&
		!m.uploading
}

// ToggleKeep flips the kept flag of slot i and returns the new collection.
// Empty, loading and out-of-range slots are left alone.
func (m *Manager) ToggleKeep(i int) domain.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.slots) || !m.slots[i].CanToggle() || m.uploading {
		return m.slots.Clone()
	}

	next := m.slots.Clone()
	next[i].Kept = !next[i].Kept
	m.slots = next
	return next.Clone()
}

// BeginFetch accepts a fetch: it consumes one unit of budget and marks every
// non-kept slot loading. The returned ticket must be passed to CommitFetch or
// AbortFetch.
func (m *Manager) BeginFetch() (Ticket, error) {
	const op = "selector.begin_fetch"

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.permission {
		return Ticket{}, domain.PermissionDenied(op)
	}
	if m.fetchCount >= m.fetchLimit {
		return Ticket{}, domain.BudgetExceeded(op)
	}
	if m.slots.AnyLoading() || m.inFlight != 0 {
		return Ticket{}, domain.Busy(op, "Photos are still loading.")
	}
	if m.uploading {
		return Ticket{}, domain.Busy(op, "Your post is being uploaded.")
	}

	m.fetchCount++
	m.lastTicket++
	m.inFlight = m.lastTicket

	next := m.slots.Clone()
	for i := range next {
		if !next[i].Kept {
			next[i].Loading = true
		}
	}
	m.slots = next

	return Ticket{id: m.inFlight, Snapshot: next.Clone()}, nil
}

// CommitFetch installs the result of a fetch and clears loading. Only slots
// that are still loading take the fetched value; every other slot keeps its
// current state so toggles made during the fetch win. Returns false if the
// ticket is stale.
func (m *Manager) CommitFetch(t Ticket, fetched domain.Collection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.id == 0 || t.id != m.inFlight {
		return false
	}

	next := make(domain.Collection, len(m.slots))
	for i, cur := range m.slots {
		if !cur.Loading {
			next[i] = cur
			continue
		}
		if i < len(fetched) {
			next[i] = domain.Slot{URI: fetched[i].URI}
		} else {
			next[i] = domain.Slot{}
		}
	}

	m.slots = next
	m.inFlight = 0
	return true
}

// AbortFetch clears loading flags after a failed fetch without changing any
// photo. The budget unit stays consumed.
func (m *Manager) AbortFetch(t Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.id == 0 || t.id != m.inFlight {
		return
	}

	next := m.slots.Clone()
	for i := range next {
		next[i].Loading = false
	}
	m.slots = next
	m.inFlight = 0
}

// BeginUpload marks the collection as being uploaded and returns it. Only one
// upload may be in flight, and none while photos are loading.
func (m *Manager) BeginUpload() (domain.Collection, error) {
	const op = "selector.begin_upload"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploading {
		return nil, domain.Busy(op, "Your post is already being uploaded.")
	}
	if m.slots.AnyLoading() || m.inFlight != 0 {
		return nil, domain.Busy(op, "Photos are still loading.")
	}

	m.uploading = true
	return m.slots.Clone(), nil
}

// EndUpload releases the upload guard.
func (m *Manager) EndUpload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploading = false
}
