// This file implements the photo selector service: one selector session per
// signed-in user, driving fetch rounds and the final upload.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/library"
	"github.com/DukeRupert/fetch/internal/metrics"
	"github.com/DukeRupert/fetch/internal/selector"
	"github.com/DukeRupert/fetch/internal/upload"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultSelectorIdleTimeout is how long an untouched session is kept.
	DefaultSelectorIdleTimeout = 30 * time.Minute

	maxSelectorSessions = 10_000
)

// =============================================================================
// Types
// =============================================================================

// UserLibrary is a user's photo library that can also read the photos behind
// the URIs it resolves.
type UserLibrary interface {
	library.Library
	upload.PhotoReader
}

// LibraryProvider opens the photo library of a user.
type LibraryProvider func(ctx context.Context, userID string) (UserLibrary, error)

// ThumbnailEnqueuer schedules thumbnail rendering for an uploaded photo.
type ThumbnailEnqueuer func(ctx context.Context, postID, imageKey string) error

// SelectorState is what a client needs to render the selector.
type SelectorState struct {
	Slots        domain.Collection     `json:"slots"`
	FetchCount   int                   `json:"fetchCount"`
	Remaining    int                   `json:"remaining"`
	Permission   bool                  `json:"permission"`
	FetchAllowed bool                  `json:"fetchAllowed"`
	AllKept      bool                  `json:"allKept"`
	Uploading    bool                  `json:"uploading"`
	Action       domain.SelectorAction `json:"action"`
}

// ConfirmResult summarises a successful upload.
type ConfirmResult struct {
	PostIDs []string `json:"postIds"`
	Photos  int      `json:"photos"`
}

// =============================================================================
// Interface Definition
// =============================================================================

// SelectorService manages selector sessions.
type SelectorService interface {
	// Start begins a fresh session for userID, discarding any previous one.
	// Library permission is requested once here.
	Start(ctx context.Context, userID string) (SelectorState, error)

	// Get returns the current session, starting one if none exists.
	Get(ctx context.Context, userID string) (SelectorState, error)

	// Fetch runs one fetch round: every non-kept slot is refilled with a
	// random photo from the library.
	// Returns domain.EPERMISSION, domain.EBUDGET or domain.EBUSY when the
	// round is refused.
	Fetch(ctx context.Context, userID string) (SelectorState, error)

	// Toggle flips the kept flag of one slot. Refused toggles are no-ops.
	Toggle(ctx context.Context, userID string, index int) (SelectorState, error)

	// Confirm uploads the kept photos. The session ends on success.
	// Returns domain.EUPLOAD if any photo failed.
	Confirm(ctx context.Context, userID string) (*ConfirmResult, error)
}

// SelectorServiceConfig holds tunables for the selector service.
type SelectorServiceConfig struct {
	Source library.SourceConfig

	// IdleTimeout evicts sessions not used for this long. Default: 30m
	IdleTimeout time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type selectorSession struct {
	manager *selector.Manager
	lib     UserLibrary
	source  *library.Source
}

type selectorService struct {
	libraries  LibraryProvider
	pipeline   *upload.Pipeline
	thumbnails ThumbnailEnqueuer
	cfg        SelectorServiceConfig
	newRand    func() *rand.Rand
	logger     *slog.Logger

	// mu makes lookup-and-touch and compare-and-remove atomic.
	mu       sync.Mutex
	sessions *expirable.LRU[string, *selectorSession]
}

// NewSelectorService creates a SelectorService. thumbnails may be nil.
func NewSelectorService(
	libraries LibraryProvider,
	pipeline *upload.Pipeline,
	thumbnails ThumbnailEnqueuer,
	cfg SelectorServiceConfig,
	logger *slog.Logger,
) SelectorService {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultSelectorIdleTimeout
	}

	return &selectorService{
		libraries:  libraries,
		pipeline:   pipeline,
		thumbnails: thumbnails,
		cfg:        cfg,
		newRand:    newRand,
		logger:     logger,
		sessions:   expirable.NewLRU[string, *selectorSession](maxSelectorSessions, nil, cfg.IdleTimeout),
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (s *selectorService) Start(ctx context.Context, userID string) (SelectorState, error) {
	const op = "SelectorService.Start"

	lib, err := s.libraries(ctx, userID)
	if err != nil {
		return SelectorState{}, domain.Internal(err, op, "Failed to open photo library")
	}

	source, err := library.NewSource(lib, s.cfg.Source, s.logger)
	if err != nil {
		return SelectorState{}, domain.Internal(err, op, "Failed to open photo library")
	}

	granted, err := lib.RequestPermission(ctx)
	if err != nil {
		return SelectorState{}, domain.Internal(err, op, "Failed to request photo library access")
	}

	sess := &selectorSession{
		manager: selector.NewManager(granted),
		lib:     lib,
		source:  source,
	}

	s.mu.Lock()
	s.sessions.Add(userID, sess)
	s.mu.Unlock()

	metrics.SelectorSessionsStarted.Inc()
	s.logger.Info("selector session started", "user_id", userID, "permission", granted)

	return stateOf(sess.manager), nil
}

func (s *selectorService) Get(ctx context.Context, userID string) (SelectorState, error) {
	if sess := s.session(userID); sess != nil {
		return stateOf(sess.manager), nil
	}
	return s.Start(ctx, userID)
}

func (s *selectorService) Fetch(ctx context.Context, userID string) (SelectorState, error) {
	const op = "SelectorService.Fetch"

	sess := s.session(userID)
	if sess == nil {
		return SelectorState{}, domain.NotFound(op, "selector session", userID)
	}

	ticket, err := sess.manager.BeginFetch()
	if err != nil {
		metrics.FetchesTotal.WithLabelValues(fetchRejection(err)).Inc()
		return stateOf(sess.manager), err
	}

	start := time.Now()
	pool, err := sess.source.EnumerateAll(ctx)
	if err != nil {
		sess.manager.AbortFetch(ticket)
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("fetch failed", "user_id", userID, "error", err)
		return stateOf(sess.manager), err
	}

	next := selector.Resample(ticket.Snapshot, pool, s.newRand())
	if !sess.manager.CommitFetch(ticket, next) {
		s.logger.Warn("discarded stale fetch result", "user_id", userID)
	}

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	metrics.CandidatePoolSize.Observe(float64(len(pool)))
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	state := stateOf(sess.manager)
	s.logger.Info("fetch completed",
		"user_id", userID,
		"pool", len(pool),
		"fetch_count", state.FetchCount,
		"remaining", state.Remaining,
	)
	return state, nil
}

func (s *selectorService) Toggle(ctx context.Context, userID string, index int) (SelectorState, error) {
	const op = "SelectorService.Toggle"

	sess := s.session(userID)
	if sess == nil {
		return SelectorState{}, domain.NotFound(op, "selector session", userID)
	}

	sess.manager.ToggleKeep(index)
	return stateOf(sess.manager), nil
}

func (s *selectorService) Confirm(ctx context.Context, userID string) (*ConfirmResult, error) {
	const op = "SelectorService.Confirm"

	sess := s.session(userID)
	if sess == nil {
		return nil, domain.NotFound(op, "selector session", userID)
	}

	c, err := sess.manager.BeginUpload()
	if err != nil {
		return nil, err
	}
	defer sess.manager.EndUpload()

	mode := string(s.pipeline.Mode())
	out, err := s.pipeline.UploadCollection(ctx, c, sess.lib)

	metrics.UploadedPhotos.WithLabelValues("ok").Add(float64(out.Succeeded()))
	metrics.UploadedPhotos.WithLabelValues("failed").Add(float64(out.Failed()))

	s.enqueueThumbnails(ctx, out)

	if err != nil {
		metrics.UploadsTotal.WithLabelValues(mode, "failed").Inc()
		return nil, err
	}
	metrics.UploadsTotal.WithLabelValues(mode, "ok").Inc()

	result := &ConfirmResult{Photos: out.Succeeded()}
	if out.PostID != "" {
		result.PostIDs = append(result.PostIDs, out.PostID)
	}
	for _, r := range out.Results {
		if r.PostID != "" {
			result.PostIDs = append(result.PostIDs, r.PostID)
		}
	}
	metrics.PostsCreated.Add(float64(len(result.PostIDs)))

	// The post is out; the next visit starts a new session.
	s.mu.Lock()
	if cur, ok := s.sessions.Peek(userID); ok && cur == sess {
		s.sessions.Remove(userID)
	}
	s.mu.Unlock()

	s.logger.Info("collection posted", "user_id", userID, "posts", len(result.PostIDs), "photos", result.Photos)
	return result, nil
}

// enqueueThumbnails schedules a thumbnail for every recorded post. In batch
// mode the post is represented by its first photo. Enqueue failures are
// logged and do not fail the upload.
func (s *selectorService) enqueueThumbnails(ctx context.Context, out upload.Outcome) {
	if s.thumbnails == nil {
		return
	}

	enqueue := func(postID, key string) {
		if err := s.thumbnails(ctx, postID, key); err != nil {
			s.logger.Warn("failed to enqueue thumbnail", "post_id", postID, "error", err)
		}
	}

	if out.PostID != "" {
		for _, r := range out.Results {
			if r.Err == nil && r.Key != "" {
				enqueue(out.PostID, r.Key)
				return
			}
		}
		return
	}

	for _, r := range out.Results {
		if r.Err == nil && r.PostID != "" && r.Key != "" {
			enqueue(r.PostID, r.Key)
		}
	}
}

// session returns the live session of userID and restarts its idle timer.
func (s *selectorService) session(userID string) *selectorSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Get(userID)
	if !ok {
		return nil
	}
	s.sessions.Add(userID, sess)
	return sess
}

// =============================================================================
// Helper Functions
// =============================================================================

func stateOf(m *selector.Manager) SelectorState {
	slots := m.Snapshot()
	return SelectorState{
		Slots:        slots,
		FetchCount:   m.FetchCount(),
		Remaining:    m.Remaining(),
		Permission:   m.Permission(),
		FetchAllowed: m.IsFetchAllowed(),
		AllKept:      slots.AllKept(),
		Uploading:    m.Uploading(),
		Action:       domain.ActionFor(slots),
	}
}

func fetchRejection(err error) string {
	var e *domain.Error
	if !errors.As(err, &e) {
		return "error"
	}
	switch e.Code {
	case domain.EPERMISSION:
		return "permission"
	case domain.EBUDGET:
		return "budget"
	case domain.EBUSY:
		return "busy"
	}
	return "error"
}
