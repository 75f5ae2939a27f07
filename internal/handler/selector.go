package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/fetch/internal/auth"
	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/service"
)

// SelectorHandler exposes the photo selector to signed-in users.
//
// Routes handled (all require a user):
// - GET  /api/selector                      -> Show
// - POST /api/selector                      -> Start
// - POST /api/selector/fetch                -> Fetch
// - POST /api/selector/slots/{index}/toggle -> Toggle
// - POST /api/selector/confirm              -> Confirm
type SelectorHandler struct {
	selector service.SelectorService
	logger   *slog.Logger
}

// NewSelectorHandler creates a new SelectorHandler.
func NewSelectorHandler(selector service.SelectorService, logger *slog.Logger) *SelectorHandler {
	return &SelectorHandler{selector: selector, logger: logger}
}

// Show returns the current selector state, starting a session if needed.
func (h *SelectorHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	state, err := h.selector.Get(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Start discards any current selection and begins a new session.
func (h *SelectorHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	state, err := h.selector.Start(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// Fetch refills every slot that is not kept.
func (h *SelectorHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	state, err := h.selector.Fetch(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Toggle flips the kept flag of the slot at {index}.
func (h *SelectorHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	const op = "handler.selector.toggle"

	userID, ok := auth.UserID(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 || index >= domain.SlotCount {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Slot index is out of range"))
		return
	}

	state, err := h.selector.Toggle(r.Context(), userID, index)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Confirm uploads the kept photos.
func (h *SelectorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	result, err := h.selector.Confirm(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RegisterRoutes registers the selector routes behind requireUser.
func (h *SelectorHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/selector", wrap(requireUser, http.HandlerFunc(h.Show)))
	mux.Handle("POST /api/selector", wrap(requireUser, http.HandlerFunc(h.Start)))
	mux.Handle("POST /api/selector/fetch", wrap(requireUser, http.HandlerFunc(h.Fetch)))
	mux.Handle("POST /api/selector/slots/{index}/toggle", wrap(requireUser, http.HandlerFunc(h.Toggle)))
	mux.Handle("POST /api/selector/confirm", wrap(requireUser, http.HandlerFunc(h.Confirm)))
}
