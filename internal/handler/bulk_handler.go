package handler

import (
	"net/http"

	"smsoutreach/internal/service"
)

// BulkHandler handles HTTP requests for scheduled bulk messages
type BulkHandler struct {
	bulk *service.BulkService
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(bulk *service.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// Schedule handles POST /api/scheduled
func (h *BulkHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req service.ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.bulk.Schedule(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, msg)
}

// List handles GET /api/scheduled
func (h *BulkHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.bulk.List(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"scheduled": msgs})
}

// GetByID handles GET /api/scheduled/{id}
func (h *BulkHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid scheduled message ID")
		return
	}

	msg, err := h.bulk.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, msg)
}

func (h *BulkHandler) transition(w http.ResponseWriter, r *http.Request, apply func(int) error) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid scheduled message ID")
		return
	}
	if err := apply(id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// Cancel handles POST /api/scheduled/{id}/cancel
func (h *BulkHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int) error { return h.bulk.Cancel(r.Context(), id) })
}

// Pause handles POST /api/scheduled/{id}/pause
func (h *BulkHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int) error { return h.bulk.Pause(r.Context(), id) })
}

// Resume handles POST /api/scheduled/{id}/resume
func (h *BulkHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int) error { return h.bulk.Resume(r.Context(), id) })
}
