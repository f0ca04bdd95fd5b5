package handler

import (
	"net/http"
	"strconv"

	"smsoutreach/internal/leads"
	"smsoutreach/internal/models"
	"smsoutreach/internal/service"
)

// ContactHandler handles HTTP requests for the contact directory
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// List handles GET /api/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := leads.Filter{
		Search: query.Get("search"),
		Source: query.Get("source"),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset >= 0 {
		filter.Offset = offset
	}
	if mobileStr := query.Get("mobile_only"); mobileStr != "" {
		mobile := mobileStr == "true" || mobileStr == "1"
		filter.MobileOnly = &mobile
	}

	page, err := h.contacts.Search(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, page)
}

// Stats handles GET /api/contacts/stats
func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.contacts.Stats(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, stats)
}

// AddManual handles POST /api/contacts
func (h *ContactHandler) AddManual(w http.ResponseWriter, r *http.Request) {
	var contact models.ManualContact
	if !decodeBody(w, r, &contact) {
		return
	}

	if err := h.contacts.AddManualContact(r.Context(), &contact); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, contact)
}

// DeleteManual handles DELETE /api/contacts/{id}
func (h *ContactHandler) DeleteManual(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid contact ID")
		return
	}

	if err := h.contacts.DeleteManualContact(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
