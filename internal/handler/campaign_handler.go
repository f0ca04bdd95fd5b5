package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"smsoutreach/internal/leads"
	"smsoutreach/internal/models"
	"smsoutreach/internal/service"
)

// CampaignHandler handles HTTP requests for campaign operations
type CampaignHandler struct {
	campaigns *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaigns *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// pathID extracts and validates the {id} path variable
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
		} else {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		}
		return false
	}
	return true
}

// Create handles POST /api/campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign
	if !decodeBody(w, r, &campaign) {
		return
	}

	if err := h.campaigns.CreateCampaign(r.Context(), &campaign); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, campaign)
}

// List handles GET /api/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.CampaignStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.CampaignStatus(statusStr)
		switch s {
		case models.CampaignStatusDraft, models.CampaignStatusActive,
			models.CampaignStatusPaused, models.CampaignStatusCompleted:
			status = &s
		default:
			WriteValidationError(w, "invalid status: must be one of draft, active, paused, completed")
			return
		}
	}

	campaigns, err := h.campaigns.ListCampaigns(r.Context(), status)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"campaigns": campaigns})
}

// GetByID handles GET /api/campaigns/{id}
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}

	campaign, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, campaign)
}

// Update handles PUT /api/campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}
	var updates models.Campaign
	if !decodeBody(w, r, &updates) {
		return
	}

	campaign, err := h.campaigns.UpdateCampaign(r.Context(), id, &updates)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, campaign)
}

// Delete handles DELETE /api/campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}

	if err := h.campaigns.DeleteCampaign(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// lifecycle wraps the start/pause/resume/complete transitions
func (h *CampaignHandler) lifecycle(transition func(*http.Request, int) (*models.Campaign, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			WriteValidationError(w, "invalid campaign ID")
			return
		}
		campaign, err := transition(r, id)
		if err != nil {
			HandleServiceError(w, err)
			return
		}
		WriteOK(w, campaign)
	}
}

// Start handles POST /api/campaigns/{id}/start
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(r *http.Request, id int) (*models.Campaign, error) {
		return h.campaigns.StartCampaign(r.Context(), id)
	})(w, r)
}

// Pause handles POST /api/campaigns/{id}/pause
func (h *CampaignHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(r *http.Request, id int) (*models.Campaign, error) {
		return h.campaigns.PauseCampaign(r.Context(), id)
	})(w, r)
}

// Resume handles POST /api/campaigns/{id}/resume
func (h *CampaignHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(r *http.Request, id int) (*models.Campaign, error) {
		return h.campaigns.ResumeCampaign(r.Context(), id)
	})(w, r)
}

// Complete handles POST /api/campaigns/{id}/complete
func (h *CampaignHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(func(r *http.Request, id int) (*models.Campaign, error) {
		return h.campaigns.CompleteCampaign(r.Context(), id)
	})(w, r)
}

// Stats handles GET /api/campaigns/{id}/stats
func (h *CampaignHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}

	stats, err := h.campaigns.Stats(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, stats)
}

// AddMessage handles POST /api/campaigns/{id}/messages
func (h *CampaignHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}
	var message models.CampaignMessage
	if !decodeBody(w, r, &message) {
		return
	}
	message.CampaignID = id

	created, err := h.campaigns.AddMessage(r.Context(), &message)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, created)
}

// UpdateMessage handles PUT /api/campaign-messages/{id}
func (h *CampaignHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid message ID")
		return
	}
	var message models.CampaignMessage
	if !decodeBody(w, r, &message) {
		return
	}
	message.ID = id

	if err := h.campaigns.UpdateMessage(r.Context(), &message); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, message)
}

// DeleteMessage handles DELETE /api/campaign-messages/{id}
func (h *CampaignHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid message ID")
		return
	}

	if err := h.campaigns.DeleteMessage(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// ReorderMessages handles POST /api/campaigns/{id}/messages/reorder
func (h *CampaignHandler) ReorderMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}
	var req struct {
		MessageIDs []int `json:"message_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.campaigns.ReorderMessages(r.Context(), id, req.MessageIDs); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// SetABTest handles PUT /api/campaign-messages/{id}/ab-test
func (h *CampaignHandler) SetABTest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid message ID")
		return
	}
	var req struct {
		VariantBBody string `json:"variant_b_body"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	test, err := h.campaigns.SetABTest(r.Context(), id, req.VariantBBody)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, test)
}

// RemoveABTest handles DELETE /api/campaign-messages/{id}/ab-test
func (h *CampaignHandler) RemoveABTest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid message ID")
		return
	}

	if err := h.campaigns.RemoveABTest(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// GetABTest handles GET /api/campaign-messages/{id}/ab-test
func (h *CampaignHandler) GetABTest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid message ID")
		return
	}

	result, err := h.campaigns.GetABTestResult(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, result)
}

// Enroll handles POST /api/campaigns/{id}/enrollments
func (h *CampaignHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}
	var req service.EnrollmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	enrolled, err := h.campaigns.EnrollContacts(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, map[string]interface{}{"enrolled": enrolled})
}

// ListEnrollments handles GET /api/campaigns/{id}/enrollments
func (h *CampaignHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}

	query := r.URL.Query()
	var status *models.EnrollmentStatus
	if statusStr := query.Get("status"); statusStr != "" {
		s := models.EnrollmentStatus(statusStr)
		switch s {
		case models.EnrollmentActive, models.EnrollmentEngaged,
			models.EnrollmentCompleted, models.EnrollmentOptedOut:
			status = &s
		default:
			WriteValidationError(w, "invalid status: must be one of active, engaged, completed, opted_out")
			return
		}
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	enrollments, total, err := h.campaigns.ListEnrollments(r.Context(), id, status, limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{
		"enrollments": enrollments,
		"total":       total,
	})
}

// PreviewEnrollment handles POST /api/campaigns/{id}/enrollments/preview
func (h *CampaignHandler) PreviewEnrollment(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathID(r); !ok {
		WriteValidationError(w, "invalid campaign ID")
		return
	}
	var filter leads.Filter
	if !decodeBody(w, r, &filter) {
		return
	}

	contacts, err := h.campaigns.PreviewEnrollment(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// CheckOverlap handles POST /api/enrollments/check-overlap
func (h *CampaignHandler) CheckOverlap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phones []string `json:"phones"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	overlaps, err := h.campaigns.CheckOverlap(r.Context(), req.Phones)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"overlaps": overlaps})
}
