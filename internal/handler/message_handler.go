package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"smsoutreach/internal/models"
	"smsoutreach/internal/service"
)

// MessageHandler handles HTTP requests for the flat SMS log and templates
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send handles POST /api/messages/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Body  string `json:"body"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.messages.SendSMS(r.Context(), req.Phone, req.Body)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, msg)
}

// List handles GET /api/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	msgs, err := h.messages.History(r.Context(), query.Get("phone"), limit)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"messages": msgs})
}

// Conversations handles GET /api/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convos, err := h.messages.Conversations(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"conversations": convos})
}

// ConversationMessages handles GET /api/conversations/{phone}
func (h *MessageHandler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	phone := mux.Vars(r)["phone"]

	msgs, err := h.messages.ConversationMessages(r.Context(), phone)
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"messages": msgs})
}

// CreateTemplate handles POST /api/templates
func (h *MessageHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.MessageTemplate
	if !decodeBody(w, r, &tmpl) {
		return
	}

	if err := h.messages.CreateTemplate(r.Context(), &tmpl); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteCreated(w, tmpl)
}

// ListTemplates handles GET /api/templates
func (h *MessageHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tmpls, err := h.messages.ListTemplates(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"templates": tmpls})
}

// DeleteTemplate handles DELETE /api/templates/{id}
func (h *MessageHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteValidationError(w, "invalid template ID")
		return
	}

	if err := h.messages.DeleteTemplate(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
