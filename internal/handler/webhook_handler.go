package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/queue"
	"smsoutreach/internal/service"
)

// EventPublisher publishes webhook events onto the queue
type EventPublisher interface {
	PublishInbound(phone, body, providerSID string, receivedAt time.Time) error
	PublishStatus(providerSID, status string, receivedAt time.Time) error
}

// WebhookHandler receives provider callbacks. Events are published to the
// queue for the engine daemon; when the queue is unavailable they are applied
// synchronously in-process so webhook processing never silently drops.
type WebhookHandler struct {
	publisher EventPublisher
	applier   *EventApplier
}

// NewWebhookHandler creates a webhook handler. publisher may be nil, forcing
// synchronous handling.
func NewWebhookHandler(publisher EventPublisher, applier *EventApplier) *WebhookHandler {
	return &WebhookHandler{publisher: publisher, applier: applier}
}

// Incoming handles POST /api/webhook/incoming
func (h *WebhookHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	phone, body, sid := inboundFields(r)
	if phone == "" || body == "" {
		WriteValidationError(w, "phone and body are required")
		return
	}

	now := time.Now()
	if h.publisher != nil {
		if err := h.publisher.PublishInbound(phone, body, sid, now); err == nil {
			WriteOK(w, map[string]interface{}{"queued": true})
			return
		} else {
			logrus.WithError(err).Warn("failed to publish inbound event, handling synchronously")
		}
	}

	if err := h.applier.Apply(r.Context(), &queue.Event{
		Type:        queue.EventInbound,
		Phone:       phone,
		Body:        body,
		ProviderSID: sid,
		ReceivedAt:  now,
	}); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"queued": false})
}

// Status handles POST /api/webhook/status
func (h *WebhookHandler) Status(w http.ResponseWriter, r *http.Request) {
	sid, status := statusFields(r)
	if sid == "" || status == "" {
		WriteValidationError(w, "sid and status are required")
		return
	}

	now := time.Now()
	if h.publisher != nil {
		if err := h.publisher.PublishStatus(sid, status, now); err == nil {
			WriteOK(w, map[string]interface{}{"queued": true})
			return
		} else {
			logrus.WithError(err).Warn("failed to publish status event, handling synchronously")
		}
	}

	if err := h.applier.Apply(r.Context(), &queue.Event{
		Type:        queue.EventStatus,
		ProviderSID: sid,
		Status:      status,
		ReceivedAt:  now,
	}); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteOK(w, map[string]interface{}{"queued": false})
}

// inboundFields accepts both Twilio's form encoding (From/Body/MessageSid)
// and a plain JSON payload.
func inboundFields(r *http.Request) (phone, body, sid string) {
	if err := r.ParseForm(); err == nil && r.PostForm.Get("From") != "" {
		return r.PostForm.Get("From"), r.PostForm.Get("Body"), r.PostForm.Get("MessageSid")
	}

	var req struct {
		Phone string `json:"phone"`
		Body  string `json:"body"`
		SID   string `json:"sid"`
	}
	if err := decodeJSON(r, &req); err == nil {
		return req.Phone, req.Body, req.SID
	}
	return "", "", ""
}

func statusFields(r *http.Request) (sid, status string) {
	if err := r.ParseForm(); err == nil && r.PostForm.Get("MessageSid") != "" {
		return r.PostForm.Get("MessageSid"), r.PostForm.Get("MessageStatus")
	}

	var req struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err == nil {
		return req.SID, req.Status
	}
	return "", ""
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// EventApplier applies webhook events to the engine: inbound replies feed
// response/opt-out handling and the message log; status callbacks update
// delivery states. Shared by the API's synchronous fallback and the daemon's
// queue consumer.
type EventApplier struct {
	campaigns *service.CampaignService
	messages  *service.MessageService
}

// NewEventApplier creates an event applier
func NewEventApplier(campaigns *service.CampaignService, messages *service.MessageService) *EventApplier {
	return &EventApplier{campaigns: campaigns, messages: messages}
}

// Apply processes one webhook event
func (a *EventApplier) Apply(ctx context.Context, event *queue.Event) error {
	switch event.Type {
	case queue.EventInbound:
		if _, err := a.messages.RecordInbound(ctx, event.Phone, event.Body, event.ProviderSID, event.ReceivedAt); err != nil {
			return err
		}
		return a.campaigns.HandleInboundResponse(ctx, event.Phone, event.Body, event.ReceivedAt)
	case queue.EventStatus:
		return a.messages.ApplyDeliveryStatus(ctx, event.ProviderSID, event.Status)
	}
	logrus.WithField("type", event.Type).Warn("unknown webhook event type")
	return nil
}
