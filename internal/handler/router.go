package handler

import (
	"github.com/gorilla/mux"

	"smsoutreach/internal/auth"
	"smsoutreach/internal/middleware"
)

// Handlers groups everything the router needs
type Handlers struct {
	Auth     *AuthHandler
	Campaign *CampaignHandler
	Bulk     *BulkHandler
	Message  *MessageHandler
	Contact  *ContactHandler
	Webhook  *WebhookHandler
	Health   *HealthHandler
}

// NewRouter builds the full API router. Everything under /api requires a
// bearer token except login and the provider webhooks.
func NewRouter(h Handlers, authService *auth.Service) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(authService.Middleware("/health", "/api/auth/login"))

	router.HandleFunc("/health", h.Health.Check).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/me", h.Auth.Me).Methods("GET")

	// Campaigns
	api.HandleFunc("/campaigns", h.Campaign.Create).Methods("POST")
	api.HandleFunc("/campaigns", h.Campaign.List).Methods("GET")
	api.HandleFunc("/campaigns/{id:[0-9]+}", h.Campaign.GetByID).Methods("GET")
	api.HandleFunc("/campaigns/{id:[0-9]+}", h.Campaign.Update).Methods("PUT")
	api.HandleFunc("/campaigns/{id:[0-9]+}", h.Campaign.Delete).Methods("DELETE")
	api.HandleFunc("/campaigns/{id:[0-9]+}/start", h.Campaign.Start).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/pause", h.Campaign.Pause).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/resume", h.Campaign.Resume).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/complete", h.Campaign.Complete).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/stats", h.Campaign.Stats).Methods("GET")

	// Campaign messages
	api.HandleFunc("/campaigns/{id:[0-9]+}/messages", h.Campaign.AddMessage).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/messages/reorder", h.Campaign.ReorderMessages).Methods("PUT")
	api.HandleFunc("/campaigns/messages/{id:[0-9]+}", h.Campaign.UpdateMessage).Methods("PUT")
	api.HandleFunc("/campaigns/messages/{id:[0-9]+}", h.Campaign.DeleteMessage).Methods("DELETE")

	// A/B tests (attached to a campaign message)
	api.HandleFunc("/campaigns/messages/{id:[0-9]+}/abtest", h.Campaign.SetABTest).Methods("POST")
	api.HandleFunc("/campaigns/messages/{id:[0-9]+}/abtest", h.Campaign.GetABTest).Methods("GET")
	api.HandleFunc("/campaigns/messages/{id:[0-9]+}/abtest", h.Campaign.RemoveABTest).Methods("DELETE")

	// Enrollment
	api.HandleFunc("/campaigns/{id:[0-9]+}/enroll", h.Campaign.Enroll).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/enrollments", h.Campaign.ListEnrollments).Methods("GET")
	api.HandleFunc("/campaigns/{id:[0-9]+}/enroll/preview", h.Campaign.PreviewEnrollment).Methods("POST")
	api.HandleFunc("/campaigns/{id:[0-9]+}/enroll/overlap", h.Campaign.CheckOverlap).Methods("POST")

	// Scheduled bulk messages
	api.HandleFunc("/bulk", h.Bulk.Schedule).Methods("POST")
	api.HandleFunc("/bulk", h.Bulk.List).Methods("GET")
	api.HandleFunc("/bulk/{id:[0-9]+}", h.Bulk.GetByID).Methods("GET")
	api.HandleFunc("/bulk/{id:[0-9]+}/cancel", h.Bulk.Cancel).Methods("POST")
	api.HandleFunc("/bulk/{id:[0-9]+}/pause", h.Bulk.Pause).Methods("POST")
	api.HandleFunc("/bulk/{id:[0-9]+}/resume", h.Bulk.Resume).Methods("POST")

	// Messages and conversations
	api.HandleFunc("/messages", h.Message.List).Methods("GET")
	api.HandleFunc("/messages/send", h.Message.Send).Methods("POST")
	api.HandleFunc("/conversations", h.Message.Conversations).Methods("GET")
	api.HandleFunc("/conversations/{phone}", h.Message.ConversationMessages).Methods("GET")

	// Templates
	api.HandleFunc("/templates", h.Message.CreateTemplate).Methods("POST")
	api.HandleFunc("/templates", h.Message.ListTemplates).Methods("GET")
	api.HandleFunc("/templates/{id:[0-9]+}", h.Message.DeleteTemplate).Methods("DELETE")

	// Contacts
	api.HandleFunc("/contacts", h.Contact.List).Methods("GET")
	api.HandleFunc("/contacts", h.Contact.AddManual).Methods("POST")
	api.HandleFunc("/contacts/stats", h.Contact.Stats).Methods("GET")
	api.HandleFunc("/contacts/{id:[0-9]+}", h.Contact.DeleteManual).Methods("DELETE")

	// Provider webhooks (token-exempt, Twilio cannot authenticate)
	api.HandleFunc("/webhook/incoming", h.Webhook.Incoming).Methods("POST")
	api.HandleFunc("/webhook/status", h.Webhook.Status).Methods("POST")

	return router
}
