package models

import "time"

// SendType distinguishes scheduled sequence sends from follow-ups
type SendType string

const (
	SendTypeScheduled SendType = "scheduled"
	SendTypeFollowup  SendType = "followup"
)

// SendStatus is the delivery state of one send
type SendStatus string

const (
	SendStatusSent      SendStatus = "sent"
	SendStatusDelivered SendStatus = "delivered"
	SendStatusFailed    SendStatus = "failed"
)

// CampaignSend is the immutable audit record of one transmitted (or attempted)
// campaign message. It is the source of truth for same-day idempotence: a step
// is only re-sent if no scheduled send exists for the (enrollment, message)
// pair since local midnight.
type CampaignSend struct {
	ID                int        `json:"id" db:"id"`
	CampaignID        int        `json:"campaign_id" db:"campaign_id"`
	CampaignMessageID int        `json:"campaign_message_id" db:"campaign_message_id"`
	EnrollmentID      int        `json:"enrollment_id" db:"enrollment_id"`
	PhoneNumber       string     `json:"phone_number" db:"phone_number"`
	SendType          SendType   `json:"send_type" db:"send_type"`
	Variant           *Variant   `json:"variant,omitempty" db:"variant"`
	Body              string     `json:"body" db:"body"` // exact rendered body
	ProviderSID       *string    `json:"provider_sid,omitempty" db:"provider_sid"`
	Status            SendStatus `json:"status" db:"status"`
	ErrorMessage      *string    `json:"error_message,omitempty" db:"error_message"`
	ResponseReceived  bool       `json:"response_received" db:"response_received"`
	ResponseAt        *time.Time `json:"response_at,omitempty" db:"response_at"`
	SentAt            time.Time  `json:"sent_at" db:"sent_at"`
}
