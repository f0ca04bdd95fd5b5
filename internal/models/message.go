package models

import "time"

// MessageDirection distinguishes outbound sends from inbound replies
type MessageDirection string

const (
	DirectionOutbound MessageDirection = "outbound"
	DirectionInbound  MessageDirection = "inbound"
)

// MessageStatus represents valid message log statuses
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusScheduled MessageStatus = "scheduled"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusReceived  MessageStatus = "received"
)

// Message is one row in the flat SMS log. Every outbound send and inbound
// reply lands here; contacts are linked by phone number only (they live in
// the external leads database).
type Message struct {
	ID           int              `json:"id" db:"id"`
	ProviderSID  *string          `json:"provider_sid,omitempty" db:"provider_sid"`
	PhoneNumber  string           `json:"phone_number" db:"phone_number"`
	Body         string           `json:"body" db:"body"`
	Direction    MessageDirection `json:"direction" db:"direction"`
	Status       MessageStatus    `json:"status" db:"status"`
	SentAt       *time.Time       `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage *string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Conversation summarizes the message history with one phone number
type Conversation struct {
	PhoneNumber  string   `json:"phone_number"`
	LastMessage  *Message `json:"last_message"`
	MessageCount int      `json:"message_count"`
	Contact      *Contact `json:"contact,omitempty"`
}

// MessageTemplate is a reusable message body
type MessageTemplate struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ManualContact is a manually added contact, kept separate from the
// read-only leads database and merged into directory queries.
type ManualContact struct {
	ID          int       `json:"id" db:"id"`
	Name        *string   `json:"name,omitempty" db:"name"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Company     *string   `json:"company,omitempty" db:"company"`
	Role        *string   `json:"role,omitempty" db:"role"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AsContact converts a manual contact to the normalized directory shape
func (m *ManualContact) AsContact() Contact {
	c := Contact{Phone: m.PhoneNumber, Source: ContactSourceManual}
	if m.Name != nil {
		c.Name = *m.Name
	}
	if m.Company != nil {
		c.Company = *m.Company
	}
	if m.Role != nil {
		c.Role = *m.Role
	}
	return c
}
