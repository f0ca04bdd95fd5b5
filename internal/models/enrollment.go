package models

import "time"

// EnrollmentStatus represents valid enrollment statuses
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentEngaged   EnrollmentStatus = "engaged"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentOptedOut  EnrollmentStatus = "opted_out"
)

// Enrollment is one contact's tracked participation in one campaign.
// (campaign_id, phone_number) is unique. CurrentStep is the last sequence
// step sent; 0 means nothing has gone out yet.
type Enrollment struct {
	ID                     int              `json:"id" db:"id"`
	CampaignID             int              `json:"campaign_id" db:"campaign_id"`
	PhoneNumber            string           `json:"phone_number" db:"phone_number"`
	ContactName            *string          `json:"contact_name,omitempty" db:"contact_name"`
	ContactCompany         *string          `json:"contact_company,omitempty" db:"contact_company"`
	ABVariant              *Variant         `json:"ab_variant,omitempty" db:"ab_variant"`
	Status                 EnrollmentStatus `json:"status" db:"status"`
	CurrentStep            int              `json:"current_step" db:"current_step"`
	LastMessageAt          *time.Time       `json:"last_message_at,omitempty" db:"last_message_at"`
	LastMessageID          *int             `json:"last_message_id,omitempty" db:"last_message_id"`
	FirstResponseAt        *time.Time       `json:"first_response_at,omitempty" db:"first_response_at"`
	FirstResponseMessageID *int             `json:"first_response_message_id,omitempty" db:"first_response_message_id"`
	ResponseCount          int              `json:"response_count" db:"response_count"`
	OptedOutAt             *time.Time       `json:"opted_out_at,omitempty" db:"opted_out_at"`
	OptedOutKeyword        *string          `json:"opted_out_keyword,omitempty" db:"opted_out_keyword"`
	EnrolledAt             time.Time        `json:"enrolled_at" db:"enrolled_at"`
}

// IsSendable reports whether the enrollment may still receive automated sends.
// Opt-out is terminal; completed enrollments are done.
func (e *Enrollment) IsSendable() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentEngaged
}

// VariantOrDefault returns the assigned variant, defaulting to A when the
// campaign has no A/B test.
func (e *Enrollment) VariantOrDefault() Variant {
	if e.ABVariant == nil {
		return VariantA
	}
	return *e.ABVariant
}
