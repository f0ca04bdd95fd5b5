package models

import (
	"fmt"
	"time"
)

// DefaultFollowupBody is sent when a follow-up is enabled without a custom body.
const DefaultFollowupBody = "Just following up on my last message. Let me know if you have any questions!"

// DefaultFollowupDays is the default whole-day delay before a follow-up goes out.
const DefaultFollowupDays = 3

// CampaignMessage is one step in a campaign's drip sequence.
// SequenceOrder is 1-based and kept contiguous per campaign.
type CampaignMessage struct {
	ID                int        `json:"id" db:"id"`
	CampaignID        int        `json:"campaign_id" db:"campaign_id"`
	SequenceOrder     int        `json:"sequence_order" db:"sequence_order"`
	MessageBody       string     `json:"message_body" db:"message_body"`
	DaysAfterPrevious int        `json:"days_after_previous" db:"days_after_previous"`
	SendTime          *string    `json:"send_time,omitempty" db:"send_time"` // optional "HH:MM" override
	EnableFollowup    bool       `json:"enable_followup" db:"enable_followup"`
	FollowupDays      int        `json:"followup_days" db:"followup_days"`
	FollowupBody      string     `json:"followup_body" db:"followup_body"`
	HasABTest         bool       `json:"has_ab_test" db:"has_ab_test"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	ABTest            *ABTest    `json:"ab_test,omitempty" db:"-"`
}

// Validate checks the message fields
func (m *CampaignMessage) Validate() error {
	if m.MessageBody == "" {
		return fmt.Errorf("message body is required")
	}
	if m.DaysAfterPrevious < 0 {
		return fmt.Errorf("days_after_previous cannot be negative")
	}
	if m.SendTime != nil {
		if _, err := ParseSendTime(*m.SendTime); err != nil {
			return err
		}
	}
	if m.EnableFollowup && m.FollowupDays <= 0 {
		return fmt.Errorf("followup_days must be positive when follow-ups are enabled")
	}
	return nil
}

// Variant identifies an A/B test arm
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// ABTest holds the alternate body for a message. Variant A is the message's
// own body; variant B lives here. Counters accumulate over the campaign's life.
type ABTest struct {
	ID                int       `json:"id" db:"id"`
	CampaignID        int       `json:"campaign_id" db:"campaign_id"`
	CampaignMessageID int       `json:"campaign_message_id" db:"campaign_message_id"`
	VariantBBody      string    `json:"variant_b_body" db:"variant_b_body"`
	SentA             int       `json:"sent_a" db:"sent_a"`
	SentB             int       `json:"sent_b" db:"sent_b"`
	ResponsesA        int       `json:"responses_a" db:"responses_a"`
	ResponsesB        int       `json:"responses_b" db:"responses_b"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ABWinner is the outcome of comparing variant response rates
type ABWinner string

const (
	ABWinnerA   ABWinner = "A"
	ABWinnerB   ABWinner = "B"
	ABWinnerTie ABWinner = "tie"
)

// Winner compares per-variant response rates. Variants with no sends count
// as zero rate; equal rates are a tie.
func (t *ABTest) Winner() ABWinner {
	rateA := responseRate(t.ResponsesA, t.SentA)
	rateB := responseRate(t.ResponsesB, t.SentB)

	switch {
	case rateA > rateB:
		return ABWinnerA
	case rateB > rateA:
		return ABWinnerB
	default:
		return ABWinnerTie
	}
}

func responseRate(responses, sent int) float64 {
	if sent == 0 {
		return 0
	}
	return float64(responses) / float64(sent)
}
