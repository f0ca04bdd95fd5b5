package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BulkStatus represents valid scheduled bulk message statuses
type BulkStatus string

const (
	BulkStatusPending    BulkStatus = "pending"
	BulkStatusInProgress BulkStatus = "in_progress"
	BulkStatusCompleted  BulkStatus = "completed"
	BulkStatusCancelled  BulkStatus = "cancelled"
	BulkStatusFailed     BulkStatus = "failed"
	BulkStatusPaused     BulkStatus = "paused"
)

// RecurrenceType represents valid recurrence rules for bulk messages
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// MaxBulkRecipients caps the recipient list of one bulk message. The list is
// fixed at creation and never derived at send time; a blast must never fan out
// to an undeclared audience.
const MaxBulkRecipients = 50

// ScheduledBulkMessage is a one-off (optionally recurring) blast to an
// explicit recipient list.
type ScheduledBulkMessage struct {
	ID              int             `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Body            string          `json:"body" db:"body"`
	RecipientPhones string          `json:"-" db:"recipient_phones"` // JSON array of phone numbers
	ScheduledAt     time.Time       `json:"scheduled_at" db:"scheduled_at"`
	Status          BulkStatus      `json:"status" db:"status"`
	TotalRecipients int             `json:"total_recipients" db:"total_recipients"`
	SentCount       int             `json:"sent_count" db:"sent_count"`
	FailedCount     int             `json:"failed_count" db:"failed_count"`
	RecurrenceType  *RecurrenceType `json:"recurrence_type,omitempty" db:"recurrence_type"`
	RecurrenceDays  *string         `json:"-" db:"recurrence_days"` // JSON array of weekday names
	RecurrenceEnd   *time.Time      `json:"recurrence_end,omitempty" db:"recurrence_end"`
	LastSentAt      *time.Time      `json:"last_sent_at,omitempty" db:"last_sent_at"`
	SendCount       int             `json:"send_count" db:"send_count"` // completed occurrences
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Recipients decodes the stored recipient list. A malformed payload is an
// error, not an empty list, so callers fail closed.
func (m *ScheduledBulkMessage) Recipients() ([]string, error) {
	var phones []string
	if err := json.Unmarshal([]byte(m.RecipientPhones), &phones); err != nil {
		return nil, fmt.Errorf("malformed recipient list: %w", err)
	}
	return phones, nil
}

// SetRecipients encodes and stores the recipient list
func (m *ScheduledBulkMessage) SetRecipients(phones []string) error {
	data, err := json.Marshal(phones)
	if err != nil {
		return fmt.Errorf("failed to encode recipient list: %w", err)
	}
	m.RecipientPhones = string(data)
	m.TotalRecipients = len(phones)
	return nil
}

// RecurrenceWeekdays decodes the stored weekly day set
func (m *ScheduledBulkMessage) RecurrenceWeekdays() ([]time.Weekday, error) {
	if m.RecurrenceDays == nil || *m.RecurrenceDays == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(*m.RecurrenceDays), &names); err != nil {
		return nil, fmt.Errorf("malformed recurrence day list: %w", err)
	}
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// IsRecurring reports whether the message reschedules after completion
func (m *ScheduledBulkMessage) IsRecurring() bool {
	return m.RecurrenceType != nil && *m.RecurrenceType != ""
}

// CanCancel reports whether the message may be cancelled
func (m *ScheduledBulkMessage) CanCancel() bool {
	return m.Status == BulkStatusPending || m.Status == BulkStatusPaused
}

// CanPause reports whether the message may be paused
func (m *ScheduledBulkMessage) CanPause() bool {
	return m.Status == BulkStatusPending
}

// CanResume reports whether the message may be resumed
func (m *ScheduledBulkMessage) CanResume() bool {
	return m.Status == BulkStatusPaused
}

// ParseWeekday maps a weekday name ("mon", "monday", case-insensitive) to
// a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tues", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thur", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}

// ValidRecurrenceType reports whether t is a known recurrence rule
func ValidRecurrenceType(t RecurrenceType) bool {
	switch t {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}
