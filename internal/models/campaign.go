package models

import (
	"fmt"
	"time"
)

// CampaignStatus represents valid campaign statuses
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// EnrollmentType determines how a campaign's audience is resolved
type EnrollmentType string

const (
	// EnrollmentSnapshot enrolls an explicit contact list captured at enroll time
	EnrollmentSnapshot EnrollmentType = "snapshot"
	// EnrollmentDynamic re-evaluates the campaign's stored filter criteria
	EnrollmentDynamic EnrollmentType = "dynamic"
)

// ResponseTrackingDays is how long after completion inbound replies still
// update enrollment and engagement stats.
const ResponseTrackingDays = 30

// DefaultSendTime is the wall-clock time of day campaign steps go out
// when no override is set.
const DefaultSendTime = "11:00"

// Campaign represents a drip message sequence
type Campaign struct {
	ID                     int            `json:"id" db:"id"`
	Name                   string         `json:"name" db:"name"`
	Description            *string        `json:"description,omitempty" db:"description"`
	Status                 CampaignStatus `json:"status" db:"status"`
	EnrollmentType         EnrollmentType `json:"enrollment_type" db:"enrollment_type"`
	FilterCriteria         *string        `json:"filter_criteria,omitempty" db:"filter_criteria"` // JSON blob, used only at enrollment time
	DefaultSendTime        string         `json:"default_send_time" db:"default_send_time"`      // "HH:MM" wall clock
	CreatedBy              *int           `json:"created_by,omitempty" db:"created_by"`
	StartedAt              *time.Time     `json:"started_at,omitempty" db:"started_at"`
	PausedAt               *time.Time     `json:"paused_at,omitempty" db:"paused_at"`
	CompletedAt            *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	ResponseTrackingEndsAt *time.Time     `json:"response_tracking_ends_at,omitempty" db:"response_tracking_ends_at"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at" db:"updated_at"`
}

// Validate checks if the campaign fields are valid
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.EnrollmentType != EnrollmentSnapshot && c.EnrollmentType != EnrollmentDynamic {
		return fmt.Errorf("invalid enrollment_type: must be 'snapshot' or 'dynamic'")
	}
	if _, err := ParseSendTime(c.DefaultSendTime); err != nil {
		return err
	}
	return nil
}

// CanStart reports whether the campaign may transition to active
func (c *Campaign) CanStart() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusPaused
}

// CanPause reports whether the campaign may be paused
func (c *Campaign) CanPause() bool {
	return c.Status == CampaignStatusActive
}

// CanResume reports whether the campaign may resume
func (c *Campaign) CanResume() bool {
	return c.Status == CampaignStatusPaused
}

// CanDelete reports whether the campaign may be deleted. Only drafts are
// deletable; anything else has audit history worth keeping.
func (c *Campaign) CanDelete() bool {
	return c.Status == CampaignStatusDraft
}

// InResponseWindow reports whether inbound replies should still be tracked
// for a completed campaign.
func (c *Campaign) InResponseWindow(now time.Time) bool {
	if c.Status != CampaignStatusCompleted {
		return false
	}
	return c.ResponseTrackingEndsAt != nil && c.ResponseTrackingEndsAt.After(now)
}

// ParseSendTime parses an "HH:MM" wall-clock string into hour and minute.
func ParseSendTime(s string) (time.Duration, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid send time %q: expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid send time %q: hour must be 0-23, minute 0-59", s)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

// CampaignStats summarizes a campaign's enrollments and sends
type CampaignStats struct {
	TotalEnrolled int     `json:"total_enrolled"`
	Active        int     `json:"active"`
	Engaged       int     `json:"engaged"`
	Completed     int     `json:"completed"`
	OptedOut      int     `json:"opted_out"`
	TotalSent     int     `json:"total_sent"`
	TotalFailed   int     `json:"total_failed"`
	ResponseRate  float64 `json:"response_rate"`
}

// CampaignWithStats represents a campaign with its statistics
type CampaignWithStats struct {
	Campaign
	Stats    CampaignStats      `json:"stats"`
	Messages []*CampaignMessage `json:"messages,omitempty"`
}
