// Package scheduler drives the outreach engine: campaign step and follow-up
// passes, bulk blast execution, and the recurrence calculator. Everything is
// cooperative polling on fixed intervals; idempotence comes from querying for
// existing send records, not from locking.
package scheduler

import (
	"context"
	"time"

	"smsoutreach/internal/models"
	"smsoutreach/internal/repository"
	"smsoutreach/internal/sender"
)

// Renderer substitutes placeholders in a message body
type Renderer interface {
	Render(body string, contact *models.Contact, now time.Time) string
	HasPlaceholders(body string) bool
}

// Directory resolves contacts for bulk blast personalization
type Directory interface {
	ContactsByPhones(ctx context.Context, phones []string) ([]models.Contact, error)
}

// Engine executes scheduled outreach work. All passes are synchronous within
// a tick; provider calls block the tick, which is acceptable at the bounded
// volumes involved (max 50 recipients per blast, small per-tick enrollment
// counts).
type Engine struct {
	campaigns   repository.CampaignRepository
	enrollments repository.EnrollmentRepository
	sends       repository.SendRepository
	bulk        repository.BulkRepository
	messages    repository.MessageLogRepository
	directory   Directory
	renderer    Renderer
	sender      sender.Sender
	loc         *time.Location
	now         func() time.Time
}

// NewEngine creates an engine with all collaborators injected
func NewEngine(
	campaigns repository.CampaignRepository,
	enrollments repository.EnrollmentRepository,
	sends repository.SendRepository,
	bulk repository.BulkRepository,
	messages repository.MessageLogRepository,
	directory Directory,
	renderer Renderer,
	snd sender.Sender,
	loc *time.Location,
) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		campaigns:   campaigns,
		enrollments: enrollments,
		sends:       sends,
		bulk:        bulk,
		messages:    messages,
		directory:   directory,
		renderer:    renderer,
		sender:      snd,
		loc:         loc,
		now:         time.Now,
	}
}

// SetClock overrides the engine clock (for testing)
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// pastSendTime reports whether the campaign's send time of day has passed in
// the engine's fixed timezone, and returns local midnight (the idempotence
// horizon for same-day sends).
func (e *Engine) pastSendTime(sendTime string, now time.Time) (bool, time.Time) {
	local := now.In(e.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)

	offset, err := models.ParseSendTime(sendTime)
	if err != nil {
		offset, _ = models.ParseSendTime(models.DefaultSendTime)
	}
	return !local.Before(midnight.Add(offset)), midnight
}

// wholeDaysSince counts elapsed whole 24-hour periods between then and now
func wholeDaysSince(then, now time.Time) int {
	if now.Before(then) {
		return 0
	}
	return int(now.Sub(then) / (24 * time.Hour))
}

// enrollmentContact builds the renderer contact from the enrollment's
// snapshot fields.
func enrollmentContact(enr *models.Enrollment) *models.Contact {
	c := &models.Contact{Phone: enr.PhoneNumber}
	if enr.ContactName != nil {
		c.Name = *enr.ContactName
	}
	if enr.ContactCompany != nil {
		c.Company = *enr.ContactCompany
	}
	return c
}

// variantBody picks the enrollment's assigned variant body, falling back to
// the message's own body when no A/B test exists or variant A is assigned.
func variantBody(msg *models.CampaignMessage, enr *models.Enrollment) (string, models.Variant) {
	variant := enr.VariantOrDefault()
	if variant == models.VariantB && msg.ABTest != nil && msg.ABTest.VariantBBody != "" {
		return msg.ABTest.VariantBBody, models.VariantB
	}
	return msg.MessageBody, models.VariantA
}
