package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/models"
	"smsoutreach/internal/repository"
	"smsoutreach/internal/scheduler"
)

// BulkService handles scheduled bulk message business logic
type BulkService struct {
	bulk repository.BulkRepository
	now  func() time.Time
}

// NewBulkService creates a new bulk service
func NewBulkService(bulk repository.BulkRepository) *BulkService {
	return &BulkService{bulk: bulk, now: time.Now}
}

// SetClock overrides the service clock (for testing)
func (s *BulkService) SetClock(now func() time.Time) {
	s.now = now
}

// ScheduleRequest describes one scheduled bulk message
type ScheduleRequest struct {
	Name           string     `json:"name"`
	Body           string     `json:"body"`
	Phones         []string   `json:"phones"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	RecurrenceType *string    `json:"recurrence_type,omitempty"`
	RecurrenceDays []string   `json:"recurrence_days,omitempty"`
	RecurrenceEnd  *time.Time `json:"recurrence_end,omitempty"`
}

// Schedule validates and persists a new bulk message. The recipient list is
// fixed here: normalized, de-duplicated, non-empty, and capped at
// models.MaxBulkRecipients. Nothing is persisted on a validation failure.
func (s *BulkService) Schedule(ctx context.Context, req *ScheduleRequest) (*models.ScheduledBulkMessage, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}
	if req.Body == "" {
		return nil, &ValidationError{Message: "body is required"}
	}
	if req.ScheduledAt.IsZero() {
		return nil, &ValidationError{Message: "scheduled_at is required"}
	}

	seen := make(map[string]bool, len(req.Phones))
	phones := make([]string, 0, len(req.Phones))
	for _, raw := range req.Phones {
		phone := models.NormalizePhone(raw)
		if phone == "" {
			return nil, &ValidationError{Message: "invalid phone number: " + raw}
		}
		if seen[phone] {
			continue
		}
		seen[phone] = true
		phones = append(phones, phone)
	}
	if len(phones) == 0 {
		return nil, &ValidationError{Message: "at least one recipient is required"}
	}
	if len(phones) > models.MaxBulkRecipients {
		return nil, &ValidationError{Message: "recipient list exceeds the maximum of 50"}
	}

	msg := &models.ScheduledBulkMessage{
		Name:        req.Name,
		Body:        req.Body,
		ScheduledAt: req.ScheduledAt,
		Status:      models.BulkStatusPending,
	}
	if err := msg.SetRecipients(phones); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if req.RecurrenceType != nil && *req.RecurrenceType != "" {
		rtype := models.RecurrenceType(*req.RecurrenceType)
		if !models.ValidRecurrenceType(rtype) {
			return nil, &ValidationError{Message: "unknown recurrence type: " + *req.RecurrenceType}
		}
		msg.RecurrenceType = &rtype
		msg.RecurrenceEnd = req.RecurrenceEnd

		if len(req.RecurrenceDays) > 0 {
			if rtype != models.RecurrenceWeekly {
				return nil, &ValidationError{Message: "recurrence_days only apply to weekly recurrence"}
			}
			for _, name := range req.RecurrenceDays {
				if _, err := models.ParseWeekday(name); err != nil {
					return nil, &ValidationError{Message: err.Error()}
				}
			}
			days, err := encodeDayList(req.RecurrenceDays)
			if err != nil {
				return nil, &ValidationError{Message: err.Error()}
			}
			msg.RecurrenceDays = &days
		}
	} else if len(req.RecurrenceDays) > 0 || req.RecurrenceEnd != nil {
		return nil, &ValidationError{Message: "recurrence_type is required for recurring schedules"}
	}

	if err := s.bulk.Create(ctx, msg); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"bulk_id":    msg.ID,
		"recipients": msg.TotalRecipients,
	}).Info("bulk message scheduled")
	return msg, nil
}

// Get retrieves one scheduled bulk message
func (s *BulkService) Get(ctx context.Context, id int) (*models.ScheduledBulkMessage, error) {
	msg, err := s.bulk.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, &NotFoundError{Resource: "scheduled message", ID: id}
	}
	return msg, nil
}

// List retrieves all scheduled bulk messages
func (s *BulkService) List(ctx context.Context) ([]*models.ScheduledBulkMessage, error) {
	return s.bulk.List(ctx)
}

// Cancel cancels a pending or paused bulk message
func (s *BulkService) Cancel(ctx context.Context, id int) error {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !msg.CanCancel() {
		return &BusinessLogicError{Message: "only pending or paused messages can be cancelled"}
	}
	ok, err := s.bulk.TransitionStatus(ctx, id, msg.Status, models.BulkStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return &ConflictError{Resource: "scheduled message", Message: "status changed concurrently"}
	}
	return nil
}

// Pause pauses a pending bulk message
func (s *BulkService) Pause(ctx context.Context, id int) error {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !msg.CanPause() {
		return &BusinessLogicError{Message: "only pending messages can be paused"}
	}
	ok, err := s.bulk.TransitionStatus(ctx, id, models.BulkStatusPending, models.BulkStatusPaused)
	if err != nil {
		return err
	}
	if !ok {
		return &ConflictError{Resource: "scheduled message", Message: "status changed concurrently"}
	}
	return nil
}

// Resume resumes a paused bulk message. Recurring schedules recompute their
// next valid occurrence; if none remains the message completes instead.
func (s *BulkService) Resume(ctx context.Context, id int) error {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !msg.CanResume() {
		return &BusinessLogicError{Message: "only paused messages can be resumed"}
	}

	now := s.now()
	if msg.IsRecurring() && !msg.ScheduledAt.After(now) {
		weekdays, err := msg.RecurrenceWeekdays()
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		next, ok, err := scheduler.NextOccurrence(*msg.RecurrenceType, msg.ScheduledAt, now, weekdays, msg.RecurrenceEnd)
		if err != nil {
			return &ValidationError{Message: err.Error()}
		}
		if !ok {
			_, terr := s.bulk.TransitionStatus(ctx, id, models.BulkStatusPaused, models.BulkStatusCompleted)
			return terr
		}
		if err := s.bulk.SetScheduledAt(ctx, id, next); err != nil {
			return err
		}
	}

	ok, err := s.bulk.TransitionStatus(ctx, id, models.BulkStatusPaused, models.BulkStatusPending)
	if err != nil {
		return err
	}
	if !ok {
		return &ConflictError{Resource: "scheduled message", Message: "status changed concurrently"}
	}
	return nil
}

func encodeDayList(days []string) (string, error) {
	normalized := make([]string, 0, len(days))
	for _, name := range days {
		day, err := models.ParseWeekday(name)
		if err != nil {
			return "", err
		}
		normalized = append(normalized, day.String())
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
