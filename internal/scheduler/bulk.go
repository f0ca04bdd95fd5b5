package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/models"
)

// ProcessBulk executes every due bulk message
func (e *Engine) ProcessBulk(ctx context.Context) error {
	due, err := e.bulk.ListDue(ctx, e.now())
	if err != nil {
		return err
	}

	for _, msg := range due {
		if err := e.executeBulk(ctx, msg); err != nil {
			logrus.WithError(err).WithField("bulk_id", msg.ID).Error("bulk execution failed")
		}
	}
	return nil
}

// executeBulk sends one blast. The stored recipient list is re-validated
// before anything goes out: empty, malformed or over-cap lists hard-stop to
// failed without sending. Per-recipient provider failures never abort the
// batch; counters commit after every individual send so a crash leaves
// inspectable partial progress.
func (e *Engine) executeBulk(ctx context.Context, msg *models.ScheduledBulkMessage) error {
	recipients, err := msg.Recipients()
	if err != nil {
		return e.bulk.Fail(ctx, msg.ID, err.Error())
	}
	if len(recipients) == 0 {
		return e.bulk.Fail(ctx, msg.ID, "recipient list is empty")
	}
	if len(recipients) > models.MaxBulkRecipients {
		return e.bulk.Fail(ctx, msg.ID, "recipient list exceeds the maximum of 50")
	}

	claimed, err := e.bulk.TransitionStatus(ctx, msg.ID, models.BulkStatusPending, models.BulkStatusInProgress)
	if err != nil {
		return err
	}
	if !claimed {
		// Another poller (or a pause/cancel) got there first.
		return nil
	}

	contacts := e.bulkContacts(ctx, msg, recipients)

	now := e.now()
	sent, failed := 0, 0
	for _, phone := range recipients {
		body := msg.Body
		if e.renderer.HasPlaceholders(body) {
			body = e.renderer.Render(body, contacts[phone], now)
		}

		sid, sendErr := e.sender.Send(ctx, phone, body)
		if err := e.logBulkSend(ctx, phone, body, sid, sendErr, now); err != nil {
			logrus.WithError(err).WithField("bulk_id", msg.ID).Error("failed to log bulk send")
		}

		if sendErr != nil {
			failed++
			logrus.WithError(sendErr).WithFields(logrus.Fields{
				"bulk_id": msg.ID,
				"phone":   phone,
			}).Warn("bulk recipient send failed")
			if err := e.bulk.IncrementCounters(ctx, msg.ID, 0, 1); err != nil {
				return err
			}
			continue
		}

		sent++
		if err := e.bulk.IncrementCounters(ctx, msg.ID, 1, 0); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"bulk_id": msg.ID,
		"sent":    sent,
		"failed":  failed,
	}).Info("bulk message executed")

	return e.finishBulk(ctx, msg)
}

// finishBulk reschedules a recurring message for its next occurrence or
// marks it completed.
func (e *Engine) finishBulk(ctx context.Context, msg *models.ScheduledBulkMessage) error {
	now := e.now()
	if !msg.IsRecurring() {
		return e.bulk.Complete(ctx, msg.ID, now)
	}

	weekdays, err := msg.RecurrenceWeekdays()
	if err != nil {
		return e.bulk.Fail(ctx, msg.ID, err.Error())
	}
	next, ok, err := NextOccurrence(*msg.RecurrenceType, msg.ScheduledAt, now, weekdays, msg.RecurrenceEnd)
	if err != nil {
		return e.bulk.Fail(ctx, msg.ID, err.Error())
	}
	if !ok {
		return e.bulk.Complete(ctx, msg.ID, now)
	}

	logrus.WithFields(logrus.Fields{
		"bulk_id": msg.ID,
		"next_at": next,
	}).Info("bulk message rescheduled")
	return e.bulk.Reschedule(ctx, msg.ID, next, now)
}

// bulkContacts resolves directory contacts for personalization. Lookup
// failures degrade to empty contacts rather than blocking the blast.
func (e *Engine) bulkContacts(ctx context.Context, msg *models.ScheduledBulkMessage, recipients []string) map[string]*models.Contact {
	byPhone := make(map[string]*models.Contact, len(recipients))
	if e.directory == nil {
		return byPhone
	}

	contacts, err := e.directory.ContactsByPhones(ctx, recipients)
	if err != nil {
		logrus.WithError(err).WithField("bulk_id", msg.ID).Warn("failed to resolve bulk contacts")
		return byPhone
	}
	for i := range contacts {
		byPhone[contacts[i].Phone] = &contacts[i]
	}
	return byPhone
}

func (e *Engine) logBulkSend(ctx context.Context, phone, body, sid string, sendErr error, now time.Time) error {
	logMsg := &models.Message{
		PhoneNumber: phone,
		Body:        body,
		Direction:   models.DirectionOutbound,
		Status:      models.MessageStatusSent,
		SentAt:      &now,
	}
	if sid != "" {
		logMsg.ProviderSID = &sid
	}
	if sendErr != nil {
		errText := sendErr.Error()
		logMsg.Status = models.MessageStatusFailed
		logMsg.ErrorMessage = &errText
	}
	return e.messages.Create(ctx, logMsg)
}
