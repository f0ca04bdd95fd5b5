package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/models"
)

// ProcessCampaigns runs one step pass over every active campaign
func (e *Engine) ProcessCampaigns(ctx context.Context) error {
	campaigns, err := e.campaigns.ListByStatus(ctx, models.CampaignStatusActive)
	if err != nil {
		return err
	}

	for _, campaign := range campaigns {
		if err := e.processCampaign(ctx, campaign); err != nil {
			logrus.WithError(err).WithField("campaign_id", campaign.ID).Error("campaign pass failed")
		}
	}
	return nil
}

// processCampaign advances each sendable enrollment by at most one sequence
// step. Before the campaign's send time of day nothing happens; after it,
// each enrollment's next step goes out if its whole-day delay has elapsed and
// no scheduled send for that (enrollment, message) pair exists since local
// midnight.
func (e *Engine) processCampaign(ctx context.Context, campaign *models.Campaign) error {
	now := e.now()
	past, midnight := e.pastSendTime(campaign.DefaultSendTime, now)
	if !past {
		return nil
	}

	messages, err := e.campaigns.ListMessages(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	enrollments, err := e.enrollments.ListSendable(ctx, campaign.ID)
	if err != nil {
		return err
	}

	for _, enr := range enrollments {
		if err := e.processEnrollmentStep(ctx, campaign, messages, enr, now, midnight); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"campaign_id":   campaign.ID,
				"enrollment_id": enr.ID,
			}).Error("enrollment step failed")
		}
	}

	return e.maybeCompleteCampaign(ctx, campaign, now)
}

func (e *Engine) processEnrollmentStep(ctx context.Context, campaign *models.Campaign, messages []*models.CampaignMessage, enr *models.Enrollment, now, midnight time.Time) error {
	nextStep := enr.CurrentStep + 1
	if nextStep > len(messages) {
		return e.enrollments.UpdateStatus(ctx, enr.ID, models.EnrollmentCompleted)
	}

	msg := messages[nextStep-1]

	// Step 1 goes out immediately; later steps wait out their whole-day delay.
	if nextStep > 1 {
		if enr.LastMessageAt == nil {
			return nil
		}
		if wholeDaysSince(*enr.LastMessageAt, now) < msg.DaysAfterPrevious {
			return nil
		}
	}

	// Per-message send time override.
	if msg.SendTime != nil {
		if past, _ := e.pastSendTime(*msg.SendTime, now); !past {
			return nil
		}
	}

	// Same-day idempotence: overlapping ticks must not double-send.
	alreadySent, err := e.sends.ExistsScheduledSince(ctx, enr.ID, msg.ID, midnight)
	if err != nil {
		return err
	}
	if alreadySent {
		return nil
	}

	body, variant := variantBody(msg, enr)
	rendered := e.renderer.Render(body, enrollmentContact(enr), now)

	sid, sendErr := e.sender.Send(ctx, enr.PhoneNumber, rendered)
	if err := e.recordSend(ctx, campaign.ID, msg.ID, enr, models.SendTypeScheduled, variant, rendered, sid, sendErr, now); err != nil {
		return err
	}
	if sendErr != nil {
		logrus.WithError(sendErr).WithFields(logrus.Fields{
			"campaign_id":   campaign.ID,
			"enrollment_id": enr.ID,
			"step":          nextStep,
		}).Warn("step send failed")
		return nil
	}

	if err := e.enrollments.UpdateProgress(ctx, enr.ID, nextStep, msg.ID, now); err != nil {
		return err
	}
	if msg.ABTest != nil {
		if err := e.campaigns.IncrementABSent(ctx, msg.ABTest.ID, variant); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id":   campaign.ID,
		"enrollment_id": enr.ID,
		"step":          nextStep,
		"variant":       variant,
	}).Info("campaign step sent")
	return nil
}

// maybeCompleteCampaign completes the campaign once no enrollment remains
// sendable, opening the 30-day response-tracking window.
func (e *Engine) maybeCompleteCampaign(ctx context.Context, campaign *models.Campaign, now time.Time) error {
	total, err := e.enrollments.Count(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	sendable, err := e.enrollments.CountSendable(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if sendable > 0 {
		return nil
	}

	trackingEnds := now.AddDate(0, 0, models.ResponseTrackingDays)
	campaign.Status = models.CampaignStatusCompleted
	campaign.CompletedAt = &now
	campaign.ResponseTrackingEndsAt = &trackingEnds
	if err := e.campaigns.Update(ctx, campaign); err != nil {
		return err
	}

	logrus.WithField("campaign_id", campaign.ID).Info("campaign auto-completed")
	return nil
}

// ProcessFollowups runs one follow-up pass over every active campaign
func (e *Engine) ProcessFollowups(ctx context.Context) error {
	campaigns, err := e.campaigns.ListByStatus(ctx, models.CampaignStatusActive)
	if err != nil {
		return err
	}

	for _, campaign := range campaigns {
		if err := e.processFollowups(ctx, campaign); err != nil {
			logrus.WithError(err).WithField("campaign_id", campaign.ID).Error("follow-up pass failed")
		}
	}
	return nil
}

// processFollowups sends the follow-up body for each enrollment whose last
// message has follow-ups enabled, once its delay has elapsed. A response to
// the original send fully suppresses the follow-up; the check happens here,
// at send time.
func (e *Engine) processFollowups(ctx context.Context, campaign *models.Campaign) error {
	now := e.now()
	if past, _ := e.pastSendTime(campaign.DefaultSendTime, now); !past {
		return nil
	}

	enrollments, err := e.enrollments.ListSendable(ctx, campaign.ID)
	if err != nil {
		return err
	}

	for _, enr := range enrollments {
		if enr.LastMessageID == nil || enr.LastMessageAt == nil {
			continue
		}

		msg, err := e.campaigns.GetMessage(ctx, *enr.LastMessageID)
		if err != nil {
			return err
		}
		if msg == nil || !msg.EnableFollowup {
			continue
		}
		if wholeDaysSince(*enr.LastMessageAt, now) < msg.FollowupDays {
			continue
		}

		exists, err := e.sends.ExistsFollowup(ctx, enr.ID, msg.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		responded, err := e.sends.HasResponse(ctx, enr.ID, msg.ID)
		if err != nil {
			return err
		}
		if responded {
			continue
		}

		body := msg.FollowupBody
		if body == "" {
			body = models.DefaultFollowupBody
		}
		rendered := e.renderer.Render(body, enrollmentContact(enr), now)

		sid, sendErr := e.sender.Send(ctx, enr.PhoneNumber, rendered)
		variant := enr.VariantOrDefault()
		if err := e.recordSend(ctx, campaign.ID, msg.ID, enr, models.SendTypeFollowup, variant, rendered, sid, sendErr, now); err != nil {
			return err
		}
		if sendErr != nil {
			logrus.WithError(sendErr).WithFields(logrus.Fields{
				"campaign_id":   campaign.ID,
				"enrollment_id": enr.ID,
			}).Warn("follow-up send failed")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"campaign_id":   campaign.ID,
			"enrollment_id": enr.ID,
			"message_id":    msg.ID,
		}).Info("follow-up sent")
	}
	return nil
}

// recordSend writes the immutable send audit record and mirrors it into the
// flat message log.
func (e *Engine) recordSend(ctx context.Context, campaignID, messageID int, enr *models.Enrollment, sendType models.SendType, variant models.Variant, body, sid string, sendErr error, now time.Time) error {
	send := &models.CampaignSend{
		CampaignID:        campaignID,
		CampaignMessageID: messageID,
		EnrollmentID:      enr.ID,
		PhoneNumber:       enr.PhoneNumber,
		SendType:          sendType,
		Variant:           &variant,
		Body:              body,
		Status:            models.SendStatusSent,
		SentAt:            now,
	}
	logMsg := &models.Message{
		PhoneNumber: enr.PhoneNumber,
		Body:        body,
		Direction:   models.DirectionOutbound,
		Status:      models.MessageStatusSent,
		SentAt:      &now,
	}

	if sid != "" {
		send.ProviderSID = &sid
		logMsg.ProviderSID = &sid
	}
	if sendErr != nil {
		errText := sendErr.Error()
		send.Status = models.SendStatusFailed
		send.ErrorMessage = &errText
		logMsg.Status = models.MessageStatusFailed
		logMsg.ErrorMessage = &errText
	}

	if err := e.sends.Create(ctx, send); err != nil {
		return err
	}
	return e.messages.Create(ctx, logMsg)
}
