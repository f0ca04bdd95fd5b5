package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smsoutreach/internal/models"
)

type sendRepository struct {
	db DB
}

// NewSendRepository creates a new send repository
func NewSendRepository(db DB) SendRepository {
	return &sendRepository{db: db}
}

func (r *sendRepository) Create(ctx context.Context, send *models.CampaignSend) error {
	query := `
		INSERT INTO campaign_sends (campaign_id, campaign_message_id, enrollment_id,
			phone_number, send_type, variant, body, provider_sid, status,
			error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		send.CampaignID, send.CampaignMessageID, send.EnrollmentID,
		send.PhoneNumber, send.SendType, send.Variant, send.Body,
		send.ProviderSID, send.Status, send.ErrorMessage, send.SentAt,
	).Scan(&send.ID)
	if err != nil {
		return fmt.Errorf("failed to create campaign send: %w", err)
	}
	return nil
}

func (r *sendRepository) ExistsScheduledSince(ctx context.Context, enrollmentID, messageID int, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM campaign_sends
			WHERE enrollment_id = $1 AND campaign_message_id = $2
			  AND send_type = $3 AND sent_at >= $4
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, messageID, models.SendTypeScheduled, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check scheduled send: %w", err)
	}
	return exists, nil
}

func (r *sendRepository) ExistsFollowup(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM campaign_sends
			WHERE enrollment_id = $1 AND campaign_message_id = $2 AND send_type = $3
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, messageID, models.SendTypeFollowup).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check followup send: %w", err)
	}
	return exists, nil
}

func (r *sendRepository) HasResponse(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM campaign_sends
			WHERE enrollment_id = $1 AND campaign_message_id = $2
			  AND response_received = TRUE
		)`

	var has bool
	err := r.db.QueryRowContext(ctx, query, enrollmentID, messageID).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("failed to check send response: %w", err)
	}
	return has, nil
}

// MarkResponded attributes an inbound reply to the most recent unanswered send
// of the given message. Returns false when every matching send already has a
// response, so repeated replies are only counted once per send.
func (r *sendRepository) MarkResponded(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error) {
	query := `
		UPDATE campaign_sends
		SET response_received = TRUE, response_at = $3
		WHERE id = (
			SELECT id FROM campaign_sends
			WHERE enrollment_id = $1 AND campaign_message_id = $2
			  AND response_received = FALSE
			ORDER BY sent_at DESC
			LIMIT 1
		)`

	result, err := r.db.ExecContext(ctx, query, enrollmentID, messageID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark send responded: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark send responded: %w", err)
	}
	return rows > 0, nil
}

func (r *sendRepository) CountByMessage(ctx context.Context, messageID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaign_sends WHERE campaign_message_id = $1`,
		messageID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sends: %w", err)
	}
	return count, nil
}

func (r *sendRepository) SendStatsByCampaign(ctx context.Context, campaignID int) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status <> $2),
			COUNT(*) FILTER (WHERE status = $2)
		FROM campaign_sends
		WHERE campaign_id = $1`

	var sent, failed int
	err := r.db.QueryRowContext(ctx, query, campaignID, models.SendStatusFailed).Scan(&sent, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load send stats: %w", err)
	}
	return sent, failed, nil
}

func (r *sendRepository) UpdateStatusBySID(ctx context.Context, providerSID string, status models.SendStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaign_sends SET status = $2 WHERE provider_sid = $1`,
		providerSID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update send status: %w", err)
	}
	// A SID we never recorded is not an error; status callbacks can race the
	// insert or belong to a non-campaign message.
	if _, err := result.RowsAffected(); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to update send status: %w", err)
	}
	return nil
}
