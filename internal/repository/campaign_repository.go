package repository

import (
	"context"
	"database/sql"
	"fmt"

	"smsoutreach/internal/models"

	"github.com/lib/pq"
)

type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, description, status, enrollment_type, filter_criteria,
	default_send_time, created_by, started_at, paused_at, completed_at,
	response_tracking_ends_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*models.Campaign, error) {
	c := &models.Campaign{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Status,
		&c.EnrollmentType,
		&c.FilterCriteria,
		&c.DefaultSendTime,
		&c.CreatedBy,
		&c.StartedAt,
		&c.PausedAt,
		&c.CompletedAt,
		&c.ResponseTrackingEndsAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// Create creates a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (name, description, status, enrollment_type, filter_criteria, default_send_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Description,
		campaign.Status,
		campaign.EnrollmentType,
		campaign.FilterCriteria,
		campaign.DefaultSendTime,
		campaign.CreatedBy,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *campaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// List retrieves campaigns, optionally filtered by status, newest first
func (r *campaignRepository) List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryCampaigns(ctx, query, args...)
}

// ListByStatus retrieves campaigns in any of the given statuses
func (r *campaignRepository) ListByStatus(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = ANY($1) ORDER BY id`

	return r.queryCampaigns(ctx, query, pq.Array(values))
}

func (r *campaignRepository) queryCampaigns(ctx context.Context, query string, args ...interface{}) ([]*models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

// Update writes all mutable campaign fields, including lifecycle timestamps
func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1, description = $2, status = $3, enrollment_type = $4,
			filter_criteria = $5, default_send_time = $6, started_at = $7,
			paused_at = $8, completed_at = $9, response_tracking_ends_at = $10,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $11
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		campaign.Name,
		campaign.Description,
		campaign.Status,
		campaign.EnrollmentType,
		campaign.FilterCriteria,
		campaign.DefaultSendTime,
		campaign.StartedAt,
		campaign.PausedAt,
		campaign.CompletedAt,
		campaign.ResponseTrackingEndsAt,
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	return requireRowsAffected(result, "campaign")
}

// Delete deletes a campaign and all owned rows. Callers must check the
// draft-only invariant first.
func (r *campaignRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM campaign_sends WHERE campaign_id = $1`,
		`DELETE FROM campaign_enrollments WHERE campaign_id = $1`,
		`DELETE FROM campaign_ab_tests WHERE campaign_id = $1`,
		`DELETE FROM campaign_messages WHERE campaign_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to delete campaign children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if err := requireRowsAffected(result, "campaign"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const messageColumns = `id, campaign_id, sequence_order, message_body, days_after_previous,
	send_time, enable_followup, followup_days, followup_body, has_ab_test, created_at, updated_at`

func scanMessage(row interface{ Scan(...interface{}) error }) (*models.CampaignMessage, error) {
	m := &models.CampaignMessage{}
	err := row.Scan(
		&m.ID,
		&m.CampaignID,
		&m.SequenceOrder,
		&m.MessageBody,
		&m.DaysAfterPrevious,
		&m.SendTime,
		&m.EnableFollowup,
		&m.FollowupDays,
		&m.FollowupBody,
		&m.HasABTest,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// AddMessage appends a message to a campaign sequence. A zero SequenceOrder
// is assigned the next position.
func (r *campaignRepository) AddMessage(ctx context.Context, message *models.CampaignMessage) error {
	if message.SequenceOrder == 0 {
		var maxOrder sql.NullInt64
		err := r.db.QueryRowContext(
			ctx,
			`SELECT MAX(sequence_order) FROM campaign_messages WHERE campaign_id = $1`,
			message.CampaignID,
		).Scan(&maxOrder)
		if err != nil {
			return fmt.Errorf("failed to get max sequence order: %w", err)
		}
		message.SequenceOrder = int(maxOrder.Int64) + 1
	}

	query := `
		INSERT INTO campaign_messages
			(campaign_id, sequence_order, message_body, days_after_previous, send_time,
			 enable_followup, followup_days, followup_body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		message.CampaignID,
		message.SequenceOrder,
		message.MessageBody,
		message.DaysAfterPrevious,
		message.SendTime,
		message.EnableFollowup,
		message.FollowupDays,
		message.FollowupBody,
	).Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to add campaign message: %w", err)
	}

	return nil
}

// GetMessage retrieves a campaign message by ID
func (r *campaignRepository) GetMessage(ctx context.Context, id int) (*models.CampaignMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM campaign_messages WHERE id = $1`

	message, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign message: %w", err)
	}

	return message, nil
}

// UpdateMessage writes the mutable message fields
func (r *campaignRepository) UpdateMessage(ctx context.Context, message *models.CampaignMessage) error {
	query := `
		UPDATE campaign_messages
		SET message_body = $1, days_after_previous = $2, send_time = $3,
			enable_followup = $4, followup_days = $5, followup_body = $6,
			sequence_order = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		message.MessageBody,
		message.DaysAfterPrevious,
		message.SendTime,
		message.EnableFollowup,
		message.FollowupDays,
		message.FollowupBody,
		message.SequenceOrder,
		message.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign message: %w", err)
	}

	return requireRowsAffected(result, "campaign message")
}

// DeleteMessage removes a message and its A/B test, then renumbers the
// remaining sequence to stay contiguous. Callers must check the
// no-recorded-sends invariant first.
func (r *campaignRepository) DeleteMessage(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var campaignID int
	err = tx.QueryRowContext(ctx, `SELECT campaign_id FROM campaign_messages WHERE id = $1`, id).Scan(&campaignID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("campaign message not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get campaign message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_ab_tests WHERE campaign_message_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete ab test: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete campaign message: %w", err)
	}

	// Renumber the survivors 1..N in their current order
	renumber := `
		UPDATE campaign_messages m
		SET sequence_order = ranked.new_order
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY sequence_order) AS new_order
			FROM campaign_messages
			WHERE campaign_id = $1
		) ranked
		WHERE m.id = ranked.id
	`
	if _, err := tx.ExecContext(ctx, renumber, campaignID); err != nil {
		return fmt.Errorf("failed to renumber sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListMessages retrieves a campaign's messages in sequence order,
// with A/B tests attached.
func (r *campaignRepository) ListMessages(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM campaign_messages WHERE campaign_id = $1 ORDER BY sequence_order`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.CampaignMessage{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, message := range messages {
		if !message.HasABTest {
			continue
		}
		test, err := r.GetABTestByMessage(ctx, message.ID)
		if err != nil {
			return nil, err
		}
		message.ABTest = test
	}

	return messages, nil
}

// SetSequenceOrder updates one message's position
func (r *campaignRepository) SetSequenceOrder(ctx context.Context, messageID, order int) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE campaign_messages SET sequence_order = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		order, messageID,
	)
	if err != nil {
		return fmt.Errorf("failed to set sequence order: %w", err)
	}
	return requireRowsAffected(result, "campaign message")
}

// CountMessages counts a campaign's sequence messages
func (r *campaignRepository) CountMessages(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_messages WHERE campaign_id = $1`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count campaign messages: %w", err)
	}
	return count, nil
}

// HasABTestedMessage reports whether any message in the campaign carries an A/B test
func (r *campaignRepository) HasABTestedMessage(ctx context.Context, campaignID int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_messages WHERE campaign_id = $1 AND has_ab_test = TRUE`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check ab tested messages: %w", err)
	}
	return count > 0, nil
}

const abTestColumns = `id, campaign_id, campaign_message_id, variant_b_body, sent_a, sent_b, responses_a, responses_b, created_at`

// UpsertABTest creates or updates the A/B test for a message and flips the
// message's has_ab_test flag.
func (r *campaignRepository) UpsertABTest(ctx context.Context, test *models.ABTest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_ab_tests (campaign_id, campaign_message_id, variant_b_body)
		VALUES ($1, $2, $3)
		ON CONFLICT (campaign_message_id)
		DO UPDATE SET variant_b_body = EXCLUDED.variant_b_body
		RETURNING ` + abTestColumns

	scanned, err := scanABTest(tx.QueryRowContext(ctx, query, test.CampaignID, test.CampaignMessageID, test.VariantBBody))
	if err != nil {
		return fmt.Errorf("failed to upsert ab test: %w", err)
	}
	*test = *scanned

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE campaign_messages SET has_ab_test = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		test.CampaignMessageID,
	); err != nil {
		return fmt.Errorf("failed to flag ab tested message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanABTest(row interface{ Scan(...interface{}) error }) (*models.ABTest, error) {
	t := &models.ABTest{}
	err := row.Scan(
		&t.ID,
		&t.CampaignID,
		&t.CampaignMessageID,
		&t.VariantBBody,
		&t.SentA,
		&t.SentB,
		&t.ResponsesA,
		&t.ResponsesB,
		&t.CreatedAt,
	)
	return t, err
}

// GetABTestByMessage retrieves the A/B test attached to a message, or nil
// when the message has none.
func (r *campaignRepository) GetABTestByMessage(ctx context.Context, messageID int) (*models.ABTest, error) {
	query := `SELECT ` + abTestColumns + ` FROM campaign_ab_tests WHERE campaign_message_id = $1`

	test, err := scanABTest(r.db.QueryRowContext(ctx, query, messageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ab test: %w", err)
	}

	return test, nil
}

// DeleteABTest removes a message's A/B test and clears the flag
func (r *campaignRepository) DeleteABTest(ctx context.Context, messageID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM campaign_ab_tests WHERE campaign_message_id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete ab test: %w", err)
	}
	if err := requireRowsAffected(result, "ab test"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE campaign_messages SET has_ab_test = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		messageID,
	); err != nil {
		return fmt.Errorf("failed to clear ab test flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IncrementABSent bumps the sent counter for one variant
func (r *campaignRepository) IncrementABSent(ctx context.Context, testID int, variant models.Variant) error {
	column := "sent_a"
	if variant == models.VariantB {
		column = "sent_b"
	}

	_, err := r.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE campaign_ab_tests SET %s = %s + 1 WHERE id = $1`, column, column),
		testID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment ab sent counter: %w", err)
	}
	return nil
}

// IncrementABResponse bumps the response counter for one variant
func (r *campaignRepository) IncrementABResponse(ctx context.Context, testID int, variant models.Variant) error {
	column := "responses_a"
	if variant == models.VariantB {
		column = "responses_b"
	}

	_, err := r.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE campaign_ab_tests SET %s = %s + 1 WHERE id = $1`, column, column),
		testID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment ab response counter: %w", err)
	}
	return nil
}

// requireRowsAffected converts a zero-row update into a not-found error
func requireRowsAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found", resource)
	}
	return nil
}
