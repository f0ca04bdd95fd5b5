package repository

import (
	"context"
	"fmt"

	"smsoutreach/internal/models"
)

type messageLogRepository struct {
	db DB
}

// NewMessageLogRepository creates a new message log repository
func NewMessageLogRepository(db DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

const logMessageColumns = `id, provider_sid, phone_number, body, direction, status,
	sent_at, error_message, created_at`

func scanLogMessage(row interface{ Scan(...interface{}) error }) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID, &m.ProviderSID, &m.PhoneNumber, &m.Body, &m.Direction, &m.Status,
		&m.SentAt, &m.ErrorMessage, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageLogRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (provider_sid, phone_number, body, direction,
			status, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		msg.ProviderSID, msg.PhoneNumber, msg.Body, msg.Direction,
		msg.Status, msg.SentAt, msg.ErrorMessage,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageLogRepository) UpdateStatusBySID(ctx context.Context, providerSID string, status models.MessageStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status = $2 WHERE provider_sid = $1`,
		providerSID, status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update message status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update message status: %w", err)
	}
	return rows > 0, nil
}

func (r *messageLogRepository) List(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	if phone != "" {
		query := fmt.Sprintf(`
			SELECT %s FROM messages
			WHERE phone_number = $1
			ORDER BY created_at DESC
			LIMIT $2`, logMessageColumns)
		return r.queryMessages(ctx, query, phone, limit)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		ORDER BY created_at DESC
		LIMIT $1`, logMessageColumns)
	return r.queryMessages(ctx, query, limit)
}

func (r *messageLogRepository) ListByPhone(ctx context.Context, phone string) ([]*models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE phone_number = $1
		ORDER BY created_at ASC`, logMessageColumns)
	return r.queryMessages(ctx, query, phone)
}

// Conversations groups the message log by phone number, newest activity first.
// One row per number carries the latest message and the total count.
func (r *messageLogRepository) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s, message_count FROM (
			SELECT %s,
				COUNT(*) OVER (PARTITION BY phone_number) AS message_count,
				ROW_NUMBER() OVER (PARTITION BY phone_number ORDER BY created_at DESC) AS rn
			FROM messages
		) latest
		WHERE rn = 1
		ORDER BY created_at DESC`, logMessageColumns, logMessageColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convos []*models.Conversation
	for rows.Next() {
		var m models.Message
		var count int
		err := rows.Scan(
			&m.ID, &m.ProviderSID, &m.PhoneNumber, &m.Body, &m.Direction, &m.Status,
			&m.SentAt, &m.ErrorMessage, &m.CreatedAt, &count,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convos = append(convos, &models.Conversation{
			PhoneNumber:  m.PhoneNumber,
			LastMessage:  &m,
			MessageCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return convos, nil
}

func (r *messageLogRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		msg, err := scanLogMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}
