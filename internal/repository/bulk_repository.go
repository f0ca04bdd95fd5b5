package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smsoutreach/internal/models"
)

type bulkRepository struct {
	db DB
}

// NewBulkRepository creates a new scheduled bulk message repository
func NewBulkRepository(db DB) BulkRepository {
	return &bulkRepository{db: db}
}

const bulkColumns = `id, name, body, recipient_phones, scheduled_at, status,
	total_recipients, sent_count, failed_count, recurrence_type, recurrence_days,
	recurrence_end, last_sent_at, send_count, created_at`

func scanBulk(row interface{ Scan(...interface{}) error }) (*models.ScheduledBulkMessage, error) {
	var m models.ScheduledBulkMessage
	err := row.Scan(
		&m.ID, &m.Name, &m.Body, &m.RecipientPhones, &m.ScheduledAt, &m.Status,
		&m.TotalRecipients, &m.SentCount, &m.FailedCount, &m.RecurrenceType,
		&m.RecurrenceDays, &m.RecurrenceEnd, &m.LastSentAt, &m.SendCount, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *bulkRepository) Create(ctx context.Context, msg *models.ScheduledBulkMessage) error {
	query := `
		INSERT INTO scheduled_bulk_messages (name, body, recipient_phones,
			scheduled_at, status, total_recipients, recurrence_type,
			recurrence_days, recurrence_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		msg.Name, msg.Body, msg.RecipientPhones, msg.ScheduledAt, msg.Status,
		msg.TotalRecipients, msg.RecurrenceType, msg.RecurrenceDays, msg.RecurrenceEnd,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scheduled bulk message: %w", err)
	}
	return nil
}

func (r *bulkRepository) GetByID(ctx context.Context, id int) (*models.ScheduledBulkMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_bulk_messages WHERE id = $1`, bulkColumns)

	msg, err := scanBulk(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled bulk message: %w", err)
	}
	return msg, nil
}

func (r *bulkRepository) List(ctx context.Context) ([]*models.ScheduledBulkMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_bulk_messages ORDER BY scheduled_at DESC`, bulkColumns)
	return r.queryBulk(ctx, query)
}

// ListDue returns pending messages whose scheduled time has arrived, oldest
// first so a backlog drains in order.
func (r *bulkRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledBulkMessage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM scheduled_bulk_messages
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`, bulkColumns)
	return r.queryBulk(ctx, query, models.BulkStatusPending, now)
}

// TransitionStatus moves a message from one status to another only if it is
// still in the expected status. Returns false when the row was already moved,
// which lets concurrent pollers claim work without double-sending.
func (r *bulkRepository) TransitionStatus(ctx context.Context, id int, from, to models.BulkStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition bulk message status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to transition bulk message status: %w", err)
	}
	return rows > 0, nil
}

func (r *bulkRepository) IncrementCounters(ctx context.Context, id, sentDelta, failedDelta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages
		 SET sent_count = sent_count + $2, failed_count = failed_count + $3
		 WHERE id = $1`,
		id, sentDelta, failedDelta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment bulk counters: %w", err)
	}
	return requireRowsAffected(result, "scheduled bulk message")
}

func (r *bulkRepository) Complete(ctx context.Context, id int, lastSentAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages
		 SET status = $2, last_sent_at = $3, send_count = send_count + 1
		 WHERE id = $1`,
		id, models.BulkStatusCompleted, lastSentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete bulk message: %w", err)
	}
	return requireRowsAffected(result, "scheduled bulk message")
}

func (r *bulkRepository) Fail(ctx context.Context, id int, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages SET status = $2, last_error = $3 WHERE id = $1`,
		id, models.BulkStatusFailed, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to fail bulk message: %w", err)
	}
	return requireRowsAffected(result, "scheduled bulk message")
}

// Reschedule resets a recurring message for its next occurrence. Counters
// start over so each occurrence reports its own delivery numbers.
func (r *bulkRepository) Reschedule(ctx context.Context, id int, nextAt, lastSentAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages
		 SET status = $2, scheduled_at = $3, last_sent_at = $4,
		     send_count = send_count + 1, sent_count = 0, failed_count = 0
		 WHERE id = $1`,
		id, models.BulkStatusPending, nextAt, lastSentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule bulk message: %w", err)
	}
	return requireRowsAffected(result, "scheduled bulk message")
}

func (r *bulkRepository) SetScheduledAt(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages SET scheduled_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update bulk schedule: %w", err)
	}
	return requireRowsAffected(result, "scheduled bulk message")
}

// FailStaleInProgress marks any message stuck in in_progress as failed.
// Called once at scheduler startup: a row in that state means a previous run
// died mid-send, and partially sent blasts must not silently restart.
func (r *bulkRepository) FailStaleInProgress(ctx context.Context, reason string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_bulk_messages SET status = $2, last_error = $3 WHERE status = $1`,
		models.BulkStatusInProgress, models.BulkStatusFailed, reason,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale bulk messages: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale bulk messages: %w", err)
	}
	return int(rows), nil
}

func (r *bulkRepository) queryBulk(ctx context.Context, query string, args ...interface{}) ([]*models.ScheduledBulkMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled bulk messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.ScheduledBulkMessage
	for rows.Next() {
		msg, err := scanBulk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled bulk message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled bulk messages: %w", err)
	}
	return msgs, nil
}
