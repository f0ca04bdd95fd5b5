package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"smsoutreach/internal/models"

	"github.com/lib/pq"
)

type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

const enrollmentColumns = `id, campaign_id, phone_number, contact_name, contact_company,
	ab_variant, status, current_step, last_message_at, last_message_id,
	first_response_at, first_response_message_id, response_count,
	opted_out_at, opted_out_keyword, enrolled_at`

func scanEnrollment(row interface{ Scan(...interface{}) error }) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	err := row.Scan(
		&e.ID,
		&e.CampaignID,
		&e.PhoneNumber,
		&e.ContactName,
		&e.ContactCompany,
		&e.ABVariant,
		&e.Status,
		&e.CurrentStep,
		&e.LastMessageAt,
		&e.LastMessageID,
		&e.FirstResponseAt,
		&e.FirstResponseMessageID,
		&e.ResponseCount,
		&e.OptedOutAt,
		&e.OptedOutKeyword,
		&e.EnrolledAt,
	)
	return e, err
}

// Create creates a new enrollment
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO campaign_enrollments (campaign_id, phone_number, contact_name, contact_company, ab_variant, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, enrolled_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		enrollment.CampaignID,
		enrollment.PhoneNumber,
		enrollment.ContactName,
		enrollment.ContactCompany,
		enrollment.ABVariant,
		enrollment.Status,
	).Scan(&enrollment.ID, &enrollment.EnrolledAt)

	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// GetByID retrieves an enrollment by ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM campaign_enrollments WHERE id = $1`

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return enrollment, nil
}

// Exists reports whether the phone is already enrolled in the campaign
func (r *enrollmentRepository) Exists(ctx context.Context, campaignID int, phone string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1 AND phone_number = $2`,
		campaignID, phone,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

// ListByCampaign retrieves enrollments with optional status filter and pagination
func (r *enrollmentRepository) ListByCampaign(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	countQuery := `SELECT COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1`
	listQuery := `SELECT ` + enrollmentColumns + ` FROM campaign_enrollments WHERE campaign_id = $1`
	args := []interface{}{campaignID}

	if status != nil {
		countQuery += ` AND status = $2`
		listQuery += ` AND status = $2`
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	listQuery += fmt.Sprintf(` ORDER BY enrolled_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	enrollments, err := r.queryEnrollments(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// ListSendable retrieves enrollments still eligible for automated sends
func (r *enrollmentRepository) ListSendable(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM campaign_enrollments
		WHERE campaign_id = $1 AND status IN ('active', 'engaged')
		ORDER BY id`

	return r.queryEnrollments(ctx, query, campaignID)
}

// ListRespondable retrieves enrollments for a phone whose campaigns should
// still track inbound replies: active/paused campaigns, or completed ones
// inside their response-tracking window.
func (r *enrollmentRepository) ListRespondable(ctx context.Context, phone string, now time.Time) ([]*models.Enrollment, error) {
	query := `SELECT ` + prefixColumns("e", enrollmentColumns) + `
		FROM campaign_enrollments e
		JOIN campaigns c ON e.campaign_id = c.id
		WHERE e.phone_number = $1
		  AND e.status IN ('active', 'engaged')
		  AND (
			c.status IN ('active', 'paused')
			OR (c.status = 'completed' AND c.response_tracking_ends_at > $2)
		  )
		ORDER BY e.id`

	return r.queryEnrollments(ctx, query, phone, now)
}

// ListOverlapping maps campaign names to the given phones already enrolled
// active/engaged in an active or paused campaign.
func (r *enrollmentRepository) ListOverlapping(ctx context.Context, phones []string) (map[string][]string, error) {
	if len(phones) == 0 {
		return map[string][]string{}, nil
	}

	query := `
		SELECT c.name, e.phone_number
		FROM campaign_enrollments e
		JOIN campaigns c ON e.campaign_id = c.id
		WHERE e.phone_number = ANY($1)
		  AND c.status IN ('active', 'paused')
		  AND e.status IN ('active', 'engaged')
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(phones))
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment overlap: %w", err)
	}
	defer rows.Close()

	overlaps := map[string][]string{}
	for rows.Next() {
		var name, phone string
		if err := rows.Scan(&name, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan overlap row: %w", err)
		}
		overlaps[name] = append(overlaps[name], phone)
	}

	return overlaps, rows.Err()
}

// UpdateProgress advances an enrollment after a successful scheduled send
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, id, step, messageID int, at time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE campaign_enrollments SET current_step = $1, last_message_id = $2, last_message_at = $3 WHERE id = $4`,
		step, messageID, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}
	return requireRowsAffected(result, "enrollment")
}

// UpdateStatus sets an enrollment's status
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE campaign_enrollments SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}
	return requireRowsAffected(result, "enrollment")
}

// RecordReply marks an inbound reply: engaged status, response counter, and
// first-response stamps when this is the first reply.
func (r *enrollmentRepository) RecordReply(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE campaign_enrollments
		SET status = 'engaged',
			response_count = response_count + 1,
			first_response_at = COALESCE(first_response_at, $1),
			first_response_message_id = COALESCE(first_response_message_id, last_message_id)
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to record reply: %w", err)
	}
	return requireRowsAffected(result, "enrollment")
}

// MarkOptedOut transitions an enrollment to the terminal opted_out state,
// storing the (truncated) triggering text.
func (r *enrollmentRepository) MarkOptedOut(ctx context.Context, id int, at time.Time, keyword string) error {
	if len(keyword) > 50 {
		keyword = keyword[:50]
	}

	query := `
		UPDATE campaign_enrollments
		SET status = 'opted_out', opted_out_at = $1, opted_out_keyword = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, at, keyword, id)
	if err != nil {
		return fmt.Errorf("failed to mark opt-out: %w", err)
	}
	return requireRowsAffected(result, "enrollment")
}

// CountByStatus tallies a campaign's enrollments per status
func (r *enrollmentRepository) CountByStatus(ctx context.Context, campaignID int) (map[models.EnrollmentStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1 GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments by status: %w", err)
	}
	defer rows.Close()

	counts := map[models.EnrollmentStatus]int{}
	for rows.Next() {
		var status models.EnrollmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// CountSendable counts enrollments still eligible for automated sends
func (r *enrollmentRepository) CountSendable(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1 AND status IN ('active', 'engaged')`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sendable enrollments: %w", err)
	}
	return count, nil
}

// Count counts all enrollments for a campaign
func (r *enrollmentRepository) Count(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return count, nil
}

// CompleteActive marks all still-active enrollments completed (used when a
// campaign is explicitly completed).
func (r *enrollmentRepository) CompleteActive(ctx context.Context, campaignID int) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE campaign_enrollments SET status = 'completed' WHERE campaign_id = $1 AND status = 'active'`,
		campaignID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete active enrollments: %w", err)
	}
	return nil
}

// ListResponded retrieves enrollments that have replied, newest first
func (r *enrollmentRepository) ListResponded(ctx context.Context, campaignID, limit int) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM campaign_enrollments
		WHERE campaign_id = $1 AND first_response_at IS NOT NULL
		ORDER BY first_response_at DESC
		LIMIT $2`

	return r.queryEnrollments(ctx, query, campaignID, limit)
}

// CountResponded counts enrollments that have replied at least once
func (r *enrollmentRepository) CountResponded(ctx context.Context, campaignID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaign_enrollments WHERE campaign_id = $1 AND first_response_at IS NOT NULL`,
		campaignID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count responded enrollments: %w", err)
	}
	return count, nil
}

// ListOptedOut retrieves opted-out enrollments, newest first
func (r *enrollmentRepository) ListOptedOut(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM campaign_enrollments
		WHERE campaign_id = $1 AND status = 'opted_out'
		ORDER BY opted_out_at DESC`

	return r.queryEnrollments(ctx, query, campaignID)
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias, for use in joins.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func (r *enrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]*models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	return enrollments, rows.Err()
}
