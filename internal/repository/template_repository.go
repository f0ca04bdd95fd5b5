package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"smsoutreach/internal/models"
)

type templateRepository struct {
	db DB
}

// NewTemplateRepository creates a new message template repository
func NewTemplateRepository(db DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tmpl *models.MessageTemplate) error {
	query := `
		INSERT INTO message_templates (name, body)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, tmpl.Name, tmpl.Body).
		Scan(&tmpl.ID, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message template: %w", err)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context) ([]*models.MessageTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, body, created_at, updated_at FROM message_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list message templates: %w", err)
	}
	defer rows.Close()

	var tmpls []*models.MessageTemplate
	for rows.Next() {
		var t models.MessageTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message template: %w", err)
		}
		tmpls = append(tmpls, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message templates: %w", err)
	}
	return tmpls, nil
}

func (r *templateRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM message_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message template: %w", err)
	}
	return requireRowsAffected(result, "message template")
}

type manualContactRepository struct {
	db DB
}

// NewManualContactRepository creates a new manual contact repository
func NewManualContactRepository(db DB) ManualContactRepository {
	return &manualContactRepository{db: db}
}

const manualContactColumns = `id, name, phone_number, company, role, notes, created_at, updated_at`

func scanManualContact(row interface{ Scan(...interface{}) error }) (*models.ManualContact, error) {
	var c models.ManualContact
	err := row.Scan(&c.ID, &c.Name, &c.PhoneNumber, &c.Company, &c.Role, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *manualContactRepository) Create(ctx context.Context, contact *models.ManualContact) error {
	query := `
		INSERT INTO manual_contacts (name, phone_number, company, role, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		contact.Name, contact.PhoneNumber, contact.Company, contact.Role, contact.Notes,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create manual contact: %w", err)
	}
	return nil
}

func (r *manualContactRepository) List(ctx context.Context) ([]*models.ManualContact, error) {
	query := fmt.Sprintf(`SELECT %s FROM manual_contacts ORDER BY created_at DESC`, manualContactColumns)
	return r.queryManualContacts(ctx, query)
}

func (r *manualContactRepository) ListByPhones(ctx context.Context, phones []string) ([]*models.ManualContact, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM manual_contacts WHERE phone_number = ANY($1)`, manualContactColumns)
	return r.queryManualContacts(ctx, query, pq.Array(phones))
}

func (r *manualContactRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM manual_contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete manual contact: %w", err)
	}
	return requireRowsAffected(result, "manual contact")
}

func (r *manualContactRepository) queryManualContacts(ctx context.Context, query string, args ...interface{}) ([]*models.ManualContact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.ManualContact
	for rows.Next() {
		contact, err := scanManualContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manual contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate manual contacts: %w", err)
	}
	return contacts, nil
}
