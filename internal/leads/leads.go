// Package leads is a read-only client for the external leads database.
// Contacts are never synced into the app database; every query goes live to
// the source and maps rows into the normalized models.Contact shape.
package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"smsoutreach/internal/models"
)

// Filter narrows a directory query. It is the decoded form of a campaign's
// stored filter criteria blob.
type Filter struct {
	Search     string `json:"search,omitempty"`
	Source     string `json:"source,omitempty"` // "permit", "owner" or "all"
	MobileOnly *bool  `json:"mobile_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// ParseFilter decodes a stored filter criteria blob. A nil or empty blob
// yields the zero filter (everything, default limits).
func ParseFilter(raw *string) (Filter, error) {
	var f Filter
	if raw == nil || *raw == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(*raw), &f); err != nil {
		return f, fmt.Errorf("malformed filter criteria: %w", err)
	}
	return f, nil
}

func (f Filter) mobileOnly() bool {
	return f.MobileOnly == nil || *f.MobileOnly
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Stats summarizes the available leads
type Stats struct {
	TotalContacts  int `json:"total_contacts"`
	MobileContacts int `json:"mobile_contacts"`
	OwnerContacts  int `json:"owner_contacts"`
}

// Directory answers contact lookups against the leads database
type Directory struct {
	db *sql.DB
}

// NewDirectory creates a directory over an open leads database handle
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

const permitContactQuery = `
	SELECT DISTINCT ON (c.phone)
		COALESCE(c.name, ''), c.phone, COALESCE(c.role, ''),
		COALESCE(p.owner_business_name, '')
	FROM contacts c
	LEFT JOIN permit_contacts pc ON c.id = pc.contact_id
	LEFT JOIN permits p ON pc.permit_id = p.id
	WHERE c.phone IS NOT NULL AND c.phone <> ''`

const ownerContactQuery = `
	SELECT COALESCE(owner_name, ''), phone, '' AS role, '' AS company
	FROM owner_contacts
	WHERE phone IS NOT NULL AND phone <> ''`

// ContactsByFilter returns contacts matching the filter, combining permit and
// owner sources, deduplicated by normalized phone. Contacts whose phone
// cannot be normalized are dropped.
func (d *Directory) ContactsByFilter(ctx context.Context, filter Filter) ([]models.Contact, error) {
	var contacts []models.Contact

	if filter.Source == "" || filter.Source == "all" || filter.Source == "permit" {
		permit, err := d.permitContacts(ctx, filter)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, permit...)
	}
	if filter.Source == "all" || filter.Source == "owner" {
		owner, err := d.ownerContacts(ctx, filter)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, owner...)
	}

	deduped := dedupeByPhone(contacts)
	if len(deduped) > filter.limit() {
		deduped = deduped[:filter.limit()]
	}
	return deduped, nil
}

func (d *Directory) permitContacts(ctx context.Context, filter Filter) ([]models.Contact, error) {
	query := permitContactQuery
	var args []interface{}

	if filter.mobileOnly() {
		query += " AND c.is_mobile = true"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (c.name ILIKE $%d OR c.phone ILIKE $%d
			OR p.owner_business_name ILIKE $%d OR p.address ILIKE $%d)`, n, n, n, n)
	}
	query += " ORDER BY c.phone, c.updated_at DESC"
	args = append(args, filter.limit(), filter.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return d.queryContacts(ctx, query, models.ContactSourcePermit, args...)
}

func (d *Directory) ownerContacts(ctx context.Context, filter Filter) ([]models.Contact, error) {
	query := ownerContactQuery
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (owner_name ILIKE $%d OR phone ILIKE $%d)", n, n)
	}
	query += " ORDER BY created_at DESC"
	args = append(args, filter.limit(), filter.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return d.queryContacts(ctx, query, models.ContactSourceOwner, args...)
}

// ContactsByPhones returns contacts for the given phone numbers. Lookups match
// on the leads database's bare 10-digit storage format.
func (d *Directory) ContactsByPhones(ctx context.Context, phones []string) ([]models.Contact, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	bare := make([]string, 0, len(phones))
	for _, phone := range phones {
		if p := bareDigits(phone); p != "" {
			bare = append(bare, p)
		}
	}
	if len(bare) == 0 {
		return nil, nil
	}

	query := permitContactQuery + ` AND c.phone = ANY($1)`
	contacts, err := d.queryContacts(ctx, query, models.ContactSourcePermit, pq.Array(bare))
	if err != nil {
		return nil, err
	}
	return dedupeByPhone(contacts), nil
}

// ContactByPhone returns the contact for one phone number, or nil when the
// leads database has no match.
func (d *Directory) ContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	contacts, err := d.ContactsByPhones(ctx, []string{phone})
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// Stats returns aggregate counts over the leads database
func (d *Directory) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM contacts WHERE is_mobile = true),
			(SELECT COUNT(*) FROM owner_contacts)`

	var s Stats
	if err := d.db.QueryRowContext(ctx, query).Scan(&s.TotalContacts, &s.MobileContacts, &s.OwnerContacts); err != nil {
		return nil, fmt.Errorf("failed to load leads stats: %w", err)
	}
	return &s, nil
}

// TotalCount returns the total number of distinct contacts matching the
// filter's source and mobile settings, for pagination.
func (d *Directory) TotalCount(ctx context.Context, filter Filter) (int, error) {
	total := 0

	if filter.Source == "" || filter.Source == "all" || filter.Source == "permit" {
		query := `SELECT COUNT(DISTINCT phone) FROM contacts WHERE phone IS NOT NULL AND phone <> ''`
		if filter.mobileOnly() {
			query += " AND is_mobile = true"
		}
		var count int
		if err := d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count permit contacts: %w", err)
		}
		total += count
	}
	if filter.Source == "all" || filter.Source == "owner" {
		var count int
		err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM owner_contacts WHERE phone IS NOT NULL AND phone <> ''`,
		).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("failed to count owner contacts: %w", err)
		}
		total += count
	}
	return total, nil
}

func (d *Directory) queryContacts(ctx context.Context, query string, source models.ContactSource, args ...interface{}) ([]models.Contact, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		var rawPhone string
		if err := rows.Scan(&c.Name, &rawPhone, &c.Role, &c.Company); err != nil {
			return nil, fmt.Errorf("failed to scan leads contact: %w", err)
		}
		c.Phone = models.NormalizePhone(rawPhone)
		if c.Phone == "" {
			continue
		}
		c.Source = source
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads contacts: %w", err)
	}
	return contacts, nil
}

// bareDigits strips a normalized number back to the 10-digit form the leads
// database stores.
func bareDigits(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return string(digits)
}

func dedupeByPhone(contacts []models.Contact) []models.Contact {
	seen := make(map[string]bool, len(contacts))
	unique := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Phone == "" || seen[c.Phone] {
			continue
		}
		seen[c.Phone] = true
		unique = append(unique, c)
	}
	return unique
}
