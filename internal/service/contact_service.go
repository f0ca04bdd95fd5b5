package service

import (
	"context"

	"smsoutreach/internal/leads"
	"smsoutreach/internal/models"
	"smsoutreach/internal/repository"
)

// ContactService merges the read-only leads directory with manually added
// contacts.
type ContactService struct {
	directory *leads.Directory
	manual    repository.ManualContactRepository
}

// NewContactService creates a new contact service
func NewContactService(directory *leads.Directory, manual repository.ManualContactRepository) *ContactService {
	return &ContactService{directory: directory, manual: manual}
}

// ContactPage is one page of directory results
type ContactPage struct {
	Contacts []models.Contact `json:"contacts"`
	Total    int              `json:"total"`
}

// Search returns directory contacts matching the filter, with manual contacts
// merged in when the manual source is included. Dedupe is by normalized phone,
// leads records winning over manual ones.
func (s *ContactService) Search(ctx context.Context, filter leads.Filter) (*ContactPage, error) {
	var contacts []models.Contact

	if filter.Source != "manual" {
		found, err := s.directory.ContactsByFilter(ctx, filter)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, found...)
	}

	if filter.Source == "" || filter.Source == "all" || filter.Source == "manual" {
		manual, err := s.manual.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range manual {
			c := m.AsContact()
			c.Phone = models.NormalizePhone(c.Phone)
			if c.Phone == "" {
				continue
			}
			contacts = append(contacts, c)
		}
	}

	seen := make(map[string]bool, len(contacts))
	unique := contacts[:0]
	for _, c := range contacts {
		if seen[c.Phone] {
			continue
		}
		seen[c.Phone] = true
		unique = append(unique, c)
	}

	total, err := s.directory.TotalCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ContactPage{Contacts: unique, Total: total}, nil
}

// Stats returns aggregate directory counts
func (s *ContactService) Stats(ctx context.Context) (*leads.Stats, error) {
	return s.directory.Stats(ctx)
}

// AddManualContact stores a manually added contact
func (s *ContactService) AddManualContact(ctx context.Context, contact *models.ManualContact) error {
	normalized := models.NormalizePhone(contact.PhoneNumber)
	if normalized == "" {
		return &ValidationError{Message: "invalid phone number"}
	}
	contact.PhoneNumber = normalized
	return s.manual.Create(ctx, contact)
}

// DeleteManualContact removes a manually added contact
func (s *ContactService) DeleteManualContact(ctx context.Context, id int) error {
	return s.manual.Delete(ctx, id)
}
