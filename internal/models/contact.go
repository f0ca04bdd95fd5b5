package models

import "strings"

// ContactSource identifies where a contact record came from
type ContactSource string

const (
	ContactSourcePermit ContactSource = "permit_contact"
	ContactSourceOwner  ContactSource = "owner_contact"
	ContactSourceManual ContactSource = "manual"
)

// Contact is the normalized contact shape used everywhere in the engine.
// The leads database and manual contacts both map into this struct; the
// loosely-typed per-source fields stay at the directory boundary.
type Contact struct {
	Name    string        `json:"name"`
	Company string        `json:"company"`
	Role    string        `json:"role"`
	Phone   string        `json:"phone"` // normalized +1XXXXXXXXXX
	Source  ContactSource `json:"source"`
}

// NormalizePhone normalizes a phone number to +1XXXXXXXXXX format.
// Returns "" when the input cannot be normalized.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11:
		return "+" + digits
	}
	return ""
}
