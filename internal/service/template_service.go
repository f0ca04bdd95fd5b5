package service

import (
	"regexp"
	"strings"
	"time"

	"smsoutreach/internal/models"
)

// TemplateService handles message body rendering
type TemplateService struct {
	loc *time.Location
}

// NewTemplateService creates a new template service. loc is the fixed
// timezone used for {date} and {time} substitution.
func NewTemplateService(loc *time.Location) *TemplateService {
	if loc == nil {
		loc = time.UTC
	}
	return &TemplateService{loc: loc}
}

var spaceRun = regexp.MustCompile(` +`)

// Render substitutes {name}, {company}, {role}, {phone}, {date} and {time}
// placeholders with contact fields and the current wall clock.
// Strategy for missing fields: replace with empty string, then collapse any
// run of spaces and trim. Unrecognized tokens are left verbatim.
func (s *TemplateService) Render(body string, contact *models.Contact, now time.Time) string {
	var c models.Contact
	if contact != nil {
		c = *contact
	}
	local := now.In(s.loc)

	rendered := body
	rendered = strings.ReplaceAll(rendered, "{name}", c.Name)
	rendered = strings.ReplaceAll(rendered, "{company}", c.Company)
	rendered = strings.ReplaceAll(rendered, "{role}", c.Role)
	rendered = strings.ReplaceAll(rendered, "{phone}", c.Phone)
	rendered = strings.ReplaceAll(rendered, "{date}", local.Format("January 2, 2006"))
	rendered = strings.ReplaceAll(rendered, "{time}", local.Format("3:04 PM"))

	rendered = spaceRun.ReplaceAllString(rendered, " ")
	return strings.TrimSpace(rendered)
}

// HasPlaceholders reports whether the body contains placeholder syntax
func (s *TemplateService) HasPlaceholders(body string) bool {
	return strings.Contains(body, "{") && strings.Contains(body, "}")
}

var placeholderPattern = regexp.MustCompile(`\{[a-zA-Z_]+\}`)

// Placeholders extracts all placeholder tokens from a body
func (s *TemplateService) Placeholders(body string) []string {
	return placeholderPattern.FindAllString(body, -1)
}
