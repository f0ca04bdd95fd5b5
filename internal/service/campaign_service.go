package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/leads"
	"smsoutreach/internal/models"
	"smsoutreach/internal/repository"
)

// OptOutKeywords is the fixed set scanned on every inbound message. Matching
// is case-insensitive substring containment over the whole body.
var OptOutKeywords = []string{"stop", "unsubscribe", "cancel", "quit", "end"}

// Directory resolves contacts from the external leads database
type Directory interface {
	ContactsByFilter(ctx context.Context, filter leads.Filter) ([]models.Contact, error)
	ContactsByPhones(ctx context.Context, phones []string) ([]models.Contact, error)
}

// CampaignService handles campaign business logic: CRUD, sequence messages,
// A/B tests, enrollment, lifecycle transitions and inbound response handling.
type CampaignService struct {
	campaigns   repository.CampaignRepository
	enrollments repository.EnrollmentRepository
	sends       repository.SendRepository
	manual      repository.ManualContactRepository
	directory   Directory
	loc         *time.Location
	now         func() time.Time
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaigns repository.CampaignRepository,
	enrollments repository.EnrollmentRepository,
	sends repository.SendRepository,
	manual repository.ManualContactRepository,
	directory Directory,
	loc *time.Location,
) *CampaignService {
	if loc == nil {
		loc = time.UTC
	}
	return &CampaignService{
		campaigns:   campaigns,
		enrollments: enrollments,
		sends:       sends,
		manual:      manual,
		directory:   directory,
		loc:         loc,
		now:         time.Now,
	}
}

// SetClock overrides the service clock (for testing)
func (s *CampaignService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateCampaign creates a new draft campaign
func (s *CampaignService) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	campaign.Status = models.CampaignStatusDraft
	if campaign.EnrollmentType == "" {
		campaign.EnrollmentType = models.EnrollmentSnapshot
	}
	if campaign.DefaultSendTime == "" {
		campaign.DefaultSendTime = models.DefaultSendTime
	}
	if err := campaign.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return s.campaigns.Create(ctx, campaign)
}

// GetCampaign retrieves a campaign with its messages and stats
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	messages, err := s.campaigns.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.CampaignWithStats{
		Campaign: *campaign,
		Stats:    *stats,
		Messages: messages,
	}, nil
}

// ListCampaigns retrieves campaigns, optionally filtered by status
func (s *CampaignService) ListCampaigns(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	return s.campaigns.List(ctx, status)
}

// UpdateCampaign updates a campaign's editable fields
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, updates *models.Campaign) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	if updates.Name != "" {
		campaign.Name = updates.Name
	}
	if updates.Description != nil {
		campaign.Description = updates.Description
	}
	if updates.EnrollmentType != "" {
		campaign.EnrollmentType = updates.EnrollmentType
	}
	if updates.FilterCriteria != nil {
		campaign.FilterCriteria = updates.FilterCriteria
	}
	if updates.DefaultSendTime != "" {
		campaign.DefaultSendTime = updates.DefaultSendTime
	}
	if err := campaign.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// DeleteCampaign deletes a campaign and its children. Only drafts may be
// deleted.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if campaign == nil {
		return &NotFoundError{Resource: "campaign", ID: id}
	}
	if !campaign.CanDelete() {
		return &BusinessLogicError{Message: "only draft campaigns can be deleted"}
	}
	return s.campaigns.Delete(ctx, id)
}

// AddMessage appends a message to the campaign's sequence
func (s *CampaignService) AddMessage(ctx context.Context, message *models.CampaignMessage) (*models.CampaignMessage, error) {
	campaign, err := s.campaigns.GetByID(ctx, message.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: message.CampaignID}
	}

	if message.EnableFollowup {
		if message.FollowupDays == 0 {
			message.FollowupDays = models.DefaultFollowupDays
		}
		if message.FollowupBody == "" {
			message.FollowupBody = models.DefaultFollowupBody
		}
	}
	if err := message.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.campaigns.AddMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// UpdateMessage updates a sequence message
func (s *CampaignService) UpdateMessage(ctx context.Context, message *models.CampaignMessage) error {
	existing, err := s.campaigns.GetMessage(ctx, message.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return &NotFoundError{Resource: "campaign message", ID: message.ID}
	}

	message.CampaignID = existing.CampaignID
	message.SequenceOrder = existing.SequenceOrder
	if message.EnableFollowup && message.FollowupDays == 0 {
		message.FollowupDays = models.DefaultFollowupDays
	}
	if err := message.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return s.campaigns.UpdateMessage(ctx, message)
}

// DeleteMessage removes a message and renumbers the remaining sequence.
// A message with recorded sends is part of the audit trail and cannot be
// deleted.
func (s *CampaignService) DeleteMessage(ctx context.Context, id int) error {
	existing, err := s.campaigns.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &NotFoundError{Resource: "campaign message", ID: id}
	}
	sent, err := s.sends.CountByMessage(ctx, id)
	if err != nil {
		return err
	}
	if sent > 0 {
		return &BusinessLogicError{Message: "message has recorded sends and cannot be deleted"}
	}
	return s.campaigns.DeleteMessage(ctx, id)
}

// ReorderMessages applies a new sequence order. orderedIDs must contain every
// message of the campaign exactly once.
func (s *CampaignService) ReorderMessages(ctx context.Context, campaignID int, orderedIDs []int) error {
	messages, err := s.campaigns.ListMessages(ctx, campaignID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(messages) {
		return &ValidationError{Message: "message_ids must include every message exactly once"}
	}

	known := make(map[int]bool, len(messages))
	for _, m := range messages {
		known[m.ID] = true
	}
	for _, id := range orderedIDs {
		if !known[id] {
			return &ValidationError{Message: "message_ids contains an unknown message"}
		}
		delete(known, id)
	}

	for i, id := range orderedIDs {
		if err := s.campaigns.SetSequenceOrder(ctx, id, i+1); err != nil {
			return err
		}
	}
	return nil
}

// SetABTest creates or replaces the A/B test on a message. Variant A is the
// message's own body; variantBBody becomes variant B.
func (s *CampaignService) SetABTest(ctx context.Context, messageID int, variantBBody string) (*models.ABTest, error) {
	if variantBBody == "" {
		return nil, &ValidationError{Message: "variant_b_body is required"}
	}
	message, err := s.campaigns.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, &NotFoundError{Resource: "campaign message", ID: messageID}
	}

	test := &models.ABTest{
		CampaignID:        message.CampaignID,
		CampaignMessageID: messageID,
		VariantBBody:      variantBBody,
	}
	if err := s.campaigns.UpsertABTest(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// RemoveABTest deletes the A/B test on a message
func (s *CampaignService) RemoveABTest(ctx context.Context, messageID int) error {
	message, err := s.campaigns.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if message == nil {
		return &NotFoundError{Resource: "campaign message", ID: messageID}
	}
	return s.campaigns.DeleteABTest(ctx, messageID)
}

// ABTestResult reports the test counters and the current winner
type ABTestResult struct {
	Test   *models.ABTest  `json:"test"`
	Winner models.ABWinner `json:"winner"`
}

// GetABTestResult returns the A/B test state for a message
func (s *CampaignService) GetABTestResult(ctx context.Context, messageID int) (*ABTestResult, error) {
	test, err := s.campaigns.GetABTestByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, &NotFoundError{Resource: "ab test", ID: messageID}
	}
	return &ABTestResult{Test: test, Winner: test.Winner()}, nil
}

// EnrollmentRequest describes one bulk enrollment call. Any combination of an
// explicit phone list, the campaign's stored filter, and manual supplements
// is allowed.
type EnrollmentRequest struct {
	Phones        []string `json:"phones"`
	UseFilters    bool     `json:"use_filters"`
	ExcludePhones []string `json:"exclude_phones"`
}

// EnrollContacts enrolls contacts into a campaign. Phone numbers are
// normalized, de-duplicated within the batch and against existing
// enrollments (skip, never error). Returns the number actually enrolled.
func (s *CampaignService) EnrollContacts(ctx context.Context, campaignID int, req *EnrollmentRequest) (int, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if campaign == nil {
		return 0, &NotFoundError{Resource: "campaign", ID: campaignID}
	}

	contacts, err := s.resolveContacts(ctx, campaign, req)
	if err != nil {
		return 0, err
	}
	if len(contacts) == 0 {
		return 0, &ValidationError{Message: "no contacts to enroll"}
	}

	hasABTest, err := s.campaigns.HasABTestedMessage(ctx, campaignID)
	if err != nil {
		return 0, err
	}

	exclude := make(map[string]bool, len(req.ExcludePhones))
	for _, phone := range req.ExcludePhones {
		if p := models.NormalizePhone(phone); p != "" {
			exclude[p] = true
		}
	}

	enrolled := 0
	seen := make(map[string]bool, len(contacts))
	for _, contact := range contacts {
		phone := models.NormalizePhone(contact.Phone)
		if phone == "" || seen[phone] || exclude[phone] {
			continue
		}
		seen[phone] = true

		exists, err := s.enrollments.Exists(ctx, campaignID, phone)
		if err != nil {
			return enrolled, err
		}
		if exists {
			continue
		}

		enrollment := &models.Enrollment{
			CampaignID:  campaignID,
			PhoneNumber: phone,
			Status:      models.EnrollmentActive,
		}
		if contact.Name != "" {
			name := contact.Name
			enrollment.ContactName = &name
		}
		if contact.Company != "" {
			company := contact.Company
			enrollment.ContactCompany = &company
		}
		if hasABTest {
			variant := models.VariantA
			if rand.Intn(2) == 1 {
				variant = models.VariantB
			}
			enrollment.ABVariant = &variant
		}

		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			return enrolled, err
		}
		enrolled++
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"enrolled":    enrolled,
	}).Info("contacts enrolled")
	return enrolled, nil
}

// resolveContacts gathers the enrollment audience from the directory, the
// campaign's stored filter, and manual contacts.
func (s *CampaignService) resolveContacts(ctx context.Context, campaign *models.Campaign, req *EnrollmentRequest) ([]models.Contact, error) {
	var contacts []models.Contact

	if req.UseFilters && campaign.FilterCriteria != nil {
		filter, err := leads.ParseFilter(campaign.FilterCriteria)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		filtered, err := s.directory.ContactsByFilter(ctx, filter)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, filtered...)
	}

	if len(req.Phones) > 0 {
		byPhone, err := s.directory.ContactsByPhones(ctx, req.Phones)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, byPhone...)

		manual, err := s.manual.ListByPhones(ctx, req.Phones)
		if err != nil {
			return nil, err
		}
		for _, m := range manual {
			contacts = append(contacts, m.AsContact())
		}

		// Phones with no directory or manual record still enroll; the
		// snapshot just has no name to render.
		known := make(map[string]bool, len(contacts))
		for _, c := range contacts {
			known[models.NormalizePhone(c.Phone)] = true
		}
		for _, phone := range req.Phones {
			p := models.NormalizePhone(phone)
			if p != "" && !known[p] {
				contacts = append(contacts, models.Contact{Phone: p, Source: models.ContactSourceManual})
			}
		}
	}

	return contacts, nil
}

// PreviewEnrollment returns the contacts a filter would enroll, without
// persisting anything.
func (s *CampaignService) PreviewEnrollment(ctx context.Context, filter leads.Filter) ([]models.Contact, error) {
	return s.directory.ContactsByFilter(ctx, filter)
}

// CheckOverlap reports which of the given phones are already enrolled in
// active campaigns, keyed by campaign name.
func (s *CampaignService) CheckOverlap(ctx context.Context, phones []string) (map[string][]string, error) {
	normalized := make([]string, 0, len(phones))
	for _, phone := range phones {
		if p := models.NormalizePhone(phone); p != "" {
			normalized = append(normalized, p)
		}
	}
	if len(normalized) == 0 {
		return map[string][]string{}, nil
	}
	return s.enrollments.ListOverlapping(ctx, normalized)
}

// ListEnrollments retrieves a campaign's enrollments with optional status
// filter and pagination.
func (s *CampaignService) ListEnrollments(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	if campaign == nil {
		return nil, 0, &NotFoundError{Resource: "campaign", ID: campaignID}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.enrollments.ListByCampaign(ctx, campaignID, status, limit, offset)
}

// StartCampaign transitions a draft or paused campaign to active.
// Requires at least one message and at least one enrollment.
func (s *CampaignService) StartCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if !campaign.CanStart() {
		return nil, &BusinessLogicError{Message: "campaign can only start from draft or paused"}
	}

	messageCount, err := s.campaigns.CountMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	if messageCount == 0 {
		return nil, &BusinessLogicError{Message: "campaign has no messages"}
	}
	enrollmentCount, err := s.enrollments.Count(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollmentCount == 0 {
		return nil, &BusinessLogicError{Message: "campaign has no enrollments"}
	}

	now := s.now()
	campaign.Status = models.CampaignStatusActive
	if campaign.StartedAt == nil {
		campaign.StartedAt = &now
	}
	campaign.PausedAt = nil
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}

	logrus.WithField("campaign_id", id).Info("campaign started")
	return campaign, nil
}

// PauseCampaign pauses an active campaign
func (s *CampaignService) PauseCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if !campaign.CanPause() {
		return nil, &BusinessLogicError{Message: "only active campaigns can be paused"}
	}

	now := s.now()
	campaign.Status = models.CampaignStatusPaused
	campaign.PausedAt = &now
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// ResumeCampaign resumes a paused campaign
func (s *CampaignService) ResumeCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if !campaign.CanResume() {
		return nil, &BusinessLogicError{Message: "only paused campaigns can resume"}
	}

	campaign.Status = models.CampaignStatusActive
	campaign.PausedAt = nil
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// CompleteCampaign marks a campaign completed and opens the response-tracking
// window. Remaining active enrollments are marked completed; engaged and
// opted-out enrollments keep their status.
func (s *CampaignService) CompleteCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	if campaign.Status == models.CampaignStatusCompleted {
		return nil, &BusinessLogicError{Message: "campaign is already completed"}
	}
	if campaign.Status == models.CampaignStatusDraft {
		return nil, &BusinessLogicError{Message: "draft campaigns cannot be completed"}
	}

	now := s.now()
	trackingEnds := now.AddDate(0, 0, models.ResponseTrackingDays)
	campaign.Status = models.CampaignStatusCompleted
	campaign.CompletedAt = &now
	campaign.ResponseTrackingEndsAt = &trackingEnds
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}
	if err := s.enrollments.CompleteActive(ctx, id); err != nil {
		return nil, err
	}

	logrus.WithField("campaign_id", id).Info("campaign completed")
	return campaign, nil
}

// Stats summarizes a campaign's enrollments and sends
func (s *CampaignService) Stats(ctx context.Context, campaignID int) (*models.CampaignStats, error) {
	byStatus, err := s.enrollments.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	responded, err := s.enrollments.CountResponded(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sent, failed, err := s.sends.SendStatsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats := &models.CampaignStats{
		Active:      byStatus[models.EnrollmentActive],
		Engaged:     byStatus[models.EnrollmentEngaged],
		Completed:   byStatus[models.EnrollmentCompleted],
		OptedOut:    byStatus[models.EnrollmentOptedOut],
		TotalSent:   sent,
		TotalFailed: failed,
	}
	stats.TotalEnrolled = stats.Active + stats.Engaged + stats.Completed + stats.OptedOut
	if stats.TotalEnrolled > 0 {
		stats.ResponseRate = float64(responded) / float64(stats.TotalEnrolled)
	}
	return stats, nil
}

// HandleInboundResponse applies one inbound SMS to every enrollment that is
// still response-eligible for that phone: active/engaged enrollments of
// active/paused campaigns, plus completed campaigns within their tracking
// window. Opt-out keywords terminally opt the enrollment out; any other text
// marks it engaged and attributes the reply to the latest unanswered send.
func (s *CampaignService) HandleInboundResponse(ctx context.Context, phone, body string, at time.Time) error {
	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return &ValidationError{Message: "invalid phone number"}
	}

	optOut := matchOptOutKeyword(body)

	enrollments, err := s.enrollments.ListRespondable(ctx, normalized, at)
	if err != nil {
		return err
	}

	for _, enrollment := range enrollments {
		log := logrus.WithFields(logrus.Fields{
			"campaign_id":   enrollment.CampaignID,
			"enrollment_id": enrollment.ID,
			"phone":         normalized,
		})

		if optOut {
			if err := s.enrollments.MarkOptedOut(ctx, enrollment.ID, at, body); err != nil {
				return err
			}
			log.Info("enrollment opted out")
			continue
		}

		if err := s.enrollments.RecordReply(ctx, enrollment.ID, at); err != nil {
			return err
		}
		log.Info("enrollment reply recorded")

		if enrollment.LastMessageID == nil {
			continue
		}
		marked, err := s.sends.MarkResponded(ctx, enrollment.ID, *enrollment.LastMessageID, at)
		if err != nil {
			return err
		}
		if !marked {
			continue
		}

		test, err := s.campaigns.GetABTestByMessage(ctx, *enrollment.LastMessageID)
		if err != nil {
			return err
		}
		if test != nil {
			if err := s.campaigns.IncrementABResponse(ctx, test.ID, enrollment.VariantOrDefault()); err != nil {
				return err
			}
		}
	}

	return nil
}

// matchOptOutKeyword reports whether the body contains any opt-out keyword.
// Substring containment, not token matching: "Please don't cancel yet" opts
// out. That matches the dashboard's long-standing behavior.
func matchOptOutKeyword(body string) bool {
	lower := strings.ToLower(body)
	for _, keyword := range OptOutKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
