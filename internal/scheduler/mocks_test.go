package scheduler

import (
	"context"
	"strings"
	"time"

	"smsoutreach/internal/models"
)

// MockCampaignRepo mocks repository.CampaignRepository for engine tests
type MockCampaignRepo struct {
	CreateFunc             func(ctx context.Context, campaign *models.Campaign) error
	GetByIDFunc            func(ctx context.Context, id int) (*models.Campaign, error)
	ListFunc               func(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error)
	ListByStatusFunc       func(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error)
	UpdateFunc             func(ctx context.Context, campaign *models.Campaign) error
	DeleteFunc             func(ctx context.Context, id int) error
	AddMessageFunc         func(ctx context.Context, message *models.CampaignMessage) error
	GetMessageFunc         func(ctx context.Context, id int) (*models.CampaignMessage, error)
	UpdateMessageFunc      func(ctx context.Context, message *models.CampaignMessage) error
	DeleteMessageFunc      func(ctx context.Context, id int) error
	ListMessagesFunc       func(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error)
	SetSequenceOrderFunc   func(ctx context.Context, messageID, order int) error
	CountMessagesFunc      func(ctx context.Context, campaignID int) (int, error)
	HasABTestedMessageFunc func(ctx context.Context, campaignID int) (bool, error)
	UpsertABTestFunc       func(ctx context.Context, test *models.ABTest) error
	GetABTestByMessageFunc func(ctx context.Context, messageID int) (*models.ABTest, error)
	DeleteABTestFunc       func(ctx context.Context, messageID int) error
	IncrementABSentFunc    func(ctx context.Context, testID int, variant models.Variant) error
	IncrementABRespFunc    func(ctx context.Context, testID int, variant models.Variant) error

	Calls map[string]int
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{Calls: make(map[string]int)}
}

func (m *MockCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCampaignRepo) List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status)
	}
	return nil, nil
}

func (m *MockCampaignRepo) ListByStatus(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error) {
	m.Calls["ListByStatus"]++
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, statuses...)
	}
	return nil, nil
}

func (m *MockCampaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, campaign)
	}
	return nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepo) AddMessage(ctx context.Context, message *models.CampaignMessage) error {
	m.Calls["AddMessage"]++
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(ctx, message)
	}
	return nil
}

func (m *MockCampaignRepo) GetMessage(ctx context.Context, id int) (*models.CampaignMessage, error) {
	m.Calls["GetMessage"]++
	if m.GetMessageFunc != nil {
		return m.GetMessageFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCampaignRepo) UpdateMessage(ctx context.Context, message *models.CampaignMessage) error {
	m.Calls["UpdateMessage"]++
	if m.UpdateMessageFunc != nil {
		return m.UpdateMessageFunc(ctx, message)
	}
	return nil
}

func (m *MockCampaignRepo) DeleteMessage(ctx context.Context, id int) error {
	m.Calls["DeleteMessage"]++
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepo) ListMessages(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error) {
	m.Calls["ListMessages"]++
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, campaignID)
	}
	return nil, nil
}

func (m *MockCampaignRepo) SetSequenceOrder(ctx context.Context, messageID, order int) error {
	m.Calls["SetSequenceOrder"]++
	if m.SetSequenceOrderFunc != nil {
		return m.SetSequenceOrderFunc(ctx, messageID, order)
	}
	return nil
}

func (m *MockCampaignRepo) CountMessages(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountMessages"]++
	if m.CountMessagesFunc != nil {
		return m.CountMessagesFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockCampaignRepo) HasABTestedMessage(ctx context.Context, campaignID int) (bool, error) {
	m.Calls["HasABTestedMessage"]++
	if m.HasABTestedMessageFunc != nil {
		return m.HasABTestedMessageFunc(ctx, campaignID)
	}
	return false, nil
}

func (m *MockCampaignRepo) UpsertABTest(ctx context.Context, test *models.ABTest) error {
	m.Calls["UpsertABTest"]++
	if m.UpsertABTestFunc != nil {
		return m.UpsertABTestFunc(ctx, test)
	}
	return nil
}

func (m *MockCampaignRepo) GetABTestByMessage(ctx context.Context, messageID int) (*models.ABTest, error) {
	m.Calls["GetABTestByMessage"]++
	if m.GetABTestByMessageFunc != nil {
		return m.GetABTestByMessageFunc(ctx, messageID)
	}
	return nil, nil
}

func (m *MockCampaignRepo) DeleteABTest(ctx context.Context, messageID int) error {
	m.Calls["DeleteABTest"]++
	if m.DeleteABTestFunc != nil {
		return m.DeleteABTestFunc(ctx, messageID)
	}
	return nil
}

func (m *MockCampaignRepo) IncrementABSent(ctx context.Context, testID int, variant models.Variant) error {
	m.Calls["IncrementABSent"]++
	if m.IncrementABSentFunc != nil {
		return m.IncrementABSentFunc(ctx, testID, variant)
	}
	return nil
}

func (m *MockCampaignRepo) IncrementABResponse(ctx context.Context, testID int, variant models.Variant) error {
	m.Calls["IncrementABResponse"]++
	if m.IncrementABRespFunc != nil {
		return m.IncrementABRespFunc(ctx, testID, variant)
	}
	return nil
}

// MockEnrollmentRepo mocks repository.EnrollmentRepository for engine tests
type MockEnrollmentRepo struct {
	CreateFunc          func(ctx context.Context, enrollment *models.Enrollment) error
	GetByIDFunc         func(ctx context.Context, id int) (*models.Enrollment, error)
	ExistsFunc          func(ctx context.Context, campaignID int, phone string) (bool, error)
	ListByCampaignFunc  func(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error)
	ListSendableFunc    func(ctx context.Context, campaignID int) ([]*models.Enrollment, error)
	ListRespondableFunc func(ctx context.Context, phone string, now time.Time) ([]*models.Enrollment, error)
	ListOverlappingFunc func(ctx context.Context, phones []string) (map[string][]string, error)
	UpdateProgressFunc  func(ctx context.Context, id, step, messageID int, at time.Time) error
	UpdateStatusFunc    func(ctx context.Context, id int, status models.EnrollmentStatus) error
	RecordReplyFunc     func(ctx context.Context, id int, at time.Time) error
	MarkOptedOutFunc    func(ctx context.Context, id int, at time.Time, keyword string) error
	CountByStatusFunc   func(ctx context.Context, campaignID int) (map[models.EnrollmentStatus]int, error)
	CountRespondedFunc  func(ctx context.Context, campaignID int) (int, error)
	CountSendableFunc   func(ctx context.Context, campaignID int) (int, error)
	CountFunc           func(ctx context.Context, campaignID int) (int, error)
	CompleteActiveFunc  func(ctx context.Context, campaignID int) error
	ListRespondedFunc   func(ctx context.Context, campaignID, limit int) ([]*models.Enrollment, error)
	ListOptedOutFunc    func(ctx context.Context, campaignID int) ([]*models.Enrollment, error)

	Calls map[string]int
}

func NewMockEnrollmentRepo() *MockEnrollmentRepo {
	return &MockEnrollmentRepo{Calls: make(map[string]int)}
}

func (m *MockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, enrollment)
	}
	return nil
}

func (m *MockEnrollmentRepo) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockEnrollmentRepo) Exists(ctx context.Context, campaignID int, phone string) (bool, error) {
	m.Calls["Exists"]++
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, campaignID, phone)
	}
	return false, nil
}

func (m *MockEnrollmentRepo) ListByCampaign(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error) {
	m.Calls["ListByCampaign"]++
	if m.ListByCampaignFunc != nil {
		return m.ListByCampaignFunc(ctx, campaignID, status, limit, offset)
	}
	return nil, 0, nil
}

func (m *MockEnrollmentRepo) ListSendable(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	m.Calls["ListSendable"]++
	if m.ListSendableFunc != nil {
		return m.ListSendableFunc(ctx, campaignID)
	}
	return nil, nil
}

func (m *MockEnrollmentRepo) ListRespondable(ctx context.Context, phone string, now time.Time) ([]*models.Enrollment, error) {
	m.Calls["ListRespondable"]++
	if m.ListRespondableFunc != nil {
		return m.ListRespondableFunc(ctx, phone, now)
	}
	return nil, nil
}

func (m *MockEnrollmentRepo) ListOverlapping(ctx context.Context, phones []string) (map[string][]string, error) {
	m.Calls["ListOverlapping"]++
	if m.ListOverlappingFunc != nil {
		return m.ListOverlappingFunc(ctx, phones)
	}
	return map[string][]string{}, nil
}

func (m *MockEnrollmentRepo) UpdateProgress(ctx context.Context, id, step, messageID int, at time.Time) error {
	m.Calls["UpdateProgress"]++
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, id, step, messageID, at)
	}
	return nil
}

func (m *MockEnrollmentRepo) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	m.Calls["UpdateStatus"]++
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockEnrollmentRepo) RecordReply(ctx context.Context, id int, at time.Time) error {
	m.Calls["RecordReply"]++
	if m.RecordReplyFunc != nil {
		return m.RecordReplyFunc(ctx, id, at)
	}
	return nil
}

func (m *MockEnrollmentRepo) MarkOptedOut(ctx context.Context, id int, at time.Time, keyword string) error {
	m.Calls["MarkOptedOut"]++
	if m.MarkOptedOutFunc != nil {
		return m.MarkOptedOutFunc(ctx, id, at, keyword)
	}
	return nil
}

func (m *MockEnrollmentRepo) CountByStatus(ctx context.Context, campaignID int) (map[models.EnrollmentStatus]int, error) {
	m.Calls["CountByStatus"]++
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, campaignID)
	}
	return map[models.EnrollmentStatus]int{}, nil
}

func (m *MockEnrollmentRepo) CountResponded(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountResponded"]++
	if m.CountRespondedFunc != nil {
		return m.CountRespondedFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepo) CountSendable(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountSendable"]++
	if m.CountSendableFunc != nil {
		return m.CountSendableFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepo) Count(ctx context.Context, campaignID int) (int, error) {
	m.Calls["Count"]++
	if m.CountFunc != nil {
		return m.CountFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepo) CompleteActive(ctx context.Context, campaignID int) error {
	m.Calls["CompleteActive"]++
	if m.CompleteActiveFunc != nil {
		return m.CompleteActiveFunc(ctx, campaignID)
	}
	return nil
}

func (m *MockEnrollmentRepo) ListResponded(ctx context.Context, campaignID, limit int) ([]*models.Enrollment, error) {
	m.Calls["ListResponded"]++
	if m.ListRespondedFunc != nil {
		return m.ListRespondedFunc(ctx, campaignID, limit)
	}
	return nil, nil
}

func (m *MockEnrollmentRepo) ListOptedOut(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	m.Calls["ListOptedOut"]++
	if m.ListOptedOutFunc != nil {
		return m.ListOptedOutFunc(ctx, campaignID)
	}
	return nil, nil
}

// MockSendRepo is a stateful send-record mock: created sends are kept and the
// existence checks answer from them, which is how tick idempotence works
// against the real database.
type MockSendRepo struct {
	Created []*models.CampaignSend

	MarkRespondedFunc func(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error)
	HasResponseFunc   func(ctx context.Context, enrollmentID, messageID int) (bool, error)

	Calls map[string]int
}

func NewMockSendRepo() *MockSendRepo {
	return &MockSendRepo{Calls: make(map[string]int)}
}

func (m *MockSendRepo) Create(ctx context.Context, send *models.CampaignSend) error {
	m.Calls["Create"]++
	send.ID = len(m.Created) + 1
	m.Created = append(m.Created, send)
	return nil
}

func (m *MockSendRepo) ExistsScheduledSince(ctx context.Context, enrollmentID, messageID int, since time.Time) (bool, error) {
	m.Calls["ExistsScheduledSince"]++
	for _, s := range m.Created {
		if s.EnrollmentID == enrollmentID && s.CampaignMessageID == messageID &&
			s.SendType == models.SendTypeScheduled && !s.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSendRepo) ExistsFollowup(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	m.Calls["ExistsFollowup"]++
	for _, s := range m.Created {
		if s.EnrollmentID == enrollmentID && s.CampaignMessageID == messageID &&
			s.SendType == models.SendTypeFollowup {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockSendRepo) HasResponse(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	m.Calls["HasResponse"]++
	if m.HasResponseFunc != nil {
		return m.HasResponseFunc(ctx, enrollmentID, messageID)
	}
	return false, nil
}

func (m *MockSendRepo) MarkResponded(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error) {
	m.Calls["MarkResponded"]++
	if m.MarkRespondedFunc != nil {
		return m.MarkRespondedFunc(ctx, enrollmentID, messageID, at)
	}
	return true, nil
}

func (m *MockSendRepo) CountByMessage(ctx context.Context, messageID int) (int, error) {
	m.Calls["CountByMessage"]++
	count := 0
	for _, s := range m.Created {
		if s.CampaignMessageID == messageID {
			count++
		}
	}
	return count, nil
}

func (m *MockSendRepo) SendStatsByCampaign(ctx context.Context, campaignID int) (int, int, error) {
	m.Calls["SendStatsByCampaign"]++
	sent, failed := 0, 0
	for _, s := range m.Created {
		if s.CampaignID != campaignID {
			continue
		}
		if s.Status == models.SendStatusFailed {
			failed++
		} else {
			sent++
		}
	}
	return sent, failed, nil
}

func (m *MockSendRepo) UpdateStatusBySID(ctx context.Context, providerSID string, status models.SendStatus) error {
	m.Calls["UpdateStatusBySID"]++
	return nil
}

// MockBulkRepo mocks repository.BulkRepository for engine tests
type MockBulkRepo struct {
	CreateFunc              func(ctx context.Context, msg *models.ScheduledBulkMessage) error
	GetByIDFunc             func(ctx context.Context, id int) (*models.ScheduledBulkMessage, error)
	ListFunc                func(ctx context.Context) ([]*models.ScheduledBulkMessage, error)
	ListDueFunc             func(ctx context.Context, now time.Time) ([]*models.ScheduledBulkMessage, error)
	TransitionStatusFunc    func(ctx context.Context, id int, from, to models.BulkStatus) (bool, error)
	IncrementCountersFunc   func(ctx context.Context, id, sentDelta, failedDelta int) error
	CompleteFunc            func(ctx context.Context, id int, lastSentAt time.Time) error
	FailFunc                func(ctx context.Context, id int, reason string) error
	RescheduleFunc          func(ctx context.Context, id int, nextAt, lastSentAt time.Time) error
	SetScheduledAtFunc      func(ctx context.Context, id int, at time.Time) error
	FailStaleInProgressFunc func(ctx context.Context, reason string) (int, error)

	Calls map[string]int
}

func NewMockBulkRepo() *MockBulkRepo {
	return &MockBulkRepo{Calls: make(map[string]int)}
}

func (m *MockBulkRepo) Create(ctx context.Context, msg *models.ScheduledBulkMessage) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

func (m *MockBulkRepo) GetByID(ctx context.Context, id int) (*models.ScheduledBulkMessage, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockBulkRepo) List(ctx context.Context) ([]*models.ScheduledBulkMessage, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockBulkRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledBulkMessage, error) {
	m.Calls["ListDue"]++
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockBulkRepo) TransitionStatus(ctx context.Context, id int, from, to models.BulkStatus) (bool, error) {
	m.Calls["TransitionStatus"]++
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, id, from, to)
	}
	return true, nil
}

func (m *MockBulkRepo) IncrementCounters(ctx context.Context, id, sentDelta, failedDelta int) error {
	m.Calls["IncrementCounters"]++
	if m.IncrementCountersFunc != nil {
		return m.IncrementCountersFunc(ctx, id, sentDelta, failedDelta)
	}
	return nil
}

func (m *MockBulkRepo) Complete(ctx context.Context, id int, lastSentAt time.Time) error {
	m.Calls["Complete"]++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, id, lastSentAt)
	}
	return nil
}

func (m *MockBulkRepo) Fail(ctx context.Context, id int, reason string) error {
	m.Calls["Fail"]++
	if m.FailFunc != nil {
		return m.FailFunc(ctx, id, reason)
	}
	return nil
}

func (m *MockBulkRepo) Reschedule(ctx context.Context, id int, nextAt, lastSentAt time.Time) error {
	m.Calls["Reschedule"]++
	if m.RescheduleFunc != nil {
		return m.RescheduleFunc(ctx, id, nextAt, lastSentAt)
	}
	return nil
}

func (m *MockBulkRepo) SetScheduledAt(ctx context.Context, id int, at time.Time) error {
	m.Calls["SetScheduledAt"]++
	if m.SetScheduledAtFunc != nil {
		return m.SetScheduledAtFunc(ctx, id, at)
	}
	return nil
}

func (m *MockBulkRepo) FailStaleInProgress(ctx context.Context, reason string) (int, error) {
	m.Calls["FailStaleInProgress"]++
	if m.FailStaleInProgressFunc != nil {
		return m.FailStaleInProgressFunc(ctx, reason)
	}
	return 0, nil
}

// MockMessageLogRepo mocks repository.MessageLogRepository
type MockMessageLogRepo struct {
	Created []*models.Message

	Calls map[string]int
}

func NewMockMessageLogRepo() *MockMessageLogRepo {
	return &MockMessageLogRepo{Calls: make(map[string]int)}
}

func (m *MockMessageLogRepo) Create(ctx context.Context, msg *models.Message) error {
	m.Calls["Create"]++
	msg.ID = len(m.Created) + 1
	m.Created = append(m.Created, msg)
	return nil
}

func (m *MockMessageLogRepo) UpdateStatusBySID(ctx context.Context, providerSID string, status models.MessageStatus) (bool, error) {
	m.Calls["UpdateStatusBySID"]++
	return false, nil
}

func (m *MockMessageLogRepo) List(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	m.Calls["List"]++
	return nil, nil
}

func (m *MockMessageLogRepo) ListByPhone(ctx context.Context, phone string) ([]*models.Message, error) {
	m.Calls["ListByPhone"]++
	return nil, nil
}

func (m *MockMessageLogRepo) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	m.Calls["Conversations"]++
	return nil, nil
}

// MockSender records outbound sends and can be scripted to fail per phone
type MockSender struct {
	SendFunc func(ctx context.Context, phone, body string) (string, error)

	Sent []struct{ Phone, Body string }
}

func (m *MockSender) Send(ctx context.Context, phone, body string) (string, error) {
	m.Sent = append(m.Sent, struct{ Phone, Body string }{phone, body})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, phone, body)
	}
	return "SMtest", nil
}

// MockRenderer substitutes {name} only, which is enough to observe which
// body and contact the engine handed to the renderer
type MockRenderer struct{}

func (MockRenderer) Render(body string, contact *models.Contact, now time.Time) string {
	name := "there"
	if contact != nil && contact.Name != "" {
		name = contact.Name
	}
	return strings.ReplaceAll(body, "{name}", name)
}

func (MockRenderer) HasPlaceholders(body string) bool {
	return strings.Contains(body, "{")
}

// MockDirectory mocks the leads directory
type MockDirectory struct {
	ContactsByPhonesFunc func(ctx context.Context, phones []string) ([]models.Contact, error)
}

func (m *MockDirectory) ContactsByPhones(ctx context.Context, phones []string) ([]models.Contact, error) {
	if m.ContactsByPhonesFunc != nil {
		return m.ContactsByPhonesFunc(ctx, phones)
	}
	return nil, nil
}
