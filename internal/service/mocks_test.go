package service

import (
	"context"
	"time"

	"smsoutreach/internal/leads"
	"smsoutreach/internal/models"
)

// MockCampaignRepository mocks repository.CampaignRepository
type MockCampaignRepository struct {
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

func NewMockCampaignRepository() *MockCampaignRepository {
	return &MockCampaignRepository{Calls: make(map[string]int)}
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	campaign.ID = 1
	campaign.CreatedAt = time.Now()
	return nil
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCampaignRepository) List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status)
	}
	return nil, nil
}

func (m *MockCampaignRepository) ListByStatus(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error) {
	m.Calls["ListByStatus"]++
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, statuses...)
	}
	return nil, nil
}

func (m *MockCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, campaign)
	}
	return nil
}

func (m *MockCampaignRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) AddMessage(ctx context.Context, message *models.CampaignMessage) error {
	m.Calls["AddMessage"]++
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(ctx, message)
	}
	message.ID = 1
	return nil
}

func (m *MockCampaignRepository) GetMessage(ctx context.Context, id int) (*models.CampaignMessage, error) {
	m.Calls["GetMessage"]++
	if m.GetMessageFunc != nil {
		return m.GetMessageFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCampaignRepository) UpdateMessage(ctx context.Context, message *models.CampaignMessage) error {
	m.Calls["UpdateMessage"]++
	if m.UpdateMessageFunc != nil {
		return m.UpdateMessageFunc(ctx, message)
	}
	return nil
}

func (m *MockCampaignRepository) DeleteMessage(ctx context.Context, id int) error {
	m.Calls["DeleteMessage"]++
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) ListMessages(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error) {
	m.Calls["ListMessages"]++
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, campaignID)
	}
	return nil, nil
}

func (m *MockCampaignRepository) SetSequenceOrder(ctx context.Context, messageID, order int) error {
	m.Calls["SetSequenceOrder"]++
	if m.SetSequenceOrderFunc != nil {
		return m.SetSequenceOrderFunc(ctx, messageID, order)
	}
	return nil
}

func (m *MockCampaignRepository) CountMessages(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountMessages"]++
	if m.CountMessagesFunc != nil {
		return m.CountMessagesFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockCampaignRepository) HasABTestedMessage(ctx context.Context, campaignID int) (bool, error) {
	m.Calls["HasABTestedMessage"]++
	if m.HasABTestedMessageFunc != nil {
		return m.HasABTestedMessageFunc(ctx, campaignID)
	}
	return false, nil
}

func (m *MockCampaignRepository) UpsertABTest(ctx context.Context, test *models.ABTest) error {
	m.Calls["UpsertABTest"]++
	if m.UpsertABTestFunc != nil {
		return m.UpsertABTestFunc(ctx, test)
	}
	test.ID = 1
	return nil
}

func (m *MockCampaignRepository) GetABTestByMessage(ctx context.Context, messageID int) (*models.ABTest, error) {
	m.Calls["GetABTestByMessage"]++
	if m.GetABTestByMessageFunc != nil {
		return m.GetABTestByMessageFunc(ctx, messageID)
	}
	return nil, nil
}

func (m *MockCampaignRepository) DeleteABTest(ctx context.Context, messageID int) error {
	m.Calls["DeleteABTest"]++
	if m.DeleteABTestFunc != nil {
		return m.DeleteABTestFunc(ctx, messageID)
	}
	return nil
}

func (m *MockCampaignRepository) IncrementABSent(ctx context.Context, testID int, variant models.Variant) error {
	m.Calls["IncrementABSent"]++
	if m.IncrementABSentFunc != nil {
		return m.IncrementABSentFunc(ctx, testID, variant)
	}
	return nil
}

func (m *MockCampaignRepository) IncrementABResponse(ctx context.Context, testID int, variant models.Variant) error {
	m.Calls["IncrementABResponse"]++
	if m.IncrementABRespFunc != nil {
		return m.IncrementABRespFunc(ctx, testID, variant)
	}
	return nil
}

// MockEnrollmentRepository mocks repository.EnrollmentRepository
type MockEnrollmentRepository struct {
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

func NewMockEnrollmentRepository() *MockEnrollmentRepository {
	return &MockEnrollmentRepository{Calls: make(map[string]int)}
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, enrollment)
	}
	enrollment.ID = m.Calls["Create"]
	return nil
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) Exists(ctx context.Context, campaignID int, phone string) (bool, error) {
	m.Calls["Exists"]++
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, campaignID, phone)
	}
	return false, nil
}

func (m *MockEnrollmentRepository) ListByCampaign(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error) {
	m.Calls["ListByCampaign"]++
	if m.ListByCampaignFunc != nil {
		return m.ListByCampaignFunc(ctx, campaignID, status, limit, offset)
	}
	return nil, 0, nil
}

func (m *MockEnrollmentRepository) ListSendable(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	m.Calls["ListSendable"]++
	if m.ListSendableFunc != nil {
		return m.ListSendableFunc(ctx, campaignID)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) ListRespondable(ctx context.Context, phone string, now time.Time) ([]*models.Enrollment, error) {
	m.Calls["ListRespondable"]++
	if m.ListRespondableFunc != nil {
		return m.ListRespondableFunc(ctx, phone, now)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) ListOverlapping(ctx context.Context, phones []string) (map[string][]string, error) {
	m.Calls["ListOverlapping"]++
	if m.ListOverlappingFunc != nil {
		return m.ListOverlappingFunc(ctx, phones)
	}
	return map[string][]string{}, nil
}

func (m *MockEnrollmentRepository) UpdateProgress(ctx context.Context, id, step, messageID int, at time.Time) error {
	m.Calls["UpdateProgress"]++
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, id, step, messageID, at)
	}
	return nil
}

func (m *MockEnrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	m.Calls["UpdateStatus"]++
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockEnrollmentRepository) RecordReply(ctx context.Context, id int, at time.Time) error {
	m.Calls["RecordReply"]++
	if m.RecordReplyFunc != nil {
		return m.RecordReplyFunc(ctx, id, at)
	}
	return nil
}

func (m *MockEnrollmentRepository) MarkOptedOut(ctx context.Context, id int, at time.Time, keyword string) error {
	m.Calls["MarkOptedOut"]++
	if m.MarkOptedOutFunc != nil {
		return m.MarkOptedOutFunc(ctx, id, at, keyword)
	}
	return nil
}

func (m *MockEnrollmentRepository) CountByStatus(ctx context.Context, campaignID int) (map[models.EnrollmentStatus]int, error) {
	m.Calls["CountByStatus"]++
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, campaignID)
	}
	return map[models.EnrollmentStatus]int{}, nil
}

func (m *MockEnrollmentRepository) CountResponded(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountResponded"]++
	if m.CountRespondedFunc != nil {
		return m.CountRespondedFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepository) CountSendable(ctx context.Context, campaignID int) (int, error) {
	m.Calls["CountSendable"]++
	if m.CountSendableFunc != nil {
		return m.CountSendableFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepository) Count(ctx context.Context, campaignID int) (int, error) {
	m.Calls["Count"]++
	if m.CountFunc != nil {
		return m.CountFunc(ctx, campaignID)
	}
	return 0, nil
}

func (m *MockEnrollmentRepository) CompleteActive(ctx context.Context, campaignID int) error {
	m.Calls["CompleteActive"]++
	if m.CompleteActiveFunc != nil {
		return m.CompleteActiveFunc(ctx, campaignID)
	}
	return nil
}

func (m *MockEnrollmentRepository) ListResponded(ctx context.Context, campaignID, limit int) ([]*models.Enrollment, error) {
	m.Calls["ListResponded"]++
	if m.ListRespondedFunc != nil {
		return m.ListRespondedFunc(ctx, campaignID, limit)
	}
	return nil, nil
}

func (m *MockEnrollmentRepository) ListOptedOut(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
	m.Calls["ListOptedOut"]++
	if m.ListOptedOutFunc != nil {
		return m.ListOptedOutFunc(ctx, campaignID)
	}
	return nil, nil
}

// MockSendRepository mocks repository.SendRepository
type MockSendRepository struct {
	CreateFunc               func(ctx context.Context, send *models.CampaignSend) error
	ExistsScheduledSinceFunc func(ctx context.Context, enrollmentID, messageID int, since time.Time) (bool, error)
	ExistsFollowupFunc       func(ctx context.Context, enrollmentID, messageID int) (bool, error)
	HasResponseFunc          func(ctx context.Context, enrollmentID, messageID int) (bool, error)
	MarkRespondedFunc        func(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error)
	CountByMessageFunc       func(ctx context.Context, messageID int) (int, error)
	SendStatsByCampaignFunc  func(ctx context.Context, campaignID int) (int, int, error)
	UpdateStatusBySIDFunc    func(ctx context.Context, providerSID string, status models.SendStatus) error

	Calls map[string]int
}

func NewMockSendRepository() *MockSendRepository {
	return &MockSendRepository{Calls: make(map[string]int)}
}

func (m *MockSendRepository) Create(ctx context.Context, send *models.CampaignSend) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, send)
	}
	send.ID = m.Calls["Create"]
	return nil
}

func (m *MockSendRepository) ExistsScheduledSince(ctx context.Context, enrollmentID, messageID int, since time.Time) (bool, error) {
	m.Calls["ExistsScheduledSince"]++
	if m.ExistsScheduledSinceFunc != nil {
		return m.ExistsScheduledSinceFunc(ctx, enrollmentID, messageID, since)
	}
	return false, nil
}

func (m *MockSendRepository) ExistsFollowup(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	m.Calls["ExistsFollowup"]++
	if m.ExistsFollowupFunc != nil {
		return m.ExistsFollowupFunc(ctx, enrollmentID, messageID)
	}
	return false, nil
}

func (m *MockSendRepository) HasResponse(ctx context.Context, enrollmentID, messageID int) (bool, error) {
	m.Calls["HasResponse"]++
	if m.HasResponseFunc != nil {
		return m.HasResponseFunc(ctx, enrollmentID, messageID)
	}
	return false, nil
}

func (m *MockSendRepository) MarkResponded(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error) {
	m.Calls["MarkResponded"]++
	if m.MarkRespondedFunc != nil {
		return m.MarkRespondedFunc(ctx, enrollmentID, messageID, at)
	}
	return true, nil
}

func (m *MockSendRepository) CountByMessage(ctx context.Context, messageID int) (int, error) {
	m.Calls["CountByMessage"]++
	if m.CountByMessageFunc != nil {
		return m.CountByMessageFunc(ctx, messageID)
	}
	return 0, nil
}

func (m *MockSendRepository) SendStatsByCampaign(ctx context.Context, campaignID int) (int, int, error) {
	m.Calls["SendStatsByCampaign"]++
	if m.SendStatsByCampaignFunc != nil {
		return m.SendStatsByCampaignFunc(ctx, campaignID)
	}
	return 0, 0, nil
}

func (m *MockSendRepository) UpdateStatusBySID(ctx context.Context, providerSID string, status models.SendStatus) error {
	m.Calls["UpdateStatusBySID"]++
	if m.UpdateStatusBySIDFunc != nil {
		return m.UpdateStatusBySIDFunc(ctx, providerSID, status)
	}
	return nil
}

// MockBulkRepository mocks repository.BulkRepository
type MockBulkRepository struct {
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

func NewMockBulkRepository() *MockBulkRepository {
	return &MockBulkRepository{Calls: make(map[string]int)}
}

func (m *MockBulkRepository) Create(ctx context.Context, msg *models.ScheduledBulkMessage) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	msg.ID = 1
	msg.CreatedAt = time.Now()
	return nil
}

func (m *MockBulkRepository) GetByID(ctx context.Context, id int) (*models.ScheduledBulkMessage, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockBulkRepository) List(ctx context.Context) ([]*models.ScheduledBulkMessage, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockBulkRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledBulkMessage, error) {
	m.Calls["ListDue"]++
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockBulkRepository) TransitionStatus(ctx context.Context, id int, from, to models.BulkStatus) (bool, error) {
	m.Calls["TransitionStatus"]++
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, id, from, to)
	}
	return true, nil
}

func (m *MockBulkRepository) IncrementCounters(ctx context.Context, id, sentDelta, failedDelta int) error {
	m.Calls["IncrementCounters"]++
	if m.IncrementCountersFunc != nil {
		return m.IncrementCountersFunc(ctx, id, sentDelta, failedDelta)
	}
	return nil
}

func (m *MockBulkRepository) Complete(ctx context.Context, id int, lastSentAt time.Time) error {
	m.Calls["Complete"]++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, id, lastSentAt)
	}
	return nil
}

func (m *MockBulkRepository) Fail(ctx context.Context, id int, reason string) error {
	m.Calls["Fail"]++
	if m.FailFunc != nil {
		return m.FailFunc(ctx, id, reason)
	}
	return nil
}

func (m *MockBulkRepository) Reschedule(ctx context.Context, id int, nextAt, lastSentAt time.Time) error {
	m.Calls["Reschedule"]++
	if m.RescheduleFunc != nil {
		return m.RescheduleFunc(ctx, id, nextAt, lastSentAt)
	}
	return nil
}

func (m *MockBulkRepository) SetScheduledAt(ctx context.Context, id int, at time.Time) error {
	m.Calls["SetScheduledAt"]++
	if m.SetScheduledAtFunc != nil {
		return m.SetScheduledAtFunc(ctx, id, at)
	}
	return nil
}

func (m *MockBulkRepository) FailStaleInProgress(ctx context.Context, reason string) (int, error) {
	m.Calls["FailStaleInProgress"]++
	if m.FailStaleInProgressFunc != nil {
		return m.FailStaleInProgressFunc(ctx, reason)
	}
	return 0, nil
}

// MockManualContactRepository mocks repository.ManualContactRepository
type MockManualContactRepository struct {
	CreateFunc       func(ctx context.Context, contact *models.ManualContact) error
	ListFunc         func(ctx context.Context) ([]*models.ManualContact, error)
	ListByPhonesFunc func(ctx context.Context, phones []string) ([]*models.ManualContact, error)
	DeleteFunc       func(ctx context.Context, id int) error

	Calls map[string]int
}

func NewMockManualContactRepository() *MockManualContactRepository {
	return &MockManualContactRepository{Calls: make(map[string]int)}
}

func (m *MockManualContactRepository) Create(ctx context.Context, contact *models.ManualContact) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contact)
	}
	contact.ID = 1
	return nil
}

func (m *MockManualContactRepository) List(ctx context.Context) ([]*models.ManualContact, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockManualContactRepository) ListByPhones(ctx context.Context, phones []string) ([]*models.ManualContact, error) {
	m.Calls["ListByPhones"]++
	if m.ListByPhonesFunc != nil {
		return m.ListByPhonesFunc(ctx, phones)
	}
	return nil, nil
}

func (m *MockManualContactRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockDirectory mocks the leads directory
type MockDirectory struct {
	ContactsByFilterFunc func(ctx context.Context, filter leads.Filter) ([]models.Contact, error)
	ContactsByPhonesFunc func(ctx context.Context, phones []string) ([]models.Contact, error)

	Calls map[string]int
}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{Calls: make(map[string]int)}
}

func (m *MockDirectory) ContactsByFilter(ctx context.Context, filter leads.Filter) ([]models.Contact, error) {
	m.Calls["ContactsByFilter"]++
	if m.ContactsByFilterFunc != nil {
		return m.ContactsByFilterFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockDirectory) ContactsByPhones(ctx context.Context, phones []string) ([]models.Contact, error) {
	m.Calls["ContactsByPhones"]++
	if m.ContactsByPhonesFunc != nil {
		return m.ContactsByPhonesFunc(ctx, phones)
	}
	return nil, nil
}
