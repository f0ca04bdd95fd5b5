package repository

import (
	"context"
	"database/sql"
	"time"

	"smsoutreach/internal/models"
)

// CampaignRepository defines campaign, sequence message, and A/B test data access
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error)
	ListByStatus(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id int) error

	AddMessage(ctx context.Context, message *models.CampaignMessage) error
	GetMessage(ctx context.Context, id int) (*models.CampaignMessage, error)
	UpdateMessage(ctx context.Context, message *models.CampaignMessage) error
	DeleteMessage(ctx context.Context, id int) error
	ListMessages(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error)
	SetSequenceOrder(ctx context.Context, messageID, order int) error
	CountMessages(ctx context.Context, campaignID int) (int, error)
	HasABTestedMessage(ctx context.Context, campaignID int) (bool, error)

	UpsertABTest(ctx context.Context, test *models.ABTest) error
	GetABTestByMessage(ctx context.Context, messageID int) (*models.ABTest, error)
	DeleteABTest(ctx context.Context, messageID int) error
	IncrementABSent(ctx context.Context, testID int, variant models.Variant) error
	IncrementABResponse(ctx context.Context, testID int, variant models.Variant) error
}

// EnrollmentRepository defines enrollment data access
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id int) (*models.Enrollment, error)
	Exists(ctx context.Context, campaignID int, phone string) (bool, error)
	ListByCampaign(ctx context.Context, campaignID int, status *models.EnrollmentStatus, limit, offset int) ([]*models.Enrollment, int, error)
	ListSendable(ctx context.Context, campaignID int) ([]*models.Enrollment, error)
	ListRespondable(ctx context.Context, phone string, now time.Time) ([]*models.Enrollment, error)
	ListOverlapping(ctx context.Context, phones []string) (map[string][]string, error)
	UpdateProgress(ctx context.Context, id, step, messageID int, at time.Time) error
	UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error
	RecordReply(ctx context.Context, id int, at time.Time) error
	MarkOptedOut(ctx context.Context, id int, at time.Time, keyword string) error
	CountByStatus(ctx context.Context, campaignID int) (map[models.EnrollmentStatus]int, error)
	CountResponded(ctx context.Context, campaignID int) (int, error)
	CountSendable(ctx context.Context, campaignID int) (int, error)
	Count(ctx context.Context, campaignID int) (int, error)
	CompleteActive(ctx context.Context, campaignID int) error
	ListResponded(ctx context.Context, campaignID, limit int) ([]*models.Enrollment, error)
	ListOptedOut(ctx context.Context, campaignID int) ([]*models.Enrollment, error)
}

// SendRepository defines campaign send audit records. Sends are append-only;
// the only mutable bits are delivery status and response attribution.
type SendRepository interface {
	Create(ctx context.Context, send *models.CampaignSend) error
	ExistsScheduledSince(ctx context.Context, enrollmentID, messageID int, since time.Time) (bool, error)
	ExistsFollowup(ctx context.Context, enrollmentID, messageID int) (bool, error)
	HasResponse(ctx context.Context, enrollmentID, messageID int) (bool, error)
	MarkResponded(ctx context.Context, enrollmentID, messageID int, at time.Time) (bool, error)
	CountByMessage(ctx context.Context, messageID int) (int, error)
	SendStatsByCampaign(ctx context.Context, campaignID int) (sent int, failed int, err error)
	UpdateStatusBySID(ctx context.Context, providerSID string, status models.SendStatus) error
}

// BulkRepository defines scheduled bulk message data access
type BulkRepository interface {
	Create(ctx context.Context, msg *models.ScheduledBulkMessage) error
	GetByID(ctx context.Context, id int) (*models.ScheduledBulkMessage, error)
	List(ctx context.Context) ([]*models.ScheduledBulkMessage, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledBulkMessage, error)
	TransitionStatus(ctx context.Context, id int, from, to models.BulkStatus) (bool, error)
	IncrementCounters(ctx context.Context, id, sentDelta, failedDelta int) error
	Complete(ctx context.Context, id int, lastSentAt time.Time) error
	Fail(ctx context.Context, id int, reason string) error
	Reschedule(ctx context.Context, id int, nextAt, lastSentAt time.Time) error
	SetScheduledAt(ctx context.Context, id int, at time.Time) error
	FailStaleInProgress(ctx context.Context, reason string) (int, error)
}

// MessageLogRepository defines the flat SMS log
type MessageLogRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	UpdateStatusBySID(ctx context.Context, providerSID string, status models.MessageStatus) (bool, error)
	List(ctx context.Context, phone string, limit int) ([]*models.Message, error)
	ListByPhone(ctx context.Context, phone string) ([]*models.Message, error)
	Conversations(ctx context.Context) ([]*models.Conversation, error)
}

// TemplateRepository defines reusable message template storage
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *models.MessageTemplate) error
	List(ctx context.Context) ([]*models.MessageTemplate, error)
	Delete(ctx context.Context, id int) error
}

// ManualContactRepository defines manually added contact storage
type ManualContactRepository interface {
	Create(ctx context.Context, contact *models.ManualContact) error
	List(ctx context.Context) ([]*models.ManualContact, error)
	ListByPhones(ctx context.Context, phones []string) ([]*models.ManualContact, error)
	Delete(ctx context.Context, id int) error
}

// DB is a wrapper around *sql.DB to allow passing in transactions
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
