package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"smsoutreach/internal/models"
	"smsoutreach/internal/repository"
	"smsoutreach/internal/sender"
)

// MessageService handles the flat SMS log: manual sends, history,
// conversations, inbound logging and delivery-status callbacks.
type MessageService struct {
	messages  repository.MessageLogRepository
	sends     repository.SendRepository
	templates repository.TemplateRepository
	directory Directory
	sender    sender.Sender
	now       func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(
	messages repository.MessageLogRepository,
	sends repository.SendRepository,
	templates repository.TemplateRepository,
	directory Directory,
	snd sender.Sender,
) *MessageService {
	return &MessageService{
		messages:  messages,
		sends:     sends,
		templates: templates,
		directory: directory,
		sender:    snd,
		now:       time.Now,
	}
}

// SetClock overrides the service clock (for testing)
func (s *MessageService) SetClock(now func() time.Time) {
	s.now = now
}

// SendSMS sends one manual SMS and records it in the log. The returned
// message reflects the final status, sent or failed.
func (s *MessageService) SendSMS(ctx context.Context, phone, body string) (*models.Message, error) {
	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return nil, &ValidationError{Message: "invalid phone number"}
	}
	if body == "" {
		return nil, &ValidationError{Message: "message body is required"}
	}

	now := s.now()
	msg := &models.Message{
		PhoneNumber: normalized,
		Body:        body,
		Direction:   models.DirectionOutbound,
		Status:      models.MessageStatusPending,
	}

	sid, sendErr := s.sender.Send(ctx, normalized, body)
	if sendErr != nil {
		msg.Status = models.MessageStatusFailed
		errText := sendErr.Error()
		msg.ErrorMessage = &errText
	} else {
		msg.Status = models.MessageStatusSent
		msg.SentAt = &now
		if sid != "" {
			msg.ProviderSID = &sid
		}
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if sendErr != nil {
		logrus.WithError(sendErr).WithField("phone", normalized).Warn("manual send failed")
	}
	return msg, nil
}

// History lists recent messages, optionally filtered by phone
func (s *MessageService) History(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	if phone != "" {
		normalized := models.NormalizePhone(phone)
		if normalized == "" {
			return nil, &ValidationError{Message: "invalid phone number"}
		}
		phone = normalized
	}
	return s.messages.List(ctx, phone, limit)
}

// Conversations lists per-phone conversation summaries with directory
// contacts attached where known.
func (s *MessageService) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	convos, err := s.messages.Conversations(ctx)
	if err != nil {
		return nil, err
	}
	if len(convos) == 0 {
		return convos, nil
	}

	phones := make([]string, 0, len(convos))
	for _, c := range convos {
		phones = append(phones, c.PhoneNumber)
	}
	contacts, err := s.directory.ContactsByPhones(ctx, phones)
	if err != nil {
		// Conversations still render without contact names; the leads DB
		// being down must not take the inbox with it.
		logrus.WithError(err).Warn("failed to resolve conversation contacts")
		return convos, nil
	}

	byPhone := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		byPhone[c.Phone] = c
	}
	for _, convo := range convos {
		if contact, ok := byPhone[convo.PhoneNumber]; ok {
			c := contact
			convo.Contact = &c
		}
	}
	return convos, nil
}

// ConversationMessages lists the full message history with one phone number
func (s *MessageService) ConversationMessages(ctx context.Context, phone string) ([]*models.Message, error) {
	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return nil, &ValidationError{Message: "invalid phone number"}
	}
	return s.messages.ListByPhone(ctx, normalized)
}

// RecordInbound logs an inbound SMS in the message log
func (s *MessageService) RecordInbound(ctx context.Context, phone, body, providerSID string, at time.Time) (*models.Message, error) {
	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return nil, &ValidationError{Message: "invalid phone number"}
	}

	msg := &models.Message{
		PhoneNumber: normalized,
		Body:        body,
		Direction:   models.DirectionInbound,
		Status:      models.MessageStatusReceived,
		SentAt:      &at,
	}
	if providerSID != "" {
		msg.ProviderSID = &providerSID
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ApplyDeliveryStatus applies a provider status callback to the message log
// and to any campaign send carrying the same provider SID.
func (s *MessageService) ApplyDeliveryStatus(ctx context.Context, providerSID, providerStatus string) error {
	if providerSID == "" {
		return &ValidationError{Message: "provider sid is required"}
	}

	updated, err := s.messages.UpdateStatusBySID(ctx, providerSID, sender.MapProviderStatus(providerStatus))
	if err != nil {
		return err
	}
	if err := s.sends.UpdateStatusBySID(ctx, providerSID, sender.MapSendStatus(providerStatus)); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"provider_sid": providerSID,
		"status":       providerStatus,
		"known":        updated,
	}).Debug("delivery status applied")
	return nil
}

// CreateTemplate stores a reusable message body
func (s *MessageService) CreateTemplate(ctx context.Context, tmpl *models.MessageTemplate) error {
	if tmpl.Name == "" {
		return &ValidationError{Message: "template name is required"}
	}
	if tmpl.Body == "" {
		return &ValidationError{Message: "template body is required"}
	}
	return s.templates.Create(ctx, tmpl)
}

// ListTemplates lists stored message templates
func (s *MessageService) ListTemplates(ctx context.Context) ([]*models.MessageTemplate, error) {
	return s.templates.List(ctx)
}

// DeleteTemplate removes a stored template
func (s *MessageService) DeleteTemplate(ctx context.Context, id int) error {
	return s.templates.Delete(ctx, id)
}
