// Package sender abstracts outbound SMS delivery. The engine depends only on
// the Sender interface; the Twilio client and the simulated sender both
// satisfy it.
package sender

import (
	"context"

	"smsoutreach/internal/models"
)

// Sender delivers one SMS message. The returned provider ID identifies the
// message in later delivery-status callbacks. A non-nil error means the
// provider rejected the message; the ID may still be set when the provider
// assigned one before failing.
type Sender interface {
	Send(ctx context.Context, phone, body string) (providerID string, err error)
}

// MapProviderStatus maps a provider callback status string to a message log
// status. Unknown statuses map to pending so a new provider state never
// corrupts the log.
func MapProviderStatus(status string) models.MessageStatus {
	switch status {
	case "queued", "accepted", "sending":
		return models.MessageStatusPending
	case "sent":
		return models.MessageStatusSent
	case "delivered":
		return models.MessageStatusDelivered
	case "failed", "undelivered":
		return models.MessageStatusFailed
	}
	return models.MessageStatusPending
}

// MapSendStatus maps a provider callback status to a campaign send status.
// Sends only track the terminal delivery outcome, so intermediate provider
// states stay at sent.
func MapSendStatus(status string) models.SendStatus {
	switch status {
	case "delivered":
		return models.SendStatusDelivered
	case "failed", "undelivered":
		return models.SendStatusFailed
	}
	return models.SendStatusSent
}
