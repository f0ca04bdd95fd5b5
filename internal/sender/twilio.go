package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender sends SMS through the Twilio REST API
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	// statusCallbackURL is the public URL Twilio posts delivery updates to.
	// Empty disables callbacks (local development has no reachable URL).
	statusCallbackURL string
	client            *http.Client
}

// NewTwilioSender creates a Twilio-backed sender. webhookBaseURL may be empty
// or point at localhost, in which case status callbacks are disabled.
func NewTwilioSender(accountSID, authToken, fromNumber, webhookBaseURL string) *TwilioSender {
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		client:     &http.Client{Timeout: 30 * time.Second},
	}

	if webhookBaseURL != "" && !strings.Contains(webhookBaseURL, "localhost") && !strings.Contains(webhookBaseURL, "127.0.0.1") {
		base := webhookBaseURL
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "https://" + base
		}
		s.statusCallbackURL = strings.TrimRight(base, "/") + "/api/webhook/status"
		logrus.WithField("url", s.statusCallbackURL).Info("twilio status callbacks enabled")
	} else {
		logrus.Info("twilio status callbacks disabled")
	}

	return s
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error description on failure
	Code    int    `json:"code"`
}

// Send posts the message to Twilio's Messages endpoint
func (s *TwilioSender) Send(ctx context.Context, phone, body string) (string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.fromNumber)
	form.Set("Body", body)
	if s.statusCallbackURL != "" {
		form.Set("StatusCallback", s.statusCallbackURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read twilio response: %w", err)
	}

	var tr twilioResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", fmt.Errorf("failed to decode twilio response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		return tr.SID, fmt.Errorf("twilio error %d: %s", tr.Code, tr.Message)
	}

	return tr.SID, nil
}
