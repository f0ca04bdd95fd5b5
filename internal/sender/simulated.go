package sender

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedSender fakes SMS delivery for development and tests.
// successRate: probability of successful send (0.0 to 1.0).
type SimulatedSender struct {
	successRate float64
	mu          sync.Mutex
	rand        *rand.Rand
}

// NewSimulatedSender creates a simulated sender.
// Default success rate: 0.95 (95%).
func NewSimulatedSender(successRate float64) *SimulatedSender {
	if successRate < 0.0 {
		successRate = 0.0
	}
	if successRate > 1.0 {
		successRate = 1.0
	}

	return &SimulatedSender{
		successRate: successRate,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Send simulates a send attempt. Successful sends get a uuid-based provider
// ID so status callbacks can be exercised end to end.
func (s *SimulatedSender) Send(ctx context.Context, phone, body string) (string, error) {
	s.mu.Lock()
	latency := time.Duration(50+s.rand.Intn(150)) * time.Millisecond
	success := s.rand.Float64() < s.successRate
	var reason string
	if !success {
		failures := []string{
			"network timeout",
			"invalid phone number",
			"rate limit exceeded",
			"service temporarily unavailable",
			"insufficient balance",
		}
		reason = failures[s.rand.Intn(len(failures))]
	}
	s.mu.Unlock()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if !success {
		return "", fmt.Errorf("failed to send SMS to %s: %s", phone, reason)
	}

	return "SM" + uuid.NewString(), nil
}

// SetSuccessRate updates the success rate (for testing)
func (s *SimulatedSender) SetSuccessRate(rate float64) {
	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}
	s.mu.Lock()
	s.successRate = rate
	s.mu.Unlock()
}
