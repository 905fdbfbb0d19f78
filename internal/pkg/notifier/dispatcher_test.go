package notifier

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/velora-shop/velora/app/models"
)

// scriptedTransport returns the queued errors in order, then succeeds.
type scriptedTransport struct {
	mu       sync.Mutex
	label    string
	errs     []error
	attempts int
	sent     []Message
}

func (s *scriptedTransport) Name() string { return s.label }

func (s *scriptedTransport) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *scriptedTransport) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *scriptedTransport) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

var errTransient = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

func testMessage() Message {
	return Message{To: "ada@example.com", Subject: "Your order VEL-000001 is confirmed", Body: "<p>ok</p>"}
}

func TestSend_RetriesTransientThenSucceeds(t *testing.T) {
	primary := &scriptedTransport{label: "primary", errs: []error{errTransient, errTransient}}
	d := NewDispatcher(primary, nil, "", 3, time.Millisecond)

	err := d.Send(testMessage())
	assert.NoError(t, err)
	assert.Equal(t, 3, primary.attemptCount())
	assert.Equal(t, 1, primary.sentCount())
}

func TestSend_FallbackAfterPrimaryExhausted(t *testing.T) {
	primary := &scriptedTransport{label: "primary", errs: []error{errTransient, errTransient, errTransient}}
	fallback := &scriptedTransport{label: "fallback"}
	d := NewDispatcher(primary, fallback, "", 3, time.Millisecond)

	err := d.Send(testMessage())
	assert.NoError(t, err)
	assert.Equal(t, 3, primary.attemptCount())
	assert.Equal(t, 1, fallback.sentCount())
}

// A permanent failure (e.g. auth reject) must not burn the retry budget; the
// dispatcher goes straight to the fallback.
func TestSend_PermanentFailureSkipsRetries(t *testing.T) {
	primary := &scriptedTransport{label: "primary", errs: []error{errors.New("535 authentication failed")}}
	fallback := &scriptedTransport{label: "fallback"}
	d := NewDispatcher(primary, fallback, "", 3, time.Millisecond)

	err := d.Send(testMessage())
	assert.NoError(t, err)
	assert.Equal(t, 1, primary.attemptCount())
	assert.Equal(t, 1, fallback.sentCount())
}

func TestSend_AllTransportsExhausted(t *testing.T) {
	primary := &scriptedTransport{label: "primary", errs: []error{errTransient, errTransient}}
	fallback := &scriptedTransport{label: "fallback", errs: []error{errors.New("550 mailbox unavailable")}}
	d := NewDispatcher(primary, fallback, "", 2, time.Millisecond)

	err := d.Send(testMessage())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all transports exhausted")
	assert.Equal(t, 0, primary.sentCount())
	assert.Equal(t, 0, fallback.sentCount())
}

func TestSend_NoFallbackConfigured(t *testing.T) {
	primary := &scriptedTransport{label: "primary", errs: []error{errors.New("554 rejected")}}
	d := NewDispatcher(primary, nil, "", 3, time.Millisecond)

	err := d.Send(testMessage())
	assert.Error(t, err)
	assert.Equal(t, 1, primary.attemptCount())
}

func TestDispatchOrderNotifications(t *testing.T) {
	primary := &scriptedTransport{label: "primary"}
	d := NewDispatcher(primary, nil, "admin@example.com", 1, time.Millisecond)

	userID := uint(42)
	order := &models.Order{
		UserID:           &userID,
		OrderNumber:      "VEL-000007",
		PaymentReference: "TEST_0007",
		Customer:         models.Customer{FullName: "Ada Obi", Email: "ada@example.com"},
		TotalAmount:      17000,
		TotalItems:       3,
	}

	d.DispatchOrderNotifications(order, false)
	assert.Eventually(t, func() bool { return primary.sentCount() == 2 }, time.Second, 5*time.Millisecond)

	primary.mu.Lock()
	recipients := map[string]string{}
	for _, m := range primary.sent {
		recipients[m.To] = m.Subject
	}
	primary.mu.Unlock()

	assert.Contains(t, recipients["ada@example.com"], "VEL-000007")
	assert.Contains(t, recipients["admin@example.com"], "New order VEL-000007")
}

func TestDispatchOrderNotifications_MismatchAlert(t *testing.T) {
	primary := &scriptedTransport{label: "primary"}
	d := NewDispatcher(primary, nil, "admin@example.com", 1, time.Millisecond)

	order := &models.Order{
		OrderNumber:      "VEL-000008",
		PaymentReference: "TEST_0008",
		TotalAmount:      17000,
		ChargedAmount:    25000,
		AmountMismatch:   true,
	}

	// No customer email: only the admin alert goes out.
	d.DispatchOrderNotifications(order, true)
	assert.Eventually(t, func() bool { return primary.sentCount() == 1 }, time.Second, 5*time.Millisecond)

	primary.mu.Lock()
	msg := primary.sent[0]
	primary.mu.Unlock()

	assert.Equal(t, "admin@example.com", msg.To)
	assert.Contains(t, msg.Subject, "AMOUNT MISMATCH on order VEL-000008")
	assert.Contains(t, msg.Body, "needs manual reconciliation")
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"broken pipe", syscall.EPIPE, true},
		{"dns timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, true},
		{"smtp auth reject", errors.New("535 authentication failed"), false},
		{"bad recipient", errors.New("550 mailbox unavailable"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}
